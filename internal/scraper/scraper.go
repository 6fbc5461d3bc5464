package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"consumidor-reports-parser/internal/normalize"
)

// Correlation определяет, как группы узлов сопоставляются с карточками.
//
// positional: каждая группа (тексты "Relato", "Resposta", оценки, дата/место)
// выбирается по всей странице, и карточке i достаётся i-й элемент группы.
// Если у какой-то карточки нет блока, все следующие карточки получают чужие
// данные, а последние остаются без значения.
//
// scoped: группы выбираются внутри поддерева самой карточки.
type Correlation string

const (
	CorrelationScoped     Correlation = "scoped"
	CorrelationPositional Correlation = "positional"
)

type Options struct {
	Correlation Correlation
	DateLayout  string
}

type Scraper struct {
	selectors *Selectors
	opts      Options

	companyPipe  normalize.Pipeline[string]
	statusPipe   normalize.Pipeline[string]
	reportPipe   normalize.Pipeline[string]
	responsePipe normalize.Pipeline[string]
	feedbackPipe normalize.Pipeline[string]
	ratingPipe   normalize.Pipeline[int]
	datePipe     normalize.Pipeline[time.Time]
}

func NewScraper(selectors *Selectors, opts Options) *Scraper {
	if selectors == nil {
		selectors = DefaultSelectors()
	}
	if opts.Correlation == "" {
		opts.Correlation = CorrelationScoped
	}
	if opts.DateLayout == "" {
		opts.DateLayout = normalize.DateLayout
	}

	return &Scraper{
		selectors:    selectors,
		opts:         opts,
		companyPipe:  normalize.LinePipeline("company_name", true),
		statusPipe:   normalize.LinePipeline("status", true),
		reportPipe:   normalize.TextPipeline("user_report", false),
		responsePipe: normalize.TextPipeline("company_response", false),
		feedbackPipe: normalize.TextPipeline("user_feedback", false),
		ratingPipe:   normalize.RatingPipeline("user_rating"),
		datePipe:     normalize.DatePipeline("report_date", opts.DateLayout),
	}
}

// field: значение из группы узлов; ok=false, если у карточки элемента нет
type field struct {
	value string
	ok    bool
}

type rawCard struct {
	companyName     string
	status          string
	userReport      field
	companyResponse field
	userFeedback    field
	userRating      field
	dateLocation    field
}

// nodeGroups: независимо выбранные группы текстов, в порядке документа
type nodeGroups struct {
	reportBlocks  int
	reports       []string
	responses     []string
	ratings       []string
	feedbacks     []string
	dateLocations []string
}

// Extract разбирает страницу листинга в отчёты.
// Ошибка возвращается только для страницы целиком (битый HTML, изменившаяся
// разметка); проблемы отдельных карточек попадают в PageResult.Dropped.
func (s *Scraper) Extract(page string) (*PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards := doc.Find(s.selectors.Card)
	result := &PageResult{CardsFound: cards.Length()}
	if result.CardsFound == 0 {
		return result, nil
	}

	pageGroups := s.collectGroups(doc.Selection)
	if pageGroups.reportBlocks == 0 {
		return nil, &MarkupShapeError{Group: s.selectors.ReportLabel, CardsFound: result.CardsFound}
	}
	if len(pageGroups.dateLocations) == 0 {
		return nil, &MarkupShapeError{Group: "date_location", CardsFound: result.CardsFound}
	}

	cards.Each(func(i int, card *goquery.Selection) {
		raw := s.rawCard(i, card, pageGroups)

		report, drop := s.build(i, raw)
		if drop != nil {
			result.Dropped = append(result.Dropped, *drop)
			return
		}
		result.Reports = append(result.Reports, report)
	})

	return result, nil
}

func (s *Scraper) rawCard(i int, card *goquery.Selection, page nodeGroups) rawCard {
	// Название компании и статус всегда из самой карточки
	raw := rawCard{
		companyName: card.Find(s.selectors.CompanyName).First().Text(),
		status:      card.Find(s.selectors.Status).First().Text(),
	}

	if s.opts.Correlation == CorrelationPositional {
		raw.userReport = at(page.reports, i)
		raw.companyResponse = at(page.responses, i)
		raw.userFeedback = at(page.feedbacks, i)
		raw.userRating = at(page.ratings, i)
		raw.dateLocation = at(page.dateLocations, i)
		return raw
	}

	own := s.collectGroups(card)
	raw.userReport = joined(own.reports)
	raw.companyResponse = joined(own.responses)
	raw.userFeedback = joined(own.feedbacks)
	raw.userRating = at(own.ratings, 0)
	raw.dateLocation = at(own.dateLocations, 0)
	return raw
}

func (s *Scraper) build(i int, raw rawCard) (*Report, *Drop) {
	company, err := s.companyPipe.Apply(raw.companyName)
	if err != nil {
		return nil, &Drop{Index: i, Reason: DropMissingCompany, Err: err}
	}

	status, err := s.statusPipe.Apply(raw.status)
	if err != nil {
		return nil, &Drop{Index: i, Reason: DropMissingStatus, Err: err}
	}

	if !raw.dateLocation.ok {
		return nil, &Drop{Index: i, Reason: DropMissingDateLocation}
	}

	// "dd/mm/yyyy, Cidade - UF"
	datePart, locationPart, err := normalize.SplitCompound(raw.dateLocation.value, ",")
	if err != nil {
		return nil, &Drop{Index: i, Reason: DropMalformedDateLoc, Err: err}
	}

	reportDate, err := s.datePipe.Apply(datePart)
	if err != nil {
		return nil, &Drop{Index: i, Reason: DropBadDate, Err: err}
	}

	city, state, err := normalize.SplitCompound(locationPart, " - ")
	if err != nil {
		return nil, &Drop{Index: i, Reason: DropMalformedLocation, Err: err}
	}

	report := &Report{
		CompanyName: company,
		Status:      status,
		ReportDate:  reportDate,
		City:        normalize.Trim(normalize.CollapseSpaces(city)),
		State:       normalize.Trim(normalize.CollapseSpaces(state)),
		SequenceNum: i,
	}

	// Необязательные поля: ошибка оставляет поле пустым, отчёт не отбрасывается
	report.UserReport = s.optionalText(s.reportPipe, raw.userReport)
	report.CompanyResponse = s.optionalText(s.responsePipe, raw.companyResponse)
	report.UserFeedback = s.optionalText(s.feedbackPipe, raw.userFeedback)
	if raw.userRating.ok {
		if rating, err := s.ratingPipe.Apply(raw.userRating.value); err == nil {
			report.UserRating = &rating
		}
	}

	return report, nil
}

func (s *Scraper) optionalText(p normalize.Pipeline[string], f field) string {
	if !f.ok {
		return ""
	}
	v, err := p.Apply(f.value)
	if err != nil {
		return ""
	}
	return v
}

func (s *Scraper) collectGroups(root *goquery.Selection) nodeGroups {
	reportBlocks := s.labeledBlocks(root, s.selectors.ReportLabel)
	feedbackBlocks := s.labeledBlocks(root, s.selectors.FeedbackLabel)

	return nodeGroups{
		reportBlocks:  reportBlocks.Length(),
		reports:       s.blockTexts(reportBlocks, -1),
		responses:     s.blockTexts(s.labeledBlocks(root, s.selectors.ResponseLabel), -1),
		ratings:       s.blockTexts(feedbackBlocks, 0),
		feedbacks:     s.blockTexts(feedbackBlocks, 1),
		dateLocations: s.dateLocations(reportBlocks),
	}
}

// labeledBlocks находит блоки, у которых дочерний BlockLabel равен label
func (s *Scraper) labeledBlocks(root *goquery.Selection, label string) *goquery.Selection {
	return root.Find(s.selectors.LabeledBlock).FilterFunction(func(_ int, block *goquery.Selection) bool {
		matched := false
		block.ChildrenFiltered(s.selectors.BlockLabel).EachWithBreak(func(_ int, l *goquery.Selection) bool {
			matched = normalize.Trim(l.Text()) == label
			return !matched
		})
		return matched
	})
}

// blockTexts собирает текстовые узлы параграфов блоков.
// nth >= 0 берёт только nth-й параграф каждого блока.
func (s *Scraper) blockTexts(blocks *goquery.Selection, nth int) []string {
	var out []string
	blocks.Each(func(_ int, block *goquery.Selection) {
		paragraphs := block.ChildrenFiltered(s.selectors.BlockText)
		if nth >= 0 {
			paragraphs = paragraphs.Eq(nth)
		}
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			out = append(out, ownTexts(p)...)
		})
	})
	return out
}

// dateLocations: текст span с иконкой внутри блока "Relato", пустые узлы пропускаются
func (s *Scraper) dateLocations(reportBlocks *goquery.Selection) []string {
	var out []string
	reportBlocks.ChildrenFiltered(s.selectors.DateLocationSpan).
		Has(s.selectors.DateLocationMarker).
		Each(func(_ int, span *goquery.Selection) {
			for _, text := range ownTexts(span) {
				if strings.TrimSpace(text) != "" {
					out = append(out, text)
				}
			}
		})
	return out
}

// ownTexts: собственные текстовые узлы элемента, без потомков
func ownTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if len(c.Nodes) > 0 && c.Nodes[0].Type == html.TextNode {
			out = append(out, c.Nodes[0].Data)
		}
	})
	return out
}

func at(group []string, i int) field {
	if i < 0 || i >= len(group) {
		return field{}
	}
	return field{value: group[i], ok: true}
}

func joined(group []string) field {
	if len(group) == 0 {
		return field{}
	}
	return field{value: strings.Join(group, " "), ok: true}
}
