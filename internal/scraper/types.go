package scraper

import "time"

// Report: нормализованный отчёт с одной карточки
type Report struct {
	CompanyName     string
	UserReport      string
	CompanyResponse string
	Status          string
	UserFeedback    string
	UserRating      *int // nil, если оценки ещё нет
	ReportDate      time.Time
	City            string
	State           string
	SequenceNum     int // позиция карточки на странице
}

// WellFormed: обязательны company_name, status и report_date
func (r *Report) WellFormed() bool {
	return r.CompanyName != "" && r.Status != "" && !r.ReportDate.IsZero()
}

// PageResult: результат разбора одной страницы листинга.
// CardsFound учитывает и отброшенные карточки: по нему решается пагинация.
type PageResult struct {
	Reports    []*Report
	CardsFound int
	Dropped    []Drop
}

// Selectors описывает разметку карточки.
// Блоки "Relato"/"Resposta"/"Avaliação": это LabeledBlock, у которого дочерний
// BlockLabel содержит ровно текст метки.
type Selectors struct {
	Card               string `yaml:"card"`
	CompanyName        string `yaml:"company_name"`
	Status             string `yaml:"status"`
	LabeledBlock       string `yaml:"labeled_block"`
	BlockLabel         string `yaml:"block_label"`
	BlockText          string `yaml:"block_text"`
	ReportLabel        string `yaml:"report_label"`
	ResponseLabel      string `yaml:"response_label"`
	FeedbackLabel      string `yaml:"feedback_label"`
	DateLocationSpan   string `yaml:"date_location_span"`
	DateLocationMarker string `yaml:"date_location_marker"`
}

// DefaultSelectors: разметка consumidor.gov.br
func DefaultSelectors() *Selectors {
	return &Selectors{
		Card:               "div.cartao-relato",
		CompanyName:        ".relatos-nome-empresa > a",
		Status:             "h4.relatos-status",
		LabeledBlock:       "div",
		BlockLabel:         "strong",
		BlockText:          "p",
		ReportLabel:        "Relato",
		ResponseLabel:      "Resposta",
		FeedbackLabel:      "Avaliação",
		DateLocationSpan:   "span",
		DateLocationMarker: `i[class*="glyphicon"]`,
	}
}
