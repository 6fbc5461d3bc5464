package crawl

import (
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageSize: столько карточек сайт отдаёт за один запрос
const DefaultPageSize = 10

// CrawlState: позиция обхода. Offset только растёт.
type CrawlState struct {
	Offset int
}

// Request: описание запроса, который выполняет fetcher
type Request struct {
	Method string
	URL    string
	Form   url.Values
}

type StopReason string

const (
	ReasonExhausted StopReason = "exhausted"
	ReasonMaxOffset StopReason = "max_offset"
)

// Outcome: итог Advance: продолжать или остановиться и почему
type Outcome struct {
	Done   bool
	Reason StopReason
}

type DriverConfig struct {
	ListingURL    string
	OriginURL     string // страница, с которой сайт выдаёт сессионные cookie
	OffsetField   string
	KeywordsField string
	PageSize      int
	MaxOffset     int // 0: без ограничения
}

type Driver struct {
	cfg DriverConfig
}

func NewDriver(cfg DriverConfig) *Driver {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.OffsetField == "" {
		cfg.OffsetField = "firstResultIndex"
	}
	if cfg.KeywordsField == "" {
		cfg.KeywordsField = "keywords"
	}
	return &Driver{cfg: cfg}
}

func (d *Driver) PageSize() int {
	return d.cfg.PageSize
}

// Start: начальное состояние обхода
func (d *Driver) Start() CrawlState {
	return CrawlState{Offset: 0}
}

// WarmupRequest: GET страницы-источника перед первой страницей листинга.
// ok=false, если origin не задан.
func (d *Driver) WarmupRequest() (Request, bool) {
	if d.cfg.OriginURL == "" {
		return Request{}, false
	}
	return Request{Method: http.MethodGet, URL: d.cfg.OriginURL}, true
}

// NextRequest строит POST формы листинга для текущего смещения.
// Ключевые слова всегда пустые: обходим весь листинг.
func (d *Driver) NextRequest(state CrawlState) Request {
	form := url.Values{}
	form.Set(d.cfg.OffsetField, strconv.Itoa(state.Offset))
	form.Set(d.cfg.KeywordsField, "")

	return Request{
		Method: http.MethodPost,
		URL:    d.cfg.ListingURL,
		Form:   form,
	}
}

// Advance решает, есть ли следующая страница.
// Пустая страница на offset 0 не останавливает обход: первая страница
// может вернуться пустой до прогрева сессии.
func (d *Driver) Advance(state CrawlState, cardsFound int) (CrawlState, Outcome) {
	if cardsFound == 0 && state.Offset > 0 {
		return state, Outcome{Done: true, Reason: ReasonExhausted}
	}

	next := CrawlState{Offset: state.Offset + d.cfg.PageSize}
	if d.cfg.MaxOffset > 0 && next.Offset > d.cfg.MaxOffset {
		return state, Outcome{Done: true, Reason: ReasonMaxOffset}
	}

	return next, Outcome{}
}
