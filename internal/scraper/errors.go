package scraper

import "fmt"

// MarkupShapeError: карточки есть, но ожидаемой группы узлов нет на странице вообще.
// Значит, разметка сайта изменилась: продолжать обход бессмысленно.
type MarkupShapeError struct {
	Group      string
	CardsFound int
}

func (e *MarkupShapeError) Error() string {
	return fmt.Sprintf("markup shape changed: %d cards but no %q nodes on page", e.CardsFound, e.Group)
}

// DropReason: почему карточка не стала отчётом
type DropReason string

const (
	DropMissingCompany      DropReason = "missing_company_name"
	DropMissingStatus       DropReason = "missing_status"
	DropMissingDateLocation DropReason = "missing_date_location"
	DropMalformedDateLoc    DropReason = "malformed_date_location"
	DropBadDate             DropReason = "bad_report_date"
	DropMalformedLocation   DropReason = "malformed_location"
)

// Drop: отброшенная карточка (не фатально, идёт в статистику)
type Drop struct {
	Index  int
	Reason DropReason
	Err    error
}

func (d Drop) Error() string {
	if d.Err == nil {
		return fmt.Sprintf("card %d dropped: %s", d.Index, d.Reason)
	}
	return fmt.Sprintf("card %d dropped: %s: %v", d.Index, d.Reason, d.Err)
}
