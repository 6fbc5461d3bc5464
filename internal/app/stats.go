package app

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"consumidor-reports-parser/internal/crawl"
	"consumidor-reports-parser/internal/persist"
	"consumidor-reports-parser/internal/scraper"
)

type Status string

const (
	StatusCompleted                    Status = "completed"
	StatusCompletedWithDrops           Status = "completed_with_drops"
	StatusCompletedWithPersistFailures Status = "completed_with_persist_failures"
	StatusFailed                       Status = "failed"
)

// ExitCode: код выхода процесса для статуса запуска
func (s Status) ExitCode() int {
	switch s {
	case StatusCompleted:
		return 0
	case StatusCompletedWithDrops:
		return 2
	case StatusCompletedWithPersistFailures:
		return 3
	default:
		return 1
	}
}

// CrawlStats: итог одного обхода
type CrawlStats struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	CardsFound int
	Records    int
	Drops      map[scraper.DropReason]int
	Persist    persist.Summary
	StopReason crawl.StopReason
	Status     Status
	Err        error
}

func newCrawlStats(runID string, startedAt time.Time) *CrawlStats {
	return &CrawlStats{
		RunID:     runID,
		StartedAt: startedAt,
		Drops:     make(map[scraper.DropReason]int),
	}
}

func (s *CrawlStats) TotalDrops() int {
	total := 0
	for _, n := range s.Drops {
		total += n
	}
	return total
}

// finish выставляет статус: ошибка обхода важнее сбоев записи, сбои записи важнее отброшенных карточек
func (s *CrawlStats) finish(err error, finishedAt time.Time) {
	s.FinishedAt = finishedAt
	s.Err = err

	switch {
	case err != nil:
		s.Status = StatusFailed
	case s.Persist.Failed > 0:
		s.Status = StatusCompletedWithPersistFailures
	case s.TotalDrops() > 0:
		s.Status = StatusCompletedWithDrops
	default:
		s.Status = StatusCompleted
	}
}

func (s *CrawlStats) LogFields() []any {
	fields := []any{
		"run_id", s.RunID,
		"status", string(s.Status),
		"stop_reason", string(s.StopReason),
		"pages", s.Pages,
		"cards_found", s.CardsFound,
		"records", s.Records,
		"dropped", s.TotalDrops(),
		"submitted", s.Persist.Submitted,
		"written", s.Persist.Written,
		"duplicates", s.Persist.Duplicates,
		"skipped_today", s.Persist.SkippedToday,
		"persist_failed", s.Persist.Failed,
		"cancelled", s.Persist.Cancelled,
		"duration", s.FinishedAt.Sub(s.StartedAt).String(),
	}
	if s.Err != nil {
		fields = append(fields, "error", s.Err.Error())
	}
	return fields
}

// RenderStats печатает итог обхода таблицей
func RenderStats(w io.Writer, s *CrawlStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("run " + s.RunID)
	t.AppendHeader(table.Row{"Metric", "Value"})

	t.AppendRows([]table.Row{
		{"status", s.Status},
		{"stop reason", valueOrDash(string(s.StopReason))},
		{"pages", s.Pages},
		{"cards found", s.CardsFound},
		{"records", s.Records},
	})

	reasons := make([]string, 0, len(s.Drops))
	for reason := range s.Drops {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		t.AppendRow(table.Row{"dropped: " + reason, s.Drops[scraper.DropReason(reason)]})
	}

	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"submitted", s.Persist.Submitted},
		{"written", s.Persist.Written},
		{"duplicates", s.Persist.Duplicates},
		{"skipped (processing day)", s.Persist.SkippedToday},
		{"persist failed", s.Persist.Failed},
		{"cancelled", s.Persist.Cancelled},
	})

	t.AppendSeparator()
	t.AppendRow(table.Row{"duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)})
	if s.Err != nil {
		t.AppendRow(table.Row{"error", s.Err.Error()})
	}
	for _, perr := range s.Persist.Errors {
		t.AppendRow(table.Row{"persist error", fmt.Sprintf("%s: %v", perr.CompanyName, perr.Err)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
