package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"consumidor-reports-parser/internal/normalize"
	"consumidor-reports-parser/internal/scraper"
)

// ErrInvalidCollection: имя коллекции/таблицы не прошло проверку
var ErrInvalidCollection = errors.New("invalid collection name")

var collectionRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ReportDocument: отчёт в том виде, в каком он лежит в хранилище.
// Ключ документа: fingerprint, поэтому повторная запись ничего не меняет.
type ReportDocument struct {
	Fingerprint     string    `json:"_id" bson:"_id"`
	CompanyName     string    `json:"company_name" bson:"company_name"`
	UserReport      string    `json:"user_report" bson:"user_report"`
	CompanyResponse string    `json:"company_response,omitempty" bson:"company_response,omitempty"`
	Status          string    `json:"status" bson:"status"`
	UserFeedback    string    `json:"user_feedback,omitempty" bson:"user_feedback,omitempty"`
	UserRating      *int      `json:"user_rating,omitempty" bson:"user_rating,omitempty"`
	Date            int64     `json:"date" bson:"date"` // epoch ms, UTC полночь
	City            string    `json:"city" bson:"city"`
	State           string    `json:"state" bson:"state"`
	CrawledAt       time.Time `json:"crawled_at" bson:"crawled_at"`
}

func NewReportDocument(r *scraper.Report, fingerprint string, crawledAt time.Time) *ReportDocument {
	return &ReportDocument{
		Fingerprint:     fingerprint,
		CompanyName:     r.CompanyName,
		UserReport:      r.UserReport,
		CompanyResponse: r.CompanyResponse,
		Status:          r.Status,
		UserFeedback:    r.UserFeedback,
		UserRating:      r.UserRating,
		Date:            normalize.EpochMillis(r.ReportDate),
		City:            r.City,
		State:           r.State,
		CrawledAt:       crawledAt.UTC(),
	}
}

// Repository интерфейс для работы с хранилищем отчётов
type Repository interface {
	// InsertReport пишет документ, если его ещё нет. inserted=false: дубликат.
	InsertReport(ctx context.Context, doc *ReportDocument) (inserted bool, err error)

	// CountReports количество сохранённых отчётов
	CountReports(ctx context.Context) (int, error)

	Close() error
}

// ValidateCollection проверяет имя, которое подставляется в SQL как идентификатор
func ValidateCollection(name string) error {
	if !collectionRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}
