// Package storagetest: хранилище в памяти для тестов обхода и записи
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"consumidor-reports-parser/internal/storage"
)

var ErrUnavailable = errors.New("store unavailable")

type FakeRepository struct {
	// FailFirst первых вызовов InsertReport возвращают ErrUnavailable
	FailFirst int
	// FailCompany: документы этой компании не записываются никогда
	FailCompany string
	// Delay: задержка каждой записи
	Delay time.Duration

	mu     sync.Mutex
	docs   map[string]*storage.ReportDocument
	calls  int
	closed bool
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{docs: make(map[string]*storage.ReportDocument)}
}

func (f *FakeRepository) InsertReport(ctx context.Context, doc *storage.ReportDocument) (bool, error) {
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.FailFirst || (f.FailCompany != "" && doc.CompanyName == f.FailCompany) {
		return false, ErrUnavailable
	}

	if _, ok := f.docs[doc.Fingerprint]; ok {
		return false, nil
	}
	cp := *doc
	f.docs[doc.Fingerprint] = &cp
	return true, nil
}

func (f *FakeRepository) CountReports(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

func (f *FakeRepository) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Documents: копия сохранённых документов
func (f *FakeRepository) Documents() []*storage.ReportDocument {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*storage.ReportDocument, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out
}

func (f *FakeRepository) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeRepository) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
