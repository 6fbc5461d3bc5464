package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateLayout: формат даты на карточке ("dd/mm/yyyy")
const DateLayout = "02/01/2006"

var (
	spacesRe = regexp.MustCompile(`\s+`)
	digitsRe = regexp.MustCompile(`[0-9]+`)
)

// ParseError возвращается, когда сырое значение не приводится к нужному типу
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Value, e.Reason)
}

// Trim убирает пробелы по краям (NBSP тоже) и приводит строку к NFC.
// Переносы строк внутри текста сохраняются.
func Trim(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// CollapseSpaces заменяет любые серии пробелов, переносов и NBSP одним пробелом.
// Только для однострочных полей: компания, статус, город, штат.
func CollapseSpaces(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	return spacesRe.ReplaceAllString(s, " ")
}

// DigitsToInt берёт первую непрерывную группу цифр: "Nota 8" → 8
func DigitsToInt(s string) (int, error) {
	run := digitsRe.FindString(s)
	if run == "" {
		return 0, &ParseError{Value: s, Reason: "no digits"}
	}

	n, err := strconv.Atoi(run)
	if err != nil {
		return 0, &ParseError{Value: s, Reason: err.Error()}
	}
	return n, nil
}

// ParseDate парсит дату по layout и возвращает полночь UTC
func ParseDate(s, layout string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &ParseError{Value: s, Reason: "expected layout " + layout}
	}
	return t, nil
}

// FormatDate: обратное к ParseDate
func FormatDate(t time.Time, layout string) string {
	return t.UTC().Format(layout)
}

// EpochMillis: представление даты в документе (миллисекунды от эпохи)
func EpochMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromEpochMillis: обратное к EpochMillis
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// SplitCompound делит строку ровно на две части по sep.
// Части не обрезаются: "a, b" по "," даёт ("a", " b").
func SplitCompound(s, sep string) (string, string, error) {
	if sep == "" {
		return "", "", &ParseError{Value: s, Reason: "empty separator"}
	}
	if n := strings.Count(s, sep); n != 1 {
		return "", "", &ParseError{Value: s, Reason: fmt.Sprintf("expected exactly one %q, got %d", sep, n)}
	}

	left, right, _ := strings.Cut(s, sep)
	return left, right, nil
}
