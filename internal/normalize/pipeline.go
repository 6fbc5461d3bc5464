package normalize

import (
	"errors"
	"time"
)

// Pipeline: упорядоченная цепочка чистых преобразований одного поля.
// Каждое поле отчёта проходит свою цепочку: trim, затем парсинг.
type Pipeline[T any] struct {
	Field string
	steps []func(string) (string, error)
	final func(string) (T, error)
}

// Apply прогоняет значение через шаги и финальный парсер.
// Ошибка всегда *ParseError с заполненным Field.
func (p Pipeline[T]) Apply(raw string) (T, error) {
	var zero T
	v := raw
	for _, step := range p.steps {
		var err error
		if v, err = step(v); err != nil {
			return zero, p.withField(err)
		}
	}

	out, err := p.final(v)
	if err != nil {
		return zero, p.withField(err)
	}
	return out, nil
}

func (p Pipeline[T]) withField(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		cp := *pe
		cp.Field = p.Field
		return &cp
	}
	return &ParseError{Field: p.Field, Reason: err.Error()}
}

func trimStep(s string) (string, error) {
	return Trim(s), nil
}

func collapseStep(s string) (string, error) {
	return CollapseSpaces(s), nil
}

func nonEmpty(s string) (string, error) {
	if s == "" {
		return "", &ParseError{Value: s, Reason: "empty"}
	}
	return s, nil
}

func identity(s string) (string, error) {
	return s, nil
}

// TextPipeline: trim. Для обязательных полей пустая строка: ошибка.
func TextPipeline(field string, required bool) Pipeline[string] {
	steps := []func(string) (string, error){trimStep}
	if required {
		steps = append(steps, nonEmpty)
	}
	return Pipeline[string]{Field: field, steps: steps, final: identity}
}

// LinePipeline: trim → одна строка. Для названий и статусов, где перенос
// строки в разметке не несёт смысла.
func LinePipeline(field string, required bool) Pipeline[string] {
	steps := []func(string) (string, error){trimStep, collapseStep}
	if required {
		steps = append(steps, nonEmpty)
	}
	return Pipeline[string]{Field: field, steps: steps, final: identity}
}

// RatingPipeline: trim → первая группа цифр
func RatingPipeline(field string) Pipeline[int] {
	return Pipeline[int]{
		Field: field,
		steps: []func(string) (string, error){trimStep},
		final: DigitsToInt,
	}
}

// DatePipeline: trim → дата по layout (UTC полночь)
func DatePipeline(field, layout string) Pipeline[time.Time] {
	if layout == "" {
		layout = DateLayout
	}
	return Pipeline[time.Time]{
		Field: field,
		steps: []func(string) (string, error){trimStep},
		final: func(s string) (time.Time, error) { return ParseDate(s, layout) },
	}
}
