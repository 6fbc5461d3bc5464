package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Banco XPTO  ", "Banco XPTO"},
		{"\n\tResolvida\n", "Resolvida"},
		{"\u00A0Texto\u00A0com\u00A0NBSP\u00A0", "Texto\u00A0com\u00A0NBSP"},
		{" Primeiro parágrafo.\n\nSegundo   parágrafo. ", "Primeiro parágrafo.\n\nSegundo   parágrafo."},
		// "a" + combining tilde → "ã"
		{"Sa\u0303o Paulo", "S\u00e3o Paulo"},
		{"", ""},
	}

	for _, tt := range tests {
		result := Trim(tt.input)
		if result != tt.expected {
			t.Errorf("Trim(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "muitos espaços aqui", CollapseSpaces("muitos    espaços\n\naqui"))
	assert.Equal(t, "Texto com NBSP", CollapseSpaces("Texto\u00A0com\u00A0NBSP"))
	assert.Equal(t, " Banco XPTO ", CollapseSpaces("\n Banco\tXPTO\n"))
}

func TestDigitsToInt(t *testing.T) {
	n, err := DigitsToInt("Nota 8")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = DigitsToInt("Nota 10")
	require.NoError(t, err)
	assert.Equal(t, 10, n, "first contiguous run, not first digit")

	n, err = DigitsToInt("3 de 5")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = DigitsToInt("no digits")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "no digits", pe.Value)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("25/12/2020", DateLayout)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2020, 12, 25, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, int64(1608854400000), EpochMillis(d))
	assert.Equal(t, "25/12/2020", FormatDate(FromEpochMillis(EpochMillis(d)), DateLayout))

	for _, bad := range []string{"", "2020-12-25", "32/01/2021", "15/13/2021", "ontem"} {
		_, err := ParseDate(bad, DateLayout)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "ParseDate(%q) should fail with ParseError", bad)
	}
}

func TestSplitCompound(t *testing.T) {
	date, location, err := SplitCompound("15/01/2021, Springfield - IL", ",")
	require.NoError(t, err)
	assert.Equal(t, "15/01/2021", date)
	assert.Equal(t, " Springfield - IL", location)

	city, state, err := SplitCompound(location, " - ")
	require.NoError(t, err)
	assert.Equal(t, "Springfield", Trim(city))
	assert.Equal(t, "IL", Trim(state))

	for _, tc := range []struct{ s, sep string }{
		{"sem separador", ","},
		{"a, b, c", ","},
		{"Rio de Janeiro - RJ - BR", " - "},
		{"x", ""},
	} {
		_, _, err := SplitCompound(tc.s, tc.sep)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, "SplitCompound(%q, %q)", tc.s, tc.sep)
	}
}

func TestPipelines(t *testing.T) {
	company, err := TextPipeline("company_name", true).Apply("  Operadora Y \n")
	require.NoError(t, err)
	assert.Equal(t, "Operadora Y", company)

	status, err := LinePipeline("status", true).Apply("\n  Não\n   Resolvida ")
	require.NoError(t, err)
	assert.Equal(t, "Não Resolvida", status)

	report, err := TextPipeline("user_report", false).Apply("\n Linha 1.\n\nLinha 2. ")
	require.NoError(t, err)
	assert.Equal(t, "Linha 1.\n\nLinha 2.", report, "report keeps its line breaks")

	_, err = LinePipeline("company_name", true).Apply(" \u00A0 ")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	_, err = TextPipeline("company_name", true).Apply("   ")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "company_name", pe.Field)

	feedback, err := TextPipeline("user_feedback", false).Apply("  ")
	require.NoError(t, err)
	assert.Empty(t, feedback)

	rating, err := RatingPipeline("user_rating").Apply(" Nota 5 ")
	require.NoError(t, err)
	assert.Equal(t, 5, rating)

	_, err = RatingPipeline("user_rating").Apply("Não avaliado")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "user_rating", pe.Field)

	d, err := DatePipeline("report_date", "").Apply(" 01/02/2021 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), d)
}
