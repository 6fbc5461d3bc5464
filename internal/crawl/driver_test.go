package crawl

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(maxOffset int) *Driver {
	return NewDriver(DriverConfig{
		ListingURL: "https://example.test/relatos/consultar",
		OriginURL:  "https://example.test/relatos/abrir",
		MaxOffset:  maxOffset,
	})
}

func TestNextRequest(t *testing.T) {
	d := newTestDriver(0)

	req := d.NextRequest(CrawlState{Offset: 30})
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://example.test/relatos/consultar", req.URL)
	assert.Equal(t, "30", req.Form.Get("firstResultIndex"))

	keywords, ok := req.Form["keywords"]
	require.True(t, ok, "keywords field must be sent even when empty")
	assert.Equal(t, []string{""}, keywords)
}

func TestNextRequestCustomFields(t *testing.T) {
	d := NewDriver(DriverConfig{
		ListingURL:    "https://example.test/consultar",
		OffsetField:   "indicePrimeiroResultado",
		KeywordsField: "palavrasChave",
	})

	req := d.NextRequest(d.Start())
	assert.Equal(t, "indicePrimeiroResultado=0&palavrasChave=", req.Form.Encode())
}

func TestWarmupRequest(t *testing.T) {
	req, ok := newTestDriver(0).WarmupRequest()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://example.test/relatos/abrir", req.URL)

	_, ok = NewDriver(DriverConfig{ListingURL: "https://example.test/consultar"}).WarmupRequest()
	assert.False(t, ok)
}

func TestAdvanceMovesByPageSize(t *testing.T) {
	d := newTestDriver(0)

	for _, offset := range []int{0, 10, 20, 990, 123450} {
		for _, k := range []int{1, 7, 10} {
			next, out := d.Advance(CrawlState{Offset: offset}, k)
			assert.False(t, out.Done, "offset=%d cards=%d", offset, k)
			assert.Equal(t, offset+10, next.Offset)
		}
	}
}

func TestAdvanceEmptyPage(t *testing.T) {
	d := newTestDriver(0)

	// Первая страница может быть пустой, пока сайт не выдал сессию
	next, out := d.Advance(CrawlState{Offset: 0}, 0)
	assert.False(t, out.Done)
	assert.Equal(t, 10, next.Offset)

	next, out = d.Advance(CrawlState{Offset: 40}, 0)
	assert.True(t, out.Done)
	assert.Equal(t, ReasonExhausted, out.Reason)
	assert.Equal(t, 40, next.Offset)
}

func TestAdvanceMaxOffset(t *testing.T) {
	d := newTestDriver(20)

	state := d.Start()
	var pages int
	for {
		pages++
		next, out := d.Advance(state, 10)
		if out.Done {
			assert.Equal(t, ReasonMaxOffset, out.Reason)
			assert.Equal(t, state, next)
			break
		}
		require.Greater(t, next.Offset, state.Offset)
		state = next
	}

	// offsets 0, 10, 20
	assert.Equal(t, 3, pages)
	assert.Equal(t, 20, state.Offset)
}

func TestAdvanceCrawlSequence(t *testing.T) {
	d := newTestDriver(0)
	cards := []int{0, 10, 10, 3, 0, 10}

	state := d.Start()
	var requested []string
	for _, k := range cards {
		requested = append(requested, d.NextRequest(state).Form.Get("firstResultIndex"))
		next, out := d.Advance(state, k)
		if out.Done {
			assert.Equal(t, ReasonExhausted, out.Reason)
			break
		}
		state = next
	}

	assert.Equal(t, []string{"0", "10", "20", "30", "40"}, requested)
	assert.Equal(t, 40, state.Offset)
}
