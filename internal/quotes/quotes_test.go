package quotes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/meowstock/paper-trading/internal/config"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 51 fields, the shape qt.gtimg.cn answers with (abbreviated tail).
func tencentLine(symbol string, fields []string) string {
	return `v_` + symbol + `="` + strings.Join(fields, "~") + `";`
}

func sampleFields() []string {
	parts := make([]string, 48)
	for i := range parts {
		parts[i] = "0"
	}
	parts[0] = "51"
	parts[1] = "Ping An Bank"
	parts[2] = "000001"
	parts[3] = "10.50"  // price
	parts[4] = "10.00"  // prev close
	parts[5] = "10.10"  // open
	parts[6] = "500000" // volume in lots
	parts[30] = "20260831143005"
	parts[33] = "10.80" // high
	parts[34] = "9.90"  // low
	parts[37] = "52000" // amount in wan
	return parts
}

func TestParsePayload(t *testing.T) {
	t.Parallel()

	payload := tencentLine("sz000001", sampleFields()) + "\n"
	data := parsePayload(payload)

	q, ok := data["sz000001"]
	require.True(t, ok)

	assert.Equal(t, "Ping An Bank", q.Name)
	assert.Equal(t, 10.50, q.Price)
	assert.Equal(t, 10.00, q.PrevClose)
	assert.Equal(t, 10.10, q.Open)
	assert.Equal(t, 10.80, q.High)
	assert.Equal(t, 9.90, q.Low)
	assert.Equal(t, 500000.0*100, q.Volume)
	assert.Equal(t, 52000.0*10000, q.Amount)
	assert.Equal(t, 0.50, q.Change)
	assert.Equal(t, 5.00, q.ChangePercent)
	assert.Equal(t, "2026-08-31", q.Date)
	assert.Equal(t, "14:30:05", q.Time)
}

func TestParsePayloadNormalizesSymbolCase(t *testing.T) {
	t.Parallel()

	data := parsePayload(tencentLine("SZ000001", sampleFields()))
	_, ok := data["sz000001"]
	assert.True(t, ok)
}

func TestParsePayloadSkipsEmptyAndShortLines(t *testing.T) {
	t.Parallel()

	payload := strings.Join([]string{
		tencentLine("sz999999", []string{""}),              // empty content
		tencentLine("sh000002", []string{"51", "x", "y"}),  // too few fields
		"garbage that matches nothing",
		tencentLine("sz000001", sampleFields()),
	}, "\n")

	data := parsePayload(payload)
	assert.Len(t, data, 1)
	_, ok := data["sz000001"]
	assert.True(t, ok)
}

func TestGetQuotesServesVirtualSymbolLocally(t *testing.T) {
	t.Parallel()

	s := NewService(config.Default().Quotes, logger.NewNop())
	fixed := time.Date(2026, 8, 31, 10, 0, 2, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	data, err := s.GetQuotes(context.Background(), []string{"TEST888"})
	require.NoError(t, err)

	q, ok := data["test888"]
	require.True(t, ok)
	assert.Equal(t, VirtualSymbol, q.Symbol)
	assert.Equal(t, 100.00, q.PrevClose)
	assert.InDelta(t, 100.00, q.Price, 5.5+0.01)
	assert.Greater(t, q.Price, 0.0)
}

func TestVirtualQuoteIsDeterministicWithinStep(t *testing.T) {
	t.Parallel()

	s := NewService(config.Default().Quotes, logger.NewNop())

	// Two observations inside the same 5s step see the same price.
	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(1 * time.Second) }
	first := s.virtualQuote()

	s.now = func() time.Time { return base.Add(4 * time.Second) }
	second := s.virtualQuote()

	assert.Equal(t, first.Price, second.Price)

	// The next step may move.
	s.now = func() time.Time { return base.Add(6 * time.Second) }
	third := s.virtualQuote()
	assert.NotEqual(t, first.Price, third.Price)
}

func TestGetQuotesEmptySymbolList(t *testing.T) {
	t.Parallel()

	s := NewService(config.Default().Quotes, logger.NewNop())

	data, err := s.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}
