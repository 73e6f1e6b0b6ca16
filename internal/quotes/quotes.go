package quotes

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meowstock/paper-trading/internal/config"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/tools"
	"go.uber.org/ratelimit"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"resty.dev/v3"
)

// Service fetches near-real-time quotes from the Tencent quote endpoint
// (qt.gtimg.cn). Symbols are exchange-prefixed codes such as sz000001 or
// sh600519; result keys are normalized to lowercase. The virtual symbol
// TEST888 is served locally without touching the network.
type Service struct {
	c       *resty.Client
	limiter ratelimit.Limiter
	logger  logger.Logger

	now func() time.Time
}

func NewService(cfg config.QuotesConfig, logger logger.Logger) *Service {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &Service{
		c:       client,
		limiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:  logger,
		now:     time.Now,
	}
}

// GetQuotes resolves current quotes for the given symbols. Symbols the feed
// cannot resolve are omitted from the result; a transport failure returns an
// error the caller is expected to swallow and retry next cycle.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	data := make(map[string]model.Quote)
	if len(symbols) == 0 {
		return data, nil
	}

	codes := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		code := strings.ToLower(strings.TrimSpace(symbol))
		if code == "" {
			continue
		}
		if strings.EqualFold(code, VirtualSymbol) {
			q := s.virtualQuote()
			data[strings.ToLower(VirtualSymbol)] = q
			continue
		}
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return data, nil
	}

	s.limiter.Take()
	resp, err := s.c.R().
		SetContext(ctx).
		Get("/q=" + strings.Join(codes, ","))
	if err != nil {
		return data, fmt.Errorf("%w: can't fetch quotes", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return data, fmt.Errorf("quote endpoint status %s", resp.Status())
	}

	// The endpoint answers in GBK regardless of Accept headers.
	raw, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return data, fmt.Errorf("%w: can't decode quote payload", err)
	}

	for symbol, quote := range parsePayload(string(raw)) {
		data[symbol] = quote
	}
	return data, nil
}

var _lineRe = regexp.MustCompile(`v_(\w+)="([^"]*)";`)

// parsePayload parses the Tencent quote wire format: one line per symbol,
// shaped as v_sz000001="51~Name~Code~Price~PrevClose~Open~Volume~...";.
// Field positions: 1 name, 3 price, 4 prev close, 5 open, 6 volume in lots,
// 30 timestamp (YYYYMMDDHHMMSS), 33 high, 34 low, 37 amount in 10k units.
func parsePayload(payload string) map[string]model.Quote {
	data := make(map[string]model.Quote)

	for _, line := range strings.Split(payload, "\n") {
		m := _lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		symbol, content := strings.ToLower(m[1]), m[2]
		if strings.TrimSpace(content) == "" {
			continue
		}

		parts := strings.Split(content, "~")
		if len(parts) <= 37 {
			continue
		}

		price := parseFloat(parts[3])
		prevClose := parseFloat(parts[4])
		change := price - prevClose
		var changePercent float64
		if prevClose != 0 {
			changePercent = change / prevClose * 100
		}

		dateStr, timeStr := splitTimestamp(parts[30])

		data[symbol] = model.Quote{
			Symbol:        symbol,
			Name:          parts[1],
			Price:         price,
			PrevClose:     prevClose,
			Open:          parseFloat(parts[5]),
			High:          parseFloat(parts[33]),
			Low:           parseFloat(parts[34]),
			Volume:        parseFloat(parts[6]) * 100,     // lots to shares
			Amount:        parseFloat(parts[37]) * 10_000, // wan to unit
			Change:        tools.Round2(change),
			ChangePercent: tools.Round2(changePercent),
			Date:          dateStr,
			Time:          timeStr,
		}
	}

	return data
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func splitTimestamp(raw string) (string, string) {
	if len(raw) != 14 {
		return "", ""
	}
	date := raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
	clock := raw[8:10] + ":" + raw[10:12] + ":" + raw[12:14]
	return date, clock
}
