package quotes

import (
	"math"
	"time"

	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/tools"
)

// VirtualSymbol is a locally generated instrument for demos and tests. Its
// price is a deterministic function of wall-clock time, so every process
// observing the same moment sees the same quote.
const VirtualSymbol = "TEST888"

const (
	_virtualBasePrice = 100.00
	_virtualStep      = 5 * time.Second
)

// China Standard Time, UTC+8. The feed reports exchange-local timestamps.
var _cst = time.FixedZone("CST", 8*60*60)

// virtualQuote generates the TEST888 quote: a sine wave around the base
// price with a small cosine ripple, stepped so the price only moves every
// five seconds.
func (s *Service) virtualQuote() model.Quote {
	now := s.now()
	stepped := now.Truncate(_virtualStep)
	t := float64(stepped.UnixMilli()) / 1000

	oscillation := math.Sin(t) * 5
	noise := math.Cos(t*5) * 0.5
	price := tools.Round2(_virtualBasePrice + oscillation + noise)

	change := price - _virtualBasePrice
	local := now.In(_cst)

	return model.Quote{
		Symbol:        VirtualSymbol,
		Name:          "虚拟测试股",
		Price:         price,
		PrevClose:     _virtualBasePrice,
		Open:          _virtualBasePrice,
		High:          tools.Round2(price * 1.02),
		Low:           tools.Round2(price * 0.98),
		Volume:        10_000 + math.Floor(math.Abs(oscillation)*1000),
		Amount:        1_000_000,
		Change:        tools.Round2(change),
		ChangePercent: tools.Round2(change / _virtualBasePrice * 100),
		Date:          local.Format("2006-01-02"),
		Time:          local.Format("15:04:05"),
	}
}
