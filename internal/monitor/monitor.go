package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/notify"
)

// QuoteFeed is the external price feed the monitor evaluates against. Symbols
// the feed cannot resolve are simply absent from the result.
type QuoteFeed interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

// OrderSource is the slice of the account service the monitor drives.
type OrderSource interface {
	PendingOrders() []model.LimitOrder
	ExecuteOrder(id string, executionPrice float64) error
}

// Monitor is the recurring evaluation loop over pending limit orders: each
// cycle it fetches live prices for every symbol with a standing order, fires
// the orders whose trigger condition is met and surfaces a notification.
//
// The executed set guards against double-firing across rapid successive
// cycles before the pending list settles; it is garbage-collected once an id
// leaves the pending set. Nothing here is persisted; after a restart all
// pending orders are re-evaluated from scratch, which is safe because
// executing an unknown or non-pending order is a no-op.
type Monitor struct {
	feed     QuoteFeed
	orders   OrderSource
	notifier notify.Notifier

	interval     time.Duration
	fetchTimeout time.Duration

	executed map[string]struct{}
	logger   logger.Logger
}

func New(
	feed QuoteFeed,
	orders OrderSource,
	notifier notify.Notifier,
	interval time.Duration,
	fetchTimeout time.Duration,
	logger logger.Logger,
) *Monitor {
	return &Monitor{
		feed:         feed,
		orders:       orders,
		notifier:     notifier,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		executed:     make(map[string]struct{}),
		logger:       logger.With("component", "monitor"),
	}
}

// Run evaluates on a fixed interval until the context is cancelled. A pass
// always runs to completion before the next wait starts, so cycles never
// overlap.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
			m.Evaluate(ctx)
		}
	}
}

// Evaluate performs one full pass over the pending orders.
func (m *Monitor) Evaluate(ctx context.Context) {
	pending := m.orders.PendingOrders()
	if len(pending) == 0 {
		m.gc(nil)
		return
	}

	symbols := distinctSymbols(pending)

	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	quotes, err := m.feed.GetQuotes(fetchCtx, symbols)
	cancel()
	if err != nil {
		// Stale data is recoverable; retry on the next cycle.
		m.logger.Warnf("%s: quote fetch failed, skipping cycle", err)
		return
	}

	for _, order := range pending {
		quote, ok := quotes[strings.ToLower(order.Symbol)]
		if !ok || quote.Price <= 0 {
			m.logger.Debugf("no price for %s, order %s skipped this cycle", order.Symbol, order.ID)
			continue
		}

		if !triggered(order, quote.Price) {
			continue
		}
		if _, seen := m.executed[order.ID]; seen {
			continue
		}
		m.executed[order.ID] = struct{}{}

		detail := fmt.Sprintf("%d shares of %s @ %.2f", order.Quantity, order.Name, quote.Price)
		if err := m.orders.ExecuteOrder(order.ID, quote.Price); err != nil {
			m.logger.Warnf("%s: order %s execution rejected", err, order.ID)
			m.notifier.Notify(fmt.Sprintf("Limit %s order failed", order.Side), detail)
			continue
		}

		m.notifier.Notify(fmt.Sprintf("Limit %s order executed", order.Side), detail)
	}

	m.gc(m.orders.PendingOrders())
}

// gc drops executed-set entries whose order has left the pending set.
func (m *Monitor) gc(pending []model.LimitOrder) {
	if len(m.executed) == 0 {
		return
	}

	alive := make(map[string]struct{}, len(pending))
	for _, o := range pending {
		alive[o.ID] = struct{}{}
	}
	for id := range m.executed {
		if _, ok := alive[id]; !ok {
			delete(m.executed, id)
		}
	}
}

// triggered reports whether the live price crosses the order's target: a BUY
// fires once price falls to or below target, a SELL once it rises to or
// above.
func triggered(order model.LimitOrder, price float64) bool {
	if order.Side == model.Buy {
		return price <= order.TargetPrice
	}
	return price >= order.TargetPrice
}

func distinctSymbols(orders []model.LimitOrder) []string {
	seen := make(map[string]struct{}, len(orders))
	symbols := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.Symbol]; ok {
			continue
		}
		seen[o.Symbol] = struct{}{}
		symbols = append(symbols, o.Symbol)
	}
	return symbols
}
