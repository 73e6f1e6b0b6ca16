package orderbook

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meowstock/paper-trading/internal/ledger"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
)

// Book manages the set of standing limit orders. It owns order lifecycle only;
// balance and holding mutation is delegated to the ledger on execution.
// Terminal orders (executed, cancelled, failed) are not retained in the active
// set, only logged for audit.
type Book struct {
	mu     sync.Mutex
	orders []model.LimitOrder // creation order, PENDING only

	ledger *ledger.Ledger
	logger logger.Logger
}

func New(l *ledger.Ledger, logger logger.Logger) *Book {
	return &Book{
		ledger: l,
		logger: logger,
	}
}

// Create allocates a new PENDING order. No funds or shares are reserved at
// creation time; execution may still fail the ledger's checks later.
func (b *Book) Create(symbol, name string, side model.TradeSide, targetPrice float64, quantity int) (model.LimitOrder, error) {
	if quantity <= 0 {
		return model.LimitOrder{}, ledger.ErrInvalidQuantity
	}
	if targetPrice <= 0 {
		return model.LimitOrder{}, ledger.ErrInvalidPrice
	}
	if side != model.Buy && side != model.Sell {
		return model.LimitOrder{}, fmt.Errorf("unknown order side %q", side)
	}

	order := model.LimitOrder{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Name:        name,
		Side:        side,
		TargetPrice: targetPrice,
		Quantity:    quantity,
		CreatedAt:   time.Now(),
		Status:      model.OrderPending,
	}

	b.mu.Lock()
	b.orders = append(b.orders, order)
	b.mu.Unlock()

	b.logger.Infof("limit %s order %s created: %d %s @ %.2f", side, order.ID, quantity, symbol, targetPrice)
	return order, nil
}

// Cancel removes a pending order. Cancelling an unknown, executed or already
// cancelled id is a no-op.
func (b *Book) Cancel(id string) {
	b.mu.Lock()
	order, ok := b.removeLocked(id)
	b.mu.Unlock()

	if !ok {
		return
	}
	order.Status = model.OrderCancelled
	b.logger.Infof("limit order %s cancelled: %d %s @ %.2f", id, order.Quantity, order.Symbol, order.TargetPrice)
}

// Execute fills a pending order at the given live market price (which may be
// equal to or better than the target). Unknown or non-pending ids are a
// no-op, which makes re-evaluation after a restart safe.
//
// The order leaves the pending set whether or not the ledger accepts the
// trade; a rejected execution ends in the FAILED terminal state and the
// ledger's error is returned so the caller can surface it.
func (b *Book) Execute(id string, executionPrice float64) error {
	b.mu.Lock()
	order, ok := b.removeLocked(id)
	b.mu.Unlock()

	if !ok {
		return nil
	}

	var err error
	if order.Side == model.Buy {
		err = b.ledger.Buy(order.Symbol, order.Name, executionPrice, order.Quantity)
	} else {
		err = b.ledger.Sell(order.Symbol, order.Name, executionPrice, order.Quantity)
	}

	if err != nil {
		order.Status = model.OrderFailed
		b.logger.Warnf("limit order %s failed at %.2f: %s", id, executionPrice, err)
		return fmt.Errorf("execute order %s: %w", id, err)
	}

	order.Status = model.OrderExecuted
	b.logger.Infof("limit %s order %s executed: %d %s @ %.2f", order.Side, id, order.Quantity, order.Symbol, executionPrice)
	return nil
}

// Pending returns the active order set, oldest first.
func (b *Book) Pending() []model.LimitOrder {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]model.LimitOrder, len(b.orders))
	copy(orders, b.orders)
	return orders
}

// PendingSymbols returns the distinct symbols referenced by pending orders.
func (b *Book) PendingSymbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]struct{}, len(b.orders))
	symbols := make([]string, 0, len(b.orders))
	for _, o := range b.orders {
		if _, ok := seen[o.Symbol]; ok {
			continue
		}
		seen[o.Symbol] = struct{}{}
		symbols = append(symbols, o.Symbol)
	}
	return symbols
}

// Restore replaces the active set with a persisted snapshot, dropping
// anything not pending.
func (b *Book) Restore(orders []model.LimitOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders = b.orders[:0]
	for _, o := range orders {
		if o.Status != model.OrderPending {
			continue
		}
		b.orders = append(b.orders, o)
	}
}

// Clear drops all pending orders. Used by account reset.
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = nil
}

func (b *Book) removeLocked(id string) (model.LimitOrder, bool) {
	for i, o := range b.orders {
		if o.ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			return o, true
		}
	}
	return model.LimitOrder{}, false
}
