package account

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meowstock/paper-trading/internal/ledger"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/orderbook"
)

// Snapshotter is the persistence port the service flushes through.
type Snapshotter interface {
	Save(ctx context.Context, name string, snapshot model.Snapshot) error
	Load(ctx context.Context, name string) (model.Snapshot, bool, error)
}

// Service is the single owner of the simulated account: it composes the
// ledger, the order book and the favorites list, and is the only component
// that talks to the persistence adapter. Every committed mutation marks the
// state dirty; Run flushes dirty state on a timer and once more on shutdown.
type Service struct {
	ledger *ledger.Ledger
	book   *orderbook.Book

	mu        sync.Mutex
	favorites []string
	dirty     bool

	store         Snapshotter
	name          string
	flushInterval time.Duration
	logger        logger.Logger
}

func NewService(
	l *ledger.Ledger,
	book *orderbook.Book,
	store Snapshotter,
	name string,
	flushInterval time.Duration,
	logger logger.Logger,
) *Service {
	return &Service{
		ledger:        l,
		book:          book,
		store:         store,
		name:          name,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Restore loads the persisted snapshot, if any, into the ledger and order
// book. Must run before the order monitor starts polling.
func (s *Service) Restore(ctx context.Context) error {
	snapshot, found, err := s.store.Load(ctx, s.name)
	if err != nil {
		return fmt.Errorf("%w: can't restore account %q", err, s.name)
	}
	if !found {
		s.logger.Infof("no snapshot for account %q, starting fresh", s.name)
		return nil
	}

	s.ledger.Restore(snapshot.Balance, snapshot.Holdings, snapshot.Transactions)
	s.book.Restore(snapshot.PendingOrders)

	s.mu.Lock()
	s.favorites = append([]string(nil), snapshot.Favorites...)
	s.mu.Unlock()

	s.logger.Infof("account %q restored: balance %.2f, %d holdings, %d pending orders",
		s.name, snapshot.Balance, len(snapshot.Holdings), len(snapshot.PendingOrders))
	return nil
}

// Run flushes the snapshot periodically while dirty, and a final time when
// the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Errorf("%s: final snapshot flush failed", err)
			}
			return
		case <-time.After(s.flushInterval):
			s.mu.Lock()
			dirty := s.dirty
			s.mu.Unlock()
			if !dirty {
				continue
			}
			if err := s.Flush(ctx); err != nil {
				s.logger.Errorf("%s: snapshot flush failed", err)
			}
		}
	}
}

// Flush writes the current snapshot through the persistence port and clears
// the dirty flag on success.
func (s *Service) Flush(ctx context.Context) error {
	if err := s.store.Save(ctx, s.name, s.Snapshot()); err != nil {
		return err
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

func (s *Service) Snapshot() model.Snapshot {
	s.mu.Lock()
	favorites := append([]string(nil), s.favorites...)
	s.mu.Unlock()

	return model.Snapshot{
		Balance:       s.ledger.Balance(),
		Holdings:      s.ledger.Holdings(),
		Transactions:  s.ledger.Transactions(),
		PendingOrders: s.book.Pending(),
		Favorites:     favorites,
	}
}

func (s *Service) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Buy executes a market buy at the given price.
func (s *Service) Buy(symbol, name string, price float64, quantity int) error {
	if err := s.ledger.Buy(symbol, name, price, quantity); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// Sell executes a market sell at the given price.
func (s *Service) Sell(symbol, name string, price float64, quantity int) error {
	if err := s.ledger.Sell(symbol, name, price, quantity); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *Service) Deposit(amount float64) error {
	if err := s.ledger.Deposit(amount); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *Service) Withdraw(amount float64) error {
	if err := s.ledger.Withdraw(amount); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *Service) CreateLimitOrder(symbol, name string, side model.TradeSide, targetPrice float64, quantity int) (model.LimitOrder, error) {
	order, err := s.book.Create(symbol, name, side, targetPrice, quantity)
	if err != nil {
		return model.LimitOrder{}, err
	}
	s.markDirty()
	return order, nil
}

func (s *Service) CancelOrder(id string) {
	s.book.Cancel(id)
	s.markDirty()
}

// ExecuteOrder fills a pending limit order at the live price. The pending set
// changes either way, so the state is dirty even when the ledger rejects.
func (s *Service) ExecuteOrder(id string, executionPrice float64) error {
	err := s.book.Execute(id, executionPrice)
	s.markDirty()
	return err
}

// ResetAccount restores the initial endowment and clears holdings,
// transactions and pending orders. The favorites list is a watchlist, not
// account state, and survives the reset.
func (s *Service) ResetAccount() {
	s.ledger.Reset()
	s.book.Clear()

	s.markDirty()
	s.logger.Infof("account %q reset", s.name)
}

func (s *Service) Balance() float64 {
	return s.ledger.Balance()
}

func (s *Service) Holdings() []model.Holding {
	return s.ledger.Holdings()
}

func (s *Service) Transactions() []model.Transaction {
	return s.ledger.Transactions()
}

func (s *Service) PendingOrders() []model.LimitOrder {
	return s.book.Pending()
}

func (s *Service) PendingSymbols() []string {
	return s.book.PendingSymbols()
}

func (s *Service) AddFavorite(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.favorites {
		if f == symbol {
			return
		}
	}
	s.favorites = append(s.favorites, symbol)
	s.dirty = true
}

func (s *Service) RemoveFavorite(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.favorites {
		if f == symbol {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			s.dirty = true
			return
		}
	}
}

func (s *Service) IsFavorite(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.favorites {
		if f == symbol {
			return true
		}
	}
	return false
}

func (s *Service) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.favorites...)
}
