package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
)

// Ledger is the sole authority for cash and position mutations. Holdings and
// the transaction log are owned here; the order book delegates to Buy/Sell on
// execution so money only ever moves through one place.
//
// Every entry point takes the mutex: Buy/Sell are compound read-modify-write
// sequences over balance and holdings and must not interleave.
type Ledger struct {
	mu sync.Mutex

	balance      float64
	holdings     map[string]model.Holding
	transactions []model.Transaction // newest first

	initialBalance float64
	logger         logger.Logger
}

func New(initialBalance float64, logger logger.Logger) *Ledger {
	return &Ledger{
		balance:        initialBalance,
		holdings:       make(map[string]model.Holding),
		initialBalance: initialBalance,
		logger:         logger,
	}
}

// Buy deducts price*quantity from cash and opens or grows a holding,
// recomputing the volume-weighted average price. Rejections leave state
// untouched.
func (l *Ledger) Buy(symbol, name string, price float64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if price <= 0 {
		return ErrInvalidPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	totalCost := price * float64(quantity)
	if l.balance < totalCost {
		l.logger.Warnf("buy %s rejected: need %.2f, have %.2f", symbol, totalCost, l.balance)
		return ErrInsufficientFunds
	}

	if h, ok := l.holdings[symbol]; ok {
		totalShares := h.Quantity + quantity
		totalValue := h.AveragePrice*float64(h.Quantity) + totalCost
		h.Quantity = totalShares
		h.AveragePrice = totalValue / float64(totalShares)
		l.holdings[symbol] = h
	} else {
		l.holdings[symbol] = model.Holding{
			Symbol:       symbol,
			Name:         name,
			Quantity:     quantity,
			AveragePrice: price,
		}
	}

	l.balance -= totalCost
	l.appendLocked(model.Transaction{
		ID:       uuid.NewString(),
		Type:     model.TxBuy,
		Symbol:   symbol,
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Date:     time.Now(),
	})

	return nil
}

// Sell reduces or removes a holding and credits price*quantity to cash. The
// realized P&L is computed against the average cost basis before mutation and
// carried on the SELL transaction.
func (l *Ledger) Sell(symbol, name string, price float64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if price <= 0 {
		return ErrInvalidPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[symbol]
	if !ok || h.Quantity < quantity {
		l.logger.Warnf("sell %s rejected: want %d, hold %d", symbol, quantity, h.Quantity)
		return ErrInsufficientShares
	}

	realizedPnL := (price - h.AveragePrice) * float64(quantity)

	if h.Quantity == quantity {
		delete(l.holdings, symbol)
	} else {
		h.Quantity -= quantity
		l.holdings[symbol] = h
	}

	l.balance += price * float64(quantity)
	l.appendLocked(model.Transaction{
		ID:          uuid.NewString(),
		Type:        model.TxSell,
		Symbol:      symbol,
		Name:        name,
		Price:       price,
		Quantity:    quantity,
		Date:        time.Now(),
		RealizedPnL: &realizedPnL,
	})

	return nil
}

// Deposit credits cash and records a DEPOSIT transaction.
func (l *Ledger) Deposit(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance += amount
	l.appendLocked(model.Transaction{
		ID:       uuid.NewString(),
		Type:     model.TxDeposit,
		Symbol:   "CASH",
		Name:     "Deposit",
		Price:    amount,
		Quantity: 1,
		Date:     time.Now(),
	})
	return nil
}

// Withdraw debits cash and records a WITHDRAW transaction. Cash never goes
// negative.
func (l *Ledger) Withdraw(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balance < amount {
		l.logger.Warnf("withdraw rejected: need %.2f, have %.2f", amount, l.balance)
		return ErrInsufficientFunds
	}

	l.balance -= amount
	l.appendLocked(model.Transaction{
		ID:       uuid.NewString(),
		Type:     model.TxWithdraw,
		Symbol:   "CASH",
		Name:     "Withdraw",
		Price:    amount,
		Quantity: 1,
		Date:     time.Now(),
	})
	return nil
}

// Reset restores the initial endowment and clears holdings and transactions.
// Destructive and irreversible.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = l.initialBalance
	l.holdings = make(map[string]model.Holding)
	l.transactions = nil
}

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Holding(symbol string) (model.Holding, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[symbol]
	return h, ok
}

func (l *Ledger) Holdings() []model.Holding {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := make([]model.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		holdings = append(holdings, h)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}

// Transactions returns the log newest-first.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := make([]model.Transaction, len(l.transactions))
	copy(txs, l.transactions)
	return txs
}

// Restore replaces the ledger state with a persisted snapshot. Called once at
// startup before any other activity.
func (l *Ledger) Restore(balance float64, holdings []model.Holding, transactions []model.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = balance
	l.holdings = make(map[string]model.Holding, len(holdings))
	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		l.holdings[h.Symbol] = h
	}
	l.transactions = make([]model.Transaction, len(transactions))
	copy(l.transactions, transactions)
}

func (l *Ledger) appendLocked(tx model.Transaction) {
	l.transactions = append([]model.Transaction{tx}, l.transactions...)
}
