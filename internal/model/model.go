package model

import "time"

type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

type TransactionType string

const (
	TxBuy      TransactionType = "BUY"
	TxSell     TransactionType = "SELL"
	TxDeposit  TransactionType = "DEPOSIT"
	TxWithdraw TransactionType = "WITHDRAW"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderExecuted  OrderStatus = "EXECUTED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderFailed    OrderStatus = "FAILED"
)

// Holding is a currently open position. Quantity is in shares; AveragePrice
// is the volume-weighted cost basis. A holding with zero quantity is never
// kept around, it is removed from the set instead.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"averagePrice"`
}

// Transaction is an immutable record in the append-only trade log.
// RealizedPnL is set only for SELL transactions.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Quantity    int             `json:"quantity"`
	Date        time.Time       `json:"date"`
	RealizedPnL *float64        `json:"realizedPnL,omitempty"`
}

// LimitOrder is a standing instruction to trade once the market crosses
// TargetPrice. It fills at the live price at evaluation time, not at the
// target.
type LimitOrder struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Name        string      `json:"name"`
	Side        TradeSide   `json:"side"`
	TargetPrice float64     `json:"targetPrice"`
	Quantity    int         `json:"quantity"`
	CreatedAt   time.Time   `json:"createdAt"`
	Status      OrderStatus `json:"status"`
}

// Quote is one symbol's record from the market-data feed.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prevClose"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        float64 `json:"volume"`
	Amount        float64 `json:"amount"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
}

// Snapshot is the persisted account document.
type Snapshot struct {
	Balance       float64       `json:"balance"`
	Holdings      []Holding     `json:"holdings"`
	Transactions  []Transaction `json:"transactions"`
	PendingOrders []LimitOrder  `json:"pendingOrders"`
	Favorites     []string      `json:"favorites"`
}
