package api

import "github.com/meowstock/paper-trading/internal/model"

// TradeRequest is the body for market buy/sell.
type TradeRequest struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// CreateOrderRequest is the body for placing a limit order.
type CreateOrderRequest struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Side        string  `json:"side"`
	TargetPrice float64 `json:"targetPrice"`
	Quantity    int     `json:"quantity"`
}

// AmountRequest is the body for deposit/withdraw.
type AmountRequest struct {
	Amount float64 `json:"amount"`
}

type PortfolioResponse struct {
	Balance  float64         `json:"balance"`
	Holdings []model.Holding `json:"holdings"`
}

type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
