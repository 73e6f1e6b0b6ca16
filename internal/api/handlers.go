package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meowstock/paper-trading/internal/account"
	"github.com/meowstock/paper-trading/internal/logger"
	"github.com/meowstock/paper-trading/internal/model"
	"github.com/meowstock/paper-trading/internal/quotes"
)

// Handler exposes the account service and quote feed to the UI layer. The lot
// size rule (order quantities in multiples of 100) is enforced here, at order
// entry, not in the ledger.
type Handler struct {
	account *account.Service
	quotes  *quotes.Service
	lotSize int
	logger  logger.Logger
}

func NewHandler(account *account.Service, quotes *quotes.Service, lotSize int, logger logger.Logger) *Handler {
	return &Handler{
		account: account,
		quotes:  quotes,
		lotSize: lotSize,
		logger:  logger.With("component", "api"),
	}
}

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/portfolio", h.GetPortfolio)
		api.GET("/transactions", h.GetTransactions)
		api.GET("/quote", h.GetQuotes)

		api.POST("/trade/buy", h.Buy)
		api.POST("/trade/sell", h.Sell)

		api.GET("/orders", h.GetOrders)
		api.POST("/orders", h.CreateOrder)
		api.DELETE("/orders/:id", h.CancelOrder)

		api.GET("/favorites", h.GetFavorites)
		api.PUT("/favorites/:symbol", h.AddFavorite)
		api.DELETE("/favorites/:symbol", h.RemoveFavorite)

		api.POST("/account/deposit", h.Deposit)
		api.POST("/account/withdraw", h.Withdraw)
		api.POST("/account/reset", h.Reset)
	}

	return r
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, PortfolioResponse{
		Balance:  h.account.Balance(),
		Holdings: h.account.Holdings(),
	})
}

func (h *Handler) GetTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, h.account.Transactions())
}

func (h *Handler) GetQuotes(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		writeInvalid(c, "stock code is required")
		return
	}

	symbols := strings.Split(code, ",")
	data, err := h.quotes.GetQuotes(c.Request.Context(), symbols)
	if err != nil {
		h.logger.Warnf("%s: quote proxy failed", err)
	}
	// Partial data is fine; unresolved symbols are simply absent.
	c.JSON(http.StatusOK, data)
}

func (h *Handler) Buy(c *gin.Context) {
	req, ok := h.bindTrade(c)
	if !ok {
		return
	}

	if err := h.account.Buy(req.Symbol, req.Name, req.Price, req.Quantity); err != nil {
		c.JSON(mapError(err))
		return
	}
	c.JSON(http.StatusOK, PortfolioResponse{
		Balance:  h.account.Balance(),
		Holdings: h.account.Holdings(),
	})
}

func (h *Handler) Sell(c *gin.Context) {
	req, ok := h.bindTrade(c)
	if !ok {
		return
	}

	if err := h.account.Sell(req.Symbol, req.Name, req.Price, req.Quantity); err != nil {
		c.JSON(mapError(err))
		return
	}
	c.JSON(http.StatusOK, PortfolioResponse{
		Balance:  h.account.Balance(),
		Holdings: h.account.Holdings(),
	})
}

func (h *Handler) GetOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.account.PendingOrders())
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalid(c, "invalid request body")
		return
	}

	side := model.TradeSide(strings.ToUpper(req.Side))
	if side != model.Buy && side != model.Sell {
		writeInvalid(c, "side must be BUY or SELL")
		return
	}
	if msg, ok := h.validateQuantity(req.Quantity); !ok {
		writeInvalid(c, msg)
		return
	}
	if req.TargetPrice <= 0 {
		writeInvalid(c, "targetPrice must be positive")
		return
	}
	if req.Symbol == "" {
		writeInvalid(c, "symbol is required")
		return
	}

	order, err := h.account.CreateLimitOrder(req.Symbol, req.Name, side, req.TargetPrice, req.Quantity)
	if err != nil {
		c.JSON(mapError(err))
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder is idempotent: cancelling an unknown or already-settled id
// still answers 204.
func (h *Handler) CancelOrder(c *gin.Context) {
	h.account.CancelOrder(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, FavoritesResponse{Favorites: h.account.Favorites()})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	h.account.AddFavorite(c.Param("symbol"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.account.RemoveFavorite(c.Param("symbol"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) Deposit(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalid(c, "invalid request body")
		return
	}

	if err := h.account.Deposit(req.Amount); err != nil {
		c.JSON(mapError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": h.account.Balance()})
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalid(c, "invalid request body")
		return
	}

	if err := h.account.Withdraw(req.Amount); err != nil {
		c.JSON(mapError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": h.account.Balance()})
}

func (h *Handler) Reset(c *gin.Context) {
	h.account.ResetAccount()
	c.JSON(http.StatusOK, gin.H{"balance": h.account.Balance()})
}

func (h *Handler) bindTrade(c *gin.Context) (TradeRequest, bool) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalid(c, "invalid request body")
		return req, false
	}
	if req.Symbol == "" {
		writeInvalid(c, "symbol is required")
		return req, false
	}
	if msg, ok := h.validateQuantity(req.Quantity); !ok {
		writeInvalid(c, msg)
		return req, false
	}
	if req.Price <= 0 {
		writeInvalid(c, "price must be positive")
		return req, false
	}
	return req, true
}

func (h *Handler) validateQuantity(quantity int) (string, bool) {
	if quantity <= 0 {
		return "quantity must be positive", false
	}
	if quantity%h.lotSize != 0 {
		return fmt.Sprintf("quantity must be a multiple of %d", h.lotSize), false
	}
	return "", true
}

func writeInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    string(ErrorCodeInvalidArgument),
		Message: message,
	})
}
