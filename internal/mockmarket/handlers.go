package mockmarket

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/pkg/response"
)

// GinHandlers contains the HTTP handlers for the mock marketplace endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SessionHandler handles POST requests to open a session from credentials.
func (h *GinHandlers) SessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var creds struct {
			APIKey   string `json:"api_key"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&creds); err != nil {
			response.BadRequest(c, market.CodeInvalidItem, "invalid request body")
			return
		}

		token, expiresAt, err := h.service.Login(creds.APIKey, creds.Username, creds.Password)
		if err != nil {
			response.Unauthorized(c, market.CodeInvalidCredentials, "wrong credentials")
			return
		}

		response.Success(c, gin.H{
			"token":      token,
			"expires_at": expiresAt.Format(time.RFC3339),
		})
	}
}

// BalanceHandler handles GET requests for the wallet balance.
func (h *GinHandlers) BalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		balanceMinor, currency := h.service.Balance()
		response.Success(c, gin.H{
			"balance_minor_units": balanceMinor,
			"currency":            currency,
		})
	}
}

// ListOrdersHandler handles GET requests for the open buy orders.
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, gin.H{"orders": h.service.Listings()})
	}
}

// CreateOrderHandler handles POST requests to place a buy order.
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name            string `json:"name"`
			PriceMinorUnits int64  `json:"price_minor_units"`
			Quantity        int    `json:"quantity"`
			Game            string `json:"game"`
			Currency        string `json:"currency"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, market.CodeInvalidItem, "invalid request body")
			return
		}

		orderID, err := h.service.CreateOrder(req.Name, req.PriceMinorUnits, req.Quantity)
		switch {
		case errors.Is(err, ErrFlaky):
			response.InternalError(c, market.CodeTransient, err.Error())
		case err != nil:
			response.BadRequest(c, market.CodeInvalidItem, err.Error())
		default:
			response.Success(c, gin.H{"order_id": orderID})
		}
	}
}
