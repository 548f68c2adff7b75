package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/yesworId/BuyOrderBot/internal/money"
)

// ErrInvalidCredentials aborts the whole run; there is no point retrying a
// login the platform has already rejected.
var ErrInvalidCredentials = errors.New("invalid marketplace credentials")

// API error codes shared between the client and the mock server.
const (
	CodeInvalidItem        = "INVALID_ITEM"
	CodeRateLimited        = "RATE_LIMITED"
	CodeTransient          = "TRANSIENT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// APIError is a marketplace rejection of a single call. The placement engine
// treats every APIError from order creation as "this item not placed this
// pass" and moves on.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace API error %s: %s", e.Code, e.Message)
}

// Listing is one open buy order as reported by the marketplace. Price comes
// back as a display string with currency decoration, exactly as the platform
// renders it.
type Listing struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// Gateway is the session-backed marketplace API consumed by the placement
// engine. Implementations own authentication and session validity.
type Gateway interface {
	GetBalance(ctx context.Context) (money.Money, error)
	ListOrders(ctx context.Context) ([]Listing, error)
	CreateOrder(ctx context.Context, name string, priceMinorUnits int64, quantity int, game, currency string) (string, error)
}
