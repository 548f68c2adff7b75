// Package mockmarket is an in-memory marketplace used for local runs and
// demos. It speaks the same wire contract the gateway client consumes:
// session login, balance query, open-order listing and buy-order creation,
// including simulated transient failures.
package mockmarket

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yesworId/BuyOrderBot/internal/money"
)

// Credentials accepted by the mock.
type Credentials struct {
	APIKey   string
	Username string
	Password string
}

type order struct {
	id         string
	priceMinor int64
	quantity   int
}

// Service holds the mock marketplace state behind a mutex.
type Service struct {
	mu sync.Mutex

	creds        Credentials
	secret       []byte
	currency     string
	balanceMinor int64

	orders map[string]*order

	// Every failEvery-th creation fails with a simulated transient error,
	// so the bot's retry passes can be observed locally. Zero disables it.
	failEvery int
	creates   int
}

// NewService creates a mock marketplace account.
func NewService(creds Credentials, secret string, currency string, balanceMinor int64, failEvery int) *Service {
	return &Service{
		creds:        creds,
		secret:       []byte(secret),
		currency:     currency,
		balanceMinor: balanceMinor,
		orders:       make(map[string]*order),
		failEvery:    failEvery,
	}
}

func (s *Service) Secret() []byte {
	return s.secret
}

// Login checks the credentials and issues a signed session token.
func (s *Service) Login(apiKey, username, password string) (token string, expiresAt time.Time, err error) {
	if apiKey != s.creds.APIKey || username != s.creds.Username || password != s.creds.Password {
		return "", time.Time{}, fmt.Errorf("credential mismatch for %q", username)
	}

	expiresAt = time.Now().Add(24 * time.Hour)
	claims := jwt.MapClaims{
		"username": username,
		"exp":      jwt.NewNumericDate(expiresAt),
		"iat":      jwt.NewNumericDate(time.Now()),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Balance returns the wallet balance in minor units.
func (s *Service) Balance() (int64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceMinor, s.currency
}

// ListingView is an open order as the platform renders it, price included as
// a decorated display string.
type ListingView struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// Listings returns the account's open buy orders.
func (s *Service) Listings() []ListingView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]ListingView, 0, len(s.orders))
	for name, ord := range s.orders {
		views = append(views, ListingView{
			Name:     name,
			Price:    displayPrice(ord.priceMinor, s.currency),
			Quantity: ord.quantity,
		})
	}
	return views
}

// Creation failure modes.
var (
	ErrDuplicate = fmt.Errorf("an order for this item already exists")
	ErrBadItem   = fmt.Errorf("unknown or invalid item")
	ErrFlaky     = fmt.Errorf("simulated transient failure")
)

// CreateOrder registers a buy order and returns its ID.
func (s *Service) CreateOrder(name string, priceMinor int64, quantity int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" || priceMinor <= 0 || quantity <= 0 {
		return "", ErrBadItem
	}
	if _, exists := s.orders[name]; exists {
		return "", ErrDuplicate
	}

	s.creates++
	if s.failEvery > 0 && s.creates%s.failEvery == 0 {
		log.Warn().Str("item", name).Msg("mock: simulating transient order failure")
		return "", ErrFlaky
	}

	ord := &order{
		id:         uuid.New().String(),
		priceMinor: priceMinor,
		quantity:   quantity,
	}
	s.orders[name] = ord

	log.Info().
		Str("item", name).
		Str("order_id", ord.id).
		Int64("price_minor_units", priceMinor).
		Int("quantity", quantity).
		Msg("mock: buy order created")

	return ord.id, nil
}

func displayPrice(minor int64, currency string) string {
	amount := money.FromMinorUnits(minor)
	switch currency {
	case "USD":
		return "$" + amount.String()
	case "EUR":
		return "€" + amount.String()
	default:
		return fmt.Sprintf("%s %s", amount, currency)
	}
}
