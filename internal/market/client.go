package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yesworId/BuyOrderBot/internal/config"
	"github.com/yesworId/BuyOrderBot/internal/money"
	"github.com/yesworId/BuyOrderBot/internal/session"
)

// Client talks to the marketplace API over HTTP with a bearer session token.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string

	httpClient  *http.Client
	sess        *session.State
	sessionPath string

	loginAttempts   int
	loginRetryDelay time.Duration

	logger zerolog.Logger
}

// NewClient builds a gateway client from the account configuration and an
// optional previously persisted session.
func NewClient(cfg *config.Config, sess *session.State) (*Client, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &Client{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		username:        cfg.Username,
		password:        cfg.Password,
		httpClient:      httpClient,
		sess:            sess,
		sessionPath:     cfg.SessionPath,
		loginAttempts:   3,
		loginRetryDelay: 20 * time.Second,
		logger:          log.With().Str("component", "market_client").Logger(),
	}, nil
}

// envelope is the standard API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Login authenticates with credentials and stores the session token. A
// still-valid persisted session short-circuits the login entirely. Network
// failures are retried a bounded number of times with a fixed delay; rejected
// credentials abort immediately.
func (c *Client) Login(ctx context.Context) error {
	if c.sess.Valid(time.Now()) {
		c.logger.Info().Str("username", c.sess.Username).Msg("reusing persisted session")
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.loginAttempts; attempt++ {
		err := c.login(ctx)
		if err == nil {
			c.logger.Info().Str("username", c.username).Msg("logged in")
			return nil
		}
		if errors.Is(err, ErrInvalidCredentials) {
			return err
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("login failed")

		if attempt < c.loginAttempts {
			if err := sleepCtx(ctx, c.loginRetryDelay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("reached max login attempts: %w", lastErr)
}

func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"api_key":  c.apiKey,
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/auth/session", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := decodeEnvelope(resp, &result); err != nil {
		return err
	}

	c.sess = &session.State{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Username:  c.username,
	}
	if c.sessionPath != "" {
		if err := session.Save(c.sessionPath, c.sess); err != nil {
			c.logger.Warn().Err(err).Msg("could not persist session")
		} else {
			c.logger.Info().Msg("saved session")
		}
	}
	return nil
}

// withValidSession re-authenticates before the operation when the current
// session is absent or expired. This is the guarded-call wrapper every API
// method goes through.
func (c *Client) withValidSession(ctx context.Context, op func() error) error {
	if !c.sess.Valid(time.Now()) {
		c.logger.Info().Msg("session invalid, logging in again")
		if err := c.Login(ctx); err != nil {
			return err
		}
	}
	return op()
}

// GetBalance fetches the wallet balance in minor units.
func (c *Client) GetBalance(ctx context.Context) (money.Money, error) {
	var balance money.Money
	err := c.withValidSession(ctx, func() error {
		var result struct {
			BalanceMinorUnits int64  `json:"balance_minor_units"`
			Currency          string `json:"currency"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/api/v1/account/balance", nil, &result); err != nil {
			return err
		}
		balance = money.FromMinorUnits(result.BalanceMinorUnits)
		return nil
	})
	return balance, err
}

// ListOrders returns the account's currently open buy orders.
func (c *Client) ListOrders(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	err := c.withValidSession(ctx, func() error {
		var result struct {
			Orders []Listing `json:"orders"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/api/v1/orders", nil, &result); err != nil {
			return err
		}
		listings = result.Orders
		return nil
	})
	return listings, err
}

// CreateOrder submits a buy order. The price travels as minor units, never a
// decimal string. Every call carries a fresh idempotency key so the platform
// can dedupe an ambiguous retry.
func (c *Client) CreateOrder(ctx context.Context, name string, priceMinorUnits int64, quantity int, game, currency string) (string, error) {
	var orderID string
	err := c.withValidSession(ctx, func() error {
		body := map[string]interface{}{
			"name":              name,
			"price_minor_units": priceMinorUnits,
			"quantity":          quantity,
			"game":              game,
			"currency":          currency,
		}
		var result struct {
			OrderID string `json:"order_id"`
		}
		if err := c.doJSON(ctx, http.MethodPost, "/api/v1/orders", body, &result); err != nil {
			return err
		}
		if result.OrderID == "" {
			return &APIError{Code: CodeTransient, Message: "no order id in response"}
		}
		orderID = result.OrderID
		return nil
	})
	return orderID, err
}

// doJSON performs an authenticated request and decodes the response envelope
// into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Code: CodeTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// decodeEnvelope unwraps the standard response envelope, converting error
// responses into typed APIErrors.
func decodeEnvelope(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Code: CodeTransient, Message: err.Error()}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &APIError{
			Code:    codeForStatus(resp.StatusCode),
			Message: fmt.Sprintf("status %d: unreadable response", resp.StatusCode),
		}
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Code: codeForStatus(resp.StatusCode)}
		if env.Error != nil {
			if env.Error.Code != "" {
				apiErr.Code = env.Error.Code
			}
			apiErr.Message = env.Error.Message
		}
		if apiErr.Code == CodeInvalidCredentials {
			return ErrInvalidCredentials
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status == http.StatusUnauthorized:
		return CodeInvalidCredentials
	case status >= 500:
		return CodeTransient
	default:
		return CodeInvalidItem
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
