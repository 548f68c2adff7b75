package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yesworId/BuyOrderBot/internal/config"
	"github.com/yesworId/BuyOrderBot/internal/session"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code, "message": message}
	}
	_ = json.NewEncoder(w).Encode(body)
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		APIKey:      "key",
		Username:    "user",
		Password:    "pass",
		Currency:    "USD",
		BaseURL:     baseURL,
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	}
	c, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.loginRetryDelay = 0
	return c
}

func sessionData(expiry time.Time) map[string]interface{} {
	return map[string]interface{}{
		"token":      "tok-123",
		"expires_at": expiry.Format(time.RFC3339),
	}
}

func TestLoginSavesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "pass" {
			writeEnvelope(w, http.StatusUnauthorized, nil, CodeInvalidCredentials, "wrong credentials")
			return
		}
		writeEnvelope(w, http.StatusCreated, sessionData(time.Now().Add(time.Hour)), "", "")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, ts.URL)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	st, err := session.Load(c.sessionPath)
	if err != nil || st == nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if st.Token != "tok-123" || !st.Valid(time.Now()) {
		t.Errorf("persisted session = %+v", st)
	}
}

func TestLoginInvalidCredentialsFailsFast(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeEnvelope(w, http.StatusUnauthorized, nil, CodeInvalidCredentials, "wrong credentials")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, ts.URL)
	if err := c.Login(context.Background()); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if calls != 1 {
		t.Errorf("login calls = %d, want 1 (no retry on rejected credentials)", calls)
	}
}

func TestLoginRetriesTransientFailures(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			writeEnvelope(w, http.StatusInternalServerError, nil, CodeTransient, "boom")
			return
		}
		writeEnvelope(w, http.StatusCreated, sessionData(time.Now().Add(time.Hour)), "", "")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, ts.URL)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login should succeed on third attempt: %v", err)
	}
	if calls != 3 {
		t.Errorf("login calls = %d, want 3", calls)
	}
}

func TestGetBalanceLogsInWhenSessionMissing(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		logins++
		writeEnvelope(w, http.StatusCreated, sessionData(time.Now().Add(time.Hour)), "", "")
	})
	mux.HandleFunc("/api/v1/account/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			writeEnvelope(w, http.StatusUnauthorized, nil, CodeInvalidCredentials, "no session")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"balance_minor_units": 12345,
			"currency":            "USD",
		}, "", "")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, ts.URL)
	balance, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if logins != 1 {
		t.Errorf("logins = %d, want 1 (guarded call logs in first)", logins)
	}
	if balance.String() != "123.45" {
		t.Errorf("balance = %s, want 123.45", balance)
	}
}

func TestCreateOrderErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusCreated, sessionData(time.Now().Add(time.Hour)), "", "")
	})
	status := http.StatusTooManyRequests
	code := CodeRateLimited
	mux.HandleFunc("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("missing idempotency key")
		}
		writeEnvelope(w, status, nil, code, "slow down")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient(t, ts.URL)

	_, err := c.CreateOrder(context.Background(), "item", 500, 2, "CS", "USD")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != CodeRateLimited {
		t.Fatalf("want rate-limited APIError, got %v", err)
	}

	status, code = http.StatusBadRequest, CodeInvalidItem
	_, err = c.CreateOrder(context.Background(), "item", 500, 2, "CS", "USD")
	if !errors.As(err, &apiErr) || apiErr.Code != CodeInvalidItem {
		t.Fatalf("want invalid-item APIError, got %v", err)
	}
}

func TestReusesPersistedSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/session", func(w http.ResponseWriter, r *http.Request) {
		t.Error("login endpoint must not be called with a valid persisted session")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	st := &session.State{Token: "tok-123", ExpiresAt: time.Now().Add(time.Hour), Username: "user"}
	if err := session.Save(path, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session file missing: %v", err)
	}

	cfg := &config.Config{
		APIKey: "key", Username: "user", Password: "pass", Currency: "USD",
		BaseURL: ts.URL, SessionPath: path,
	}
	loaded, err := session.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, err := NewClient(cfg, loaded)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
}
