// Package session persists the marketplace session token between runs so a
// still-valid session skips interactive login.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// State is the serialized session blob.
type State struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

// Valid reports whether the session can still be used at the given time.
// A small safety margin avoids using a token that expires mid-call.
func (s *State) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return now.Add(30 * time.Second).Before(s.ExpiresAt)
}

// Load reads a persisted session. A missing file is not an error: it simply
// means a fresh login is required.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &st, nil
}

// Save writes the session blob to disk.
func Save(path string, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
