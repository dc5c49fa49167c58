package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gokatarajesh/accounts-service/internal/cache"
)

const (
	stateKeyPrefix  = "oauth2_state_"
	stateTokenBytes = 32

	// DefaultStateTTL is how long an issued state stays valid.
	DefaultStateTTL = 10 * time.Minute
)

// StateEntry is what an issued state token binds to.
type StateEntry struct {
	Provider    string `json:"provider"`
	RedirectURI string `json:"redirect_uri"`
}

// StateStore issues and consumes single-use CSRF state tokens.
type StateStore struct {
	store cache.Store
	ttl   time.Duration
}

// NewStateStore stores entries in store for ttl.
func NewStateStore(store cache.Store, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{store: store, ttl: ttl}
}

// Issue records (provider, redirectURI) under supplied, or under a fresh
// random token when supplied is empty, and returns the token.
func (s *StateStore) Issue(ctx context.Context, provider, redirectURI, supplied string) (string, error) {
	token := supplied
	if token == "" {
		var err error
		if token, err = randomToken(); err != nil {
			return "", fmt.Errorf("generate state: %w", err)
		}
	}

	payload, err := json.Marshal(StateEntry{Provider: provider, RedirectURI: redirectURI})
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	if err := s.store.Set(ctx, stateKey(token), string(payload), s.ttl); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return token, nil
}

// Consume returns and deletes the entry for token. Missing or expired
// tokens return ErrStateNotFound.
func (s *StateStore) Consume(ctx context.Context, token string) (StateEntry, error) {
	if token == "" {
		return StateEntry{}, ErrStateNotFound
	}

	raw, err := s.store.GetDel(ctx, stateKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return StateEntry{}, ErrStateNotFound
		}
		return StateEntry{}, fmt.Errorf("consume state: %w", err)
	}

	var entry StateEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return StateEntry{}, fmt.Errorf("%w: corrupt entry", ErrStateNotFound)
	}
	return entry, nil
}

func stateKey(token string) string {
	return stateKeyPrefix + token
}

func randomToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
