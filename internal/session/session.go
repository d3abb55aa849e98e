// Package session keeps the authenticated state of the client: a bearer
// token and the cached user record, persisted in a storage.KV under the
// keys "token" and "user".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"car-rental/internal/logutil"
	"car-rental/internal/models"
	"car-rental/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// Store wraps a storage.KV with the session contract.
type Store struct {
	kv  storage.KV
	log zerolog.Logger
}

func NewStore(kv storage.KV, logger zerolog.Logger) *Store {
	return &Store{kv: kv, log: logger.With().Str("component", "session").Logger()}
}

// SetSession persists token and user, replacing any previous session.
func (s *Store) SetSession(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.SetMany(ctx, map[string]string{tokenKey: token, userKey: string(raw)}); err != nil {
		return logutil.LogAndWrapErr(s.log, "save session", err, map[string]any{"user_id": user.ID})
	}
	s.log.Debug().Int64("user_id", user.ID).Msg("session stored")
	return nil
}

// Token returns the stored token, or "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, err := s.kv.Get(ctx, tokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// User returns the cached user, or nil when there is no session.
// A user stored without a token is not reported.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	raw, err := s.kv.Get(ctx, userKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, logutil.DebugAndWrapErr(s.log, "decode user", err, nil)
	}
	return &u, nil
}

// Clear removes the token and the user.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.DeleteMany(ctx, tokenKey, userKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Debug().Msg("session cleared")
	return nil
}

// IsAuthenticated reports whether a token is present. Read failures are
// logged and count as unauthenticated.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session lookup failed")
		return false
	}
	return token != ""
}

// TokenExpiry returns the exp claim of a JWT token without verifying it.
// ok is false when there is no token or it carries no expiry.
func (s *Store) TokenExpiry(ctx context.Context) (exp time.Time, ok bool) {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := parsed.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}
