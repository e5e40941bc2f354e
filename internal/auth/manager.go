// Package auth implements the token lifecycle: issuing access/refresh pairs,
// stateless access verification, refresh rotation and revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/token"
)

// Token lifetimes: access tokens are short-lived and stateless, refresh
// tokens are long-lived and persisted per user.
const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenStore persists the single currently-valid refresh token per user.
// Rotate must be atomic: the update applies only if the stored value still
// equals oldToken, so of two racing refreshes at most one wins.
type TokenStore interface {
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Pair is an access/refresh token pair issued together.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager is the only component allowed to authorize a request or terminate a
// session. Every verification failure is collapsed to apperrors.ErrUnauthorized
// before it reaches a caller; the internal cause is only logged.
type Manager struct {
	codec  *token.Codec
	store  TokenStore
	logger *slog.Logger
}

// NewManager creates a lifecycle manager over the given codec and store.
func NewManager(codec *token.Codec, store TokenStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{codec: codec, store: store, logger: logger}
}

// IssuePair generates a fresh access/refresh pair and persists the refresh
// token on the user, overwriting any prior value. Any refresh token issued
// earlier becomes unusable even if not yet expired.
func (m *Manager) IssuePair(ctx context.Context, userID string) (*Pair, error) {
	pair, err := m.newPair(userID)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("persisting refresh token: %w", err)
	}

	return pair, nil
}

// VerifyAccess validates an access token and returns the subject user id.
// It is stateless: access tokens are never checked against persisted state.
func (m *Manager) VerifyAccess(tokenString string) (string, error) {
	claims, err := m.codec.Decode(tokenString)
	if err != nil {
		m.logger.Debug("access token rejected", "reason", err)
		return "", apperrors.ErrUnauthorized
	}
	if claims.Kind != token.KindAccess {
		m.logger.Debug("access token rejected", "reason", "wrong token kind", "kind", claims.Kind)
		return "", apperrors.ErrUnauthorized
	}
	return claims.Subject, nil
}

// Refresh rotates a refresh token: it validates the presented token, swaps it
// for a fresh one atomically and returns a new pair. A token that has already
// been rotated away or revoked is rejected, so a stolen or raced refresh
// token cannot mint a second session.
func (m *Manager) Refresh(ctx context.Context, tokenString string) (string, *Pair, error) {
	claims, err := m.codec.Decode(tokenString)
	if err != nil {
		m.logger.Debug("refresh rejected", "reason", err)
		return "", nil, apperrors.ErrUnauthorized
	}
	if claims.Kind != token.KindRefresh {
		m.logger.Debug("refresh rejected", "reason", "wrong token kind", "kind", claims.Kind)
		return "", nil, apperrors.ErrUnauthorized
	}

	userID := claims.Subject
	pair, err := m.newPair(userID)
	if err != nil {
		return "", nil, err
	}

	// Compare-and-swap against the stored value: only the most recently
	// issued refresh token passes, and concurrent refreshes with the same
	// token produce exactly one winner.
	if err := m.store.RotateRefreshToken(ctx, userID, tokenString, pair.RefreshToken); err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrNotFound) {
			m.logger.Debug("refresh rejected", "reason", "stale or unknown refresh token", "user_id", userID)
			return "", nil, apperrors.ErrUnauthorized
		}
		return "", nil, fmt.Errorf("rotating refresh token: %w", err)
	}

	return userID, pair, nil
}

// Revoke clears the persisted refresh token, ending the user's session.
// It is idempotent.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.store.ClearRefreshToken(ctx, userID)
}

func (m *Manager) newPair(userID string) (*Pair, error) {
	accessToken, err := m.codec.Encode(userID, token.KindAccess, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refreshToken, err := m.codec.Encode(userID, token.KindRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
