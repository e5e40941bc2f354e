package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/models"
	"github.com/milktrack/server/internal/repository"
	"github.com/milktrack/server/internal/token"
)

func setupManager(t *testing.T) (*Manager, *repository.MemoryRepository, string) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	user := &models.User{Email: "testuser@example.com", Username: "Test User"}
	require.NoError(t, repo.CreateUser(context.Background(), user))

	codec := token.NewCodec([]byte("test-secret-key"), nil)
	return NewManager(codec, repo, nil), repo, user.ID
}

func TestIssuePairAndVerifyAccess(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	subject, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	m, _, userID := setupManager(t)

	pair, err := m.IssuePair(context.Background(), userID)
	require.NoError(t, err)

	// Kind confusion must be rejected.
	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	m, _, _ := setupManager(t)

	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.VerifyAccess(tokenString)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	current := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryRepository()
	user := &models.User{Email: "testuser@example.com"}
	require.NoError(t, repo.CreateUser(context.Background(), user))

	codec := token.NewCodec([]byte("test-secret-key"), func() time.Time { return current })
	m := NewManager(codec, repo, nil)

	pair, err := m.IssuePair(context.Background(), user.ID)
	require.NoError(t, err)

	current = current.Add(AccessTokenTTL + time.Minute)
	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefreshRotation(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)
	r1 := pair.RefreshToken

	// First refresh with R1 succeeds and yields R2.
	subject, next, err := m.Refresh(ctx, r1)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)
	require.NotEmpty(t, next.RefreshToken)
	r2 := next.RefreshToken

	// R1 has been rotated away and must now fail.
	_, _, err = m.Refresh(ctx, r1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// R2 is the live token and still works.
	_, _, err = m.Refresh(ctx, r2)
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRevokeInvalidatesRefresh(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, userID))

	_, _, err = m.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Revoke is idempotent.
	assert.NoError(t, m.Revoke(ctx, userID))
}

func TestLoginRotatesOutOldRefreshToken(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	first, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)

	// A second login issues a new pair; the earlier refresh token dies with
	// it even though it has not expired.
	second, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)

	_, _, err = m.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = m.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	m, _, userID := setupManager(t)
	ctx := context.Background()

	pair, err := m.IssuePair(ctx, userID)
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
			losses++
		}
	}

	assert.Equal(t, 1, wins, "exactly one concurrent refresh may win")
	assert.Equal(t, attempts-1, losses)
}
