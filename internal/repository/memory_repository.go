package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/models"
)

// MemoryRepository implements the Repository interface with in-process maps.
// It backs the API tests and makes the token rotation compare-and-swap
// observable without a database: every mutation happens under one mutex.
type MemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]models.User
	records map[string]models.MilkRecord
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]models.User),
		records: make(map[string]models.MilkRecord),
	}
}

// User repository methods

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperrors.ErrConflict
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u := user
	return &u, nil
}

func (r *MemoryRepository) UpdateUserSettings(_ context.Context, userID string, price float64, currency, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.MilkPricePerLitre = price
	user.Currency = currency
	user.CurrencySymbol = symbol
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

// Refresh token repository methods

func (r *MemoryRepository) SetRefreshToken(_ context.Context, userID, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.RefreshToken = refreshToken
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepository) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	// Compare-and-swap under the lock: a stale token loses.
	if user.RefreshToken == "" || user.RefreshToken != oldToken {
		return apperrors.ErrUnauthorized
	}
	user.RefreshToken = newToken
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepository) ClearRefreshToken(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil // idempotent
	}
	user.RefreshToken = ""
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

// Milk record repository methods

func (r *MemoryRepository) CreateRecord(_ context.Context, record *models.MilkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	r.records[record.ID] = *record
	return nil
}

func (r *MemoryRepository) GetRecord(_ context.Context, userID, recordID string) (*models.MilkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[recordID]
	if !ok || record.UserID != userID {
		return nil, nil
	}
	rec := record
	return &rec, nil
}

func (r *MemoryRepository) ListRecords(_ context.Context, userID string) ([]models.MilkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []models.MilkRecord
	for _, record := range r.records {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *MemoryRepository) UpdateRecord(_ context.Context, record *models.MilkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[record.ID]
	if !ok || existing.UserID != record.UserID {
		return apperrors.ErrNotFound
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now().UTC()
	r.records[record.ID] = *record
	return nil
}

func (r *MemoryRepository) DeleteRecord(_ context.Context, userID, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[recordID]
	if !ok || record.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(r.records, recordID)
	return nil
}
