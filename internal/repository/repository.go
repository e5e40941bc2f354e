package repository

import (
	"context"

	"github.com/milktrack/server/internal/models"
)

// Repository defines the persistence operations the service layer depends on.
// Record operations are always scoped by the owning user id; there is no way
// to reach another user's rows through this interface.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserSettings(ctx context.Context, userID string, price float64, currency, symbol string) error

	// Refresh token operations. RotateRefreshToken is a compare-and-swap:
	// it applies only while the stored value still equals oldToken and
	// returns apperrors.ErrUnauthorized otherwise.
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error

	// Milk record operations
	CreateRecord(ctx context.Context, record *models.MilkRecord) error
	GetRecord(ctx context.Context, userID, recordID string) (*models.MilkRecord, error)
	ListRecords(ctx context.Context, userID string) ([]models.MilkRecord, error)
	UpdateRecord(ctx context.Context, record *models.MilkRecord) error
	DeleteRecord(ctx context.Context, userID, recordID string) error
}
