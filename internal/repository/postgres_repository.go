package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/models"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, email_verified,
			milk_price_per_litre, currency, currency_symbol, refresh_token,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.EmailVerified,
		user.MilkPricePerLitre, user.Currency, user.CurrencySymbol, user.RefreshToken,
		user.CreatedAt, user.UpdatedAt)

	// The unique index on lower(email) is the final arbiter for duplicate
	// registrations racing each other.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.ErrConflict
	}

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE lower(email) = lower($1)`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) UpdateUserSettings(ctx context.Context, userID string, price float64, currency, symbol string) error {
	query := `
		UPDATE users
		SET milk_price_per_litre = $1, currency = $2, currency_symbol = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query, price, currency, symbol, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Refresh token repository methods

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, userID, refreshToken string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, refreshToken, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// RotateRefreshToken swaps the stored refresh token for a new one in a single
// conditional UPDATE, so two refreshes racing with the same token have
// exactly one winner.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error {
	query := `
		UPDATE users SET refresh_token = $1, updated_at = $2
		WHERE id = $3 AND refresh_token = $4
	`

	result, err := r.db.ExecContext(ctx, query, newToken, time.Now().UTC(), userID, oldToken)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrUnauthorized
	}

	return nil
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET refresh_token = '', updated_at = $1 WHERE id = $2`

	// Idempotent: clearing an already-empty token is not an error.
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	return err
}

// Milk record repository methods

func (r *PostgresRepository) CreateRecord(ctx context.Context, record *models.MilkRecord) error {
	query := `
		INSERT INTO milk_records (id, user_id, date, milk_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.UserID, record.Date, record.MilkQty,
		record.CreatedAt, record.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetRecord(ctx context.Context, userID, recordID string) (*models.MilkRecord, error) {
	query := `SELECT * FROM milk_records WHERE id = $1 AND user_id = $2`

	var record models.MilkRecord
	err := r.db.GetContext(ctx, &record, query, recordID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Record not found or owned by someone else
		}
		return nil, err
	}

	return &record, nil
}

func (r *PostgresRepository) ListRecords(ctx context.Context, userID string) ([]models.MilkRecord, error) {
	query := `SELECT * FROM milk_records WHERE user_id = $1`

	var records []models.MilkRecord
	err := r.db.SelectContext(ctx, &records, query, userID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *PostgresRepository) UpdateRecord(ctx context.Context, record *models.MilkRecord) error {
	query := `
		UPDATE milk_records SET date = $1, milk_qty = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5
	`

	record.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		record.Date, record.MilkQty, record.UpdatedAt, record.ID, record.UserID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteRecord(ctx context.Context, userID, recordID string) error {
	query := `DELETE FROM milk_records WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, recordID, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
