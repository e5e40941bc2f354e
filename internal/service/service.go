package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/milktrack/server/internal/apperrors"
	"github.com/milktrack/server/internal/auth"
	"github.com/milktrack/server/internal/models"
	"github.com/milktrack/server/internal/report"
	"github.com/milktrack/server/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error)
	Logout(ctx context.Context, userID string) error
	CurrentUser(ctx context.Context, userID string) (*models.MeResponse, error)

	// Milk records
	ListRecords(ctx context.Context, userID string) (*models.RecordsResponse, error)
	CreateRecord(ctx context.Context, userID string, req models.CreateRecordRequest) (*models.RecordResponse, error)
	UpdateRecord(ctx context.Context, userID, recordID string, req models.UpdateRecordRequest) (*models.RecordResponse, error)
	DeleteRecord(ctx context.Context, userID, recordID string) error

	// Settings
	GetSettings(ctx context.Context, userID string) (*models.SettingsResponse, error)
	UpdateSettings(ctx context.Context, userID string, req models.UpdateSettingsRequest) (*models.SettingsResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo   repository.Repository
	tokens *auth.Manager
	logger *slog.Logger
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, tokens *auth.Manager, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// Authentication methods

func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:                uuid.New().String(),
		Email:             email,
		Username:          req.Username,
		PasswordHash:      string(hashedPassword),
		EmailVerified:     true,
		MilkPricePerLitre: models.DefaultMilkPricePerLitre,
		Currency:          models.DefaultCurrency,
		CurrencySymbol:    models.DefaultCurrencySymbol,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		// Duplicate email surfaces as a business-rule conflict, never as a
		// generic server error.
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return &models.RegisterResponse{
		Message:      "registration successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: models.UserSummary{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	if !user.EmailVerified {
		return nil, apperrors.ErrForbidden
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing tokens: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &models.LoginResponse{
		Message:      "login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         profileOf(user),
	}, nil
}

func (s *DefaultService) Refresh(ctx context.Context, refreshToken string) (*models.RefreshResponse, error) {
	_, pair, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return &models.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *DefaultService) Logout(ctx context.Context, userID string) error {
	return s.tokens.Revoke(ctx, userID)
}

func (s *DefaultService) CurrentUser(ctx context.Context, userID string) (*models.MeResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.MeResponse{User: profileOf(user)}, nil
}

// Milk record methods

func (s *DefaultService) ListRecords(ctx context.Context, userID string) (*models.RecordsResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}

	rpt := report.Compute(records, user.MilkPricePerLitre)

	resp := &models.RecordsResponse{
		MonthlyData:   make(map[string][]models.RecordPayload, len(rpt.Buckets)),
		MonthlyTotals: rpt.Totals,
		Months:        rpt.Months,
		TotalRecords:  rpt.Count,
		TotalCost:     rpt.TotalCost,
	}
	if resp.Months == nil {
		resp.Months = []string{}
	}
	for key, bucket := range rpt.Buckets {
		payloads := make([]models.RecordPayload, 0, len(bucket))
		for _, entry := range bucket {
			payloads = append(payloads, recordPayload(entry.Record, entry.Cost))
		}
		resp.MonthlyData[key] = payloads
	}

	return resp, nil
}

func (s *DefaultService) CreateRecord(ctx context.Context, userID string, req models.CreateRecordRequest) (*models.RecordResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.MilkQty == nil || *req.MilkQty < 0 {
		return nil, fmt.Errorf("%w: milk quantity must be non-negative", apperrors.ErrInvalidInput)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		date, err = parseRequestDate(req.Date)
		if err != nil {
			return nil, err
		}
	}

	record := &models.MilkRecord{
		ID:      uuid.New().String(),
		UserID:  userID,
		Date:    date,
		MilkQty: *req.MilkQty,
	}

	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("error creating record: %w", err)
	}

	return &models.RecordResponse{
		Message: "record added",
		Record:  recordPayload(*record, report.Round2(record.MilkQty*user.MilkPricePerLitre)),
	}, nil
}

func (s *DefaultService) UpdateRecord(ctx context.Context, userID, recordID string, req models.UpdateRecordRequest) (*models.RecordResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.GetRecord(ctx, userID, recordID)
	if err != nil {
		return nil, fmt.Errorf("error getting record: %w", err)
	}
	if record == nil {
		return nil, apperrors.ErrNotFound
	}

	if req.MilkQty != nil {
		if *req.MilkQty < 0 {
			return nil, fmt.Errorf("%w: milk quantity must be non-negative", apperrors.ErrInvalidInput)
		}
		record.MilkQty = *req.MilkQty
	}
	if req.Date != nil {
		date, err := parseRequestDate(*req.Date)
		if err != nil {
			return nil, err
		}
		record.Date = date
	}

	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	return &models.RecordResponse{
		Record: recordPayload(*record, report.Round2(record.MilkQty*user.MilkPricePerLitre)),
	}, nil
}

func (s *DefaultService) DeleteRecord(ctx context.Context, userID, recordID string) error {
	return s.repo.DeleteRecord(ctx, userID, recordID)
}

// Settings methods

func (s *DefaultService) GetSettings(ctx context.Context, userID string) (*models.SettingsResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return settingsOf(user), nil
}

func (s *DefaultService) UpdateSettings(ctx context.Context, userID string, req models.UpdateSettingsRequest) (*models.SettingsResponse, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	price := user.MilkPricePerLitre
	currency := user.Currency
	symbol := user.CurrencySymbol

	if req.MilkPricePerLitre != nil {
		if *req.MilkPricePerLitre < 0 {
			return nil, fmt.Errorf("%w: milk price must be non-negative", apperrors.ErrInvalidInput)
		}
		price = *req.MilkPricePerLitre
	}
	if req.Currency != nil {
		if *req.Currency == "" {
			return nil, fmt.Errorf("%w: currency must not be empty", apperrors.ErrInvalidInput)
		}
		currency = *req.Currency
	}
	if req.CurrencySymbol != nil {
		symbol = *req.CurrencySymbol
	}

	if err := s.repo.UpdateUserSettings(ctx, userID, price, currency, symbol); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated", "user_id", userID, "milk_price_per_litre", price)

	return &models.SettingsResponse{
		MilkPricePerLitre: price,
		Currency:          currency,
		CurrencySymbol:    symbol,
	}, nil
}

// Helper methods

func (s *DefaultService) requireUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseRequestDate(value string) (time.Time, error) {
	date, err := time.Parse(models.RequestDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidInput)
	}
	return date, nil
}

func profileOf(user *models.User) models.UserProfile {
	return models.UserProfile{
		ID:                user.ID,
		Email:             user.Email,
		Username:          user.Username,
		Currency:          user.Currency,
		CurrencySymbol:    user.CurrencySymbol,
		MilkPricePerLitre: user.MilkPricePerLitre,
	}
}

func settingsOf(user *models.User) *models.SettingsResponse {
	return &models.SettingsResponse{
		MilkPricePerLitre: user.MilkPricePerLitre,
		Currency:          user.Currency,
		CurrencySymbol:    user.CurrencySymbol,
	}
}

func recordPayload(record models.MilkRecord, cost float64) models.RecordPayload {
	return models.RecordPayload{
		ID:      record.ID,
		Date:    record.Date.Format(models.ResponseDateLayout),
		MilkQty: record.MilkQty,
		Cost:    cost,
	}
}
