package models

import (
	"time"
)

// User represents an account owning milk records and at most one live
// refresh token. An empty RefreshToken means the user has no active session.
type User struct {
	ID                string    `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Username          string    `db:"username" json:"username"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	EmailVerified     bool      `db:"email_verified" json:"-"`
	MilkPricePerLitre float64   `db:"milk_price_per_litre" json:"milk_price_per_litre"`
	Currency          string    `db:"currency" json:"currency"`
	CurrencySymbol    string    `db:"currency_symbol" json:"currency_symbol"`
	RefreshToken      string    `db:"refresh_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// MilkRecord is one delivery entry. Cost is not stored; it is recomputed from
// the owner's current price whenever records are read.
type MilkRecord struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Date      time.Time `db:"date" json:"date"`
	MilkQty   float64   `db:"milk_qty" json:"milk_qty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Default settings applied to newly registered users.
const (
	DefaultMilkPricePerLitre = 50.0
	DefaultCurrency          = "INR"
	DefaultCurrencySymbol    = "₹"
)
