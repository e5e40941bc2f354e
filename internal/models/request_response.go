package models

// Wire formats: request bodies carry dates as ISO YYYY-MM-DD, responses render
// them as DD-MM-YYYY. Month keys are zero-padded MM-YYYY.
const (
	RequestDateLayout  = "2006-01-02"
	ResponseDateLayout = "02-01-2006"
)

// Request models
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateRecordRequest struct {
	MilkQty *float64 `json:"milk_qty" binding:"required"`
	Date    string   `json:"date"` // optional, defaults to today
}

type UpdateRecordRequest struct {
	MilkQty *float64 `json:"milk_qty"`
	Date    *string  `json:"date"`
}

type UpdateSettingsRequest struct {
	MilkPricePerLitre *float64 `json:"milk_price_per_litre"`
	Currency          *string  `json:"currency"`
	CurrencySymbol    *string  `json:"currency_symbol"`
}

// Response models

// UserSummary is the trimmed user payload returned by registration.
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserProfile is the full user payload returned by login and /api/auth/me.
type UserProfile struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Username          string  `json:"username"`
	Currency          string  `json:"currency"`
	CurrencySymbol    string  `json:"currency_symbol"`
	MilkPricePerLitre float64 `json:"milk_price_per_litre"`
}

type RegisterResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

type LoginResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type MeResponse struct {
	User UserProfile `json:"user"`
}

// RecordPayload is a single record as serialized in responses, with the cost
// derived from the owner's current price.
type RecordPayload struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	MilkQty float64 `json:"milk_qty"`
	Cost    float64 `json:"cost"`
}

type RecordResponse struct {
	Message string        `json:"message,omitempty"`
	Record  RecordPayload `json:"record"`
}

// RecordsResponse is the monthly report. Months lists the MM-YYYY keys in
// chronological order since JSON object keys carry no ordering.
type RecordsResponse struct {
	MonthlyData   map[string][]RecordPayload `json:"monthly_data"`
	MonthlyTotals map[string]float64         `json:"monthly_totals"`
	Months        []string                   `json:"months"`
	TotalRecords  int                        `json:"total_records"`
	TotalCost     float64                    `json:"total_cost"`
}

type SettingsResponse struct {
	MilkPricePerLitre float64 `json:"milk_price_per_litre"`
	Currency          string  `json:"currency"`
	CurrencySymbol    string  `json:"currency_symbol"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
