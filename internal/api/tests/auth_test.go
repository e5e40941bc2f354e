package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milktrack/server/internal/api/testutils"
	"github.com/milktrack/server/internal/models"
)

func TestRegister(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful registration
	registerReq := models.RegisterRequest{
		Email:    "newuser@example.com",
		Username: "New User",
		Password: "Password123",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		registerReq,
		nil,
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	var registerResp models.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registerResp))
	assert.NotEmpty(t, registerResp.AccessToken)
	assert.NotEmpty(t, registerResp.RefreshToken)
	assert.Equal(t, "newuser@example.com", registerResp.User.Email)
	assert.Equal(t, "New User", registerResp.User.Username)
	assert.NotEmpty(t, registerResp.User.ID)

	// The issued pair is live immediately.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(registerResp.AccessToken),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		registerReq,
		nil,
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	// The first registration's tokens remain valid after the conflict.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(registerResp.AccessToken),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 3: Duplicate email differing only in case
	casedReq := registerReq
	casedReq.Email = "NewUser@Example.com"

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		casedReq,
		nil,
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 4: Invalid request (missing required fields)
	invalidReq := models.RegisterRequest{
		Email: "invalid@example.com",
		// Missing username and password
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		invalidReq,
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful login
	loginReq := models.LoginRequest{
		Email:    testutils.TestUserEmail,
		Password: testutils.TestUserPassword,
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.AccessToken)
	assert.NotEmpty(t, loginResp.RefreshToken)
	assert.Equal(t, models.DefaultCurrencySymbol, loginResp.User.CurrencySymbol)

	// Test case 2: Invalid credentials
	invalidLoginReq := models.LoginRequest{
		Email:    testutils.TestUserEmail,
		Password: "wrongpassword",
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		invalidLoginReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: User not found
	nonExistentUserReq := models.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: testutils.TestUserPassword,
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		nonExistentUserReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginInvalidatesPreviousRefreshToken(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	oldRefresh := testCtx.RefreshToken

	loginReq := models.LoginRequest{
		Email:    testutils.TestUserEmail,
		Password: testutils.TestUserPassword,
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	// The refresh token issued before this login is now dead.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: oldRefresh},
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	r1 := testCtx.RefreshToken

	// Refresh with R1 succeeds and yields R2.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: r1},
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshResp models.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshResp))
	assert.NotEmpty(t, refreshResp.AccessToken)
	require.NotEmpty(t, refreshResp.RefreshToken)
	r2 := refreshResp.RefreshToken

	// Refresh with R1 again fails: it was rotated away.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: r1},
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Refresh with R2 succeeds.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: r2},
		nil,
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// The new access token works.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(refreshResp.AccessToken),
	)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Kind confusion: an access token presented for refresh is rejected.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: testCtx.TestUserJWT},
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Logout requires a bearer access token.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/logout",
		nil,
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/logout",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// The previously valid refresh token fails after logout.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/refresh",
		models.RefreshRequest{RefreshToken: testCtx.RefreshToken},
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout is idempotent: the stateless access token still verifies.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/logout",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMe(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var meResp models.MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meResp))
	assert.Equal(t, testCtx.TestUserID, meResp.User.ID)
	assert.Equal(t, testutils.TestUserEmail, meResp.User.Email)
	assert.Equal(t, models.DefaultCurrency, meResp.User.Currency)
	assert.Equal(t, models.DefaultCurrencySymbol, meResp.User.CurrencySymbol)
	assert.Equal(t, models.DefaultMilkPricePerLitre, meResp.User.MilkPricePerLitre)

	// Without a token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		nil,
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With a malformed header
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		map[string]string{"Authorization": "Token abc"},
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With a refresh token in place of an access token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/me",
		nil,
		testutils.AuthHeaders(testCtx.RefreshToken),
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
