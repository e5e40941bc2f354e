package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/milktrack/server/internal/api"
	"github.com/milktrack/server/internal/auth"
	"github.com/milktrack/server/internal/models"
	"github.com/milktrack/server/internal/repository"
	"github.com/milktrack/server/internal/service"
	"github.com/milktrack/server/internal/token"
)

const (
	TestUserEmail    = "testuser@example.com"
	TestUserPassword = "testpassword"
	TestJWTSecret    = "test-secret-key"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router       *gin.Engine
	Repository   repository.Repository
	Service      service.Service
	Tokens       *auth.Manager
	TestUserID   string
	TestUserJWT  string
	RefreshToken string
}

// SetupTestContext wires the full API over an in-memory repository, so tests
// exercise the real handlers, middleware and token lifecycle without a
// database.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	repo := repository.NewMemoryRepository()
	codec := token.NewCodec([]byte(TestJWTSecret), nil)
	tokens := auth.NewManager(codec, repo, nil)
	svc := service.NewDefaultService(repo, tokens, nil)
	handler := api.NewHandler(svc, tokens)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	userID, pair := createTestUser(t, repo, tokens)

	return &TestContext{
		Router:       router,
		Repository:   repo,
		Service:      svc,
		Tokens:       tokens,
		TestUserID:   userID,
		TestUserJWT:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

// CreateUser registers an extra user directly against the repository and
// returns its id with a live token pair.
func CreateUser(t *testing.T, testCtx *TestContext, email string) (string, *auth.Pair) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Email:             email,
		Username:          "Extra User",
		PasswordHash:      string(hashed),
		EmailVerified:     true,
		MilkPricePerLitre: models.DefaultMilkPricePerLitre,
		Currency:          models.DefaultCurrency,
		CurrencySymbol:    models.DefaultCurrencySymbol,
	}
	require.NoError(t, testCtx.Repository.CreateUser(context.Background(), user))

	pair, err := testCtx.Tokens.IssuePair(context.Background(), user.ID)
	require.NoError(t, err)

	return user.ID, pair
}

func createTestUser(t *testing.T, repo repository.Repository, tokens *auth.Manager) (string, *auth.Pair) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), bcrypt.DefaultCost)
	require.NoError(t, err, "Failed to hash test password")

	user := &models.User{
		Email:             TestUserEmail,
		Username:          "Test User",
		PasswordHash:      string(hashed),
		EmailVerified:     true,
		MilkPricePerLitre: models.DefaultMilkPricePerLitre,
		Currency:          models.DefaultCurrency,
		CurrencySymbol:    models.DefaultCurrencySymbol,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user), "Failed to create test user")

	pair, err := tokens.IssuePair(context.Background(), user.ID)
	require.NoError(t, err, "Failed to issue test token pair")

	return user.ID, pair
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
