// file: router/router_test.go

package router_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"go-auth-api/config"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()

	config.AppConfig.JWT.AccessSecret = "test-access-secret"
	config.AppConfig.JWT.AccessExpiryMins = 60
	config.AppConfig.JWT.RefreshSecret = "test-refresh-secret"
	config.AppConfig.JWT.RefreshExpiryHrs = 168

	os.Exit(m.Run())
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *mockUserRepo) GetActiveUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetActiveUserByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) SoftDeleteUser(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(token *model.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *mockTokenRepo) GetByTokenHash(tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *mockTokenRepo) Revoke(id int) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *mockTokenRepo) RevokeByUserID(userID int) error {
	args := m.Called(userID)
	return args.Error(0)
}

type fakeCacheClient struct {
	counts map[string]int64
}

func (f *fakeCacheClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCacheClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func newTestRouter(userRepo *mockUserRepo, tokenRepo *mockTokenRepo, limiter *service.RateLimiter) http.Handler {
	authService := service.NewAuthService(userRepo, tokenRepo)
	authHandler := handler.NewAuthHandler(authService)
	authMW := handler.AuthMiddleware(authService, userRepo)
	limitMW := handler.RateLimitMiddleware(limiter)
	return router.NewRouter(authHandler, authMW, limitMW)
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(new(mockUserRepo), new(mockTokenRepo), nil)

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	expectedBody := `{"status":"Auth API is healthy and running"}`
	assert.JSONEq(t, expectedBody, rr.Body.String())
}

// TestAuthFlow runs the whole credential lifecycle through the real route
// table: register, duplicate register, login, profile, wrong-password login.
func TestAuthFlow(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockTokenRepo)
	r := newTestRouter(userRepo, tokenRepo, nil)

	email := "a@b.com"
	password := "Str0ng!Pass"
	user := &model.User{ID: 1, Email: email, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	// Registration: pre-check misses, insert captures the stored hash.
	userRepo.On("GetActiveUserByEmail", email).Return(nil, sql.ErrNoRows).Once()
	userRepo.On("CreateUser", mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) {
			created := args.Get(0).(*model.User)
			created.ID = user.ID
			user.Password = created.Password
		}).
		Return(nil).Once()

	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	req, _ := http.NewRequest("POST", "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	// Second registration with the same email fails generically.
	userRepo.On("GetActiveUserByEmail", email).Return(user, nil).Once()
	req, _ = http.NewRequest("POST", "/auth/register", strings.NewReader(body))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Login with the registered credentials.
	userRepo.On("GetActiveUserByEmail", email).Return(user, nil).Once()
	tokenRepo.On("Create", mock.AnythingOfType("*model.RefreshToken")).Return(nil).Once()
	req, _ = http.NewRequest("POST", "/auth/login", strings.NewReader(body))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResponse handler.AuthResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResponse))
	assert.NotEmpty(t, loginResponse.AccessToken)

	// Profile with the issued access token.
	userRepo.On("GetActiveUserByID", user.ID).Return(user, nil).Once()
	req, _ = http.NewRequest("GET", "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+loginResponse.AccessToken)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var profile map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, email, profile["email"])
	assert.NotContains(t, profile, "password")

	// Wrong password is rejected.
	userRepo.On("GetActiveUserByEmail", email).Return(user, nil).Once()
	wrongBody := fmt.Sprintf(`{"email":%q,"password":"wrong"}`, email)
	req, _ = http.NewRequest("POST", "/auth/login", strings.NewReader(wrongBody))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestRateLimit(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetActiveUserByEmail", mock.Anything).Return(nil, sql.ErrNoRows)

	limiter := service.NewRateLimiter(&fakeCacheClient{counts: make(map[string]int64)}, 2, time.Minute)
	r := newTestRouter(userRepo, new(mockTokenRepo), limiter)

	body := `{"email":"a@b.com","password":"Str0ng!Pass"}`
	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("POST", "/auth/login", strings.NewReader(body))
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	req, _ := http.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5000"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
