package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ali-Uen/todo-service/internal/middleware"
	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/service"
	"github.com/gin-gonic/gin"
)

// =============================================================================
// Mock Services
// =============================================================================

type mockAuthService struct {
	registerFunc      func(ctx context.Context, email, username, password string) (*service.LoginResponse, error)
	loginFunc         func(ctx context.Context, email, password string) (*service.LoginResponse, error)
	loginExternalFunc func(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*service.LoginResponse, error)
	refreshFunc       func(ctx context.Context, refreshToken string) (*service.LoginResponse, error)
	issueSessionFunc  func(user *models.User) (*service.LoginResponse, error)
	authorizeFunc     func(accessToken string) (*service.Claims, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, username, password string) (*service.LoginResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, email, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) LoginExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*service.LoginResponse, error) {
	if m.loginExternalFunc != nil {
		return m.loginExternalFunc(ctx, email, username, provider, subject)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.LoginResponse, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) IssueSession(user *models.User) (*service.LoginResponse, error) {
	if m.issueSessionFunc != nil {
		return m.issueSessionFunc(user)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Authorize(accessToken string) (*service.Claims, error) {
	if m.authorizeFunc != nil {
		return m.authorizeFunc(accessToken)
	}
	return nil, errors.New("not implemented")
}

type mockUserService struct {
	registerPasswordFunc     func(ctx context.Context, email, username, password string) (*models.User, error)
	authenticatePasswordFunc func(ctx context.Context, email, password string) (*models.User, error)
	reconcileExternalFunc    func(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*models.User, error)
	findByIDFunc             func(ctx context.Context, id int64) (*models.User, error)
	findByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	updateProfileFunc        func(ctx context.Context, userID int64, username string) (*models.User, error)
	updatePasswordFunc       func(ctx context.Context, userID int64, newPassword string) error
	enableFunc               func(ctx context.Context, userID int64) error
	disableFunc              func(ctx context.Context, userID int64) error
}

func (m *mockUserService) RegisterPassword(ctx context.Context, email, username, password string) (*models.User, error) {
	if m.registerPasswordFunc != nil {
		return m.registerPasswordFunc(ctx, email, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error) {
	if m.authenticatePasswordFunc != nil {
		return m.authenticatePasswordFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) ReconcileExternal(ctx context.Context, email, username string, provider models.AuthProvider, subject string) (*models.User, error) {
	if m.reconcileExternalFunc != nil {
		return m.reconcileExternalFunc(ctx, email, username, provider, subject)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID int64, username string) (*models.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, userID, username)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	if m.updatePasswordFunc != nil {
		return m.updatePasswordFunc(ctx, userID, newPassword)
	}
	return errors.New("not implemented")
}

func (m *mockUserService) Enable(ctx context.Context, userID int64) error {
	if m.enableFunc != nil {
		return m.enableFunc(ctx, userID)
	}
	return errors.New("not implemented")
}

func (m *mockUserService) Disable(ctx context.Context, userID int64) error {
	if m.disableFunc != nil {
		return m.disableFunc(ctx, userID)
	}
	return errors.New("not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupAuthHandler() (*AuthHandler, *mockAuthService, *mockUserService) {
	gin.SetMode(gin.TestMode)
	mockAuth := &mockAuthService{}
	mockUsers := &mockUserService{}
	return NewAuthHandler(mockAuth, mockUsers), mockAuth, mockUsers
}

func performJSONRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleLoginResponse() *service.LoginResponse {
	return &service.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    900,
		User: service.UserInfo{
			ID:           1,
			Email:        "alice@example.com",
			Username:     "alice",
			AuthProvider: models.AuthProviderPassword,
			CreatedAt:    time.Now(),
		},
	}
}

// =============================================================================
// Register Tests
// =============================================================================

func TestRegisterHandler(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.registerFunc = func(ctx context.Context, email, username, password string) (*service.LoginResponse, error) {
		return sampleLoginResponse(), nil
	}

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	w := performJSONRequest(router, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp service.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("response should contain a token pair")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", resp.TokenType)
	}
}

func TestRegisterHandler_ValidationFailures(t *testing.T) {
	handler, _, _ := setupAuthHandler()
	router := gin.New()
	router.POST("/auth/register", handler.Register)

	tests := []struct {
		name string
		body RegisterRequest
	}{
		{name: "missing email", body: RegisterRequest{Username: "alice", Password: "secret123"}},
		{name: "malformed email", body: RegisterRequest{Email: "not-an-email", Username: "alice", Password: "secret123"}},
		{name: "short username", body: RegisterRequest{Email: "alice@example.com", Username: "a", Password: "secret123"}},
		{name: "short password", body: RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "12345"}},
		{name: "password over bcrypt limit", body: RegisterRequest{Email: "alice@example.com", Username: "alice", Password: strings.Repeat("p", 80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSONRequest(router, http.MethodPost, "/auth/register", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.registerFunc = func(ctx context.Context, email, username, password string) (*service.LoginResponse, error) {
		return nil, service.ErrUserAlreadyExists
	}

	router := gin.New()
	router.POST("/auth/register", handler.Register)

	w := performJSONRequest(router, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret123",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Code != "USER_ALREADY_EXISTS" {
		t.Errorf("Code = %q, want USER_ALREADY_EXISTS", resp.Code)
	}
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLoginHandler(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.loginFunc = func(ctx context.Context, email, password string) (*service.LoginResponse, error) {
		if email == "alice@example.com" && password == "secret123" {
			return sampleLoginResponse(), nil
		}
		return nil, service.ErrInvalidCredentials
	}

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	w := performJSONRequest(router, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	w = performJSONRequest(router, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Code != "INVALID_CREDENTIALS" {
		t.Errorf("Code = %q, want INVALID_CREDENTIALS", resp.Code)
	}
}

func TestLoginHandler_InternalError(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.loginFunc = func(ctx context.Context, email, password string) (*service.LoginResponse, error) {
		return nil, errors.New("database connection lost")
	}

	router := gin.New()
	router.POST("/auth/login", handler.Login)

	w := performJSONRequest(router, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("database connection lost")) {
		t.Error("internal error details must not leak into the response body")
	}
}

// =============================================================================
// Refresh Tests
// =============================================================================

func TestRefreshHandler(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.refreshFunc = func(ctx context.Context, refreshToken string) (*service.LoginResponse, error) {
		if refreshToken == "valid-refresh" {
			return sampleLoginResponse(), nil
		}
		return nil, service.ErrInvalidToken
	}

	router := gin.New()
	router.POST("/auth/refresh", handler.Refresh)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{name: "valid token", token: "valid-refresh", wantStatus: http.StatusOK},
		{name: "invalid token", token: "garbage", wantStatus: http.StatusUnauthorized, wantCode: "INVALID_REFRESH_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSONRequest(router, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: tt.token})
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("Code = %q, want %q", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestRefreshHandler_DeletedUser(t *testing.T) {
	handler, mockAuth, _ := setupAuthHandler()
	mockAuth.refreshFunc = func(ctx context.Context, refreshToken string) (*service.LoginResponse, error) {
		return nil, service.ErrUserNotFound
	}

	router := gin.New()
	router.POST("/auth/refresh", handler.Refresh)

	w := performJSONRequest(router, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "orphaned"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// =============================================================================
// Me Tests
// =============================================================================

func TestMeHandler(t *testing.T) {
	handler, _, mockUsers := setupAuthHandler()
	mockUsers.findByIDFunc = func(ctx context.Context, id int64) (*models.User, error) {
		return &models.User{
			ID:           id,
			Email:        "alice@example.com",
			Username:     "alice",
			AuthProvider: models.AuthProviderPassword,
			Enabled:      true,
		}, nil
	}

	router := gin.New()
	router.GET("/auth/me", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, int64(1))
		handler.Me(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp service.UserInfo
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ID != 1 || resp.Email != "alice@example.com" {
		t.Errorf("UserInfo = %+v, want id 1 and alice@example.com", resp)
	}
}

func TestMeHandler_NotAuthenticated(t *testing.T) {
	handler, _, _ := setupAuthHandler()
	router := gin.New()
	router.GET("/auth/me", handler.Me)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestLogoutHandler(t *testing.T) {
	handler, _, _ := setupAuthHandler()
	router := gin.New()
	router.POST("/auth/logout", handler.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message == "" {
		t.Error("logout should return a confirmation message")
	}
}
