package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(repo *mockRepository, tokens *mockTokenStore) *gin.Engine {
	handler := NewHandler(NewService(repo, tokens, testSecret, 24))

	router := gin.New()
	router.POST("/api/v1/auth/register", handler.Register)
	router.POST("/api/v1/auth/login", handler.Login)
	router.GET("/api/v1/auth/me", handler.Me)
	router.GET("/api/v1/admin/users", handler.ListUsers)
	return router
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, new(mockTokenStore))

	repo.On("GetUserByEmail", mock.Anything, "new@example.com").Return(nil, ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)

	w := performJSON(router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "longenoughpassword",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "new@example.com", resp.Data.User.Email)
}

func TestRegisterEndpointValidation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"missing email", gin.H{"password": "longenoughpassword"}, "Email is required"},
		{"invalid email", gin.H{"email": "not-an-email", "password": "longenoughpassword"}, "Email must be a valid email address"},
		{"short password", gin.H{"email": "user@example.com", "password": "short"}, "Password must be at least 8 characters long"},
	}

	router := setupRouter(new(mockRepository), new(mockTokenStore))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, http.MethodPost, "/api/v1/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Validation failed")
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestRegisterEndpointConflict(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, new(mockTokenStore))

	repo.On("GetUserByEmail", mock.Anything, "taken@example.com").Return(&User{Email: "taken@example.com"}, nil)

	w := performJSON(router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    "taken@example.com",
		"password": "longenoughpassword",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpointInvalidCredentials(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, new(mockTokenStore))

	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, ErrUserNotFound)

	w := performJSON(router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "wrong-horse-battery",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginEndpointSuccess(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, new(mockTokenStore))

	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(&User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: hashPassword(t, "correct-horse"),
		Role:         RoleUser,
		IsActive:     true,
	}, nil)

	w := performJSON(router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "user@example.com",
		"password": "correct-horse",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}

func TestMeEndpointWithoutIdentity(t *testing.T) {
	router := setupRouter(new(mockRepository), new(mockTokenStore))

	w := performJSON(router, http.MethodGet, "/api/v1/auth/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	repo := new(mockRepository)
	router := setupRouter(repo, new(mockTokenStore))

	repo.On("ListUsers", mock.Anything, 20, 0).Return([]*User{
		{ID: uuid.New(), Email: "a@example.com", Role: RoleUser},
		{ID: uuid.New(), Email: "b@example.com", Role: RoleAdmin},
	}, nil)
	repo.On("CountUsers", mock.Anything).Return(int64(2), nil)

	w := performJSON(router, http.MethodGet, "/api/v1/admin/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.NotContains(t, w.Body.String(), "password")
}
