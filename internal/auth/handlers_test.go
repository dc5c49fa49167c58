package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/accounts-service/internal/auth/jwt"
	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()

	svc, _ := newMemoryService()
	h := NewHTTPHandlers(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/token/refresh/", h.RefreshToken)
	r.Post("/token/verify/", h.VerifyToken)
	r.Get("/users/{id}", h.GetUser)
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(svc, zerolog.Nop()), RequireAuth)
		r.Get("/users/me", h.GetMe)
		r.Put("/users/me", h.UpdateMe)
		r.Delete("/users/me", h.DeleteMe)
	})
	return r, svc
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlers_RegisterLoginAndMe(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123", FirstName: "Alice",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	assert.Equal(t, "alice", created["username"])
	assert.Equal(t, "alice@example.com", created["email"])
	assert.NotContains(t, created, "password")

	rec = doJSON(t, router, http.MethodPost, "/auth/register", RegisterRequest{
		Username: "alice", Email: "x@example.com", Password: "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", LoginRequest{Username: "alice", Password: "password123"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pair TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.Access)

	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode(t, rec)["username"])

	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, pair.Refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlers_LoginRejectsBadPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", LoginRequest{Username: "alice", Password: "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "login_failed", decode(t, rec)["error"])
}

func TestHandlers_RegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", RegisterRequest{
		Username: "alice", Email: "bad", Password: "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode(t, rec)["field"])
}

func TestHandlers_UpdateAndDeleteMe(t *testing.T) {
	router, svc := newTestRouter(t)

	alice, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "password123"})
	require.NoError(t, err)
	pair, err := svc.IssueTokens(*alice)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPut, "/users/me", map[string]string{"last_name": "Liddell"}, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Liddell", decode(t, rec)["last_name"])

	rec = doJSON(t, router, http.MethodPut, "/users/me", map[string]string{"email": "bob@example.com"}, pair.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email_in_use", decode(t, rec)["error"])

	rec = doJSON(t, router, http.MethodDelete, "/users/me", nil, pair.Access)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/me", nil, pair.Access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlers_GetUser(t *testing.T) {
	router, svc := newTestRouter(t)

	alice, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/users/"+strconv.FormatInt(alice.ID, 10), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, body, "password")

	rec = doJSON(t, router, http.MethodGet, "/users/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_RefreshAndVerify(t *testing.T) {
	router, svc := newTestRouter(t)

	alice, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	pair, err := svc.IssueTokens(*alice)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access, _ := decode(t, rec)["access"].(string)
	assert.NotEmpty(t, access)

	rec = doJSON(t, router, http.MethodPost, "/token/verify/", map[string]string{"token": access}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/token/verify/", map[string]string{"token": "junk"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/token/refresh/", map[string]string{"refresh": access}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func signExpired(t *testing.T, user *User, tokenType string, secret []byte) string {
	t.Helper()

	now := time.Now()
	claims := jwt.Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "accounts-service",
			IssuedAt:  gojwt.NewNumericDate(now.Add(-2 * time.Hour)),
			NotBefore: gojwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: gojwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestHandlers_ExpiredTokens(t *testing.T) {
	router, svc := newTestRouter(t)

	alice, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	access := signExpired(t, alice, jwt.TypeAccess, testTokenConfig.AccessSecret)
	refresh := signExpired(t, alice, jwt.TypeRefresh, testTokenConfig.RefreshSecret)

	rec := doJSON(t, router, http.MethodGet, "/users/me", nil, access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decode(t, rec)["error"])

	rec = doJSON(t, router, http.MethodPost, "/token/refresh/", map[string]string{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decode(t, rec)["error"])

	rec = doJSON(t, router, http.MethodPost, "/token/verify/", map[string]string{"token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_expired", decode(t, rec)["error"])

	rec = doJSON(t, router, http.MethodPost, "/token/refresh/", map[string]string{"refresh": "junk"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode(t, rec)["error"])
}

func TestHandlers_RefreshStoreFailure(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewService(repo, testTokenConfig, zerolog.Nop())
	pair, err := svc.IssueTokens(User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	repo.On("GetByID", mock.Anything, int64(7)).Return(sqlcgen.User{}, errors.New("connection reset"))

	r := chi.NewRouter()
	r.Post("/token/refresh/", NewHTTPHandlers(svc, zerolog.Nop()).RefreshToken)

	rec := doJSON(t, r, http.MethodPost, "/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "refresh_failed", decode(t, rec)["error"])
	repo.AssertExpectations(t)
}
