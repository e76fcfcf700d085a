package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/models"
)

const testSecret = "test-secret"

func testUser() *models.User {
	return &models.User{
		ID:   "user-1",
		CPF:  "52998224725",
		Role: models.RoleClient,
	}
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := auth.IssueToken(testUser(), testSecret, time.Minute)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	principal, err := auth.ParseToken(token, testSecret)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, "52998224725", principal.CPF)
	assert.Equal(t, models.RoleClient, principal.Role)
	assert.False(t, principal.IsAdmin())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := auth.IssueToken(testUser(), testSecret, time.Minute)
	assert.NoError(t, err)

	_, err = auth.ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := auth.IssueToken(testUser(), testSecret, -time.Minute)
	assert.NoError(t, err)

	_, err = auth.ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	_, err := auth.PrincipalFrom(context.Background())
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestMiddleware(t *testing.T) {
	token, err := auth.IssueToken(testUser(), testSecret, time.Minute)
	assert.NoError(t, err)

	var got auth.Principal
	handler := auth.Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Valid token
	req := httptest.NewRequest("GET", "/api/v1/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", got.UserID)

	// Missing header
	req = httptest.NewRequest("GET", "/api/v1/tickets", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	req = httptest.NewRequest("GET", "/api/v1/tickets", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
