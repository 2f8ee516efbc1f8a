package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-marketplace/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestParseCaller(t *testing.T) {
	signed := mintToken(t, jwt.MapClaims{
		"sub":          "user1",
		"role":         auth.RoleOrganizer,
		"organizer_id": "org1",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	caller, err := auth.ParseCaller(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user1", caller.UserID)
	assert.Equal(t, auth.RoleOrganizer, caller.Role)
	assert.Equal(t, "org1", caller.OrganizerID)
}

func TestParseCallerDefaultsRole(t *testing.T) {
	signed := mintToken(t, jwt.MapClaims{"sub": "user1"})

	caller, err := auth.ParseCaller(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, caller.Role)
}

func TestParseCallerRejectsWrongSecret(t *testing.T) {
	signed := mintToken(t, jwt.MapClaims{"sub": "user1"})

	_, err := auth.ParseCaller(signed, "other-secret")
	assert.Error(t, err)
}

func TestParseCallerRequiresSubject(t *testing.T) {
	signed := mintToken(t, jwt.MapClaims{"role": auth.RoleAdmin})

	_, err := auth.ParseCaller(signed, testSecret)
	assert.Error(t, err)
}

func TestMiddlewareInjectsCaller(t *testing.T) {
	var got auth.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.Middleware(testSecret)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.MapClaims{"sub": "user1", "role": auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user1", got.UserID)
	assert.True(t, got.IsAdmin())
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := auth.Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := auth.Middleware(testSecret)(auth.RequireRole(auth.RoleAdmin)(next))

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.MapClaims{"sub": "u", "role": auth.RoleAdmin}))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, jwt.MapClaims{"sub": "u", "role": auth.RoleUser}))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
