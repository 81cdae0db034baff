package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollease/enrollease-api/internal/models"
)

const testSecret = "session-test-secret"

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := models.SessionClaims{
		UserID: "u1",
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newSessionRouter() (*gin.Engine, *models.SessionClaims) {
	gin.SetMode(gin.TestMode)
	captured := &models.SessionClaims{}
	r := gin.New()
	r.GET("/protected", Session(testSecret), func(c *gin.Context) {
		if v, ok := c.Get(ContextUserKey); ok {
			*captured = *v.(*models.SessionClaims)
		}
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestSessionAcceptsValidToken(t *testing.T) {
	r, captured := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", captured.UserID)
	assert.Equal(t, "admin@example.com", captured.Email)
}

func TestSessionRejectsMissingHeader(t *testing.T) {
	r, _ := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	r, _ := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(-time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	r, _ := newSessionRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
