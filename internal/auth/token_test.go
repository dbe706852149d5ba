package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie_token"})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "cookie_token", ExtractAccessToken(req))
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("Empty Cookie Falls Back to Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		assert.Empty(t, ExtractAccessToken(req))
	})
}

func TestSessionToken(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		token, err := GenerateSessionToken("sess-1", testSecret, time.Hour)
		require.NoError(t, err)

		claims, err := ParseSessionToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "sess-1", claims.SessionID)
		assert.True(t, claims.ExpiresAt.After(time.Now()))
	})

	t.Run("MissingSecret", func(t *testing.T) {
		_, err := GenerateSessionToken("sess-1", nil, time.Hour)
		assert.ErrorIs(t, err, ErrMissingSecret)

		_, err = ParseSessionToken("anything", nil)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := GenerateSessionToken("sess-1", testSecret, time.Hour)
		require.NoError(t, err)

		_, err = ParseSessionToken(token, []byte("other"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateSessionToken("sess-1", testSecret, -time.Minute)
		require.NoError(t, err)

		_, err = ParseSessionToken(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{SessionID: "sess-1"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ParseSessionToken(s, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
