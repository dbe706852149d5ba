package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenCookie carries the signed checkout session token.
const AccessTokenCookie = "checkout_token"

var (
	ErrMissingSecret = errors.New("token secret is not set")
	ErrInvalidToken  = errors.New("invalid token")
)

type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func ExtractAccessToken(r *http.Request) string {
	// Cookie (preferred)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	// Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// GenerateSessionToken signs a token binding the bearer to sessionID.
func GenerateSessionToken(sessionID string, secret []byte, ttl time.Duration) (string, error) {
	return signToken(sessionID, secret, ttl)
}

// ParseSessionToken accepts bearer tokens only. Tokens issued for another
// audience, such as gateway return tokens, are rejected.
func ParseSessionToken(tokenStr string, secret []byte) (*SessionClaims, error) {
	claims, err := parseToken(tokenStr, secret)
	if err != nil {
		return nil, err
	}
	if len(claims.Audience) > 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func signToken(sessionID string, secret []byte, ttl time.Duration, audience ...string) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if len(audience) > 0 {
		claims.Audience = jwt.ClaimStrings(audience)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenStr string, secret []byte, opts ...jwt.ParserOption) (*SessionClaims, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
