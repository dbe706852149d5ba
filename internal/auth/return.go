package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReturnAudience marks tokens that tie a gateway return to its checkout
// session. They travel through the gateway and are never bearer tokens.
const ReturnAudience = "novalnet-return"

var ErrEmptySession = errors.New("session id is empty")

// ReturnBinder signs and verifies gateway return tokens. The gateway posts
// the customer back cross-site, so the session cookie cannot be relied on.
type ReturnBinder struct {
	secret []byte
	ttl    time.Duration
}

func NewReturnBinder(secret []byte, ttl time.Duration) *ReturnBinder {
	return &ReturnBinder{secret: secret, ttl: ttl}
}

func (b *ReturnBinder) Bind(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrEmptySession
	}
	return signToken(sessionID, b.secret, b.ttl, ReturnAudience)
}

// SessionID returns the session a return token was issued for.
func (b *ReturnBinder) SessionID(token string) (string, error) {
	claims, err := parseToken(token, b.secret, jwt.WithAudience(ReturnAudience))
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
