package middleware

import (
	"context"
	"net/http"

	"novalnet-checkout/internal/auth"
	"novalnet-checkout/internal/logger"

	"go.uber.org/zap"
)

type contextKey string

const (
	SessionIDKey   contextKey = "sessionID"
	TokenClaimsKey contextKey = "jwtClaims"
)

// Auth verifies an optional session token signed with secret. Requests
// without a token pass through anonymously; invalid tokens are rejected.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseSessionToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected session token", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), TokenClaimsKey, claims)
			if claims.SessionID != "" {
				ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
				ctx = logger.WithSessionID(ctx, claims.SessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok && sid != ""
}
