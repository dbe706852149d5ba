package transport

import (
	"context"
	"net/http"
	"time"

	"novalnet-checkout/internal/logger"
	"novalnet-checkout/internal/middleware"

	"github.com/google/uuid"
)

type ctxKey string

const sessionKey ctxKey = "checkoutSession"

const (
	SessionCookie = "checkout_session"
	SessionHeader = "X-Checkout-Session"
)

func WithSession(ctx context.Context, sessionID string) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sessionID)
	return logger.WithSessionID(ctx, sessionID)
}

func GetSession(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey).(string)
	return sid
}

// resolveSession picks the checkout session of r: a verified token claim
// first, then the cookie, then the header. A fresh session is issued when
// none is present and issue is set.
func resolveSession(w http.ResponseWriter, r *http.Request, cookieTTL time.Duration, issue bool) string {
	if sid, ok := middleware.SessionIDFromContext(r.Context()); ok {
		return sid
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if sid := r.Header.Get(SessionHeader); sid != "" {
		return sid
	}
	if !issue {
		return ""
	}

	sid := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, sid)
	return sid
}

// SessionMiddleware attaches the checkout session to the request context.
// Requests to passivePaths never get a fresh session, they either carry
// one or resolve it themselves.
func SessionMiddleware(cookieTTL time.Duration, passivePaths ...string) func(http.Handler) http.Handler {
	passive := make(map[string]bool, len(passivePaths))
	for _, p := range passivePaths {
		passive[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := resolveSession(w, r, cookieTTL, !passive[r.URL.Path])
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sid)))
		})
	}
}
