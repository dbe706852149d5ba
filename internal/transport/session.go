package transport

import (
	"net/http"
	"time"

	"novalnet-checkout/internal/auth"
	"novalnet-checkout/internal/logger"

	"go.uber.org/zap"
)

type sessionTokenResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// SessionTokenHandler signs the current checkout session into a token the
// storefront can present instead of the session cookie.
func SessionTokenHandler(secret []byte, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := GetSession(r.Context())

		token, err := auth.GenerateSessionToken(sid, secret, ttl)
		if err != nil {
			logger.FromCtx(r.Context()).Error("failed to sign session token", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Status: "error",
				Error:  errorPayload{Kind: "internal", Message: http.StatusText(http.StatusInternalServerError)},
			})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.AccessTokenCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, sessionTokenResponse{
			SessionID: sid,
			Token:     token,
			ExpiresIn: int64(ttl.Seconds()),
		})
	}
}
