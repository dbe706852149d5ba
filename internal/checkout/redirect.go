package checkout

import (
	"context"

	"novalnet-checkout/internal/session"
)

// RedirectTracker knows the hosted payment page a session must be sent to.
type RedirectTracker interface {
	RedirectURL(ctx context.Context, sessionID string) (string, error)
}

type sessionRedirectTracker struct {
	store session.Store
}

// NewSessionRedirectTracker returns the submission URL stored by the
// content step.
func NewSessionRedirectTracker(store session.Store) RedirectTracker {
	return &sessionRedirectTracker{store: store}
}

func (t *sessionRedirectTracker) RedirectURL(ctx context.Context, sessionID string) (string, error) {
	var url string
	found, err := t.store.Get(ctx, sessionID, KeyPaymentURL, &url)
	if err != nil {
		return "", err
	}
	if !found || url == "" {
		return "", ErrMissingSessionState
	}
	return url, nil
}
