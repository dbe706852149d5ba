package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptySessionID = errors.New("session id is empty")
	ErrDecodeValue    = errors.New("failed to decode session value")
)

// Store is keyed per checkout session; values stored under one session are
// never visible from another. A session expires as a whole: every write
// extends the lifetime of all its keys.
type Store interface {
	// Get decodes the value stored under key into dst and reports whether
	// it existed.
	Get(ctx context.Context, sessionID, key string, dst any) (bool, error)
	Set(ctx context.Context, sessionID, key string, value any) error
	// Update writes set and removes remove in one step. Either all changes
	// land or none do.
	Update(ctx context.Context, sessionID string, set map[string]any, remove ...string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

func encodeValues(set map[string]any) (map[string][]byte, error) {
	out := make(map[string][]byte, len(set))
	for k, v := range set {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode session value %s: %w", k, err)
		}
		out[k] = raw
	}
	return out, nil
}
