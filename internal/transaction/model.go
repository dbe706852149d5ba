package transaction

import (
	"encoding/json"
	"time"
)

type Event string

const (
	EventRedirect  Event = "REDIRECT"
	EventFinalized Event = "FINALIZED"
)

// Transaction is one logged execution of a checkout payment.
type Transaction struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"-"`
	OrderNo   string          `json:"order_no"`
	MethodID  string          `json:"method_id"`
	Event     Event           `json:"event"`
	TID       *string         `json:"tid,omitempty"`
	Status    *string         `json:"status,omitempty"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
