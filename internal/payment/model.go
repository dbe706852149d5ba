package payment

import (
	"strings"

	"novalnet-checkout/internal/basket"
)

// Request is the gateway payload built for one checkout attempt together
// with the URL it must be submitted to.
type Request struct {
	MethodID string            `json:"method_id"`
	Fields   map[string]string `json:"fields"`
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	URL      string            `json:"url"`
}

func (r *Request) FormattedAmount() string {
	return basket.FormatMinor(r.Amount)
}

// Payload is the payment data kept in the checkout session: the request
// fields until the gateway answers, the gateway response afterwards.
type Payload map[string]string

// Has reports whether key is present, even with an empty value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// HasStatus reports whether the gateway already decided on the payment.
func (p Payload) HasStatus() bool {
	return p.Has(FieldStatus)
}

func (p Payload) Get(key string) string {
	return strings.TrimSpace(p[key])
}

// Clone returns a copy safe to hand out.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

const (
	FieldStatus        = "status"
	FieldTIDStatus     = "tid_status"
	FieldTID           = "tid"
	FieldStatusDesc    = "status_desc"
	FieldStatusText    = "status_text"
	FieldStatusMessage = "status_message"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldBasketID      = "input1"
	FieldBasketIDValue = "inputval1"
	FieldSessionKey    = "input2"
	FieldSessionValue  = "inputval2"
	FieldUniqueID      = "uniqid"
	FieldHash          = "hash"
	FieldChecksum      = "hash2"
)

type StatusText string

const (
	StatusSuccess StatusText = "success"
	StatusPending StatusText = "pending"
	StatusOnHold  StatusText = "on-hold"
	StatusFailure StatusText = "failure"
)
