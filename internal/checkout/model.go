package checkout

import (
	"novalnet-checkout/internal/payment"
)

// Session keys holding the payment state of a checkout.
const (
	KeyPaymentRequest = "nnPaymentRequest"
	KeyPaymentData    = "nnPaymentData"
	KeyPaymentURL     = "nnPaymentUrl"
	KeyOrderNo        = "nnOrderNo"
)

var stateKeys = []string{KeyPaymentRequest, KeyPaymentData, KeyPaymentURL, KeyOrderNo}

// Phase is derived from the stored payment data and never stored itself.
type Phase string

const (
	PhasePending         Phase = "PENDING"
	PhaseAwaitingGateway Phase = "AWAITING_GATEWAY"
	PhaseFinalized       Phase = "FINALIZED"
)

// State is the payment state of one checkout session.
type State struct {
	Request     *payment.Request
	PaymentData payment.Payload
	PaymentURL  string
	OrderNo     string
	Phase       Phase
}

func phaseOf(data payment.Payload) Phase {
	switch {
	case data == nil:
		return PhasePending
	case data.HasStatus():
		return PhaseFinalized
	default:
		return PhaseAwaitingGateway
	}
}

type OutcomeKind string

const (
	OutcomeRedirect  OutcomeKind = "REDIRECT"
	OutcomeFinalized OutcomeKind = "FINALIZED"
)

// Outcome is the result of an execute step: either a redirect to the
// gateway or a finalized status.
type Outcome struct {
	Kind         OutcomeKind
	RedirectURL  string
	Status       payment.StatusText
	Message      string
	Instructions []string
}

func Redirect(url string) *Outcome {
	return &Outcome{Kind: OutcomeRedirect, RedirectURL: url}
}

func Finalized(status payment.StatusText, message string) *Outcome {
	return &Outcome{Kind: OutcomeFinalized, Status: status, Message: message}
}

type DirectiveType string

const (
	DirectiveContinue    DirectiveType = "continue"
	DirectiveRedirectURL DirectiveType = "redirectUrl"
	DirectiveSuccess     DirectiveType = "success"
	DirectiveError       DirectiveType = "error"
)

// Directive tells the checkout engine what to do next.
type Directive struct {
	Type         DirectiveType      `json:"type"`
	Value        string             `json:"value,omitempty"`
	Status       payment.StatusText `json:"status,omitempty"`
	Message      string             `json:"message,omitempty"`
	MethodID     string             `json:"method_id,omitempty"`
	Instructions []string           `json:"instructions,omitempty"`
}

// DirectiveFor converts an execute outcome for the checkout engine.
func DirectiveFor(o *Outcome) *Directive {
	if o.Kind == OutcomeRedirect {
		return &Directive{Type: DirectiveRedirectURL, Value: o.RedirectURL}
	}

	d := &Directive{
		Type:         DirectiveSuccess,
		Value:        string(o.Status),
		Status:       o.Status,
		Message:      o.Message,
		Instructions: o.Instructions,
	}
	if o.Status == payment.StatusFailure {
		d.Type = DirectiveError
	}
	return d
}
