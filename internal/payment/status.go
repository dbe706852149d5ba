package payment

import (
	"fmt"
	"strings"
)

var statusTable = map[string]StatusText{
	"100":       StatusSuccess,
	"CONFIRMED": StatusSuccess,
	"SUCCESS":   StatusSuccess,

	"PENDING": StatusPending,
	"75":      StatusPending,
	"86":      StatusPending,
	"90":      StatusPending,

	"ON_HOLD": StatusOnHold,
	"85":      StatusOnHold,
	"91":      StatusOnHold,
	"98":      StatusOnHold,
	"99":      StatusOnHold,

	"FAILURE":     StatusFailure,
	"FAILED":      StatusFailure,
	"DEACTIVATED": StatusFailure,
	"CANCELLED":   StatusFailure,
	"103":         StatusFailure,
}

// ResolveStatus maps the gateway status of p to a StatusText. A status of
// 100 only says the call went through; tid_status, when present, carries
// the state of the transaction itself. Codes outside the table are an
// error, never a default.
func ResolveStatus(p Payload) (StatusText, error) {
	code := normalizeCode(p.Get(FieldStatus))
	status, ok := statusTable[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, p.Get(FieldStatus))
	}

	if code == "100" && p.Has(FieldTIDStatus) {
		tidCode := normalizeCode(p.Get(FieldTIDStatus))
		tidStatus, ok := statusTable[tidCode]
		if !ok {
			return "", fmt.Errorf("%w: tid_status %q", ErrUnknownStatus, p.Get(FieldTIDStatus))
		}
		return tidStatus, nil
	}

	return status, nil
}

// StatusMessage returns the human readable text the gateway sent along
// with its status, if any.
func StatusMessage(p Payload) string {
	for _, key := range []string{FieldStatusDesc, FieldStatusText, FieldStatusMessage} {
		if msg := p.Get(key); msg != "" {
			return msg
		}
	}
	return ""
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
