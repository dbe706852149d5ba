package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// checksumFields are echoed back by the gateway and covered by hash and hash2.
var checksumFields = []string{"auth_code", "product", "tariff", FieldAmount, "test_mode", FieldUniqueID}

// Checksum is the hex sha256 of the integrity fields followed by the
// reversed access key.
func Checksum(fields map[string]string, accessKey string) string {
	var b strings.Builder
	for _, f := range checksumFields {
		b.WriteString(fields[f])
	}
	b.WriteString(reverse(accessKey))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ChecksumVerifier authenticates gateway responses with the merchant access
// key. Without a key every response is rejected.
type ChecksumVerifier struct {
	accessKey string
}

func NewChecksumVerifier(accessKey string) *ChecksumVerifier {
	return &ChecksumVerifier{accessKey: accessKey}
}

func (v *ChecksumVerifier) Verify(p Payload) error {
	if v.accessKey == "" {
		return fmt.Errorf("%w: access key is not configured", ErrInvalidChecksum)
	}

	got := strings.ToLower(p.Get(FieldChecksum))
	if got == "" {
		return fmt.Errorf("%w: %s is missing", ErrInvalidChecksum, FieldChecksum)
	}

	want := Checksum(p, v.accessKey)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidChecksum
	}
	return nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
