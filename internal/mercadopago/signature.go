package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSignature is returned when the signature header cannot be
	// parsed as "t=<timestamp>,v1=<hash>".
	ErrMalformedSignature = errors.New("malformed signature header")
	// ErrInvalidSignature is returned when the computed digest does not
	// match the header's hash segment.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Signature is the parsed webhook signature header.
type Signature struct {
	Timestamp string
	Hash      string
}

// ParseSignature parses a signature header of the form
// "t=<timestamp>,v1=<hash>" (comma-separated key=value segments).
func ParseSignature(header string) (Signature, error) {
	var sig Signature
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return Signature{}, ErrMalformedSignature
		}
		switch key {
		case "t":
			sig.Timestamp = value
		case "v1":
			sig.Hash = value
		}
	}
	if sig.Timestamp == "" || sig.Hash == "" {
		return Signature{}, ErrMalformedSignature
	}
	return sig, nil
}

// VerifySignature validates a webhook payload against its signature header.
// The signed string is "{timestamp}.{rawBody}", using the exact request
// bytes rather than a re-serialized parse, digested with HMAC-SHA256 under
// the shared secret and base64-encoded. The comparison is constant-time.
func VerifySignature(rawBody []byte, header, secret string) error {
	sig, err := ParseSignature(header)
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", sig.Timestamp, rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig.Hash)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload computes the signature header value for a payload. Used by
// tests and by local tooling that replays webhook deliveries.
func SignPayload(rawBody []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, rawBody)
	hash := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hash)
}
