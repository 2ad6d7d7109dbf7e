// Package webhook verifies and dispatches inbound third-party payloads.
// Verification always runs over the raw body bytes as received on the wire;
// re-serializing a parsed payload can silently change byte-for-byte content
// and either invalidate a legitimate signature or mask a tampered one.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Envelope is one inbound payload: the raw body, the value of the
// connector-declared signature header, and when it arrived. Envelopes are
// consumed and discarded after verification and dispatch; the core never
// persists them.
type Envelope struct {
	Body       []byte
	Signature  string
	ReceivedAt time.Time
}

// VerificationError is terminal for an envelope: the payload is rejected
// before any handler logic sees it.
type VerificationError struct {
	Kind string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("webhook %q: signature verification failed", e.Kind)
}

// Verify computes an HMAC-SHA256 over the raw body with the connector's
// secret and compares it against the signature header in constant time. A
// "sha256=" prefix on the header value is tolerated since several providers
// send one.
func Verify(env Envelope, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	sig := strings.TrimSpace(env.Signature)
	sig = strings.TrimPrefix(sig, "sha256=")
	expected, err := hex.DecodeString(sig)
	if err != nil || len(expected) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(env.Body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign produces the hex signature for a body, for connectors and tests that
// need to generate outbound or fixture signatures.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
