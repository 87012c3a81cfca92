package server

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const (
	// SignatureHeader carries the webhook signature.
	SignatureHeader = "X-Hub-Signature"

	// EventHeader names the webhook event type.
	EventHeader = "X-Github-Event"

	// SignaturePrefix precedes the hex digest in the signature header.
	SignaturePrefix = "sha1="
)

// VerifySignature verifies the HMAC-SHA1 signature the webhook sender
// computed over the raw request body with the shared secret.
func VerifySignature(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}

	// Signature format: "sha1=<hex_digest>"
	if !strings.HasPrefix(signature, SignaturePrefix) {
		return false
	}
	receivedMAC := strings.TrimPrefix(signature, SignaturePrefix)

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison to prevent timing attacks.
	return hmac.Equal([]byte(expectedMAC), []byte(receivedMAC))
}
