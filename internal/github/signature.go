package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/go-github/v73/github"
)

// Webhook signature headers. SignatureHeaderFallback is accepted from senders
// that do not use GitHub's header name.
const (
	SignatureHeader         = github.SHA256SignatureHeader
	SignatureHeaderFallback = "X-Signature"
	signaturePrefix         = "sha256="
)

// VerifySignature reports whether header carries the HMAC-SHA256 of rawBody
// keyed with secret, formatted as "sha256=<hex>". The digests are compared in
// constant time. Any malformed input yields false.
func VerifySignature(rawBody []byte, header, secret string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	return github.ValidateSignature(header, rawBody, []byte(secret)) == nil
}

// Sign returns the signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
