package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the base64 HMAC-SHA256 signature over the raw
// request body.
const SignatureHeader = "X-Signature"

// VerifySignature authenticates raw inbound bytes against the shared channel
// secret. The MAC is computed over the untouched byte stream: parsing and
// re-serializing the body before verification would break the proof. A
// missing or malformed header yields false, never an error.
func VerifySignature(body []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
