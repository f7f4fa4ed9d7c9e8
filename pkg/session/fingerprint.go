package session

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the stable client fingerprint hash from transport
// attributes. The hash is an opaque identity token: the identity plane only
// ever compares it for equality, never inspects the inputs.
func Fingerprint(ip, userAgent, tlsFingerprint string) string {
	h := sha256.New()
	h.Write([]byte(ip))
	h.Write([]byte{'\n'})
	h.Write([]byte(userAgent))
	h.Write([]byte{'\n'})
	h.Write([]byte(tlsFingerprint))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the fingerprint hash of the attributes.
func (a Attributes) Fingerprint() string {
	return Fingerprint(a.IPAddress, a.UserAgent, a.TLSFingerprint)
}
