// Package token computes and verifies the HMAC tokens that authenticate
// every call between the bridge and the quiz service. Both sides share a
// provisioning-time secret; the signed message is the action name plus the
// canonical query encoding of the payload, so a token minted for one action
// can never authorize another.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNoSecret is returned when the signing secret is unset. Signing is a
// hard requirement for every remote interaction, so callers should treat
// this as a configuration failure, not a transient one.
var ErrNoSecret = errors.New("token: signing secret is not configured")

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical message for
// action and payload.
func (s *Signer) Sign(action Action, payload Payload) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(CanonicalMessage(action, payload)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the expected token and compares it against candidate in
// constant time.
func (s *Signer) Verify(action Action, payload Payload, candidate string) (bool, error) {
	want, err := s.Sign(action, payload)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(want), []byte(candidate)), nil
}
