package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 MAC encoded as lowercase
// hex. It signs CSRF tokens and must not be used for passwords.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret []byte) *HMACSHA256 {
	return &HMACSHA256{secret: secret}
}

func (s *HMACSHA256) Hash(msg string) ([]byte, error) {
	sum := s.sum(msg)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out, nil
}

// Verify decodes the hex MAC first, so a tampered or truncated value fails
// without comparing strings of different lengths.
func (s *HMACSHA256) Verify(mac, msg string) bool {
	got, err := hex.DecodeString(mac)
	if err != nil {
		return false
	}
	return hmac.Equal(got, s.sum(msg))
}

func (s *HMACSHA256) sum(msg string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(msg))
	return h.Sum(nil)
}
