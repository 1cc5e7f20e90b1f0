package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when plaintext plus pepper exceeds the 72
// bytes bcrypt reads. Longer input would be silently truncated otherwise.
var ErrPasswordTooLong = errors.New("hash: bcrypt input longer than 72 bytes")

const bcryptMaxInput = 72

// Bcrypt implements Hash using bcrypt. The pepper is appended to the
// plaintext and lives in configuration, never in the users table.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	in := []byte(plaintext + h.pepper)
	if len(in) > bcryptMaxInput {
		return nil, ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword(in, h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
