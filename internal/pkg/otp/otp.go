package otp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	// CodeLength is the number of digits in a generated code.
	CodeLength = 6
	// DefaultTTL is how long a code stays valid after issuance.
	DefaultTTL = 10 * time.Minute
	// DefaultMaxAttempts is how many verification attempts a record allows.
	DefaultMaxAttempts = 5
	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 5 * time.Minute

	maxSuperseded = 5
)

var (
	// ErrNotFoundOrExpired is returned when no record exists for the key.
	ErrNotFoundOrExpired = errors.New("otp: no active code found, please request a new one")
	// ErrExpired is returned when the record exists but its validity window has passed.
	ErrExpired = errors.New("otp: code has expired, please request a new one")
	// ErrAttemptsExceeded is returned when the record already consumed every allowed attempt.
	ErrAttemptsExceeded = errors.New("otp: too many failed attempts, please request a new one")
	// ErrInvalidCode is returned (wrapped in *InvalidCodeError) when the code does not match.
	ErrInvalidCode = errors.New("otp: invalid code")
)

// InvalidCodeError reports a mismatched code and how many attempts are left.
type InvalidCodeError struct {
	Remaining int
}

// Error implements the error interface. It never includes the expected code.
func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("otp: invalid code, %d attempts remaining", e.Remaining)
}

// Is reports whether target is ErrInvalidCode.
func (e *InvalidCodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

// Purpose is the flow a code was issued for. Codes for different purposes of
// the same identity are independent.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeTwoFactor         Purpose = "2fa"
)

// Purposes returns every known purpose in a stable order.
func Purposes() []Purpose {
	return []Purpose{PurposeEmailVerification, PurposePasswordReset, PurposeTwoFactor}
}

// ParsePurpose converts the wire value into a Purpose.
func ParsePurpose(s string) (Purpose, bool) {
	p := Purpose(s)
	return p, p.IsValid()
}

func (p Purpose) String() string {
	return string(p)
}

// IsValid reports whether p is one of the known purposes.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset, PurposeTwoFactor:
		return true
	default:
		return false
	}
}

// Key identifies a record. At most one record exists per key.
type Key struct {
	Identity string
	Purpose  Purpose
}

func (k Key) String() string {
	return string(k.Purpose) + ":" + k.Identity
}

// Record is an outstanding code.
type Record struct {
	ID        int64     `json:"id,string"`
	Identity  string    `json:"identity"`
	Purpose   Purpose   `json:"purpose"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	// Superseded holds digests of codes this record replaced, newest last.
	Superseded []string `json:"superseded,omitempty"`
}

// Key returns the record's (identity, purpose) key.
func (r Record) Key() Key {
	return Key{Identity: r.Identity, Purpose: r.Purpose}
}

// Expired reports whether now is past the record's validity window.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// supersedes reports whether code is one of the codes this record replaced.
func (r Record) supersedes(code string) bool {
	d := codeDigest(code)
	for _, s := range r.Superseded {
		if subtle.ConstantTimeCompare([]byte(s), []byte(d)) == 1 {
			return true
		}
	}
	return false
}

func codeDigest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Stats is a diagnostic snapshot of the outstanding records. It may include
// records that are logically expired but not yet swept.
type Stats struct {
	TotalOutstanding int             `json:"total_outstanding"`
	CountByPurpose   map[Purpose]int `json:"count_by_purpose"`
}
