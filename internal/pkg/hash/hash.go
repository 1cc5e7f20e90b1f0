package hash

import "fmt"

// Hash hashes secrets and verifies plaintext against stored hashes.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Supported password hash drivers.
const (
	DriverBcrypt   = "bcrypt"
	DriverArgon2id = "argon2id"
)

// NewPassword returns the password hasher named by driver.
func NewPassword(driver string, bcryptCost int, pepper string) (Hash, error) {
	switch driver {
	case "", DriverBcrypt:
		return NewBcrypt(bcryptCost, pepper), nil
	case DriverArgon2id:
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unknown driver %q", driver)
	}
}
