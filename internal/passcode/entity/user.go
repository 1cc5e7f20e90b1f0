package entity

// User is the slice of an account the passcode flows read and update.
type User struct {
	ID            int64
	Email         string
	EmailVerified bool
}
