package uid

import "github.com/google/uuid"

// UUID generates UUID strings. Time-ordered v7 values suit correlation IDs;
// random v4 values suit CSRF nonces, which must not leak issue time.
type UUID struct {
	random bool
}

// NewUUID returns a v7 generator.
func NewUUID() *UUID {
	return &UUID{}
}

// NewRandomUUID returns a v4 generator.
func NewRandomUUID() *UUID {
	return &UUID{random: true}
}

func (u *UUID) Generate() string {
	if u.random {
		return uuid.NewString()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
