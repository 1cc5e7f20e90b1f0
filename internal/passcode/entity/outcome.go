package entity

// VerifyOutcome labels a verification attempt for metrics.
type VerifyOutcome string

const (
	VerifyOutcomeSuccess  VerifyOutcome = "success"
	VerifyOutcomeInvalid  VerifyOutcome = "invalid"
	VerifyOutcomeExpired  VerifyOutcome = "expired"
	VerifyOutcomeNotFound VerifyOutcome = "not_found"
	VerifyOutcomeLocked   VerifyOutcome = "locked"
	VerifyOutcomeError    VerifyOutcome = "error"
)

func (o VerifyOutcome) String() string {
	return string(o)
}
