package validator

// Validator checks a request struct against its `validate` tags.
type Validator interface {
	Validate(data any) error
}
