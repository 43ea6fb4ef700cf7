package validator

// Validator validates a struct using its `validate` tags.
//
// On failure it returns V10ValidationError for field-level problems, or the
// underlying error when the input cannot be validated at all.
type Validator interface {
	Validate(data any) error
}
