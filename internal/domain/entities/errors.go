package entities

import (
	"errors"
	"fmt"
)

// Manager and import errors
var (
	ErrMalformedImport = errors.New("malformed import payload")
	ErrPRDNotFound     = errors.New("prd not found")
	ErrDuplicateID     = errors.New("duplicate prd id")
	ErrMissingField    = errors.New("required field missing")
	ErrNotArray        = errors.New("payload is not a JSON array")
)

// ImportError describes why an import payload was rejected. Index is the
// position of the offending record, or -1 when the document as a whole
// could not be parsed.
type ImportError struct {
	Index int
	Field string
	Err   error
}

func (e *ImportError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("%s: %v", ErrMalformedImport, e.Err)
	case e.Field == "":
		return fmt.Sprintf("%s: record %d: %v", ErrMalformedImport, e.Index, e.Err)
	default:
		return fmt.Sprintf("%s: record %d: field %q: %v", ErrMalformedImport, e.Index, e.Field, e.Err)
	}
}

// Unwrap exposes both ErrMalformedImport and the underlying cause.
func (e *ImportError) Unwrap() []error {
	return []error{ErrMalformedImport, e.Err}
}
