package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a single raw record that cannot be normalized.
	// Filter recovers from it by dropping the record.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidRequest marks a request the caller built incorrectly. It fails
	// the whole call before any record is processed.
	ErrInvalidRequest = errors.New("invalid request")
)

func invalidRequest(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRequest, field, fmt.Sprintf(format, args...))
}

// Diagnostic records a raw record dropped from a Filter call.
type Diagnostic struct {
	Index int
	ID    string
	Err   error
}

func (d Diagnostic) String() string {
	if d.ID == "" {
		return fmt.Sprintf("record #%d: %v", d.Index, d.Err)
	}
	return fmt.Sprintf("record #%d (%s): %v", d.Index, d.ID, d.Err)
}
