package rewrite

import (
	"errors"
	"fmt"
)

// RejectionError is returned for source the pipeline refuses to rewrite.
// Nested inline calls are the only such construct.
type RejectionError struct {
	// Fragment is the offending source text, for diagnostics.
	Fragment string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("cannot nest calls to functions inside calls to functions (near ..%s..)", e.Fragment)
}

// IsRejection reports whether err, or anything it wraps, is a *RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
