package document

import (
	"errors"
	"fmt"
)

// Structural refusals. Callers treat these as no-ops with a notice, not as
// failures: the document is left exactly as it was.
var (
	ErrLastPage    = errors.New("document: cannot remove the last page")
	ErrLastRow     = errors.New("document: cannot remove the last table row")
	ErrLastColumn  = errors.New("document: cannot remove the last table column")
	ErrNotFound    = errors.New("document: not found")
	ErrColumnRange = errors.New("document: column index out of range")
)

// Validation failures reported before a template is persisted.
var (
	ErrNameRequired       = errors.New("template name is required")
	ErrCategoryRequired   = errors.New("template category is required")
	ErrNoPages            = errors.New("template must have at least one page")
	ErrDuplicateElementID = errors.New("duplicate element id")
)

// ValidationError collects every problem found by Template.Validate.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid template: %v", e.Problems[0])
	}
	return fmt.Sprintf("invalid template: %v (and %d more)", e.Problems[0], len(e.Problems)-1)
}

// Unwrap exposes the individual problems to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.Problems
}
