package optimizer

import (
	"errors"
	"fmt"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

var (
	// ErrInvalidQuantity fails a whole plan when any quantity is not a finite
	// positive number, or makes a line total overflow.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrItemNotFound fails a whole plan when an item has no metadata.
	ErrItemNotFound = errors.New("item not found")

	// ErrCanceled is returned when the caller's context ends mid-computation.
	ErrCanceled = pricing.ErrCanceled
)

// ItemError ties a planning failure to the item that caused it.
type ItemError struct {
	ItemID string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ErrInvalidRequest is returned when a request is structurally invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
	Index  int // -1 when the problem is not tied to one line
}

func (e ErrInvalidRequest) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return e.Field + ": " + e.Reason
}
