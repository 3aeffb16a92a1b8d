package events

import (
	"fmt"
)

// ValidationError marks a malformed incoming record. Handlers surface these
// with the violated field; everything else stays generic.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
