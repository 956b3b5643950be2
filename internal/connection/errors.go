package connection

import (
	"fmt"
)

// Error reports that every strategy in a ladder failed. Err carries the last
// underlying failure so callers can surface the final reason.
type Error struct {
	Protocol string
	Server   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("all %s connection methods failed to %s: %v", e.Protocol, e.Server, e.Err)
	}
	return fmt.Sprintf("all %s connection methods failed to %s", e.Protocol, e.Server)
}

func (e *Error) Unwrap() error {
	return e.Err
}
