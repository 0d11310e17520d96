package votes

import (
	"errors"
	"fmt"

	"Atlas/internal/atproto/pds"
)

var (
	// ErrInvalidSubject indicates the subject URI is malformed or has no record key.
	// Returned before any call to the record store.
	ErrInvalidSubject = errors.New("invalid subject URI")

	// ErrInvalidDirection indicates the vote direction is not "up" or "down"
	ErrInvalidDirection = errors.New("invalid vote direction: must be 'up' or 'down'")
)

// RemoteWriteError is returned when the record store rejects a put or delete.
// The store's error is kept intact and reachable through Unwrap.
type RemoteWriteError struct {
	Op         string // "put" or "delete"
	Collection string
	RKey       string
	Err        error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.RKey, e.Err)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// RemoteListError is returned when listing the vote collection fails.
type RemoteListError struct {
	Collection string
	Err        error
}

func (e *RemoteListError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Collection, e.Err)
}

func (e *RemoteListError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether a remote failure was an authentication/authorization rejection.
func IsAuthError(err error) bool {
	return pds.IsAuthError(err)
}
