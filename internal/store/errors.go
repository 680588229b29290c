package store

import (
	"errors"
	"fmt"

	"github.com/alfredjeanlab/warroom/internal/model"
)

// ErrUnknownCategory is returned when a write names a category that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

// ErrDuplicateID is returned when a create names an ID that is already stored.
// Records are immutable, so the existing record is left untouched.
var ErrDuplicateID = errors.New("duplicate record id")

// ErrRemote matches any *RemoteError via errors.Is.
var ErrRemote = errors.New("remote store unavailable")

// RemoteError reports a failed call to the shared store. Nothing was
// persisted; the caller may retry.
type RemoteError struct {
	Op       string
	Category model.Category
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.Category, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRemote) true for every RemoteError.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }
