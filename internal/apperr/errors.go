// Package apperr defines the error taxonomy shared across Raido packages.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports a malformed move batch: missing sources, paths that
// escape the vault root, or colliding destinations within the batch itself.
// It is fatal to the whole batch; nothing has been written when it is returned.
type ValidationError struct {
	Reason string
	Paths  []string
}

func (e *ValidationError) Error() string {
	if len(e.Paths) == 0 {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Reason, strings.Join(e.Paths, ", "))
}

// ConflictError reports destinations that already exist on disk when force was
// not requested. It carries every colliding path so a caller can retry with
// force. Fatal to the whole batch; nothing has been written.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: destination already exists: %s", strings.Join(e.Paths, ", "))
}

// Is lets errors.Is(err, ErrConflict) match a *ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
