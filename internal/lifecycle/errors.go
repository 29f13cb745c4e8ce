package lifecycle

import (
	"errors"
	"fmt"
)

// ErrNotInstalled is wrapped by InitSubsystemError when an action needs an
// installed unit and systemd reports none.
var ErrNotInstalled = errors.New("service is not installed")

// FilesystemError reports a failure to read, write or remove a file the
// controller owns.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the formatted error string.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("lifecycle: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilesystemError) Unwrap() error { return e.Err }

// InitSubsystemError reports a systemd call that failed or was rejected.
type InitSubsystemError struct {
	Op   string
	Unit string
	Err  error
}

// Error returns the formatted error string.
func (e *InitSubsystemError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("lifecycle: systemd %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lifecycle: systemd %s %s: %v", e.Op, e.Unit, e.Err)
}

// Unwrap returns the underlying error.
func (e *InitSubsystemError) Unwrap() error { return e.Err }
