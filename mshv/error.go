//go:build linux

package mshv

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// OSError is returned when opening the device or issuing a control call fails.
// It wraps the errno reported by the kernel, so errors.Is works with both
// unix.Errno values and the os package's portable errors.
type OSError struct {
	Op    string
	Errno unix.Errno
}

func (e *OSError) Error() string {
	return "mshv: " + e.Op + ": " + e.Errno.Error()
}

func (e *OSError) Unwrap() error {
	return e.Errno
}

// wrapErr attaches op to err. Errnos become an *OSError, and so does an
// untranslated hypercall status (as EIO). Anything else, for example
// os.ErrClosed from a released handle, is wrapped with %w.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var status hvStatusError
	if errors.As(err, &status) {
		return &OSError{Op: op + ": " + status.Error(), Errno: unix.EIO}
	}

	var errno unix.Errno
	if errors.As(err, &errno) {
		return &OSError{Op: op, Errno: errno}
	}

	return fmt.Errorf("mshv: %s: %w", op, err)
}
