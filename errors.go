package kms

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

// Error kinds.
var (
	ErrResource          = errors.New("kms: out of resources")
	ErrDevice            = errors.New("kms: device error")
	ErrAllocation        = errors.New("kms: buffer allocation failed")
	ErrUnsupportedFormat = errors.New("kms: unsupported pixel format")
	ErrNoOutput          = errors.New("kms: no connected output")
	ErrImport            = errors.New("kms: buffer import failed")
	ErrMalformedInput    = errors.New("kms: malformed input")
	ErrClosed            = errors.New("kms: use of closed screen or buffer")
	ErrBusy              = errors.New("kms: buffer busy")
)

// Error is returned by every operation of this package. Kind is one of the
// error kinds above, Err is the cause if there is one.
//
// Both match with [errors.Is], so a failed mode-set matches ErrDevice as well
// as the errno returned by the driver.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var s strings.Builder
	s.WriteString("kms: ")
	s.WriteString(e.Op)
	if e.Kind != nil {
		s.WriteString(": ")
		s.WriteString(strings.TrimPrefix(e.Kind.Error(), "kms: "))
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errno returns the OS error code carried by err, if any.
func Errno(err error) (unix.Errno, bool) {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}
