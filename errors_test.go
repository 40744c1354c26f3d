package kms

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestError(t *testing.T) {
	tests := []struct {
		Err  *Error
		Want string
	}{
		{&Error{Op: "open", Kind: ErrNoOutput}, "kms: open: no connected output"},
		{&Error{Op: "swap", Kind: ErrDevice, Err: unix.EBUSY}, "kms: swap: device error: " + unix.EBUSY.Error()},
		{&Error{Op: "load palette", Err: os.ErrNotExist}, "kms: load palette: " + os.ErrNotExist.Error()},
	}
	for _, test := range tests {
		if v := test.Err.Error(); v != test.Want {
			t.Errorf("expected %q, got %q", test.Want, v)
		}
	}
}

func TestErrno(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError("flip", ErrDevice, os.NewSyscallError("ioctl", unix.EINVAL)))
	if !errors.Is(err, ErrDevice) {
		t.Error("expected error kind to match")
	}
	if errno, ok := Errno(err); !ok || errno != unix.EINVAL {
		t.Errorf("expected EINVAL, got %v", errno)
	}
	if _, ok := Errno(newError("open", ErrNoOutput, nil)); ok {
		t.Error("expected no errno")
	}
}
