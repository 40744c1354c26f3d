package ioctl

import (
	"fmt"
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mode is the IOCTL mode.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uintptr

func (c Command) String() string {
	var (
		mode = Mode(c >> 30 & 0x03)
		size = c >> 16 & 0x3fff
		typ  = c >> 8 & 0xff
		nr   = c & 0xff
		str  string
	)
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) %q 0x%02x", str, size, rune(typ), uintptr(nr))
}

// Do executes the ioctl call with a pointer to the argument struct.
//
// Calls interrupted by a signal are restarted, like drmIoctl does. Errors are
// returned as *os.SyscallError so the errno survives for the caller.
func Do(fd uintptr, command Command, ptr any) error {
	var p unsafe.Pointer
	if ptr != nil {
		p = reflect.ValueOf(ptr).UnsafePointer()
	}
	return Call(fd, uintptr(command), uintptr(p))
}

// Call does a plain ioctl system call.
func Call(fd, command, arg uintptr) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, command, arg)
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return os.NewSyscallError(Command(command).String(), errno)
		}
	}
}

// Encode an ioctl command from a mode, argument size, type and number.
func Encode(mode Mode, size uint16, typ, nr uint8) Command {
	return Command(mode)<<30 | Command(size&0x3fff)<<16 | Command(typ)<<8 | Command(nr)
}

// Pointer encodes a command for the struct ref points to.
func Pointer(mode Mode, ref any, typ, nr uint8) Command {
	size := uint16(reflect.TypeOf(ref).Elem().Size())
	return Encode(mode, size, typ, nr)
}
