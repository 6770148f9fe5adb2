//go:build linux

// Package mshv is a thin wrapper around the Microsoft Hypervisor (MSHV) root
// partition driver. It opens /dev/mshv, creates and initializes partitions,
// and exposes the read-only capability queries a VMM needs before it creates
// any virtual processors.
//
// Handles are single-owner and do no locking. Calls that change kernel-side
// state on the same handle must be serialized by the caller; independent
// handles can be used concurrently.
package mshv

import (
	"os"

	"golang.org/x/sys/unix"
)

// System is an open handle to /dev/mshv.
type System struct {
	f   *os.File
	ctl KernelControl
}

// Open opens /dev/mshv with O_CLOEXEC.
func Open() (*System, error) {
	fd, err := OpenFd(true)
	if err != nil {
		return nil, err
	}

	mshvLog.WithField("fd", fd).Debug("opened device")
	return NewSystemFromFd(fd), nil
}

// OpenFd opens /dev/mshv in non-blocking mode and returns the bare descriptor.
// The caller owns it. Pass it to NewSystemFromFd to get a System.
func OpenFd(closeOnExec bool) (int, error) {
	flags := unix.O_RDONLY | unix.O_NONBLOCK
	if closeOnExec {
		flags |= unix.O_CLOEXEC
	}

	fd, err := unix.Open(DevicePath, flags, 0)
	if err != nil {
		return -1, wrapErr("open "+DevicePath, err)
	}

	return fd, nil
}

// NewSystemFromFd returns a System that owns fd, which must be an open
// descriptor of /dev/mshv. Nothing is checked: the caller must make sure fd is
// valid and that nothing else uses or closes it afterwards. Breaking that
// contract lets two owners close the same descriptor number.
func NewSystemFromFd(fd int) *System {
	return NewSystemWithControl(os.NewFile(uintptr(fd), DevicePath), Ioctl)
}

// NewSystemWithControl is like NewSystemFromFd, but the System issues its
// control calls (and those of the partitions it creates) through ctl.
func NewSystemWithControl(f *os.File, ctl KernelControl) *System {
	return &System{f: f, ctl: ctl}
}

// Fd returns the device descriptor. It is only valid until Close.
func (sys *System) Fd() uintptr {
	return rawFd(sys.f)
}

// Close releases the device handle. Partitions created from it stay usable.
func (sys *System) Close() error {
	return sys.f.Close()
}

func (sys *System) control(fn func(fd uintptr) error) error {
	return control(sys.f, fn)
}

// control runs fn with the descriptor of f without switching it to blocking
// mode, which (*os.File).Fd would do. It fails with os.ErrClosed after f is
// closed, so a recycled descriptor number is never used.
func control(f *os.File, fn func(fd uintptr) error) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}

	// Control only fails if the file is closed, and it reports that with an
	// internal error value instead of os.ErrClosed.
	var opErr error
	if err := rc.Control(func(fd uintptr) { opErr = fn(fd) }); err != nil {
		return os.ErrClosed
	}

	return opErr
}

// rawFd returns f's descriptor, or ^uintptr(0) if f is closed.
func rawFd(f *os.File) uintptr {
	fd := ^uintptr(0)
	control(f, func(v uintptr) error {
		fd = v
		return nil
	})

	return fd
}
