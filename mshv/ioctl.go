//go:build linux

package mshv

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// KernelControl is the kernel boundary: one method per request code. The sys
// argument is a /dev/mshv descriptor and pt is a partition descriptor. Methods
// return the raw errno on failure; System and Partition attach context.
//
// Ioctl is the implementation that talks to the real driver. Tests and tracing
// layers can supply their own with NewSystemWithControl.
type KernelControl interface {
	CreatePartition(sys uintptr, args *CreatePartitionArgs) (fd int, err error)
	GetHostPartitionProperty(sys uintptr, code PropertyCode) (int32, error)
	SetPartitionProperty(pt uintptr, code PropertyCode, value uint64) error
	GetPartitionProperty(pt uintptr, code PropertyCode) (uint64, error)
	InitializePartition(pt uintptr) error
	CreateVP(pt uintptr, index uint32) (fd int, err error)
}

// Ioctl issues control calls with ioctl(2).
var Ioctl KernelControl = ioctlControl{}

type ioctlControl struct{}

func (ioctlControl) CreatePartition(sys uintptr, args *CreatePartitionArgs) (int, error) {
	fd, _, errno := unix.Syscall(unix.SYS_IOCTL, sys, kCreatePartition, uintptr(unsafe.Pointer(args)))
	if errno != 0 {
		return -1, errno
	}

	return int(fd), nil
}

func (ioctlControl) GetHostPartitionProperty(sys uintptr, code PropertyCode) (int32, error) {
	c := uint64(code)
	ret, _, errno := unix.Syscall(unix.SYS_IOCTL, sys, kGetHostPartitionProperty, uintptr(unsafe.Pointer(&c)))
	if errno != 0 {
		return 0, errno
	}

	return int32(ret), nil
}

func (ioctlControl) SetPartitionProperty(pt uintptr, code PropertyCode, value uint64) error {
	in := setPartitionPropertyInput{
		PropertyCode:  uint32(code),
		PropertyValue: value,
	}

	data, _ := in.MarshalBinary()
	call := rootHvcall{
		Code:  hvcallSetPartitionProperty,
		InSz:  uint16(len(data)),
		InPtr: uint64(uintptr(unsafe.Pointer(&data[0]))),
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, pt, kRootHvcall, uintptr(unsafe.Pointer(&call)))
	runtime.KeepAlive(data)

	if errno != 0 {
		return errno
	}

	return hvStatusErr(call.Status)
}

func (ioctlControl) GetPartitionProperty(pt uintptr, code PropertyCode) (uint64, error) {
	in := getPartitionPropertyInput{
		PropertyCode: uint32(code),
	}

	data, _ := in.MarshalBinary()
	out := make([]byte, getPartitionPropertyOutputSize)
	call := rootHvcall{
		Code:   hvcallGetPartitionProperty,
		InSz:   uint16(len(data)),
		OutSz:  uint16(len(out)),
		InPtr:  uint64(uintptr(unsafe.Pointer(&data[0]))),
		OutPtr: uint64(uintptr(unsafe.Pointer(&out[0]))),
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, pt, kRootHvcall, uintptr(unsafe.Pointer(&call)))
	runtime.KeepAlive(data)
	runtime.KeepAlive(out)

	if errno != 0 {
		return 0, errno
	}

	if err := hvStatusErr(call.Status); err != nil {
		return 0, err
	}

	var o getPartitionPropertyOutput
	if err := o.UnmarshalBinary(out); err != nil {
		return 0, err
	}

	return o.PropertyValue, nil
}

func (ioctlControl) InitializePartition(pt uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, pt, kInitializePartition, 0)
	if errno != 0 {
		return errno
	}

	return nil
}

func (ioctlControl) CreateVP(pt uintptr, index uint32) (int, error) {
	args := createVPArgs{VPIndex: index}
	fd, _, errno := unix.Syscall(unix.SYS_IOCTL, pt, kCreateVP, uintptr(unsafe.Pointer(&args)))
	if errno != 0 {
		return -1, errno
	}

	return int(fd), nil
}

// hvStatusError is a hypercall status that the driver passed back without
// translating it to an errno.
type hvStatusError uint16

func (s hvStatusError) Error() string {
	return fmt.Sprintf("hypercall status %#x", uint16(s))
}

func hvStatusErr(status uint16) error {
	if status == hvStatusSuccess {
		return nil
	}

	return hvStatusError(status)
}
