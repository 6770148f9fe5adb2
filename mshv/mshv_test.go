//go:build linux

package mshv_test

import (
	"errors"
	"os"
	"testing"

	"github.com/c35s/mshv/mshv"
	"golang.org/x/sys/unix"
)

// openSystem opens /dev/mshv, skipping the test on hosts without the driver.
func openSystem(t *testing.T) *mshv.System {
	t.Helper()

	if _, err := os.Stat(mshv.DevicePath); errors.Is(err, os.ErrNotExist) {
		t.Skipf("%s is not available", mshv.DevicePath)
	}

	sys, err := mshv.Open()
	if err != nil {
		t.Fatal(err)
	}

	return sys
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := os.Stat(mshv.DevicePath); err == nil {
		t.Skipf("%s exists", mshv.DevicePath)
	}

	_, err := mshv.Open()

	var oserr *mshv.OSError
	if !errors.As(err, &oserr) {
		t.Fatalf("%v is not an *OSError", err)
	}

	if !errors.Is(err, unix.ENOENT) {
		t.Fatalf("%v != ENOENT", err)
	}
}

func TestOpenFdCloseOnExec(t *testing.T) {
	openSystem(t).Close()

	for _, cloexec := range []bool{true, false} {
		fd, err := mshv.OpenFd(cloexec)
		if err != nil {
			t.Fatal(err)
		}

		flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
		if err != nil {
			t.Fatal(err)
		}

		if got := flags&unix.FD_CLOEXEC != 0; got != cloexec {
			t.Errorf("FD_CLOEXEC is %v, want %v", got, cloexec)
		}

		fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
		if err != nil {
			t.Fatal(err)
		}

		if fl&unix.O_NONBLOCK == 0 {
			t.Error("O_NONBLOCK is not set")
		}

		sys := mshv.NewSystemFromFd(fd)
		if err := sys.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOpenTwice(t *testing.T) {
	a := openSystem(t)
	defer a.Close()

	b, err := mshv.Open()
	if err != nil {
		t.Fatal(err)
	}

	if a.Fd() == b.Fd() {
		t.Fatalf("both sessions have fd %d", a.Fd())
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := a.GetHostPartitionProperty(mshv.PropertyPhysicalAddressWidth); err != nil {
		t.Fatalf("first session broken after closing the second: %v", err)
	}
}

func TestGetHostPartitionProperty(t *testing.T) {
	sys := openSystem(t)
	defer sys.Close()

	width, err := sys.GetHostPartitionProperty(mshv.PropertyPhysicalAddressWidth)
	if err != nil {
		t.Fatal(err)
	}

	if width <= 0 || width > 64 {
		t.Fatalf("physical address width %d is out of range", width)
	}

	for _, code := range mshv.HostPropertyCodes() {
		first, err := sys.GetHostPartitionProperty(code)
		if err != nil {
			t.Errorf("%v: %v", code, err)
			continue
		}

		second, err := sys.GetHostPartitionProperty(code)
		if err != nil {
			t.Errorf("%v: %v", code, err)
			continue
		}

		if first != second {
			t.Errorf("%v changed between reads: %d != %d", code, first, second)
		}
	}
}

func TestCreatePartition(t *testing.T) {
	sys := openSystem(t)
	defer sys.Close()

	pt, err := sys.CreatePartition()
	if err != nil {
		t.Fatal(err)
	}

	defer pt.Close()

	if s := pt.State(); s != mshv.StateInitialized {
		t.Fatalf("state %v != %v", s, mshv.StateInitialized)
	}

	features, err := pt.GetProperty(mshv.PropertySyntheticProcFeatures)
	if err != nil {
		t.Fatal(err)
	}

	want := mshv.DefaultSyntheticFeatures()
	if got := mshv.SyntheticFeatures(features); got&want != want {
		t.Fatalf("features %v don't include %v", got, want)
	}
}

func TestCreatePartitionWithArgs(t *testing.T) {
	sys := openSystem(t)
	defer sys.Close()

	args := mshv.PartitionArgs(mshv.PartitionNormal)
	pt, err := sys.CreatePartitionWithArgs(&args)
	if err != nil {
		t.Fatal(err)
	}

	defer pt.Close()

	if s := pt.State(); s != mshv.StateCreated {
		t.Fatalf("state %v != %v", s, mshv.StateCreated)
	}
}

func TestCreateVP(t *testing.T) {
	sys := openSystem(t)
	defer sys.Close()

	pt, err := sys.CreatePartition()
	if err != nil {
		t.Fatal(err)
	}

	defer pt.Close()

	vp, err := pt.CreateVP(0)
	if err != nil {
		t.Fatal(err)
	}

	if vp.Index() != 0 {
		t.Fatalf("vp index %d != 0", vp.Index())
	}

	if err := vp.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDeviceClosed(t *testing.T) {
	devFn := map[string]func(*mshv.System) error{
		"GetHostPartitionProperty": func(sys *mshv.System) error {
			_, err := sys.GetHostPartitionProperty(mshv.PropertyPhysicalAddressWidth)
			return err
		},
		"CreatePartition": func(sys *mshv.System) error { _, err := sys.CreatePartition(); return err },
		"CreatePartitionWithArgs": func(sys *mshv.System) error {
			_, err := sys.CreatePartitionWithArgs(new(mshv.CreatePartitionArgs))
			return err
		},
	}

	sys := openSystem(t)
	if err := sys.Close(); err != nil {
		t.Fatal(err)
	}

	if err := sys.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second Close: %v != os.ErrClosed", err)
	}

	for name, fn := range devFn {
		if err := fn(sys); !errors.Is(err, os.ErrClosed) {
			t.Fatalf("%s: %v != os.ErrClosed", name, err)
		}
	}
}

func TestPartitionClosed(t *testing.T) {
	sys := openSystem(t)
	defer sys.Close()

	args := mshv.PartitionArgs(mshv.PartitionNormal)
	pt, err := sys.CreatePartitionWithArgs(&args)
	if err != nil {
		t.Fatal(err)
	}

	if err := pt.Close(); err != nil {
		t.Fatal(err)
	}

	ptFn := map[string]func(*mshv.Partition) error{
		"SetProperty": func(pt *mshv.Partition) error {
			return pt.SetProperty(mshv.PropertySyntheticProcFeatures, uint64(mshv.DefaultSyntheticFeatures()))
		},
		"GetProperty": func(pt *mshv.Partition) error {
			_, err := pt.GetProperty(mshv.PropertySyntheticProcFeatures)
			return err
		},
		"Initialize": (*mshv.Partition).Initialize,
		"CreateVP":   func(pt *mshv.Partition) error { _, err := pt.CreateVP(0); return err },
	}

	for name, fn := range ptFn {
		if err := fn(pt); !errors.Is(err, os.ErrClosed) {
			t.Fatalf("%s: %v != os.ErrClosed", name, err)
		}
	}
}
