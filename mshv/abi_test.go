//go:build linux

package mshv

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

// ioc encodes an ioctl request number like the generic _IOC macro.
func ioc(dir, nr, size uintptr) uintptr {
	const (
		nrShift   = 0
		typeShift = 8
		sizeShift = 16
		dirShift  = 30
	)

	return dir<<dirShift | size<<sizeShift | mshvIOCTL<<typeShift | nr<<nrShift
}

func TestRequestCodes(t *testing.T) {
	const (
		none  = 0
		write = 1
		read  = 2
	)

	codes := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"MSHV_CREATE_PARTITION", kCreatePartition, ioc(write, 0x00, unsafe.Sizeof(CreatePartitionArgs{}))},
		{"MSHV_GET_HOST_PARTITION_PROPERTY", kGetHostPartitionProperty, ioc(read|write, 0x01, unsafe.Sizeof(uint64(0)))},
		{"MSHV_INITIALIZE_PARTITION", kInitializePartition, ioc(none, 0x00, 0)},
		{"MSHV_CREATE_VP", kCreateVP, ioc(write, 0x01, unsafe.Sizeof(createVPArgs{}))},
		{"MSHV_ROOT_HVCALL", kRootHvcall, ioc(read|write, 0x07, unsafe.Sizeof(rootHvcall{}))},
	}

	for _, c := range codes {
		if c.got != c.want {
			t.Errorf("%s: %#x != %#x", c.name, c.got, c.want)
		}
	}
}

func TestABISizes(t *testing.T) {
	sizes := map[string][2]uintptr{
		"mshv_create_partition": {unsafe.Sizeof(CreatePartitionArgs{}), 16},
		"mshv_create_vp":        {unsafe.Sizeof(createVPArgs{}), 4},
		"mshv_root_hvcall":      {unsafe.Sizeof(rootHvcall{}), 32},
	}

	for name, sz := range sizes {
		if sz[0] != sz[1] {
			t.Errorf("sizeof(%s) %d != %d", name, sz[0], sz[1])
		}
	}

	if off := unsafe.Offsetof(rootHvcall{}.InPtr); off != 16 {
		t.Errorf("mshv_root_hvcall.in_ptr offset %d != 16", off)
	}
}

func TestMarshalSetPartitionPropertyInput(t *testing.T) {
	in := setPartitionPropertyInput{
		PartitionID:   0x1122334455667788,
		PropertyCode:  uint32(PropertySyntheticProcFeatures),
		PropertyValue: uint64(DefaultSyntheticFeatures()),
	}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != setPartitionPropertyInputSize {
		t.Fatalf("input size %d != %d", len(data), setPartitionPropertyInputSize)
	}

	want := make([]byte, setPartitionPropertyInputSize)
	binary.LittleEndian.PutUint64(want[0:], in.PartitionID)
	binary.LittleEndian.PutUint32(want[8:], in.PropertyCode)
	binary.LittleEndian.PutUint64(want[16:], in.PropertyValue)

	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("input bytes differ (-want +got):\n%s", diff)
	}
}

func TestMarshalGetPartitionPropertyInput(t *testing.T) {
	in := getPartitionPropertyInput{PropertyCode: uint32(PropertyPhysicalAddressWidth)}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	want := make([]byte, getPartitionPropertyInputSize)
	binary.LittleEndian.PutUint32(want[8:], in.PropertyCode)

	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("input bytes differ (-want +got):\n%s", diff)
	}
}

func TestUnmarshalGetPartitionPropertyOutputShort(t *testing.T) {
	var out getPartitionPropertyOutput
	if err := out.UnmarshalBinary(make([]byte, getPartitionPropertyOutputSize-1)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("%+v isn't ErrUnexpectedEOF", err)
	}
}

func TestWrapErr(t *testing.T) {
	if err := wrapErr("noop", nil); err != nil {
		t.Fatalf("wrapErr(nil) = %v", err)
	}

	err := wrapErr("open "+DevicePath, unix.ENOENT)
	if s := err.Error(); s != "mshv: open /dev/mshv: no such file or directory" {
		t.Fatalf("unexpected error string %q", s)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("%v is not os.ErrNotExist", err)
	}

	closed := wrapErr("create partition", os.ErrClosed)
	if !errors.Is(closed, os.ErrClosed) {
		t.Fatalf("%v is not os.ErrClosed", closed)
	}

	var oserr *OSError
	if errors.As(closed, &oserr) {
		t.Fatalf("%v is an *OSError", closed)
	}
}
