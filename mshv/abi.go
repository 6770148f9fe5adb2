//go:build linux

package mshv

import (
	"bytes"
	"encoding/binary"
	"io"
)

// DevicePath is the special file that represents the hypervisor.
const DevicePath = "/dev/mshv"

// Request codes, encoded for the generic Linux ioctl layout (amd64 and arm64).
// The numbers come from include/uapi/linux/mshv.h, MSHV_IOCTL = 0xB8.
const (
	mshvIOCTL = 0xb8

	// /dev/mshv
	kCreatePartition          = 0x4010b800 // _IOW(MSHV_IOCTL, 0x00, struct mshv_create_partition)
	kGetHostPartitionProperty = 0xc008b801 // _IOWR(MSHV_IOCTL, 0x01, __u64)

	// partition fd
	kInitializePartition = 0xb800     // _IO(MSHV_IOCTL, 0x00)
	kCreateVP            = 0x4004b801 // _IOW(MSHV_IOCTL, 0x01, struct mshv_create_vp)
	kRootHvcall          = 0xc020b807 // _IOWR(MSHV_IOCTL, 0x07, struct mshv_root_hvcall)
)

// Hypercall codes used through the root hvcall passthrough.
const (
	hvcallGetPartitionProperty = 0x0043
	hvcallSetPartitionProperty = 0x0044
)

// hvStatusSuccess is HV_STATUS_SUCCESS.
const hvStatusSuccess = 0

// CreatePartitionArgs has the same layout as the C struct mshv_create_partition.
type CreatePartitionArgs struct {
	Flags     uint64
	Isolation uint64
}

// createVPArgs has the same layout as the C struct mshv_create_vp.
type createVPArgs struct {
	VPIndex uint32
}

// rootHvcall has the same layout as the C struct mshv_root_hvcall. InPtr and
// OutPtr point at heap buffers that must stay alive until the ioctl returns.
type rootHvcall struct {
	Code   uint16
	Reps   uint16
	InSz   uint16
	OutSz  uint16
	Status uint16
	_      [6]uint8
	InPtr  uint64
	OutPtr uint64
}

// setPartitionPropertyInput is struct hv_input_set_partition_property. The
// driver overwrites PartitionID with the id of the partition the ioctl is
// issued against.
type setPartitionPropertyInput struct {
	PartitionID   uint64
	PropertyCode  uint32
	_             uint32
	PropertyValue uint64
}

// getPartitionPropertyInput is struct hv_input_get_partition_property.
type getPartitionPropertyInput struct {
	PartitionID  uint64
	PropertyCode uint32
	_            uint32
}

// getPartitionPropertyOutput is struct hv_output_get_partition_property.
type getPartitionPropertyOutput struct {
	PropertyValue uint64
}

const (
	setPartitionPropertyInputSize  = 24
	getPartitionPropertyInputSize  = 16
	getPartitionPropertyOutputSize = 8
)

// MarshalBinary encodes the input the way the hypervisor reads it.
func (in *getPartitionPropertyInput) MarshalBinary() (data []byte, err error) {
	b := new(bytes.Buffer)
	b.Grow(getPartitionPropertyInputSize)
	if err := binary.Write(b, binary.LittleEndian, in); err != nil {
		panic(err)
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the hypervisor's output buffer.
// It returns io.ErrUnexpectedEOF if the given data is too short.
func (out *getPartitionPropertyOutput) UnmarshalBinary(data []byte) error {
	if len(data) < getPartitionPropertyOutputSize {
		return io.ErrUnexpectedEOF
	}

	out.PropertyValue = binary.LittleEndian.Uint64(data)
	return nil
}

// MarshalBinary encodes the input the way the hypervisor reads it.
func (in *setPartitionPropertyInput) MarshalBinary() (data []byte, err error) {
	b := new(bytes.Buffer)
	b.Grow(setPartitionPropertyInputSize)
	if err := binary.Write(b, binary.LittleEndian, in); err != nil {
		panic(err)
	}

	return b.Bytes(), nil
}
