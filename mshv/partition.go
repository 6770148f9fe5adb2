//go:build linux

package mshv

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// PartitionType selects the flavor of partition CreatePartitionWithType builds.
type PartitionType int

const (
	PartitionNormal PartitionType = iota
	PartitionSNP
)

func (t PartitionType) String() string {
	switch t {
	case PartitionNormal:
		return "normal"
	case PartitionSNP:
		return "snp"
	}

	return fmt.Sprintf("PartitionType(%d)", int(t))
}

// Partition creation flag bits (MSHV_PT_BIT_*).
const (
	PartitionBitLAPIC         = 0
	PartitionBitX2APIC        = 1
	PartitionBitGPASuperPages = 2
)

// Isolation types (MSHV_PT_ISOLATION_*).
const (
	IsolationNone = 0
	IsolationSNP  = 1
)

// PartitionArgs returns the creation request for a partition of type t: a
// local APIC in x2APIC mode with guest-physical super pages, isolated with
// SEV-SNP if t is PartitionSNP.
func PartitionArgs(t PartitionType) CreatePartitionArgs {
	args := CreatePartitionArgs{
		Flags:     1<<PartitionBitLAPIC | 1<<PartitionBitX2APIC | 1<<PartitionBitGPASuperPages,
		Isolation: IsolationNone,
	}

	if t == PartitionSNP {
		args.Isolation = IsolationSNP
	}

	return args
}

// PartitionState tracks a partition through creation.
type PartitionState int

const (
	StateCreated PartitionState = iota
	StateConfigured
	StateInitialized
)

func (s PartitionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateInitialized:
		return "initialized"
	}

	return fmt.Sprintf("PartitionState(%d)", int(s))
}

// Partition is an open handle to a partition (a VM).
//
// A partition can't run VPs until Initialize succeeds. Early properties, the
// synthetic processor features in particular, must be set after creation and
// before Initialize.
type Partition struct {
	f     *os.File
	ctl   KernelControl
	state PartitionState
}

// CreatePartitionWithArgs issues the creation call with args as its payload.
// The partition is returned uninitialized.
func (sys *System) CreatePartitionWithArgs(args *CreatePartitionArgs) (*Partition, error) {
	var fd int
	err := sys.control(func(sfd uintptr) (err error) {
		fd, err = sys.ctl.CreatePartition(sfd, args)
		return
	})

	if err != nil {
		return nil, wrapErr("create partition", err)
	}

	pt := Partition{
		f:     os.NewFile(uintptr(fd), "mshv-partition"),
		ctl:   sys.ctl,
		state: StateCreated,
	}

	return &pt, nil
}

// CreatePartitionWithType creates a partition of type t, enables the default
// synthetic processor features and initializes it.
//
// The steps are not retried. If any of them fails, the partition is closed and
// the error of the failing step is returned.
func (sys *System) CreatePartitionWithType(t PartitionType) (*Partition, error) {
	args := PartitionArgs(t)
	features := DefaultSyntheticFeatures()

	log := mshvLog.WithFields(logrus.Fields{
		"type":      t,
		"flags":     fmt.Sprintf("%#x", args.Flags),
		"isolation": args.Isolation,
	})

	pt, err := sys.CreatePartitionWithArgs(&args)
	if err != nil {
		return nil, err
	}

	log = log.WithField("fd", pt.Fd())
	log.WithField("state", pt.state).Debug("partition created")

	// This is an early property, it must be set between creation and initialization.
	if err := pt.SetProperty(PropertySyntheticProcFeatures, uint64(features)); err != nil {
		pt.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"state":    pt.state,
		"features": features,
	}).Debug("synthetic processor features set")

	if err := pt.Initialize(); err != nil {
		pt.Close()
		return nil, err
	}

	log.WithField("state", pt.state).Debug("partition initialized")
	return pt, nil
}

// CreatePartition creates an initialized partition of type PartitionNormal.
func (sys *System) CreatePartition() (*Partition, error) {
	return sys.CreatePartitionWithType(PartitionNormal)
}

// SetProperty sets a partition property with the set-partition-property hypercall.
func (pt *Partition) SetProperty(code PropertyCode, value uint64) error {
	err := control(pt.f, func(fd uintptr) error {
		return pt.ctl.SetPartitionProperty(fd, code, value)
	})

	if err != nil {
		return wrapErr(fmt.Sprintf("set partition property %v", code), err)
	}

	if code == PropertySyntheticProcFeatures && pt.state == StateCreated {
		pt.state = StateConfigured
	}

	return nil
}

// GetProperty reads a partition property with the get-partition-property hypercall.
func (pt *Partition) GetProperty(code PropertyCode) (uint64, error) {
	var val uint64
	err := control(pt.f, func(fd uintptr) (err error) {
		val, err = pt.ctl.GetPartitionProperty(fd, code)
		return
	})

	if err != nil {
		return 0, wrapErr(fmt.Sprintf("get partition property %v", code), err)
	}

	return val, nil
}

// Initialize finishes partition setup. It must be called once, after the early
// properties are set and before any VP is created.
func (pt *Partition) Initialize() error {
	err := control(pt.f, pt.ctl.InitializePartition)
	if err != nil {
		return wrapErr("initialize partition", err)
	}

	pt.state = StateInitialized
	return nil
}

// State returns the last creation step the partition completed.
func (pt *Partition) State() PartitionState {
	return pt.state
}

// Fd returns the partition descriptor. It is only valid until Close.
func (pt *Partition) Fd() uintptr {
	return rawFd(pt.f)
}

// Close releases the partition. VPs created from it keep their own handles.
func (pt *Partition) Close() error {
	return pt.f.Close()
}

// VP is an open handle to a virtual processor. The register and run
// interfaces live with the VMM; this package only creates and releases it.
type VP struct {
	f     *os.File
	index uint32
}

// CreateVP creates the virtual processor with the given index.
// The partition must be initialized.
func (pt *Partition) CreateVP(index uint32) (*VP, error) {
	var fd int
	err := control(pt.f, func(pfd uintptr) (err error) {
		fd, err = pt.ctl.CreateVP(pfd, index)
		return
	})

	if err != nil {
		return nil, wrapErr(fmt.Sprintf("create vp %d", index), err)
	}

	vp := VP{
		f:     os.NewFile(uintptr(fd), fmt.Sprintf("mshv-vp-%d", index)),
		index: index,
	}

	return &vp, nil
}

// Index returns the VP's index within its partition.
func (vp *VP) Index() uint32 {
	return vp.index
}

// Fd returns the VP descriptor. It is only valid until Close.
func (vp *VP) Fd() uintptr {
	return rawFd(vp.f)
}

// Close releases the VP.
func (vp *VP) Close() error {
	return vp.f.Close()
}
