//go:build linux && amd64

package mshv

import "golang.org/x/sys/unix"

// Architectural MSRs.
const (
	MSRTSC             = 0x00000010
	MSRAPICBase        = 0x0000001b
	MSRTSCAdjust       = 0x0000003b
	MSRSpecCtrl        = 0x00000048
	MSRSysenterCS      = 0x00000174
	MSRSysenterESP     = 0x00000175
	MSRSysenterEIP     = 0x00000176
	MSRDebugCtl        = 0x000001d9
	MSRMTRRPhysBase0   = 0x00000200
	MSRMTRRPhysMask0   = 0x00000201
	MSRMTRRPhysBase1   = 0x00000202
	MSRMTRRPhysMask1   = 0x00000203
	MSRMTRRPhysBase2   = 0x00000204
	MSRMTRRPhysMask2   = 0x00000205
	MSRMTRRPhysBase3   = 0x00000206
	MSRMTRRPhysMask3   = 0x00000207
	MSRMTRRPhysBase4   = 0x00000208
	MSRMTRRPhysMask4   = 0x00000209
	MSRMTRRPhysBase5   = 0x0000020a
	MSRMTRRPhysMask5   = 0x0000020b
	MSRMTRRPhysBase6   = 0x0000020c
	MSRMTRRPhysMask6   = 0x0000020d
	MSRMTRRPhysBase7   = 0x0000020e
	MSRMTRRPhysMask7   = 0x0000020f
	MSRMTRRFix64K00000 = 0x00000250
	MSRMTRRFix16K80000 = 0x00000258
	MSRMTRRFix16KA0000 = 0x00000259
	MSRMTRRFix4KC0000  = 0x00000268
	MSRMTRRFix4KC8000  = 0x00000269
	MSRMTRRFix4KD0000  = 0x0000026a
	MSRMTRRFix4KD8000  = 0x0000026b
	MSRMTRRFix4KE0000  = 0x0000026c
	MSRMTRRFix4KE8000  = 0x0000026d
	MSRMTRRFix4KF0000  = 0x0000026e
	MSRMTRRFix4KF8000  = 0x0000026f
	MSRPAT             = 0x00000277
	MSRMTRRDefType     = 0x000002ff
	MSRBndCfgs         = 0x00000d90
	MSREFER            = 0xc0000080
	MSRSTAR            = 0xc0000081
	MSRLSTAR           = 0xc0000082
	MSRCSTAR           = 0xc0000083
	MSRSFMask          = 0xc0000084
	MSRKernelGSBase    = 0xc0000102
	MSRTSCAux          = 0xc0000103
)

// Hyper-V synthetic MSRs.
const (
	HVMSRGuestOSID    = 0x40000000
	HVMSRHypercall    = 0x40000001
	HVMSRVPIndex      = 0x40000002
	HVMSRReferenceTSC = 0x40000021
	HVMSRSControl     = 0x40000080
	HVMSRSVersion     = 0x40000081
	HVMSRSIEFP        = 0x40000082
	HVMSRSIMP         = 0x40000083
	HVMSREOM          = 0x40000084
	HVMSRSINT0        = 0x40000090
	HVMSRSINT1        = 0x40000091
	HVMSRSINT2        = 0x40000092
	HVMSRSINT3        = 0x40000093
	HVMSRSINT4        = 0x40000094
	HVMSRSINT5        = 0x40000095
	HVMSRSINT6        = 0x40000096
	HVMSRSINT7        = 0x40000097
	HVMSRSINT8        = 0x40000098
	HVMSRSINT9        = 0x40000099
	HVMSRSINT10       = 0x4000009a
	HVMSRSINT11       = 0x4000009b
	HVMSRSINT12       = 0x4000009c
	HVMSRSINT13       = 0x4000009d
	HVMSRSINT14       = 0x4000009e
	HVMSRSINT15       = 0x4000009f
)

// MaxMSRListEntries bounds the length of an MSRList.
const MaxMSRListEntries = 256

// MSRList is a length-prefixed list of MSR indices, like struct kvm_msr_list
// without the fixed-size array.
type MSRList struct {
	nmsrs   uint32
	indices []uint32
}

// NewMSRList copies indices into a new list.
// It returns E2BIG if there are more than MaxMSRListEntries.
func NewMSRList(indices []uint32) (*MSRList, error) {
	if len(indices) > MaxMSRListEntries {
		return nil, unix.E2BIG
	}

	l := MSRList{
		nmsrs:   uint32(len(indices)),
		indices: append([]uint32(nil), indices...),
	}

	return &l, nil
}

// Len returns the number of indices in the list.
func (l *MSRList) Len() int {
	return int(l.nmsrs)
}

// Indices returns a copy of the indices.
func (l *MSRList) Indices() []uint32 {
	return append([]uint32(nil), l.indices[:l.nmsrs]...)
}

// supportedMSRs are the MSRs known to work with get/set on a VP of a partition
// created by CreatePartitionWithType.
var supportedMSRs = []uint32{
	MSRTSC,
	MSREFER,
	MSRKernelGSBase,
	MSRAPICBase,
	MSRPAT,
	MSRSysenterCS,
	MSRSysenterESP,
	MSRSysenterEIP,
	MSRSTAR,
	MSRLSTAR,
	MSRCSTAR,
	MSRSFMask,
	MSRMTRRDefType,
	MSRMTRRPhysBase0,
	MSRMTRRPhysMask0,
	MSRMTRRPhysBase1,
	MSRMTRRPhysMask1,
	MSRMTRRPhysBase2,
	MSRMTRRPhysMask2,
	MSRMTRRPhysBase3,
	MSRMTRRPhysMask3,
	MSRMTRRPhysBase4,
	MSRMTRRPhysMask4,
	MSRMTRRPhysBase5,
	MSRMTRRPhysMask5,
	MSRMTRRPhysBase6,
	MSRMTRRPhysMask6,
	MSRMTRRPhysBase7,
	MSRMTRRPhysMask7,
	MSRMTRRFix64K00000,
	MSRMTRRFix16K80000,
	MSRMTRRFix16KA0000,
	MSRMTRRFix4KC0000,
	MSRMTRRFix4KC8000,
	MSRMTRRFix4KD0000,
	MSRMTRRFix4KD8000,
	MSRMTRRFix4KE0000,
	MSRMTRRFix4KE8000,
	MSRMTRRFix4KF0000,
	MSRMTRRFix4KF8000,
	MSRTSCAux,

	// MSRBndCfgs is accessible only if one of the IBRS, STIBP, MDD or PSFD
	// processor features is enabled.

	MSRDebugCtl,

	// MSRSpecCtrl needs MPX, which is not enabled.
	// MSRTSCAdjust can't be read on current hypervisor versions.

	HVMSRGuestOSID,
	HVMSRSINT0,
	HVMSRSINT1,
	HVMSRSINT2,
	HVMSRSINT3,
	HVMSRSINT4,
	HVMSRSINT5,
	HVMSRSINT6,
	HVMSRSINT7,
	HVMSRSINT8,
	HVMSRSINT9,
	HVMSRSINT10,
	HVMSRSINT11,
	HVMSRSINT12,
	HVMSRSINT13,
	HVMSRSINT14,
	HVMSRSINT15,
	HVMSRSControl,
	HVMSRSIEFP,
	HVMSRSIMP,
	HVMSRReferenceTSC,
	HVMSREOM,
}

// GetMSRIndexList returns the MSRs this package supports for get and set. The
// list is fixed; it is not read from the device.
func (sys *System) GetMSRIndexList() *MSRList {
	l, err := NewMSRList(supportedMSRs)
	if err != nil {
		panic(err)
	}

	return l
}
