//go:build linux

package mshv

import (
	"fmt"
	"math/bits"
	"strings"
)

// SyntheticFeature is a bit position in bank 0 of union
// hv_partition_synthetic_processor_features.
type SyntheticFeature uint

const (
	FeatureHypervisorPresent               SyntheticFeature = 0
	FeatureHV1                             SyntheticFeature = 1
	FeatureAccessVPRunTimeReg              SyntheticFeature = 2
	FeatureAccessPartitionReferenceCounter SyntheticFeature = 3
	FeatureAccessSynICRegs                 SyntheticFeature = 4
	FeatureAccessSyntheticTimerRegs        SyntheticFeature = 5
	FeatureAccessIntrCtrlRegs              SyntheticFeature = 6
	FeatureAccessHypercallRegs             SyntheticFeature = 7
	FeatureAccessVPIndex                   SyntheticFeature = 8
	FeatureAccessPartitionReferenceTSC     SyntheticFeature = 9
	FeatureAccessGuestIdleReg              SyntheticFeature = 10
	FeatureAccessFrequencyRegs             SyntheticFeature = 11
	FeatureFastHypercallOutput             SyntheticFeature = 18
	FeatureStartVirtualProcessor           SyntheticFeature = 20
	FeatureDirectSyntheticTimers           SyntheticFeature = 22
	FeatureExtendedProcessorMasks          SyntheticFeature = 24
	FeatureTBFlushHypercalls               SyntheticFeature = 25
	FeatureSyntheticClusterIPI             SyntheticFeature = 26
	FeatureNotifyLongSpinWait              SyntheticFeature = 27
	FeatureQueryNUMADistance               SyntheticFeature = 28
	FeatureSignalEvents                    SyntheticFeature = 29
	FeatureRetargetDeviceInterrupt         SyntheticFeature = 30
)

var featureNames = map[SyntheticFeature]string{
	FeatureHypervisorPresent:               "hypervisor_present",
	FeatureHV1:                             "hv1",
	FeatureAccessVPRunTimeReg:              "access_vp_run_time_reg",
	FeatureAccessPartitionReferenceCounter: "access_partition_reference_counter",
	FeatureAccessSynICRegs:                 "access_synic_regs",
	FeatureAccessSyntheticTimerRegs:        "access_synthetic_timer_regs",
	FeatureAccessIntrCtrlRegs:              "access_intr_ctrl_regs",
	FeatureAccessHypercallRegs:             "access_hypercall_regs",
	FeatureAccessVPIndex:                   "access_vp_index",
	FeatureAccessPartitionReferenceTSC:     "access_partition_reference_tsc",
	FeatureAccessGuestIdleReg:              "access_guest_idle_reg",
	FeatureAccessFrequencyRegs:             "access_frequency_regs",
	FeatureFastHypercallOutput:             "fast_hypercall_output",
	FeatureStartVirtualProcessor:           "start_virtual_processor",
	FeatureDirectSyntheticTimers:           "direct_synthetic_timers",
	FeatureExtendedProcessorMasks:          "extended_processor_masks",
	FeatureTBFlushHypercalls:               "tb_flush_hypercalls",
	FeatureSyntheticClusterIPI:             "synthetic_cluster_ipi",
	FeatureNotifyLongSpinWait:              "notify_long_spin_wait",
	FeatureQueryNUMADistance:               "query_numa_distance",
	FeatureSignalEvents:                    "signal_events",
	FeatureRetargetDeviceInterrupt:         "retarget_device_interrupt",
}

func (f SyntheticFeature) String() string {
	if s, ok := featureNames[f]; ok {
		return s
	}

	return fmt.Sprintf("SyntheticFeature(%d)", uint(f))
}

// defaultFeatures is the feature set a partition with a working synthetic
// interrupt controller needs. archFeatures adds the arch-specific bits.
var defaultFeatures = []SyntheticFeature{
	FeatureHypervisorPresent,
	FeatureHV1,
	FeatureAccessPartitionReferenceCounter,
	FeatureAccessSynICRegs,
	FeatureAccessSyntheticTimerRegs,
	FeatureAccessPartitionReferenceTSC,
	FeatureAccessFrequencyRegs,
	FeatureAccessIntrCtrlRegs,
	FeatureAccessVPIndex,
	FeatureAccessHypercallRegs,
	FeatureTBFlushHypercalls,
	FeatureSyntheticClusterIPI,
	FeatureDirectSyntheticTimers,
}

// DefaultFeatures returns the features CreatePartitionWithType enables, in
// the order they are documented.
func DefaultFeatures() []SyntheticFeature {
	ff := append([]SyntheticFeature(nil), defaultFeatures...)
	return append(ff, archFeatures...)
}

// SyntheticFeatures is the value of the SYNTHETIC_PROC_FEATURES partition property.
type SyntheticFeatures uint64

// NewSyntheticFeatures ORs the given bits together.
func NewSyntheticFeatures(ff ...SyntheticFeature) SyntheticFeatures {
	var mask SyntheticFeatures
	for _, f := range ff {
		mask = mask.With(f)
	}

	return mask
}

// DefaultSyntheticFeatures returns the mask of DefaultFeatures.
func DefaultSyntheticFeatures() SyntheticFeatures {
	return NewSyntheticFeatures(DefaultFeatures()...)
}

// With returns a copy of the mask with f set.
func (m SyntheticFeatures) With(f SyntheticFeature) SyntheticFeatures {
	return m | 1<<f
}

// Has reports whether f is set.
func (m SyntheticFeatures) Has(f SyntheticFeature) bool {
	return m&(1<<f) != 0
}

// Features decodes the mask into its bits, lowest first.
func (m SyntheticFeatures) Features() []SyntheticFeature {
	ff := make([]SyntheticFeature, 0, bits.OnesCount64(uint64(m)))
	for v := uint64(m); v != 0; v &= v - 1 {
		ff = append(ff, SyntheticFeature(bits.TrailingZeros64(v)))
	}

	return ff
}

func (m SyntheticFeatures) String() string {
	var names []string
	for _, f := range m.Features() {
		names = append(names, f.String())
	}

	return fmt.Sprintf("%#x[%s]", uint64(m), strings.Join(names, ","))
}
