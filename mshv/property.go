//go:build linux

package mshv

import (
	"fmt"
	"sort"
)

// PropertyCode identifies a partition property. It has the values of the C
// enum hv_partition_property_code.
type PropertyCode uint64

const (
	// Privilege properties
	PropertyPrivilegeFlags        PropertyCode = 0x00010000
	PropertySyntheticProcFeatures PropertyCode = 0x00010001

	// Scheduling properties
	PropertySuspend    PropertyCode = 0x00020000
	PropertyCPUReserve PropertyCode = 0x00020001
	PropertyCPUCap     PropertyCode = 0x00020002
	PropertyCPUWeight  PropertyCode = 0x00020003
	PropertyCPUGroupID PropertyCode = 0x00020004

	// Time properties
	PropertyTimeFreeze    PropertyCode = 0x00030003
	PropertyReferenceTime PropertyCode = 0x00030005

	// Debugging properties
	PropertyDebuggingEnabled PropertyCode = 0x00040000

	// Resource properties
	PropertyVirtualTLBPageCount    PropertyCode = 0x00050000
	PropertyVSMConfig              PropertyCode = 0x00050001
	PropertyZeroMemoryOnReset      PropertyCode = 0x00050002
	PropertyProcessorsPerSocket    PropertyCode = 0x00050003
	PropertyNestedTLBSize          PropertyCode = 0x00050004
	PropertyGPAPageAccessTracking  PropertyCode = 0x00050005
	PropertyIsolationState         PropertyCode = 0x0005000c
	PropertyUnimplementedMSRAction PropertyCode = 0x00050017
	PropertySEVVMGExitOffloads     PropertyCode = 0x00050022

	// Compatibility properties
	PropertyProcessorVendor         PropertyCode = 0x00060002
	PropertyProcessorXSaveFeatures  PropertyCode = 0x00060005
	PropertyProcessorCLFlushSize    PropertyCode = 0x00060006
	PropertyMaxXSaveDataSize        PropertyCode = 0x00060008
	PropertyProcessorClockFrequency PropertyCode = 0x00060009
	PropertyProcessorFeatures0      PropertyCode = 0x0006000a
	PropertyProcessorFeatures1      PropertyCode = 0x0006000b
	PropertyPhysicalAddressWidth    PropertyCode = 0x00060017

	// Guest software properties
	PropertyGuestOSID PropertyCode = 0x00070000

	// Debug properties
	PropertyDebugChannelID PropertyCode = 0x00080000

	// Misc
	PropertyVMMCapabilities PropertyCode = 0x00090007
)

var propertyNames = map[PropertyCode]string{
	PropertyPrivilegeFlags:          "HV_PARTITION_PROPERTY_PRIVILEGE_FLAGS",
	PropertySyntheticProcFeatures:   "HV_PARTITION_PROPERTY_SYNTHETIC_PROC_FEATURES",
	PropertySuspend:                 "HV_PARTITION_PROPERTY_SUSPEND",
	PropertyCPUReserve:              "HV_PARTITION_PROPERTY_CPU_RESERVE",
	PropertyCPUCap:                  "HV_PARTITION_PROPERTY_CPU_CAP",
	PropertyCPUWeight:               "HV_PARTITION_PROPERTY_CPU_WEIGHT",
	PropertyCPUGroupID:              "HV_PARTITION_PROPERTY_CPU_GROUP_ID",
	PropertyTimeFreeze:              "HV_PARTITION_PROPERTY_TIME_FREEZE",
	PropertyReferenceTime:           "HV_PARTITION_PROPERTY_REFERENCE_TIME",
	PropertyDebuggingEnabled:        "HV_PARTITION_PROPERTY_DEBUGGING_ENABLED",
	PropertyVirtualTLBPageCount:     "HV_PARTITION_PROPERTY_VIRTUAL_TLB_PAGE_COUNT",
	PropertyVSMConfig:               "HV_PARTITION_PROPERTY_VSM_CONFIG",
	PropertyZeroMemoryOnReset:       "HV_PARTITION_PROPERTY_ZERO_MEMORY_ON_RESET",
	PropertyProcessorsPerSocket:     "HV_PARTITION_PROPERTY_PROCESSORS_PER_SOCKET",
	PropertyNestedTLBSize:           "HV_PARTITION_PROPERTY_NESTED_TLB_SIZE",
	PropertyGPAPageAccessTracking:   "HV_PARTITION_PROPERTY_GPA_PAGE_ACCESS_TRACKING",
	PropertyUnimplementedMSRAction:  "HV_PARTITION_PROPERTY_UNIMPLEMENTED_MSR_ACTION",
	PropertyIsolationState:          "HV_PARTITION_PROPERTY_ISOLATION_STATE",
	PropertySEVVMGExitOffloads:      "HV_PARTITION_PROPERTY_SEV_VMGEXIT_OFFLOADS",
	PropertyProcessorVendor:         "HV_PARTITION_PROPERTY_PROCESSOR_VENDOR",
	PropertyProcessorXSaveFeatures:  "HV_PARTITION_PROPERTY_PROCESSOR_XSAVE_FEATURES",
	PropertyProcessorCLFlushSize:    "HV_PARTITION_PROPERTY_PROCESSOR_CL_FLUSH_SIZE",
	PropertyMaxXSaveDataSize:        "HV_PARTITION_PROPERTY_MAX_XSAVE_DATA_SIZE",
	PropertyProcessorClockFrequency: "HV_PARTITION_PROPERTY_PROCESSOR_CLOCK_FREQUENCY",
	PropertyProcessorFeatures0:      "HV_PARTITION_PROPERTY_PROCESSOR_FEATURES0",
	PropertyProcessorFeatures1:      "HV_PARTITION_PROPERTY_PROCESSOR_FEATURES1",
	PropertyPhysicalAddressWidth:    "HV_PARTITION_PROPERTY_PHYSICAL_ADDRESS_WIDTH",
	PropertyGuestOSID:               "HV_PARTITION_PROPERTY_GUEST_OS_ID",
	PropertyDebugChannelID:          "HV_PARTITION_PROPERTY_DEBUG_CHANNEL_ID",
	PropertyVMMCapabilities:         "HV_PARTITION_PROPERTY_VMM_CAPABILITIES",
}

// hostProperties are the codes the host partition is expected to answer.
var hostProperties = []PropertyCode{
	PropertyPhysicalAddressWidth,
	PropertyProcessorVendor,
	PropertyProcessorCLFlushSize,
	PropertyMaxXSaveDataSize,
	PropertyProcessorClockFrequency,
}

func (c PropertyCode) String() string {
	if s, ok := propertyNames[c]; ok {
		return s
	}

	return fmt.Sprintf("PropertyCode(%#x)", uint64(c))
}

// AllPropertyCodes returns every property code with a name, in ascending order.
func AllPropertyCodes() []PropertyCode {
	codes := make([]PropertyCode, 0, len(propertyNames))
	for c := range propertyNames {
		codes = append(codes, c)
	}

	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// HostPropertyCodes returns the property codes to query with
// GetHostPartitionProperty.
func HostPropertyCodes() []PropertyCode {
	return append([]PropertyCode(nil), hostProperties...)
}

// GetHostPartitionProperty reads a property of the host partition from the
// device itself. The value is a snapshot; it has no lifecycle of its own.
func (sys *System) GetHostPartitionProperty(code PropertyCode) (int32, error) {
	var val int32
	err := sys.control(func(fd uintptr) (err error) {
		val, err = sys.ctl.GetHostPartitionProperty(fd, code)
		return
	})

	if err != nil {
		return 0, wrapErr(fmt.Sprintf("get host partition property %v", code), err)
	}

	return val, nil
}
