//go:build linux && arm64

package mshv

// The guest idle register does not exist on arm64.
var archFeatures []SyntheticFeature
