//go:build linux && !arm64

package mshv

var archFeatures = []SyntheticFeature{
	FeatureAccessGuestIdleReg,
}
