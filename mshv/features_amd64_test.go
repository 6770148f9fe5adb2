//go:build linux && amd64

package mshv_test

import (
	"testing"

	"github.com/c35s/mshv/mshv"
)

func TestDefaultSyntheticFeaturesValue_amd64(t *testing.T) {
	if m := mshv.DefaultSyntheticFeatures(); m != 0x6400ffb {
		t.Fatalf("features %v != 0x6400ffb", m)
	}
}
