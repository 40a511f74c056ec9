package ingesterr

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"config", ErrConfig, CategoryFatal},
		{"decode", ErrDecode, CategoryWorkbook},
		{"tnved_missing", ErrTnvedMissing, CategoryWorkbook},
		{"registry_unavailable", ErrRegistryUnavailable, CategoryPartial},
		{"cache_io", ErrCacheIO, CategoryPartial},
		{"search_quota", ErrSearchQuota, CategoryPartial},
		{"unknown", errors.New("boom"), CategoryWorkbook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRegistryGap(t *testing.T) {
	if !IsRegistryGap(ErrRegistryUnavailable) {
		t.Error("ErrRegistryUnavailable should be a registry gap")
	}
	if !IsRegistryGap(ErrCacheIO) {
		t.Error("ErrCacheIO should be a registry gap")
	}
	if IsRegistryGap(ErrDecode) {
		t.Error("ErrDecode should not be a registry gap")
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(ErrRegistryUnavailable, "russia lookup", cause)
	if !errors.Is(wrapped, ErrRegistryUnavailable) {
		t.Error("Wrap should preserve errors.Is chain to the sentinel")
	}
}
