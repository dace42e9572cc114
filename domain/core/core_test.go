package core

import (
	"errors"
	"testing"
)

func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"valid-id", RunID("valid-id"), false},
		{"  padded  ", RunID("padded"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q) returned error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseRunID(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("impact", "missing"), IsValidationError},
		{"invalid input", NewInvalidInputError("threshold_pct", 0, "out of range"), IsInvalidInputError},
		{"insufficient data", NewInsufficientDataError("risk scoring"), IsInsufficientDataError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("%v not recognized by its checker", tt.err)
			}
			if IsValidationError(tt.err) && IsInvalidInputError(tt.err) {
				t.Error("error matched two disjoint categories")
			}
		})
	}

	if IsValidationError(errors.New("unrelated")) {
		t.Error("unrelated error recognized as validation error")
	}
}

func TestComputeCacheKeyDeterminism(t *testing.T) {
	a := ComputeCacheKey(map[string]string{"domain": "churn", "threshold": "80"})
	b := ComputeCacheKey(map[string]string{"threshold": "80", "domain": "churn"})
	if a != b {
		t.Error("cache key depends on map iteration order")
	}

	c := ComputeCacheKey(map[string]string{"domain": "churn", "threshold": "90"})
	if a == c {
		t.Error("different parameters produced the same cache key")
	}
}

func TestComputeInputHash(t *testing.T) {
	if ComputeInputHash("a", 1) == ComputeInputHash("a", 2) {
		t.Error("different inputs produced the same hash")
	}
	if ComputeInputHash("a", 1) != ComputeInputHash("a", 1) {
		t.Error("identical inputs produced different hashes")
	}
}
