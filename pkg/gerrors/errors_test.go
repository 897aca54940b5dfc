package gerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestOpError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "layer with field",
			err:      New("ContainsCounter").Layer("regions").Field("cnt").Validation("field is not an integer"),
			expected: "ContainsCounter layer regions (field cnt): field is not an integer: validation failed",
		},
		{
			name:     "lookup",
			err:      New("ByValue").Layer("villages").Field("code").Lookup("no such field"),
			expected: "ByValue layer villages (field code): no such field: attribute not found",
		},
		{
			name:     "entity without context",
			err:      New("load").Entity("matrix").Cause(fmt.Errorf("boom")).Err(),
			expected: "load matrix: boom",
		},
		{
			name:     "bare",
			err:      Validationf("CutByCount", "at least two groups required"),
			expected: "CutByCount: at least two groups required: validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	v := Validationf("op", "bad")
	l := New("op").Lookup("missing")

	if !IsValidation(v) || IsLookup(v) {
		t.Errorf("validation error misclassified: %v", v)
	}
	if !IsLookup(l) || IsValidation(l) {
		t.Errorf("lookup error misclassified: %v", l)
	}

	m := New("ContainsCounter").Field("cnt").Missing("no counter field")
	if !IsValidation(m) || !IsLookup(m) {
		t.Errorf("missing field should match both kinds: %v", m)
	}

	wrapped := fmt.Errorf("outer: %w", v)
	if !IsValidation(wrapped) {
		t.Error("wrapped validation error not detected")
	}

	var opErr *OpError
	if !errors.As(wrapped, &opErr) || opErr.Op != "op" {
		t.Errorf("errors.As failed, got %+v", opErr)
	}
}
