package validation

import (
	"strings"
	"testing"
)

type rankOptions struct {
	NGroup int     `validate:"gte=1"`
	Ratio  float64 `validate:"gt=0"`
	Mode   string  `validate:"required,oneof=length value"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		opts      rankOptions
		errSubstr string
	}{
		{name: "valid", opts: rankOptions{NGroup: 3, Ratio: 1.5, Mode: "length"}},
		{name: "zero groups", opts: rankOptions{NGroup: 0, Ratio: 1, Mode: "length"}, errSubstr: "NGroup: must be at least 1"},
		{name: "zero ratio", opts: rankOptions{NGroup: 2, Ratio: 0, Mode: "value"}, errSubstr: "Ratio: must be greater than 0"},
		{name: "missing mode", opts: rankOptions{NGroup: 2, Ratio: 1}, errSubstr: "Mode: field is required"},
		{name: "unknown mode", opts: rankOptions{NGroup: 2, Ratio: 1, Mode: "bogus"}, errSubstr: "Mode: must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.opts)
			if tt.errSubstr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("expected error containing %q, got %v", tt.errSubstr, err)
			}
		})
	}
}

func TestFieldName(t *testing.T) {
	valid := []string{"weight", "node_1", "_calc", "社群", "人口2020"}
	for _, name := range valid {
		if err := FieldName(name); err != nil {
			t.Errorf("FieldName(%q) unexpected error: %v", name, err)
		}
	}

	invalid := []string{"", "1st", "has space", "semi;colon", strings.Repeat("a", 65)}
	for _, name := range invalid {
		if err := FieldName(name); err == nil {
			t.Errorf("FieldName(%q) expected error", name)
		}
	}
}

func TestConfigValidator(t *testing.T) {
	cv := NewConfigValidator("cluster").
		RangeFloat("phi", 1.2, 0, 1).
		PositiveFloat("dist_base", 0).
		MinInt("ngroup", 1, 2).
		NonNegativeFloat("max_distance", 0).
		OneOf("linkage", "ward", []string{"ward"})

	if !cv.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(cv.Errors()) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(cv.Errors()), cv.Errors())
	}
	err := cv.Validate()
	if err == nil || !strings.Contains(err.Error(), "cluster validation failed with 3 errors") {
		t.Errorf("unexpected combined error: %v", err)
	}
	if !strings.Contains(err.Error(), "cluster.phi") {
		t.Errorf("combined error should list phi: %v", err)
	}
}

func TestConfigValidator_WhenAndCustom(t *testing.T) {
	cv := NewConfigValidator("output").
		When(false, func(cv *ConfigValidator) { cv.Required("bucket", "") }).
		Custom("target", func() error { return nil })
	if err := cv.Validate(); err != nil {
		t.Errorf("expected no errors, got %v", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr(0.0, 2.5); got != 2.5 {
		t.Errorf("DefaultOr(0, 2.5) = %v", got)
	}
	if got := DefaultOr("-", ","); got != "-" {
		t.Errorf("DefaultOr(-, ,) = %v", got)
	}
}
