package validation_test

import (
	"strings"
	"testing"

	"github.com/accessops/access-console/internal/validation"
)

func TestValidateDecision(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"renew", false},
		{"let-expire", false},
		{"undecided", false},
		{"expire", true},
		{"", true},
		{"RENEW", true},
	}

	for _, tt := range tests {
		err := validation.ValidateDecision(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDecision(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestValidateTheme(t *testing.T) {
	for _, valid := range []string{"light", "dark", "system"} {
		if err := validation.ValidateTheme(valid); err != nil {
			t.Errorf("ValidateTheme(%q) unexpected error: %v", valid, err)
		}
	}
	if err := validation.ValidateTheme("midnight"); err == nil {
		t.Error("Expected error for unknown theme")
	}
}

func TestValidateReason(t *testing.T) {
	if err := validation.ValidateReason("", true); err == nil {
		t.Error("Expected error for missing required reason")
	}
	if err := validation.ValidateReason("   ", true); err == nil {
		t.Error("Expected error for whitespace-only required reason")
	}
	if err := validation.ValidateReason("", false); err != nil {
		t.Errorf("Unexpected error for optional empty reason: %v", err)
	}
	if err := validation.ValidateReason(strings.Repeat("x", validation.MaxReasonLength+1), false); err == nil {
		t.Error("Expected error for oversized reason")
	}
}

func TestValidationErrors(t *testing.T) {
	var errs validation.ValidationErrors
	if errs.HasErrors() {
		t.Error("Expected no errors initially")
	}

	errs.Add("reason", "", "a reason is required")
	errs.Add("duration_id", "999", "unknown duration")

	if !errs.HasErrors() {
		t.Error("Expected errors after Add")
	}
	if !strings.Contains(errs.Error(), "and 1 more errors") {
		t.Errorf("Unexpected combined message: %q", errs.Error())
	}
}
