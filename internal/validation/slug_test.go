package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug    string
		wantErr error
	}{
		{"groceries", nil},
		{"q3-budget-2026", nil},
		{"a", nil},
		{"", ErrEmptySlug},
		{"-groceries", ErrInvalidSlug},
		{"groceries-", ErrInvalidSlug},
		{"Groceries", ErrInvalidSlug},
		{"week one", ErrInvalidSlug},
		{"café", ErrInvalidSlug},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateSlug(%q) = %v, want nil", tt.slug, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateSlug(%q) = %v, want %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		wantErr error
	}{
		{"ok", "Groceries", 100, nil},
		{"trimmed ok", "  Groceries  ", 100, nil},
		{"empty", "", 100, ErrEmptyName},
		{"whitespace only", "   ", 100, ErrEmptyName},
		{"too long", strings.Repeat("x", 101), 100, ErrNameTooLong},
		{"at limit", strings.Repeat("x", 100), 100, nil},
		{"runes not bytes", strings.Repeat("é", 100), 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input, tt.max)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateName = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
