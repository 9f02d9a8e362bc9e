package common_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/portdesk/sof-extractor/internal/common"
)

func TestValidatorRules(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *common.Validator
		wantErr string // empty means the validator should pass
	}{
		{
			name: "all rules pass",
			build: func() *common.Validator {
				return common.NewValidator().
					Field("filename", "sof_voyage12.txt", common.Required, common.MaxLen(255)).
					Field("port", "SINGAPORE", common.MinLen(2))
			},
		},
		{
			name: "required rejects blank strings",
			build: func() *common.Validator {
				return common.NewValidator().Field("filename", "   ", common.Required)
			},
			wantErr: "is required",
		},
		{
			name: "required rejects nil",
			build: func() *common.Validator {
				return common.NewValidator().Field("filename", nil, common.Required)
			},
			wantErr: "is required",
		},
		{
			name: "max length counts runes",
			build: func() *common.Validator {
				return common.NewValidator().Field("filename", strings.Repeat("å", 5), common.MaxLen(4))
			},
			wantErr: "at most 4 characters",
		},
		{
			name: "min length counts runes",
			build: func() *common.Validator {
				return common.NewValidator().Field("port", "AB", common.MinLen(3))
			},
			wantErr: "at least 3 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.build()
			if tt.wantErr == "" {
				if v.HasErrors() {
					t.Fatalf("expected no errors, got %q", v.ErrorMessage())
				}
				if err := common.ValidateAndReturnError(v); err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !v.HasErrors() {
				t.Fatal("expected a validation error")
			}
			if msg := v.ErrorMessage(); !strings.Contains(msg, tt.wantErr) {
				t.Errorf("expected message containing %q, got %q", tt.wantErr, msg)
			}
			if err := common.ValidateAndReturnError(v); !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("expected an invalid-input error, got %v", err)
			}
		})
	}
}

func TestValidatorCombinesMessages(t *testing.T) {
	v := common.NewValidator().
		Field("filename", "", common.Required).
		Field("port", "A", common.MinLen(2))

	if got := len(v.Errors()); got != 2 {
		t.Fatalf("expected 2 collected errors, got %d", got)
	}
	if msg := v.ErrorMessage(); !strings.Contains(msg, "; ") {
		t.Errorf("expected a joined message, got %q", msg)
	}
	if v.Error() == nil {
		t.Error("expected a combined error")
	}
}
