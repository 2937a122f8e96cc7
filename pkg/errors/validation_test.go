package errors

import (
	"strings"
	"testing"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

func TestValidateItemID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", "4f9d7c1e-0b7a-4a57-9f3e-0d2b6f1f8e21", false},
		{"valid short", "inbox", false},
		{"valid dots", "q3.okrs", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"space", "my item", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItemID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItemID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want INVALID_INPUT", GetCode(err))
			}
		})
	}
}

func TestValidateKind(t *testing.T) {
	tests := []struct {
		input   string
		want    canvas.Kind
		wantErr bool
	}{
		{"folder", canvas.KindFolder, false},
		{"Note", canvas.KindNote, false},
		{" mindmap ", canvas.KindMindmap, false},
		{"drawing", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidateKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if err != nil && !Is(err, ErrCodeInvalidKind) {
				t.Errorf("error code = %v, want INVALID_KIND", GetCode(err))
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty clears", "", false},
		{"short hex", "#f0a", false},
		{"long hex", "#FF00aa", false},
		{"name", "teal", false},

		{"missing hash", "ff00aa", true},
		{"bad hex", "#ggg", true},
		{"five digits", "#12345", true},
		{"css injection", "red;background:url(x)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateColor(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLabel(t *testing.T) {
	if err := ValidateLabel("Groceries\nmilk, eggs"); err != nil {
		t.Errorf("multi-line label rejected: %v", err)
	}
	if err := ValidateLabel("bell\x07"); err == nil {
		t.Error("control character accepted")
	}
	if err := ValidateLabel(strings.Repeat("x", MaxLabelLength+1)); err == nil {
		t.Error("overlong label accepted")
	}
}

func TestValidateWorkspaceName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"default", false},
		{"team-notes_2024", false},
		{"", true},
		{"-leading", true},
		{"../escape", true},
		{"with space", true},
		{strings.Repeat("w", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if err := ValidateWorkspaceName(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkspaceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("svg", "dot", "svg", "json"); err != nil {
		t.Errorf("svg rejected: %v", err)
	}
	err := ValidateFormat("png", "dot", "svg")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("png: %v", err)
	}
}
