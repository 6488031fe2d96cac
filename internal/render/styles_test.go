package render

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateStyle(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "style.json")
	if err := os.WriteFile(custom, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		style   string
		wantErr bool
	}{
		{StyleDark, false},
		{StyleLight, false},
		{StyleAuto, false},
		{"dracula", false},
		{custom, false},
		{filepath.Dir(custom), true},
		{"no-such-style", true},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			if err := ValidateStyle(tt.style); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStyle(%q) err = %v, wantErr %v", tt.style, err, tt.wantErr)
			}
		})
	}
}

func TestBuiltinStyles(t *testing.T) {
	names := BuiltinStyles()
	if len(names) < 3 || names[0] != StyleAuto {
		t.Fatalf("BuiltinStyles() = %v", names)
	}
	for _, name := range names {
		if !IsBuiltinStyle(name) {
			t.Errorf("IsBuiltinStyle(%q) = false", name)
		}
	}
}
