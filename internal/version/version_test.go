package version_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"quill/internal/version"
)

func TestBanner(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	orig := version.Version
	t.Cleanup(func() { version.Version = orig })

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "1.2.3"},
		{"0.3.0-dev", "0.3.0-dev"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		version.Version = tt.version
		if got := version.Banner(); got != tt.want {
			t.Errorf("Banner(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestCheckCore(t *testing.T) {
	tests := []struct {
		constraint string
		core       string
		err        string
	}{
		{constraint: "^0.3", core: "0.3.0"},
		{constraint: ">=0.2, <0.4", core: "0.3.1"},
		{constraint: "~0.3.0", core: "0.3.5"},
		{constraint: "^0.4", core: "0.3.0", err: "incompatible"},
		{constraint: "bogus", core: "0.3.0", err: "invalid constraint"},
		{constraint: "^0.3", core: "x", err: "invalid core version"},
	}
	for _, tt := range tests {
		err := version.CheckCore(tt.constraint, tt.core)
		switch {
		case tt.err == "" && err != nil:
			t.Errorf("CheckCore(%q, %q) = %v", tt.constraint, tt.core, err)
		case tt.err != "" && (err == nil || !strings.Contains(err.Error(), tt.err)):
			t.Errorf("CheckCore(%q, %q) = %v, want %q", tt.constraint, tt.core, err, tt.err)
		}
	}
}
