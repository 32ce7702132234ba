package capability_test

import (
	"testing"

	"quill/internal/capability"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want capability.Flags
	}{
		{"base", capability.None},
		{"Adaptive", capability.Adaptive | capability.IntegerComputations},
		{"adaptive_rif", capability.Adaptive | capability.IntegerComputations | capability.FloatingPointComputations},
		{"unrestricted", capability.All},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := capability.Lookup(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if p.Flags != tt.want {
				t.Fatalf("flags = %s, want %s", p.Flags, tt.want)
			}
		})
	}
	if _, err := capability.Lookup("quantum_supremacy"); err == nil {
		t.Fatal("unknown profile accepted")
	}
}

func TestFlagsString(t *testing.T) {
	if got := (capability.Adaptive | capability.BackwardsBranching).String(); got != "Adaptive | BackwardsBranching" {
		t.Fatalf("String = %q", got)
	}
	if got := capability.None.String(); got != "none" {
		t.Fatalf("String = %q", got)
	}
}
