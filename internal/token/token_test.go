package token_test

import (
	"testing"

	"quill/internal/token"
)

func TestKeywordLookup(t *testing.T) {
	tests := []struct {
		text string
		kind token.Kind
		ok   bool
	}{
		{"operation", token.KwOperation, true},
		{"Adj", token.KwAdj, true},
		{"within", token.KwWithin, true},
		{"Adjoint", token.Invalid, false},
		{"Qubit", token.Invalid, false},
	}
	for _, tt := range tests {
		k, ok := token.LookupKeyword(tt.text)
		if ok != tt.ok || (ok && k != tt.kind) {
			t.Errorf("LookupKeyword(%q) = %v, %v", tt.text, k, ok)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := token.KwRepeat.String(); got != "repeat" {
		t.Fatalf("KwRepeat = %q", got)
	}
	if got := token.WSlashEq.String(); got != "w/=" {
		t.Fatalf("WSlashEq = %q", got)
	}
	if !token.CaretCaretCaretEq.IsAssignOp() || token.Eq.IsAssignOp() {
		t.Fatal("IsAssignOp misclassified")
	}
}
