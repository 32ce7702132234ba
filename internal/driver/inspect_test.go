package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/driver"
	"quill/internal/token"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.qs")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	res, err := driver.Tokenize(writeSource(t, "let x = 1;"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(res.Tokens); n < 2 || res.Tokens[n-1].Kind != token.EOF {
		t.Fatalf("tokens = %v", res.Tokens)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Bag.Codes())
	}
	if _, err := driver.Tokenize(filepath.Join(t.TempDir(), "none.qs"), 0); err == nil {
		t.Error("tokenizing a missing file succeeded")
	}
}

func TestParseAcceptsTopLevelStatements(t *testing.T) {
	res, err := driver.Parse(writeSource(t, bell+"\nuse q = Qubit();\nH(q);\n"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("parse errors: %v", res.Bag.Codes())
	}
	if len(res.AST.Namespaces) != 1 || len(res.AST.Stmts) != 2 {
		t.Errorf("namespaces %d, statements %d", len(res.AST.Namespaces), len(res.AST.Stmts))
	}
}
