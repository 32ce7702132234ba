package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const maxFuzzInput = 1 << 16 // 64 KiB

var languageSeeds = []string{
	"namespace A { operation Main() : Unit { use q = Qubit(); H(q); } }",
	"namespace A { function F(x : Int) : Int { x * 2 } }",
	"namespace A { @EntryPoint() operation Main() : Result { use q = Qubit(); M(q) } }",
	"namespace A { operation U(q : Qubit) : Unit is Adj + Ctl { body ... { X(q); } adjoint self; } }",
	"namespace A { operation Main() : Unit { mutable i = 0; while i < 3 { set i += 1; } } }",
	"namespace A { operation Main() : Unit { within { H(q); } apply { X(q); } } }",
	"namespace A { operation Main() : Unit { repeat { } until true fixup { } } }",
	"let x = [1, size = 3];",
	"namespace { operation",
	"\"unterminated",
	"namespace A { operation Main() : Unit { for i in 10..-1..0 { } } }",
}

// addCorpusSeeds adds the language seeds and every program of the partial
// evaluation case table.
func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	// #nosec G304 -- fixed repository path
	data, err := os.ReadFile(filepath.Join("..", "partialeval", "testdata", "cases.yaml"))
	if err != nil {
		return
	}
	var table struct {
		Cases []struct {
			Src string `yaml:"src"`
		} `yaml:"cases"`
	}
	if yaml.Unmarshal(data, &table) != nil {
		return
	}
	for _, c := range table.Cases {
		f.Add([]byte(c.Src))
	}
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
