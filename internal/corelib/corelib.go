// Package corelib embeds the source of the core library. It is compiled once
// per process into package 0 and shared read-only by every compilation.
package corelib

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.qs
var sources embed.FS

// Version of the core library API; quill.toml may constrain it.
const Version = "0.3.0"

// Source is one embedded file.
type Source struct {
	Name    string
	Content []byte
}

// Sources returns the embedded files in a stable order.
func Sources() []Source {
	names, err := fs.Glob(sources, "*.qs")
	if err != nil {
		panic(err)
	}
	sort.Strings(names)
	out := make([]Source, 0, len(names))
	for _, name := range names {
		data, err := sources.ReadFile(name)
		if err != nil {
			panic(err)
		}
		out = append(out, Source{Name: "core/" + name, Content: data})
	}
	return out
}

// Names of core items the compiler itself refers to.
const (
	NamespaceCore      = "Std.Core"
	NamespaceIntrinsic = "Std.Intrinsic"

	QubitAllocate      = "__quantum__rt__qubit_allocate"
	QubitRelease       = "__quantum__rt__qubit_release"
	AllocateQubitArray = "AllocateQubitArray"
	ReleaseQubitArray  = "ReleaseQubitArray"
	RangeReverse       = "RangeReverse"
	Reversed           = "Reversed"
	Length             = "Length"
	RangeStart         = "RangeStart"
	RangeStep          = "RangeStep"
	RangeEnd           = "RangeEnd"
	IntAsDouble        = "IntAsDouble"
)
