package driver

import (
	"quill/internal/capability"
	"quill/internal/partialeval"
)

// Options is the resolved configuration of one compilation.
type Options struct {
	Profile capability.Profile
	// LoopLimit caps statically unrolled loop iterations.
	LoopLimit int
	// MaxDiagnostics bounds the bag; zero is unbounded.
	MaxDiagnostics int
	// Entry names the entry callable as Namespace.Name and overrides
	// @EntryPoint().
	Entry string
	// Timings appends an OBS9001 diagnostic with per-phase durations.
	Timings  bool
	Observer PhaseObserver
	// Until is the last phase to run; PhaseNone runs the whole pipeline.
	// Phases up to PhaseLower run together.
	Until Phase
	// Cache, when set, short-circuits compilations whose key it holds.
	Cache *Cache
}

func DefaultOptions() Options {
	return Options{
		Profile:   capability.Unrestricted,
		LoopLimit: partialeval.DefaultLoopLimit,
	}
}
