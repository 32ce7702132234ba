package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// PhaseFailed closes a phase that reported errors.
	PhaseFailed
)

// PhaseEvent describes a pipeline phase boundary.
type PhaseEvent struct {
	// Job names the CompileMany job; Compile leaves it empty.
	Job     string
	Phase   Phase
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted by Compile. It is called
// from the compiling goroutine; CompileMany calls it concurrently.
type PhaseObserver func(PhaseEvent)
