// Package observ measures how long compilation phases take.
package observ

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type entry struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	open  bool
}

// Timer records phases in the order they begin. Not safe for concurrent use.
type Timer struct {
	entries []entry
	now     func() time.Time
}

func NewTimer() *Timer { return &Timer{entries: make([]entry, 0, 8), now: time.Now} }

// NewTimerWithClock is NewTimer with a custom clock, for tests.
func NewTimerWithClock(now func() time.Time) *Timer {
	t := NewTimer()
	t.now = now
	return t
}

// Begin starts a phase and returns the handle End takes.
func (t *Timer) Begin(name string) int {
	t.entries = append(t.entries, entry{name: name, start: t.now(), open: true})
	return len(t.entries) - 1
}

// End closes the phase idx. Unknown or already closed handles are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.entries) || !t.entries[idx].open {
		return
	}
	e := &t.entries[idx]
	e.dur = t.now().Sub(e.start)
	e.note = note
	e.open = false
}

// PhaseReport is one closed phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists closed phases; phases still open are left out.
func (t *Timer) Report() Report {
	var r Report
	for _, e := range t.entries {
		if e.open {
			continue
		}
		ms := millis(e.dur)
		r.Phases = append(r.Phases, PhaseReport{Name: e.name, DurationMS: ms, Note: e.note})
		r.TotalMS += ms
	}
	return r
}

// Merge sums phases of the same name, keeping first-seen order. Notes are
// dropped; they describe a single run.
func Merge(reports ...Report) Report {
	var out Report
	index := make(map[string]int)
	for _, r := range reports {
		for _, p := range r.Phases {
			i, ok := index[p.Name]
			if !ok {
				i = len(out.Phases)
				index[p.Name] = i
				out.Phases = append(out.Phases, PhaseReport{Name: p.Name})
			}
			out.Phases[i].DurationMS += p.DurationMS
		}
		out.TotalMS += r.TotalMS
	}
	return out
}

// Slowest returns up to n phases, longest first.
func (r Report) Slowest(n int) []PhaseReport {
	out := append([]PhaseReport(nil), r.Phases...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DurationMS > out[j].DurationMS })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Summary renders the report as an aligned table.
func (r Report) Summary() string {
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-14s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-14s %8.2f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
