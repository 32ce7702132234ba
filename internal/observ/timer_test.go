package observ_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quill/internal/observ"
)

// stepClock advances by one millisecond per reading.
func stepClock() func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func TestTimerReport(t *testing.T) {
	timer := observ.NewTimerWithClock(stepClock())
	parse := timer.Begin("parse")
	timer.End(parse, "ok")
	eval := timer.Begin("evaluate")
	_ = timer.Begin("rir") // never closed
	timer.End(eval, "3 blocks")
	timer.End(eval, "again")
	timer.End(42, "")

	want := observ.Report{
		TotalMS: 3,
		Phases: []observ.PhaseReport{
			{Name: "parse", DurationMS: 1, Note: "ok"},
			{Name: "evaluate", DurationMS: 2, Note: "3 blocks"},
		},
	}
	if diff := cmp.Diff(want, timer.Report()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAndSlowest(t *testing.T) {
	a := observ.Report{TotalMS: 3, Phases: []observ.PhaseReport{{Name: "parse", DurationMS: 1}, {Name: "evaluate", DurationMS: 2, Note: "x"}}}
	b := observ.Report{TotalMS: 5, Phases: []observ.PhaseReport{{Name: "evaluate", DurationMS: 1}, {Name: "rir", DurationMS: 4}}}

	merged := observ.Merge(a, b)
	want := observ.Report{TotalMS: 8, Phases: []observ.PhaseReport{
		{Name: "parse", DurationMS: 1},
		{Name: "evaluate", DurationMS: 3},
		{Name: "rir", DurationMS: 4},
	}}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}

	slow := merged.Slowest(2)
	if diff := cmp.Diff([]string{"rir", "evaluate"}, []string{slow[0].Name, slow[1].Name}); diff != "" {
		t.Errorf("slowest mismatch (-want +got):\n%s", diff)
	}

	summary := merged.Summary()
	if !strings.Contains(summary, "total") || !strings.Contains(summary, "evaluate") {
		t.Errorf("summary:\n%s", summary)
	}
}
