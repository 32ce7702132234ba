package ui

import (
	"strings"
	"testing"

	"quill/internal/driver"
)

func TestProgressTracksJobs(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	m := NewProgressModel("building", []string{"bell", "ghz"}, events).(*progressModel)

	for _, ev := range []driver.PhaseEvent{
		{Job: "bell", Phase: driver.PhaseParse, Status: driver.PhaseStart},
		{Job: "ghz", Phase: driver.PhaseParse, Status: driver.PhaseFailed},
		{Job: "bell", Phase: driver.PhaseEvaluate, Status: driver.PhaseStart},
		{Job: "unknown", Phase: driver.PhaseParse, Status: driver.PhaseStart},
	} {
		m.Update(eventMsg(ev))
	}
	view := m.View()
	if !strings.Contains(view, "evaluate bell") || !strings.Contains(view, "error ghz") {
		t.Errorf("view:\n%s", view)
	}

	if got := fraction(m.items); got <= 0.5 || got >= 1 {
		t.Errorf("fraction = %v", got)
	}
	m.Update(eventMsg{Job: "bell", Phase: driver.PhaseRIR, Status: driver.PhaseEnd})
	if got := fraction(m.items); got != 1 {
		t.Errorf("fraction after all finished = %v", got)
	}
	m.Update(doneMsg{})
	if !strings.HasPrefix(strings.TrimSpace(m.View()), "done: building") {
		t.Errorf("view after done:\n%s", m.View())
	}
}
