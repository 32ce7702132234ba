package trace_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quill/internal/trace"
)

func TestLevelGatesScopes(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelError, trace.ScopeDriver, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeCallable, false},
		{trace.LevelDetail, trace.ScopeCallable, true},
		{trace.LevelDetail, trace.ScopeNode, false},
		{trace.LevelDebug, trace.ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, in := range []string{"detail", "DETAIL", "Detail"} {
		got, err := trace.ParseLevel(in)
		if err != nil || got != trace.LevelDetail {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded")
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatText)
	ctx := trace.WithTracer(context.Background(), tr)

	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "evaluate", 0)
	trace.Point(tr, trace.ScopeNode, "pe.branch", "", span.ID())
	span.WithExtra("errors", "0").End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ evaluate") || !strings.Contains(out, "← evaluate (ok) {errors=0}") {
		t.Fatalf("unexpected trace output:\n%s", out)
	}
	if strings.Contains(out, "pe.branch") {
		t.Fatalf("node-level point leaked at phase level:\n%s", out)
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("disk full")
}

func TestStreamTracerStopsAfterWriteError(t *testing.T) {
	w := &failingWriter{}
	tr := trace.NewStreamTracer(w, trace.LevelDebug, trace.FormatText)
	trace.Point(tr, trace.ScopeNode, "a", "", 0)
	trace.Point(tr, trace.ScopeNode, "b", "", 0)
	if w.n != 1 {
		t.Errorf("writes = %d, want 1", w.n)
	}
	if err := tr.Flush(); err == nil {
		t.Error("Flush did not report the write error")
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	tr := trace.NewRingTracer(2, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		trace.Point(tr, trace.ScopeNode, name, "", 0)
	}
	var got []string
	for _, ev := range tr.Snapshot() {
		got = append(got, ev.Name)
	}
	if diff := cmp.Diff([]string{"d", "e"}, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestNewBothKeepsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	trace.Begin(tr, trace.ScopePass, "parse", 0).End("")
	ring := trace.RingOf(tr)
	if ring == nil {
		t.Fatal("no ring behind a ModeBoth tracer")
	}
	if n := len(ring.Snapshot()); n != 2 {
		t.Errorf("ring holds %d events, want 2", n)
	}
	if !strings.Contains(buf.String(), "parse") {
		t.Errorf("stream missed the span:\n%s", buf.String())
	}
	if trace.RingOf(trace.Nop) != nil {
		t.Error("Nop has a ring")
	}
}

func TestOpenSpans(t *testing.T) {
	tr := trace.NewRingTracer(16, trace.LevelDetail)
	outer := trace.Begin(tr, trace.ScopePass, "evaluate", 0)
	inner := trace.Begin(tr, trace.ScopeCallable, "Test.Main", outer.ID())
	if diff := cmp.Diff([]string{"evaluate", "Test.Main"}, trace.OpenSpans()); diff != "" {
		t.Errorf("open spans mismatch (-want +got):\n%s", diff)
	}
	inner.End("")
	outer.End("")
	if got := trace.OpenSpans(); len(got) != 0 {
		t.Errorf("spans left open: %v", got)
	}
}

func TestHeartbeatNamesOpenSpans(t *testing.T) {
	tr := trace.NewRingTracer(64, trace.LevelPhase)
	span := trace.Begin(tr, trace.ScopePass, "evaluate", 0)
	hb := trace.StartHeartbeat(tr, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	var beat *trace.Event
	for beat == nil && time.Now().Before(deadline) {
		for _, ev := range tr.Snapshot() {
			if ev.Kind == trace.KindHeartbeat {
				beat = &ev
				break
			}
		}
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()
	span.End("")
	if beat == nil {
		t.Fatal("no heartbeat within 2s")
	}
	if !strings.Contains(beat.Detail, "in evaluate") {
		t.Errorf("heartbeat detail = %q", beat.Detail)
	}
	if trace.StartHeartbeat(trace.Nop, time.Millisecond) != nil {
		t.Error("heartbeat started on a disabled tracer")
	}
}

func TestFromContextDefaultsToNop(t *testing.T) {
	if trace.FromContext(context.Background()).Enabled() {
		t.Fatal("expected nop tracer")
	}
	ctx := trace.WithSpanContext(context.Background(), trace.SpanContext{SpanID: 7})
	if got := trace.CurrentSpan(ctx).SpanID; got != 7 {
		t.Errorf("CurrentSpan = %d, want 7", got)
	}
}
