package driver_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/capability"
	"quill/internal/driver"
	"quill/internal/source"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := driver.NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := driver.DefaultOptions()
	opts.Cache = cache

	first := compile(t, opts, bell)
	if !first.OK() || first.Cached {
		t.Fatalf("first compile: failed=%s cached=%v", first.Failed, first.Cached)
	}
	second := compile(t, opts, bell)
	if !second.Cached {
		t.Fatalf("second compile missed the cache")
	}
	if diff := cmp.Diff(first.Program.String(), second.Program.String()); diff != "" {
		t.Errorf("cached program differs (-fresh +cached):\n%s", diff)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if third := compile(t, opts, bell); third.Cached {
		t.Errorf("hit after DropAll")
	}
}

func TestCacheKeyCoversInputs(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.Get(fs.AddVirtual("main.qs", []byte(bell)))
	b := fs.Get(fs.AddVirtual("main.qs", []byte(branch)))
	opts := driver.DefaultOptions()

	base := driver.Key([]*source.File{a}, opts)
	if base != driver.Key([]*source.File{a}, opts) {
		t.Fatalf("key is not deterministic")
	}
	other := opts
	other.Profile = capability.Base
	limited := opts
	limited.LoopLimit = 10
	entry := opts
	entry.Entry = "Test.Main"
	for name, key := range map[string]driver.CacheKey{
		"content": driver.Key([]*source.File{b}, opts),
		"profile": driver.Key([]*source.File{a}, other),
		"limit":   driver.Key([]*source.File{a}, limited),
		"entry":   driver.Key([]*source.File{a}, entry),
	} {
		if key == base {
			t.Errorf("%s change kept key %s", name, key)
		}
	}
}

func TestEncodeProgram(t *testing.T) {
	res := compile(t, driver.DefaultOptions(), branch)
	if !res.OK() {
		t.Fatalf("failed at %s", res.Failed)
	}
	data, err := driver.EncodeProgram(res.Program)
	if err != nil {
		t.Fatal(err)
	}
	got, err := driver.DecodeProgram(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.Program.String(), got.String()); diff != "" {
		t.Errorf("decoded program differs (-want +got):\n%s", diff)
	}
}

func TestCompileMany(t *testing.T) {
	jobs := []driver.Job{
		{Name: "bell", Sources: []driver.Source{{Name: "bell.qs", Content: []byte(bell)}}},
		{Name: "branch", Sources: []driver.Source{{Name: "branch.qs", Content: []byte(branch)}}},
		{Name: "missing", Paths: []string{"does/not/exist.qs"}},
	}
	results, err := driver.CompileMany(context.Background(), jobs, driver.DefaultOptions(), 2)
	if err == nil {
		t.Fatalf("missing job did not fail")
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results[:2] {
		if !res.OK() {
			t.Errorf("job %s failed at %s", jobs[i].Name, res.Failed)
		}
	}
	if results[2] != nil {
		t.Errorf("failed job has a result")
	}
}

func TestCompileManyTagsEvents(t *testing.T) {
	jobs := []driver.Job{
		{Name: "bell", Sources: []driver.Source{{Name: "bell.qs", Content: []byte(bell)}}},
		{Name: "broken", Sources: []driver.Source{{Name: "broken.qs", Content: []byte("namespace X { operation")}}},
	}
	var mu sync.Mutex
	last := make(map[string]driver.PhaseEvent)
	opts := driver.DefaultOptions()
	opts.Observer = func(ev driver.PhaseEvent) {
		mu.Lock()
		defer mu.Unlock()
		last[ev.Job] = ev
	}
	if _, err := driver.CompileMany(context.Background(), jobs, opts, 2); err != nil {
		t.Fatal(err)
	}
	if ev := last["bell"]; ev.Phase != driver.PhaseRIR || ev.Status != driver.PhaseEnd {
		t.Errorf("bell ended with %+v", ev)
	}
	if ev := last["broken"]; ev.Phase != driver.PhaseParse || ev.Status != driver.PhaseFailed {
		t.Errorf("broken ended with %+v", ev)
	}
}
