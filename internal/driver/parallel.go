package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Job is one independent program for CompileMany.
type Job struct {
	Name string
	// Paths are loaded from disk; Sources are used when Paths is empty.
	Paths   []string
	Sources []Source
}

// ListSources returns every *.qs file under dir, sorted.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".qs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// детерминированный порядок
	sort.Strings(files)
	return files, nil
}

// CompileMany compiles jobs concurrently; they share only the frozen core.
// Results are in job order. Per-job failures are combined into the error
// and leave a nil result; a cancelled context stops jobs not yet started.
func CompileMany(ctx context.Context, jobs []Job, opts Options, workers int) ([]*Result, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// собираем ядро до старта, чтобы воркеры не ждали друг друга в sync.Once
	if _, err := FrozenCore(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, len(jobs)))
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jobOpts := opts
			if observe := opts.Observer; observe != nil {
				jobOpts.Observer = func(ev PhaseEvent) {
					ev.Job = job.Name
					observe(ev)
				}
			}
			var res *Result
			var err error
			if len(job.Paths) > 0 {
				res, err = CompileFiles(gctx, job.Paths, jobOpts)
			} else {
				res, err = Compile(gctx, job.Sources, jobOpts)
			}
			if err != nil {
				errs[i] = jobError{name: job.Name, err: err}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, multierr.Append(err, multierr.Combine(errs...))
	}
	return results, multierr.Combine(errs...)
}

type jobError struct {
	name string
	err  error
}

func (e jobError) Error() string { return e.name + ": " + e.err.Error() }

func (e jobError) Unwrap() error { return e.err }
