package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [path...]",
	Short: "Re-check sources whenever they change",
	RunE:  runWatch,
}

func init() {
	addCompileFlags(watchCmd)
	watchCmd.Flags().Bool("full", false, "also run partial evaluation")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveBuild(cmd, args)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for _, t := range cfg.targets {
		for _, p := range t.job.Paths {
			dirs[filepath.Dir(p)] = true
		}
		if t.manifest != nil {
			dirs[filepath.Dir(t.manifest.Path)] = true
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	run := func() {
		// новые файлы подхватываются заново
		next, err := resolveBuild(cmd, args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		cfg = next
		if err := check(cmd, cfg); err != nil && err != errCompileFailed {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch:", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			run()
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".qs", ".toml":
		return true
	}
	return false
}
