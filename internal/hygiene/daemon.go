package hygiene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Daemon runs the hygiene sweep on a fixed interval, watching the
// workspace's state/ directory via fsnotify so an operator-triggered
// "touch state/memory_hygiene_state.json" can force an immediate tick.
// Falls back to interval-only ticking if fsnotify can't be set up, the
// same fallback posture as the teacher's FileWatcher.
type Daemon struct {
	workspace     string
	sweeper       Sweeper
	archiveAfter  time.Duration
	purgeAfter    time.Duration
	tickInterval  time.Duration
	watcher       *fsnotify.Watcher
}

// NewDaemon builds a Daemon over sweeper, archiving/purging at the given
// day counts (spec §6 archive_after_days/purge_after_days), ticking at
// tickInterval regardless of filesystem events.
func NewDaemon(workspace string, sweeper Sweeper, archiveAfterDays, purgeAfterDays int, tickInterval time.Duration) (*Daemon, error) {
	stateDir := filepath.Join(workspace, "state")
	if err := os.MkdirAll(stateDir, 0750); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	d := &Daemon{
		workspace:    workspace,
		sweeper:      sweeper,
		archiveAfter: time.Duration(archiveAfterDays) * 24 * time.Hour,
		purgeAfter:   time.Duration(purgeAfterDays) * 24 * time.Hour,
		tickInterval: tickInterval,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hygiene: fsnotify unavailable (%v), ticking on interval only\n", err)
		return d, nil
	}
	if err := watcher.Add(stateDir); err != nil {
		fmt.Fprintf(os.Stderr, "hygiene: failed to watch %s (%v), ticking on interval only\n", stateDir, err)
		_ = watcher.Close()
		return d, nil
	}
	d.watcher = watcher
	return d, nil
}

// Run loops until ctx is cancelled, running one sweep immediately and then
// on every tick or (if fsnotify set up cleanly) filesystem event on
// state/.
func (d *Daemon) Run(ctx context.Context) error {
	if d.watcher != nil {
		defer d.watcher.Close()
	}

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	d.tick(ctx)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if d.watcher != nil {
		events = d.watcher.Events
		errs = d.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.tick(ctx)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.tick(ctx)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(os.Stderr, "hygiene: watcher error: %v\n", err)
		}
	}
}

func (d *Daemon) tick(ctx context.Context) {
	report, err := RunSweep(ctx, d.sweeper, time.Now().UTC(), d.archiveAfter, d.purgeAfter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hygiene: sweep error: %v\n", err)
	}
	if report != nil {
		if werr := writeState(d.workspace, report); werr != nil {
			fmt.Fprintf(os.Stderr, "hygiene: failed to write state: %v\n", werr)
		}
	}
}
