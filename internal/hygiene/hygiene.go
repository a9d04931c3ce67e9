// Package hygiene implements the periodic retention sweep (spec §6
// archive_after_days/purge_after_days) and the fsnotify-backed daemon that
// drives it, grounded on the teacher's cmd/bd/daemon_watcher.go FileWatcher
// shape: watch the state directory, react to each event (no debounce), and always fall back to
// polling rather than hard-failing when the filesystem watch can't be set
// up.
package hygiene

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the hygiene tick report path under the workspace's
// state/ directory (spec §6 "state/memory_hygiene_state.json").
const StateFileName = "memory_hygiene_state.json"

// Sweeper is the storage capability the hygiene tick needs: archiving
// (soft-delete) slots whose retention window has elapsed, then purging
// (hard-delete) slots already archived long enough ago.
type Sweeper interface {
	ArchiveExpired(ctx context.Context, cutoff time.Time) (int, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Report is one hygiene tick's outcome, persisted to StateFileName.
type Report struct {
	RanAt    time.Time `json:"ran_at"`
	Archived int       `json:"archived"`
	Purged   int       `json:"purged"`
	Error    string    `json:"error,omitempty"`
}

// RunSweep archives slots past archiveAfter and purges slots past
// purgeAfter, both measured back from now.
func RunSweep(ctx context.Context, s Sweeper, now time.Time, archiveAfter, purgeAfter time.Duration) (*Report, error) {
	report := &Report{RanAt: now}

	archived, err := s.ArchiveExpired(ctx, now.Add(-archiveAfter))
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("archive sweep: %w", err)
	}
	report.Archived = archived

	purged, err := s.PurgeExpired(ctx, now.Add(-purgeAfter))
	if err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("purge sweep: %w", err)
	}
	report.Purged = purged

	return report, nil
}

// writeState persists report to workspace/state/memory_hygiene_state.json.
func writeState(workspace string, report *Report) error {
	stateDir := filepath.Join(workspace, "state")
	if err := os.MkdirAll(stateDir, 0750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hygiene report: %w", err)
	}
	return os.WriteFile(filepath.Join(stateDir, StateFileName), data, 0640)
}
