package hygiene

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSweeper struct {
	archiveCutoff time.Time
	purgeCutoff   time.Time
	archived      int
	purged        int
	archiveErr    error
	purgeErr      error
}

func (f *fakeSweeper) ArchiveExpired(ctx context.Context, cutoff time.Time) (int, error) {
	f.archiveCutoff = cutoff
	return f.archived, f.archiveErr
}

func (f *fakeSweeper) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	f.purgeCutoff = cutoff
	return f.purged, f.purgeErr
}

func TestRunSweepComputesCutoffsAndCounts(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	f := &fakeSweeper{archived: 3, purged: 1}

	report, err := RunSweep(context.Background(), f, now, 30*24*time.Hour, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("run sweep: %v", err)
	}
	if report.Archived != 3 || report.Purged != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	wantArchiveCutoff := now.Add(-30 * 24 * time.Hour)
	if !f.archiveCutoff.Equal(wantArchiveCutoff) {
		t.Fatalf("expected archive cutoff %v, got %v", wantArchiveCutoff, f.archiveCutoff)
	}
	wantPurgeCutoff := now.Add(-90 * 24 * time.Hour)
	if !f.purgeCutoff.Equal(wantPurgeCutoff) {
		t.Fatalf("expected purge cutoff %v, got %v", wantPurgeCutoff, f.purgeCutoff)
	}
}

func TestWriteStatePersistsReport(t *testing.T) {
	dir := t.TempDir()
	report := &Report{RanAt: time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), Archived: 2, Purged: 0}

	if err := writeState(dir, report); err != nil {
		t.Fatalf("write state: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state", StateFileName))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty state file")
	}
}
