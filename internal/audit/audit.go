// Package audit implements the governance append-only JSONL log (spec
// §4.8, §6 "audit/ — JSONL governance log, one record per action, rotated
// by time"), adapted from the teacher's internal/audit/audit.go
// append-only-JSONL pattern, with the raw os.OpenFile append swapped for
// lumberjack's size/time-rotated writer since this log, unlike the
// teacher's interactions.jsonl, is expected to run unbounded in a
// long-lived daemon.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aeonmind/mcore/internal/idgen"
)

// FileName is the audit log file name stored under the workspace audit/ dir.
const FileName = "governance.jsonl"

// Entry is one governance-action audit record (spec §5.8: "Actor, Action,
// EntityID, SlotKey, Outcome, Message, CreatedAt").
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"` // inspect | export | delete | ...
	CreatedAt time.Time `json:"created_at"`

	Actor    string `json:"actor,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	SlotKey  string `json:"slot_key,omitempty"`

	Outcome string `json:"outcome"` // ok | denied | error | degraded
	Message string `json:"message,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Log appends governance.jsonl entries to a lumberjack-rotated sink under
// dir/audit/.
type Log struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// Open ensures dir/audit exists and returns a Log writing to
// dir/audit/governance.jsonl, rotated at 10MB with 7 backups kept for 30 days.
func Open(dir string) (*Log, error) {
	auditDir := filepath.Join(dir, "audit")
	if err := os.MkdirAll(auditDir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &Log{
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(auditDir, FileName),
			MaxSize:    10,
			MaxBackups: 7,
			MaxAge:     30,
			Compress:   true,
		},
	}, nil
}

// Append writes e as a single JSON line, filling ID/CreatedAt if unset.
func (l *Log) Append(e *Entry) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil entry")
	}
	if e.Action == "" {
		return "", fmt.Errorf("action is required")
	}
	if e.ID == "" {
		e.ID = idgen.Audit()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bw := bufio.NewWriter(l.writer)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", fmt.Errorf("write governance log entry: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("flush governance log: %w", err)
	}
	return e.ID, nil
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	return l.writer.Close()
}
