package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	id, err := log.Append(&Entry{Action: "delete", Actor: "user:1", EntityID: "default", SlotKey: "profile.x", Outcome: "ok"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	f, err := os.Open(filepath.Join(dir, "audit", FileName))
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatalf("expected at least one line")
	}
	var entry Entry
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Action != "delete" || entry.Outcome != "ok" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestAppendRequiresAction(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	if _, err := log.Append(&Entry{Outcome: "ok"}); err == nil {
		t.Fatalf("expected error for missing action")
	}
}
