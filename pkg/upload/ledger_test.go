package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connkit/pkg/conn"
)

func openTestLedger(t *testing.T) {
	t.Helper()
	if err := Open(filepath.Join(t.TempDir(), "ledger")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
}

func TestRecordAndEntries(t *testing.T) {
	openTestLedger(t)

	if !Ready() {
		t.Fatal("Ready() = false after Open")
	}
	f := conn.UploadedFile{Path: "/tmp/x", Filename: "x.txt", ContentType: "text/plain"}
	if err := Record(f); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := Record(conn.UploadedFile{Path: "/tmp/y", Filename: "y.txt"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Path != "/tmp/x" || entries[0].Filename != "x.txt" {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[0].CreatedAt == 0 {
		t.Fatal("CreatedAt not set")
	}
}

func TestRecordWithoutOpen(t *testing.T) {
	if Ready() {
		t.Fatal("ledger unexpectedly open")
	}
	if err := Record(conn.UploadedFile{Path: "/tmp/z"}); err == nil {
		t.Fatal("Record succeeded without Open")
	}
	if _, err := Entries(); err == nil {
		t.Fatal("Entries succeeded without Open")
	}
}

func TestSweepRemovesOldFiles(t *testing.T) {
	openTestLedger(t)
	dir := t.TempDir()

	uf, err := Spool(dir, strings.NewReader("old contents"), "old.txt", "text/plain")
	if err != nil {
		t.Fatalf("Spool: %v", err)
	}
	if _, err := os.Stat(uf.Path); err != nil {
		t.Fatalf("spooled file missing: %v", err)
	}

	// entry ages past the cutoff
	time.Sleep(10 * time.Millisecond)
	removed, err := Sweep(time.Millisecond)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(uf.Path); !os.IsNotExist(err) {
		t.Fatalf("file still present after sweep: %v", err)
	}
	entries, err := Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after sweep = %v", entries)
	}
}

func TestSweepKeepsFreshFiles(t *testing.T) {
	openTestLedger(t)
	dir := t.TempDir()

	uf, err := Spool(dir, strings.NewReader("fresh"), "fresh.txt", "")
	if err != nil {
		t.Fatalf("Spool: %v", err)
	}
	removed, err := Sweep(time.Hour)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(uf.Path); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}

func TestSpoolWithoutLedger(t *testing.T) {
	dir := t.TempDir()
	uf, err := Spool(dir, strings.NewReader("no ledger"), "a.bin", "application/octet-stream")
	if err != nil {
		t.Fatalf("Spool: %v", err)
	}
	data, err := os.ReadFile(uf.Path)
	if err != nil {
		t.Fatalf("read spooled file: %v", err)
	}
	if string(data) != "no ledger" {
		t.Fatalf("contents = %q", data)
	}
	Discard(uf)
	if _, err := os.Stat(uf.Path); !os.IsNotExist(err) {
		t.Fatalf("file still present after Discard: %v", err)
	}
	Discard(uf) // idempotent
}
