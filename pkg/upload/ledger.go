// Package upload owns the on-disk lifecycle of multipart file parts: it
// spools part bodies to temp files, records them in a durable Pebble
// ledger, and sweeps orphans on a cron schedule. The params mapping only
// ever holds descriptors; cleanup happens here so a crash between spool
// and response cannot leak temp files forever.
package upload

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"connkit/pkg/conn"
	"connkit/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// seq reduces key collisions when multiple spools share a nanosecond.
var seq uint64

const keyPrefix = "upload:"

// Entry is one ledger record for a spooled temp file.
type Entry struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	CreatedAt   int64  `json:"created_at"` // unix nanoseconds
}

// Open opens (or creates) the ledger database at the given path and keeps
// a package-level handle.
func Open(path string) error {
	var err error
	logger.Info("opening_upload_ledger", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("upload_ledger_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	return nil
}

// Close closes the ledger if open.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("upload_ledger_closed")
	return nil
}

// Ready reports whether the ledger is open.
func Ready() bool { return db != nil }

// Record writes one ledger entry for a spooled file.
func Record(f conn.UploadedFile) error {
	if db == nil {
		return fmt.Errorf("upload ledger not opened; call upload.Open first")
	}
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	key := fmt.Sprintf("%s%020d-%06d", keyPrefix, ts, s)
	e := Entry{Path: f.Path, Filename: f.Filename, ContentType: f.ContentType, CreatedAt: ts}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("upload_record_failed", "path", f.Path, "error", err)
		return err
	}
	logger.Debug("upload_recorded", "key", key, "path", f.Path)
	return nil
}

// Entries lists all ledger records in key order.
func Entries() ([]Entry, error) {
	if db == nil {
		return nil, fmt.Errorf("upload ledger not opened")
	}
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, iter.Error()
}

// Sweep removes temp files older than maxAge along with their ledger
// entries. Files already gone from disk still have their entries dropped.
func Sweep(maxAge time.Duration) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("upload ledger not opened")
	}
	cutoff := time.Now().UTC().Add(-maxAge).UnixNano()
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return 0, err
	}
	var stale [][]byte
	var paths []string
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			stale = append(stale, append([]byte(nil), iter.Key()...))
			continue
		}
		if e.CreatedAt < cutoff {
			stale = append(stale, append([]byte(nil), iter.Key()...))
			paths = append(paths, e.Path)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err == nil || os.IsNotExist(err) {
			removed++
		} else {
			logger.Warn("upload_sweep_remove_failed", "path", p, "error", err)
		}
	}
	for _, k := range stale {
		if err := db.Delete(k, pebble.Sync); err != nil {
			logger.Error("upload_sweep_delete_failed", "key", string(k), "error", err)
		}
	}
	return removed, nil
}
