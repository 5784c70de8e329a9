package upload

import (
	"fmt"
	"io"
	"os"

	"connkit/pkg/conn"
	"connkit/pkg/logger"
	"connkit/pkg/telemetry"
)

// Spool copies one multipart part body to a temp file under dir and
// returns its descriptor. When the ledger is open the file is recorded so
// the sweeper can reclaim it later; a ledger write failure does not fail
// the spool.
func Spool(dir string, r io.Reader, filename, contentType string) (conn.UploadedFile, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return conn.UploadedFile{}, fmt.Errorf("failed to create upload dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "connkit-upload-*")
	if err != nil {
		return conn.UploadedFile{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return conn.UploadedFile{}, fmt.Errorf("failed to spool part body: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return conn.UploadedFile{}, err
	}

	uf := conn.UploadedFile{Path: f.Name(), Filename: filename, ContentType: contentType}
	if Ready() {
		if err := Record(uf); err != nil {
			logger.Warn("upload_ledger_record_failed", "path", uf.Path, "error", err)
		}
	}
	telemetry.UploadsSpooledTotal.Inc()
	return uf, nil
}

// Discard removes spooled files immediately, e.g. when a handler has
// consumed them before the sweeper runs. Missing files are ignored.
func Discard(files ...conn.UploadedFile) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("upload_discard_failed", "path", f.Path, "error", err)
		}
	}
}
