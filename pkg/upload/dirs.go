package upload

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirs prepares the runtime directories the upload pipeline writes
// to: the spool dir and the ledger's parent. It rejects symlinks and
// verifies each dir is writable by the process before any request touches
// it.
func EnsureDirs(spoolDir, ledgerPath string) error {
	var paths []string
	if spoolDir != "" {
		paths = append(paths, spoolDir)
	}
	if ledgerPath != "" {
		paths = append(paths, filepath.Dir(ledgerPath))
	}

	for _, p := range paths {
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
		}

		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}

		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink after creation: %s", p)
			}
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return nil
}
