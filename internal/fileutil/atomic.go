// Package fileutil provides file system utilities.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile streams output into a temporary file next to its destination and
// renames it into place on Commit. Readers observe either the previous file or
// the complete new one, never a partial write.
type AtomicFile struct {
	*os.File
	path string
	perm os.FileMode
	done bool
}

// CreateAtomic starts an atomic write of filename.
func CreateAtomic(filename string, perm os.FileMode) (*AtomicFile, error) {
	// Same directory keeps the rename on one filesystem
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &AtomicFile{File: tmp, path: filename, perm: perm}, nil
}

// Commit syncs the temporary file and renames it over the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("atomic write of %s already finished", a.path)
	}
	a.done = true
	tmpPath := a.File.Name()

	if err := a.File.Sync(); err != nil {
		a.discard()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := a.File.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, a.perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Abort drops the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.discard()
}

func (a *AtomicFile) discard() {
	a.File.Close()
	os.Remove(a.File.Name())
}
