package storageserver

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ErrNoUndoHistory is returned by Undo when no backup exists for the file.
var ErrNoUndoHistory = errors.New("storageserver: no undo history for file")

// createUndoBackup copies the live file to its sibling .undo path before a
// commit overwrites it. A missing live file (first WRITE to a brand new
// file) is not an error — there's simply nothing to back up yet.
//
// Grounded on undo_handler.c's create_undo_backup, generalized to use
// unix.Rename for the final step so the backup never observably
// half-exists: the copy is written to a temp file in the same directory
// and atomically renamed over the .undo path.
func createUndoBackup(path, undoPath string) error {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := undoPath + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return unix.Rename(tmp, undoPath)
}

// performUndo renames the .undo backup over the live file, consuming the
// backup — a second UNDO with no intervening WRITE fails with
// ErrNoUndoHistory, matching the protocol's single-shot undo.
//
// Grounded on undo_handler.c's perform_undo.
func performUndo(path, undoPath string) error {
	if _, err := os.Stat(undoPath); errors.Is(err, os.ErrNotExist) {
		return ErrNoUndoHistory
	} else if err != nil {
		return err
	}
	return unix.Rename(undoPath, path)
}
