package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// writeAtomic creates the parent directories of target, streams fill into a
// temporary file beside it and renames it over target once fill succeeds.
// Any failure removes the temporary file, so target is either untouched or
// complete. Local failures wrap ErrIO; errors from fill are returned as is.
func writeAtomic(target string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating directory %s: %w", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.partial")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %w", ErrIO, dir, err)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
		return err
	}

	if err := tmp.Chmod(filePermissions); err != nil {
		return fmt.Errorf("%w: setting permissions on %s: %w", ErrIO, tmpPath, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", ErrIO, tmpPath, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, tmpPath, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("%w: renaming into %s: %w", ErrIO, target, err)
	}

	committed = true

	return nil
}

// writeString writes s to target atomically.
func writeString(target, s string) error {
	return writeAtomic(target, func(w io.Writer) error {
		if _, err := io.WriteString(w, s); err != nil {
			return fmt.Errorf("%w: writing %s: %w", ErrIO, target, err)
		}

		return nil
	})
}
