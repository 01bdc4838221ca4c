package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is created in the output root for the duration of a run.
const LockFileName = ".strm123.lock"

// acquireLock takes a non-blocking exclusive flock on the output root's lock
// file and records the holder's PID in it. The returned release func drops
// the lock and clears the PID.
func acquireLock(outputRoot string) (release func(), err error) {
	if err := os.MkdirAll(outputRoot, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating output root %s: %w", ErrIO, outputRoot, err)
	}

	path := filepath.Join(outputRoot, LockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("%w: opening lock file: %w", ErrIO, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()

		return nil, fmt.Errorf("%w (could not lock %s)", ErrBusy, path)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: truncating lock file: %w", ErrIO, err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: writing lock file: %w", ErrIO, err)
	}

	// The file stays in place: unlinking it would let a run that already
	// opened it lock an orphaned inode while another run locks a new file.
	return func() {
		_ = f.Truncate(0)
		f.Close()
	}, nil
}
