package mirror

import "errors"

// Per-entry failures are folded into Tally.Errors and never abort a run.
var (
	ErrDecode = errors.New("mirror: cannot decode entry")
	ErrIO     = errors.New("mirror: local write failed")
	ErrFetch  = errors.New("mirror: subtitle download failed")
)

// Run-level failures.
var (
	ErrListing = errors.New("mirror: share listing failed")
	ErrBusy    = errors.New("mirror: output root is locked by another run")
)
