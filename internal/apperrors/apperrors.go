// Package apperrors defines the error taxonomy shared by the scheduler core
// and the shell: which errors are fatal, which are surfaced to the user, and
// which are absorbed internally and never seen outside internal/sched.
package apperrors

import "github.com/cockroachdb/errors"

// Sentinels matched with errors.Is. Wrap with errors.Wrapf to attach context
// without losing the sentinel identity.
var (
	// ErrConfigInvalid is fatal at startup: bad or missing NCPU/TSLICE.
	ErrConfigInvalid = errors.New("apperrors: invalid configuration")

	// ErrSpawnFailed means the OS refused to create the job's process.
	ErrSpawnFailed = errors.New("apperrors: spawn failed")

	// ErrTableFull means the JobTable has reached its capacity.
	ErrTableFull = errors.New("apperrors: job table full")

	// ErrQueueFull means the ReadyQueue has reached its capacity.
	ErrQueueFull = errors.New("apperrors: ready queue full")

	// ErrSignalLost is internal: a signal could not be delivered because the
	// target process was already gone. Scheduler callers treat it as proof
	// the job finished; it must never reach the shell.
	ErrSignalLost = errors.New("apperrors: signal lost")

	// ErrSleepInterrupted is internal: the quantum sleep returned early.
	// The scheduler proceeds to Phase C as if the full quantum elapsed.
	ErrSleepInterrupted = errors.New("apperrors: sleep interrupted")

	// ErrUnknownJob means a job id does not exist in the JobTable.
	ErrUnknownJob = errors.New("apperrors: unknown job id")
)

// Wrap attaches a message to err while preserving errors.Is matching against
// the sentinel. A thin wrapper so call sites don't need to import cockroachdb
// directly.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Newf constructs a new formatted, stack-carrying error.
func Newf(format string, args ...any) error {
	return errors.Newf(format, args...)
}
