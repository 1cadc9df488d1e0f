// Package submitter implements the Submitter API: the boundary the shell
// calls into to enroll a job and to produce accounting reports, spec.md §4.5.
package submitter

import (
	"batchshell/internal/apperrors"
	"batchshell/internal/procctl"
	"batchshell/internal/shellctx"
)

// ReportLine is one line of Report()'s output, submission-ordered.
type ReportLine struct {
	Index        int
	Command      string
	PID          int
	CompletionMS int64
	WaitMS       int64
}

// Submitter is the boundary between the interactive shell and the scheduler
// core. It holds no state of its own beyond the shared Context.
type Submitter struct {
	ctx *shellctx.Context
}

// New constructs a Submitter over ctx.
func New(ctx *shellctx.Context) *Submitter {
	return &Submitter{ctx: ctx}
}

// Submit spawns program born-suspended, inserts it into the JobTable, and
// enqueues it onto the ReadyQueue. Fails with apperrors.ErrSpawnFailed,
// apperrors.ErrTableFull, or apperrors.ErrQueueFull; on any failure no state
// is mutated (spec.md §7).
func (s *Submitter) Submit(programPath string, args ...string) (string, error) {
	handle, err := procctl.Spawn(programPath, args...)
	if err != nil {
		return "", err // already apperrors.ErrSpawnFailed
	}

	s.ctx.Lock()
	defer s.ctx.Unlock()

	// Checked before the table insert so a rejected submit never leaves a
	// dangling JobTable row the append-only table could not later remove.
	if s.ctx.Ready.Size() >= s.ctx.Ready.Capacity() {
		_ = handle.Kill()
		_ = handle.Reap()
		return "", apperrors.ErrQueueFull
	}

	id, err := s.ctx.Jobs.Insert(handle, commandLabel(programPath, args))
	if err != nil {
		// Table full: the born-suspended child still exists. Kill it rather
		// than leaking a stopped process the scheduler will never learn about.
		_ = handle.Kill()
		_ = handle.Reap()
		return "", err
	}

	if err := s.ctx.Ready.Enqueue(id); err != nil {
		// Unreachable given the capacity check above; stay defensive.
		_ = handle.Kill()
		_ = handle.Reap()
		return "", apperrors.Wrap(err, "queue full at submit")
	}

	return id, nil
}

// Report produces a submission-ordered snapshot of every submitted job with
// times converted from quanta to milliseconds, spec.md §4.5/§6.
func (s *Submitter) Report() []ReportLine {
	s.ctx.Lock()
	records := s.ctx.Jobs.Snapshot()
	tslice := int64(s.ctx.TSlice)
	s.ctx.Unlock()

	out := make([]ReportLine, 0, len(records))
	for _, r := range records {
		out = append(out, ReportLine{
			Index:        r.Index,
			Command:      r.Command,
			PID:          r.PID,
			CompletionMS: int64(r.QuantaRun) * tslice,
			WaitMS:       int64(r.QuantaWaited) * tslice,
		})
	}
	return out
}

func commandLabel(programPath string, args []string) string {
	label := programPath
	for _, a := range args {
		label += " " + a
	}
	return label
}
