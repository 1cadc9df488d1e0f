// Package job implements the JobTable: the bounded, append-only registry of
// every job ever submitted, plus the accounting rules spec'd for wait-time
// accrual.
package job

import (
	"sync"

	"github.com/google/uuid"

	"batchshell/internal/apperrors"
)

// NeverRun is the sentinel value of LastRunQuantum for a job that has not yet
// been dispatched to a CPU slot.
const NeverRun = -1

// Handle is the OS process identity behind a job: enough to signal it, probe
// its liveness, and reap it exactly once. internal/procctl.Handle implements
// this; tests substitute a fake so unit tests never touch real signals.
type Handle interface {
	PID() int
	Continue() error
	Stop() error
	Kill() error
	Alive() bool
	Reap() error
}

// Status is the derived (never stored) state of a job.
type Status int

const (
	Ready Status = iota
	Running
	Finished
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Job is the unit of scheduling: identity, the original command line, the OS
// handle used to signal/probe/reap it, and the monotonic accounting counters.
type Job struct {
	ID             string
	Command        string
	Handle         Handle
	QuantaRun      int
	QuantaWaited   int
	LastRunQuantum int
}

// Record is a read-only copy of a Job for snapshots and reporting; it never
// aliases the table's internal storage.
type Record struct {
	Index          int
	ID             string
	Command        string
	PID            int
	QuantaRun      int
	QuantaWaited   int
	LastRunQuantum int
}

// Table is the bounded append-only JobTable. Jobs are never removed: a
// Finished job stays in the table so Report() keeps reporting it.
type Table struct {
	mu       sync.RWMutex
	capacity int
	order    []string // submission order, for Report()/Snapshot() ordering
	jobs     map[string]*Job
}

// NewTable constructs a JobTable with a fixed capacity.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = 1
	}
	return &Table{
		capacity: capacity,
		jobs:     make(map[string]*Job, capacity),
	}
}

// Insert reserves a new record for a job already born-suspended at handle.
// Returns apperrors.ErrTableFull when the table is saturated.
func (t *Table) Insert(handle Handle, command string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.jobs) >= t.capacity {
		return "", apperrors.ErrTableFull
	}

	id := uuid.NewString()
	t.jobs[id] = &Job{
		ID:             id,
		Command:        command,
		Handle:         handle,
		LastRunQuantum: NeverRun,
	}
	t.order = append(t.order, id)
	return id, nil
}

// Lookup returns the live job record for id. Total on ids returned by Insert.
func (t *Table) Lookup(id string) (*Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	j, ok := t.jobs[id]
	if !ok {
		return nil, apperrors.ErrUnknownJob
	}
	return j, nil
}

// UpdateOnRun is the single place wait time accrues: it increments
// QuantaRun, and if the job has run before, folds the gap since its last run
// into QuantaWaited. Must be called with currentTick equal to the GlobalTick
// at the moment the job is placed in a CPU slot (Phase A).
func (t *Table) UpdateOnRun(id string, currentTick int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[id]
	if !ok {
		return apperrors.ErrUnknownJob
	}

	j.QuantaRun++
	if j.LastRunQuantum != NeverRun {
		j.QuantaWaited += currentTick - j.LastRunQuantum
	}
	j.LastRunQuantum = currentTick
	return nil
}

// Snapshot returns a submission-ordered copy of every record in the table.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, 0, len(t.order))
	for i, id := range t.order {
		j := t.jobs[id]
		out = append(out, Record{
			Index:          i + 1,
			ID:             j.ID,
			Command:        j.Command,
			PID:            j.Handle.PID(),
			QuantaRun:      j.QuantaRun,
			QuantaWaited:   j.QuantaWaited,
			LastRunQuantum: j.LastRunQuantum,
		})
	}
	return out
}

// Len reports how many jobs have ever been submitted.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}
