// Package shellctx bundles the process-wide state the source kept as global
// variables (NCPU, TSLICE, the job table, the queue, the CPU pool, and
// GlobalTick) into a single value constructed at startup and passed
// explicitly to the Scheduler task and the Submitter API, per spec.md §9.
package shellctx

import (
	"sync"

	"batchshell/internal/cpupool"
	"batchshell/internal/job"
	"batchshell/internal/rqueue"
)

// Context is the one critical section guarding JobTable + ReadyQueue +
// CpuPool + GlobalTick. It is held during Scheduler Phase A, released during
// the Phase B sleep, and re-acquired for Phase C; Submit and Report take the
// same mutex briefly. No lock is ever held across the quantum sleep.
type Context struct {
	NCPU   int
	TSlice int // milliseconds

	mu         sync.Mutex
	Jobs       *job.Table
	Ready      *rqueue.Queue
	CPUs       *cpupool.Pool
	GlobalTick int
}

// New constructs a Context. tableCapacity and queueCapacity bound the
// JobTable and ReadyQueue respectively; ncpu sizes the CpuPool.
func New(ncpu, tsliceMS, tableCapacity, queueCapacity int) *Context {
	return &Context{
		NCPU:   ncpu,
		TSlice: tsliceMS,
		Jobs:   job.NewTable(tableCapacity),
		Ready:  rqueue.New(queueCapacity),
		CPUs:   cpupool.New(ncpu),
	}
}

// Lock acquires the context's mutex. Exported so Submit/Report and the
// Scheduler can share one critical section without this package picking
// sides on lock ordering.
func (c *Context) Lock() { c.mu.Lock() }

// Unlock releases the context's mutex.
func (c *Context) Unlock() { c.mu.Unlock() }
