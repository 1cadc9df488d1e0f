// Package sched implements the Scheduler: the quantum loop that drains the
// ReadyQueue into CpuPool slots, runs them for a quantum, pre-empts them with
// STOP, and re-enqueues survivors. This is the control loop spec'd in
// spec.md §4.4, Phases A-D.
package sched

import (
	"context"
	"time"

	"go.uber.org/zap"

	"batchshell/internal/apperrors"
	"batchshell/internal/job"
	"batchshell/internal/shellctx"
)

// Scheduler owns one quantum loop over a shared Context. It never fails:
// every transient OS error is absorbed into the Finished transition or the
// next quantum, per spec.md §7's propagation policy.
type Scheduler struct {
	ctx *shellctx.Context
	log *zap.Logger
}

// New constructs a Scheduler over ctx. A nil logger is replaced with a no-op
// logger.
func New(ctx *shellctx.Context, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{ctx: ctx, log: log}
}

// Run executes quanta until runCtx is cancelled, at which point it tears down
// every in-flight job (CONTINUE then KILL) and returns. It is meant to run as
// its own goroutine, the scheduler task of the two cooperative tasks spec.md
// §5 mandates.
func (s *Scheduler) Run(runCtx context.Context) {
	for {
		select {
		case <-runCtx.Done():
			s.teardown()
			return
		default:
		}
		s.quantum(runCtx)
	}
}

// quantum runs one full Dispatch/Run/Pre-empt/Tick cycle.
func (s *Scheduler) quantum(runCtx context.Context) {
	s.ctx.Lock()
	s.dispatch()
	tick := s.ctx.GlobalTick
	s.ctx.Unlock()

	interrupted := s.sleep(runCtx)
	if interrupted {
		s.log.Debug("quantum sleep interrupted, proceeding to pre-empt", zap.Int("tick", tick))
	}

	s.ctx.Lock()
	s.preempt()
	s.ctx.GlobalTick++
	s.ctx.Unlock()
}

// dispatch is Phase A: walk slots in order, fill empty ones from the
// ReadyQueue, CONTINUE the occupant, and charge the quantum via UpdateOnRun.
// Must be called with the context locked.
func (s *Scheduler) dispatch() {
	for slot := 0; slot < s.ctx.CPUs.Size(); slot++ {
		if s.ctx.CPUs.Occupant(slot) != "" {
			continue
		}
		id, ok := s.ctx.Ready.Dequeue()
		if !ok {
			break // queue empty: stop, per spec.md Phase A
		}

		s.ctx.CPUs.Place(slot, id)

		j, err := s.ctx.Jobs.Lookup(id)
		if err != nil {
			s.log.Error("dispatched unknown job id", zap.String("id", id), zap.Error(err))
			continue
		}
		if err := j.Handle.Continue(); err != nil {
			// SignalLost: the job is already gone. Phase C's liveness probe
			// will observe this and finalize it; Phase A still charges the
			// quantum, matching the original source's unconditional kill().
			s.log.Debug("continue signal lost", zap.String("id", id), zap.Error(err))
		}
		if err := s.ctx.Jobs.UpdateOnRun(id, s.ctx.GlobalTick); err != nil {
			s.log.Error("update_on_run failed", zap.String("id", id), zap.Error(err))
		}
	}
}

// sleep is Phase B, the scheduler's only blocking point. It returns true if
// runCtx was cancelled mid-sleep (apperrors.ErrSleepInterrupted semantics):
// the caller still proceeds to Phase C normally, per spec.md §7.
func (s *Scheduler) sleep(runCtx context.Context) bool {
	timer := time.NewTimer(time.Duration(s.ctx.TSlice) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-runCtx.Done():
		_ = apperrors.ErrSleepInterrupted
		return true
	}
}

// preempt is Phase C: probe each occupied slot's liveness; STOP and
// re-enqueue survivors, reap and clear finished ones without re-enqueuing or
// touching their counters (the quantum already charged them in Phase A).
// Must be called with the context locked.
func (s *Scheduler) preempt() {
	for slot := 0; slot < s.ctx.CPUs.Size(); slot++ {
		id := s.ctx.CPUs.Occupant(slot)
		if id == "" {
			continue
		}

		j, err := s.ctx.Jobs.Lookup(id)
		if err != nil {
			s.log.Error("preempting unknown job id", zap.String("id", id), zap.Error(err))
			s.ctx.CPUs.Clear(slot)
			continue
		}

		if j.Handle.Alive() {
			if err := j.Handle.Stop(); err != nil {
				s.log.Debug("stop signal lost", zap.String("id", id), zap.Error(err))
			}
			if err := s.ctx.Ready.Enqueue(id); err != nil {
				// ReadyQueue capacity should always cover every job that was
				// ever admitted; a full queue here means misconfiguration.
				s.log.Error("ready queue full re-enqueuing survivor", zap.String("id", id), zap.Error(err))
			}
		} else {
			if err := j.Handle.Reap(); err != nil {
				s.log.Debug("reap failed", zap.String("id", id), zap.Error(err))
			}
		}
		s.ctx.CPUs.Clear(slot)
	}
}

// teardown sends CONTINUE then KILL to every occupied slot and every queued
// job, then reaps each, per spec.md §5/§9's teardown note. Called once, when
// Run's context is cancelled.
func (s *Scheduler) teardown() {
	s.ctx.Lock()
	defer s.ctx.Unlock()

	for slot := 0; slot < s.ctx.CPUs.Size(); slot++ {
		id := s.ctx.CPUs.Occupant(slot)
		if id == "" {
			continue
		}
		s.drainOne(id)
		s.ctx.CPUs.Clear(slot)
	}

	for {
		id, ok := s.ctx.Ready.Dequeue()
		if !ok {
			break
		}
		s.drainOne(id)
	}
}

// drainOne delivers CONTINUE then KILL to a single job's process and reaps
// it, best-effort. A stopped process ignores SIGKILL while stopped on some
// platforms, hence CONTINUE first.
func (s *Scheduler) drainOne(id string) {
	j, err := s.ctx.Jobs.Lookup(id)
	if err != nil {
		return
	}
	_ = j.Handle.Continue()
	_ = j.Handle.Kill()
	if err := j.Handle.Reap(); err != nil {
		s.log.Debug("teardown reap failed", zap.String("id", id), zap.Error(err))
	}
}

// Snapshot exposes the current JobTable contents for Report/monitor callers.
// Takes the context lock briefly, giving a consistent view per spec.md §5.
func (s *Scheduler) Snapshot() []job.Record {
	s.ctx.Lock()
	defer s.ctx.Unlock()
	return s.ctx.Jobs.Snapshot()
}
