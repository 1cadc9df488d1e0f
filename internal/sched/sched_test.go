package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"batchshell/internal/shellctx"
)

// fakeHandle is a signal-free job.Handle used to drive the scheduler
// deterministically: no real OS processes, no real signals.
type fakeHandle struct {
	mu     sync.Mutex
	pid    int
	alive  bool
	stops  int
	conts  int
	kills  int
	reaped bool
}

func newFakeHandle(pid int) *fakeHandle { return &fakeHandle{pid: pid, alive: true} }

func (h *fakeHandle) PID() int { return h.pid }
func (h *fakeHandle) Continue() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conts++
	return nil
}
func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
	return nil
}
func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kills++
	h.alive = false
	return nil
}
func (h *fakeHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alive
}
func (h *fakeHandle) Reap() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reaped = true
	return nil
}
func (h *fakeHandle) finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alive = false
}

func insert(t *testing.T, ctx *shellctx.Context, h *fakeHandle, cmd string) string {
	t.Helper()
	id, err := ctx.Jobs.Insert(h, cmd)
	require.NoError(t, err)
	require.NoError(t, ctx.Ready.Enqueue(id))
	return id
}

func TestDispatchFillsEmptySlotsInOrder(t *testing.T) {
	ctx := shellctx.New(2, 10, 8, 8)
	s := New(ctx, nil)

	hA := newFakeHandle(100)
	hB := newFakeHandle(200)
	idA := insert(t, ctx, hA, "a")
	idB := insert(t, ctx, hB, "b")

	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	require.Equal(t, idA, ctx.CPUs.Occupant(0))
	require.Equal(t, idB, ctx.CPUs.Occupant(1))
	require.Equal(t, 1, hA.conts)
	require.Equal(t, 1, hB.conts)
	require.True(t, ctx.Ready.IsEmpty())
}

func TestDispatchStopsWhenQueueExhausted(t *testing.T) {
	ctx := shellctx.New(3, 10, 8, 8)
	s := New(ctx, nil)
	h := newFakeHandle(1)
	insert(t, ctx, h, "only")

	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	require.Equal(t, 1, ctx.CPUs.Occupied())
}

func TestDispatchChargesQuantumViaUpdateOnRun(t *testing.T) {
	ctx := shellctx.New(1, 10, 8, 8)
	s := New(ctx, nil)
	h := newFakeHandle(1)
	id := insert(t, ctx, h, "x")

	ctx.GlobalTick = 3
	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	j, err := ctx.Jobs.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, 1, j.QuantaRun)
	require.Equal(t, 3, j.LastRunQuantum)
}

func TestPreemptReenqueuesSurvivorsAndReapsFinished(t *testing.T) {
	ctx := shellctx.New(2, 10, 8, 8)
	s := New(ctx, nil)

	survivor := newFakeHandle(1)
	finished := newFakeHandle(2)
	idSurvivor := insert(t, ctx, survivor, "survivor")
	idFinished := insert(t, ctx, finished, "finished")

	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	finished.finish()

	ctx.Lock()
	s.preempt()
	ctx.Unlock()

	require.Equal(t, 1, survivor.stops)
	require.True(t, ctx.Ready.Contains(idSurvivor))
	require.False(t, ctx.Ready.Contains(idFinished))
	require.True(t, finished.reaped)
	require.Equal(t, 0, ctx.CPUs.Occupied())
}

func TestWaitTimeNotCountedOnFirstDispatch(t *testing.T) {
	ctx := shellctx.New(1, 10, 8, 8)
	s := New(ctx, nil)
	a := newFakeHandle(1)
	b := newFakeHandle(2)
	idA := insert(t, ctx, a, "a")
	idB := insert(t, ctx, b, "b")

	// Quantum 1: a dispatched, b waits.
	ctx.Lock()
	s.dispatch()
	ctx.Unlock()
	ctx.Lock()
	s.preempt()
	ctx.GlobalTick++
	ctx.Unlock()

	// Quantum 2: b dispatched for the first time; its wait must not count
	// because it never ran before.
	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	ja, err := ctx.Jobs.Lookup(idA)
	require.NoError(t, err)
	require.Equal(t, 1, ja.QuantaRun)

	jb, err := ctx.Jobs.Lookup(idB)
	require.NoError(t, err)
	require.Equal(t, 1, jb.QuantaRun)
	require.Equal(t, 0, jb.QuantaWaited)
}

func TestTeardownKillsAndReapsEverything(t *testing.T) {
	ctx := shellctx.New(1, 10, 8, 8)
	s := New(ctx, nil)

	running := newFakeHandle(1)
	queued := newFakeHandle(2)
	insert(t, ctx, running, "running")
	insert(t, ctx, queued, "queued")

	ctx.Lock()
	s.dispatch()
	ctx.Unlock()

	s.teardown()

	require.Equal(t, 1, running.kills)
	require.True(t, running.reaped)
	require.Equal(t, 1, queued.kills)
	require.True(t, queued.reaped)
	require.Equal(t, 0, ctx.CPUs.Occupied())
	require.True(t, ctx.Ready.IsEmpty())
}

func TestRunTearsDownOnCancel(t *testing.T) {
	ctx := shellctx.New(1, 5, 8, 8)
	s := New(ctx, nil)
	h := newFakeHandle(1)
	insert(t, ctx, h, "x")

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(runCtx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.Equal(t, 1, h.kills)
}

func TestBoundaryNCPU1TSlice1(t *testing.T) {
	ctx := shellctx.New(1, 1, 4, 4)
	s := New(ctx, nil)
	h1 := newFakeHandle(1)
	h2 := newFakeHandle(2)
	insert(t, ctx, h1, "a")
	insert(t, ctx, h2, "b")

	runCtx, cancel := context.WithCancel(context.Background())
	go s.Run(runCtx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.GreaterOrEqual(t, h1.conts, 1)
}
