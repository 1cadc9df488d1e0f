package submitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"batchshell/internal/apperrors"
	"batchshell/internal/shellctx"
)

// stubHandle satisfies job.Handle without touching the OS; used to exercise
// Submit's capacity-check ordering without spawning real processes.
type stubHandle struct {
	pid    int
	killed bool
	reaped bool
}

func (h *stubHandle) PID() int        { return h.pid }
func (h *stubHandle) Continue() error { return nil }
func (h *stubHandle) Stop() error     { return nil }
func (h *stubHandle) Kill() error     { h.killed = true; return nil }
func (h *stubHandle) Alive() bool     { return !h.killed }
func (h *stubHandle) Reap() error     { h.reaped = true; return nil }

func TestReportFormatsAccountingInMilliseconds(t *testing.T) {
	ctx := shellctx.New(1, 50, 4, 4)
	sub := New(ctx)

	h := &stubHandle{pid: 42}
	id, err := ctx.Jobs.Insert(h, "workload spin 1")
	require.NoError(t, err)
	require.NoError(t, ctx.Jobs.UpdateOnRun(id, 0))
	require.NoError(t, ctx.Jobs.UpdateOnRun(id, 4))

	lines := sub.Report()
	require.Len(t, lines, 1)
	require.Equal(t, 42, lines[0].PID)
	require.Equal(t, "workload spin 1", lines[0].Command)
	require.Equal(t, int64(2*50), lines[0].CompletionMS)
	require.Equal(t, int64(4*50), lines[0].WaitMS)
}

func TestSubmitRejectsWhenQueueFullWithoutMutatingTable(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a real OS process via procctl.Spawn")
	}
	ctx := shellctx.New(1, 10, 4, 1)
	sub := New(ctx)

	// Pre-fill the ReadyQueue to capacity directly, bypassing Submit, so the
	// next real Submit call must be rejected before it touches the table.
	preexisting := &stubHandle{pid: 1}
	id, err := ctx.Jobs.Insert(preexisting, "placeholder")
	require.NoError(t, err)
	require.NoError(t, ctx.Ready.Enqueue(id))

	before := ctx.Jobs.Len()

	_, err = sub.Submit("/bin/does-not-matter")
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrQueueFull)
	require.Equal(t, before, ctx.Jobs.Len(), "rejected submit must not grow the job table")
}

func TestCommandLabelJoinsArgs(t *testing.T) {
	require.Equal(t, "prog a b", commandLabel("prog", []string{"a", "b"}))
	require.Equal(t, "prog", commandLabel("prog", nil))
}
