package job

import (
	"testing"

	"github.com/stretchr/testify/require"

	"batchshell/internal/apperrors"
)

type fakeHandle struct {
	pid   int
	alive bool
}

func (f *fakeHandle) PID() int        { return f.pid }
func (f *fakeHandle) Continue() error { return nil }
func (f *fakeHandle) Stop() error     { return nil }
func (f *fakeHandle) Kill() error     { f.alive = false; return nil }
func (f *fakeHandle) Alive() bool     { return f.alive }
func (f *fakeHandle) Reap() error     { return nil }

func TestInsertAssignsIDsAndRespectsCapacity(t *testing.T) {
	tbl := NewTable(2)

	id1, err := tbl.Insert(&fakeHandle{pid: 1, alive: true}, "workload spin 1")
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := tbl.Insert(&fakeHandle{pid: 2, alive: true}, "workload spin 2")
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	_, err = tbl.Insert(&fakeHandle{pid: 3, alive: true}, "workload spin 3")
	require.ErrorIs(t, err, apperrors.ErrTableFull)
}

func TestLookupUnknownID(t *testing.T) {
	tbl := NewTable(1)
	_, err := tbl.Lookup("does-not-exist")
	require.ErrorIs(t, err, apperrors.ErrUnknownJob)
}

func TestUpdateOnRunFirstDispatchDoesNotCountWait(t *testing.T) {
	tbl := NewTable(1)
	id, err := tbl.Insert(&fakeHandle{pid: 1, alive: true}, "cmd")
	require.NoError(t, err)

	require.NoError(t, tbl.UpdateOnRun(id, 5))

	j, err := tbl.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, 1, j.QuantaRun)
	require.Equal(t, 0, j.QuantaWaited)
	require.Equal(t, 5, j.LastRunQuantum)
}

func TestUpdateOnRunAccruesWaitOnSecondDispatch(t *testing.T) {
	tbl := NewTable(1)
	id, err := tbl.Insert(&fakeHandle{pid: 1, alive: true}, "cmd")
	require.NoError(t, err)

	require.NoError(t, tbl.UpdateOnRun(id, 2))
	require.NoError(t, tbl.UpdateOnRun(id, 9))

	j, err := tbl.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, 2, j.QuantaRun)
	require.Equal(t, 7, j.QuantaWaited)
	require.Equal(t, 9, j.LastRunQuantum)
}

func TestSnapshotIsSubmissionOrderedAndDoesNotAliasStorage(t *testing.T) {
	tbl := NewTable(3)
	idA, _ := tbl.Insert(&fakeHandle{pid: 10, alive: true}, "a")
	idB, _ := tbl.Insert(&fakeHandle{pid: 20, alive: true}, "b")

	snap := tbl.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, idA, snap[0].ID)
	require.Equal(t, idB, snap[1].ID)
	require.Equal(t, 1, snap[0].Index)
	require.Equal(t, 2, snap[1].Index)

	require.NoError(t, tbl.UpdateOnRun(idA, 1))
	snap2 := tbl.Snapshot()
	require.Equal(t, 0, snap[0].QuantaRun, "earlier snapshot must not mutate")
	require.Equal(t, 1, snap2[0].QuantaRun)
}

func TestLenCountsEverySubmittedJobEvenAfterFinish(t *testing.T) {
	tbl := NewTable(2)
	h := &fakeHandle{pid: 1, alive: true}
	_, err := tbl.Insert(h, "a")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	require.NoError(t, h.Kill())
	require.False(t, h.Alive())
	require.Equal(t, 1, tbl.Len())
}
