package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobubbles/cobubbles/sim"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(":memory:")
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	// GIVEN a run whose history includes an empty step
	ctx := context.Background()
	s := newTestStore(t)
	run := NewRun(sim.VariantUniform, sim.DefaultParams())
	run.History = []sim.Snapshot{
		{1: 3},
		{},
		{1: 1, 2: 2},
	}
	require.NotEmpty(t, run.ID)

	// WHEN it is saved and loaded back
	require.NoError(t, s.SaveRun(ctx, run))
	got, ok, err := s.LoadRun(ctx, run.ID)

	// THEN everything survives, including the empty snapshot
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, sim.VariantUniform, got.Variant)
	assert.Equal(t, run.History, got.History)
	assert.Equal(t, run.Params, got.Params)
	assert.True(t, run.CreatedAt.UTC().Truncate(time.Second).Equal(got.CreatedAt))

	// AND the empty step is backed by exactly one sentinel row
	var sentinels int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM counts WHERE run_id = ? AND n = 0`, run.ID).Scan(&sentinels))
	assert.Equal(t, 1, sentinels)
}

func TestSQLiteStoreLoadMissingRun(t *testing.T) {
	s := newTestStore(t)

	got, ok, err := s.LoadRun(context.Background(), "no-such-id")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSQLiteStoreSaveReplacesHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := NewRun(sim.VariantUniform, sim.DefaultParams())
	run.History = []sim.Snapshot{{1: 5}, {1: 4}}
	require.NoError(t, s.SaveRun(ctx, run))

	run.History = []sim.Snapshot{{2: 1}}
	require.NoError(t, s.SaveRun(ctx, run))

	got, ok, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []sim.Snapshot{{2: 1}}, got.History)
}

func TestSQLiteStoreAppendSteps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := NewRun(sim.VariantWeibull, sim.DefaultParams())
	run.History = []sim.Snapshot{{1: 1}, {1: 2}}
	require.NoError(t, s.SaveRun(ctx, run))

	// Appending the next steps extends the stored history
	require.NoError(t, s.AppendSteps(ctx, run.ID, 2, []sim.Snapshot{{1: 3}, {}}))
	got, ok, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []sim.Snapshot{{1: 1}, {1: 2}, {1: 3}, {}}, got.History)

	// An out-of-order append is rejected
	err = s.AppendSteps(ctx, run.ID, 7, []sim.Snapshot{{1: 1}})
	assert.ErrorContains(t, err, "does not follow")

	// Appending to an unknown run reports ErrNotFound
	err = s.AppendSteps(ctx, "no-such-id", 0, []sim.Snapshot{{1: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreListRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := NewRun(sim.VariantUniform, sim.DefaultParams())
	first.CreatedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first.History = []sim.Snapshot{{1: 1}}
	second := NewRun(sim.VariantBudget, sim.DefaultParams())
	second.CreatedAt = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	second.History = []sim.Snapshot{{1: 1}, {1: 2}, {2: 1}}
	require.NoError(t, s.SaveRun(ctx, second))
	require.NoError(t, s.SaveRun(ctx, first))

	infos, err := s.ListRuns(ctx)

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.ID, infos[0].ID, "oldest first")
	assert.Equal(t, 1, infos[0].Steps)
	assert.Equal(t, second.ID, infos[1].ID)
	assert.Equal(t, sim.VariantBudget, infos[1].Variant)
	assert.Equal(t, 3, infos[1].Steps)
}

func TestSQLiteStoreDetectsHistoryGap(t *testing.T) {
	// GIVEN a stored run with one iteration's rows deleted underneath
	ctx := context.Background()
	s := newTestStore(t)
	run := NewRun(sim.VariantUniform, sim.DefaultParams())
	run.History = []sim.Snapshot{{1: 1}, {1: 2}, {1: 3}}
	require.NoError(t, s.SaveRun(ctx, run))
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM counts WHERE run_id = ? AND iter = 1`, run.ID)
	require.NoError(t, err)

	// THEN loading fails instead of returning a silently shortened history
	_, _, err = s.LoadRun(ctx, run.ID)
	assert.ErrorContains(t, err, "gap at step 1")
}

func TestSQLiteStoreLifecycleErrors(t *testing.T) {
	ctx := context.Background()

	s := NewSQLiteStore("")
	assert.ErrorContains(t, s.Init(ctx), "path is required")

	s = NewSQLiteStore(":memory:")
	err := s.SaveRun(ctx, NewRun(sim.VariantUniform, sim.DefaultParams()))
	assert.ErrorContains(t, err, "not initialized")
	assert.NoError(t, s.Close(), "closing an unopened store is a no-op")
}

func TestSQLiteStoreResumeFlow(t *testing.T) {
	// GIVEN a short persisted run
	ctx := context.Background()
	s := newTestStore(t)
	params := sim.DefaultParams()
	params.Seed = 11
	params.Steps = 3
	engine, err := sim.NewEngine(params, sim.VariantExponential)
	require.NoError(t, err)
	require.NoError(t, engine.Run(0))

	run := NewRun(sim.VariantExponential, params)
	run.History = engine.History
	require.NoError(t, s.SaveRun(ctx, run))

	// WHEN it is loaded, resumed for two more steps and the suffix appended
	stored, ok, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	resumed, err := sim.ResumeEngine(sim.ParamsFromMap(stored.Params), stored.Variant, stored.History)
	require.NoError(t, err)
	prev := len(resumed.History)
	require.NoError(t, resumed.Run(2))
	require.NoError(t, s.AppendSteps(ctx, run.ID, prev, resumed.History[prev:]))

	// THEN the stored history is the resumed engine's full history
	final, ok, err := s.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, resumed.History, final.History)
	assert.Len(t, final.History, 6)
}
