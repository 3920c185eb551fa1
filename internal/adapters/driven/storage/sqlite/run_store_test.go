package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

func testRun(id string, started time.Time) *domain.IngestReport {
	return &domain.IngestReport{
		RunID:      id,
		StartedAt:  started,
		EndedAt:    started.Add(90 * time.Second),
		Candidates: 4,
		Stored:     2,
		Skipped:    1,
		Failed:     1,
		Fragments:  12,
		Documents:  []domain.DocumentResult{{DocumentID: "vid1", State: domain.StateStored}},
	}
}

func TestRunStore_LatestEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	run, err := store.RunStore().Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestRunStore_RecordAndLatest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rs := store.RunStore()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, rs.Record(ctx, testRun("run-1", base)))
	require.NoError(t, rs.Record(ctx, testRun("run-2", base.Add(time.Hour))))

	latest, err := rs.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)

	assert.Equal(t, "run-2", latest.RunID)
	assert.True(t, base.Add(time.Hour).Equal(latest.StartedAt))
	assert.Equal(t, 90*time.Second, latest.Duration())
	assert.Equal(t, 4, latest.Candidates)
	assert.Equal(t, 2, latest.Stored)
	assert.Equal(t, 1, latest.Skipped)
	assert.Equal(t, 1, latest.Failed)
	assert.Equal(t, 12, latest.Fragments)
	assert.Empty(t, latest.Documents, "per-document results are not persisted")
}

func TestRunStore_RecordInvalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	rs := store.RunStore()

	assert.ErrorIs(t, rs.Record(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, rs.Record(context.Background(), &domain.IngestReport{}), domain.ErrInvalidInput)
}

func TestRunStore_HistoryAndPrune(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	rs := store.RunStore()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, rs.Record(ctx, testRun(id, base.Add(time.Duration(i)*time.Minute))))
	}

	history, err := rs.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "d", history[0].RunID)
	assert.Equal(t, "a", history[3].RunID)

	require.NoError(t, rs.Prune(ctx, 2))

	history, err = rs.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "d", history[0].RunID)
	assert.Equal(t, "c", history[1].RunID)
}
