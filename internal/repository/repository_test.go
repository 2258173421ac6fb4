package repository_test

import (
	"context"
	"testing"

	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New("sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreRepositoryUpsertAndList(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewStoreRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []models.Store{
		{StoreID: "s2", StoreName: "Zoo Pets", Status: "ACTIVE"},
		{StoreID: "s1", StoreName: "Alpha Deco", Status: "PENDING"},
	}))
	require.NoError(t, repo.Upsert(ctx, []models.Store{
		{StoreID: "s1", StoreName: "Alpha Deco", Status: "ACTIVE"},
	}))

	stores, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "s1", stores[0].StoreID)
	assert.Equal(t, "ACTIVE", stores[0].Status)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDraftRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewDraftRepository(db.DB)
	ctx := context.Background()

	_, err := repo.Load(ctx, "store-form")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Save(ctx, "store-form", 1, `{"storeName":"Alpha"}`)
	require.NoError(t, err)
	draft, err := repo.Save(ctx, "store-form", 2, `{"storeName":"Alpha","language":"fr"}`)
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Step)
	assert.JSONEq(t, `{"storeName":"Alpha","language":"fr"}`, draft.Payload)

	require.NoError(t, repo.Clear(ctx, "store-form"))
	_, err = repo.Load(ctx, "store-form")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, repo.Clear(ctx, "store-form"))
}

func TestRunRepositoryFinishAndRecords(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewRunRepository(db.DB)
	ctx := context.Background()

	run := &models.PublishRun{Kind: models.RunKindCollections, StoreID: "s1", Status: models.RunStatusRunning}
	require.NoError(t, repo.Create(ctx, run))
	require.NotEmpty(t, run.ID)

	run.Status = models.RunStatusCompleted
	run.Counters = models.ProcessingStatus{Total: 3, Processed: 3, Successful: 2, Failed: 1}
	records := []models.RunRecord{
		{Position: 0, Title: "A", Handle: "a", Outcome: models.OutcomeSucceeded},
		{Position: 1, Title: "B", Handle: "b", Outcome: models.OutcomeFailed, Error: "Handle has already been taken"},
		{Position: 2, Title: "C", Handle: "c", Outcome: models.OutcomeSucceeded},
	}
	require.NoError(t, repo.Finish(ctx, run, records))

	stored, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Equal(t, models.ProcessingStatus{Total: 3, Processed: 3, Successful: 2, Failed: 1}, stored.Counters)
	assert.NotNil(t, stored.FinishedAt)

	failed, err := repo.Records(ctx, run.ID, models.OutcomeFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].Handle)

	all, err := repo.Records(ctx, run.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
