package history_test

import (
	"context"
	"errors"
	"testing"

	"hydrogen-admin/internal/collections"
	"hydrogen-admin/internal/csvio"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/models"
	"hydrogen-admin/internal/products"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/services/shopify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *repository.RunRepository {
	t.Helper()
	db, err := database.New("sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewRunRepository(db.DB)
}

func TestCollectionsRunRoundTrip(t *testing.T) {
	repo := newRepo(t)
	recorder := history.NewRecorder(repo, logger.Nop())
	ctx := context.Background()

	run := recorder.Start(ctx, models.RunKindCollections, "s1", "Pets")
	require.NotEmpty(t, run.ID)

	report := &collections.Report{
		Status: models.ProcessingStatus{Total: 2, Processed: 2, Successful: 1, Failed: 1},
		Rows: []collections.RowResult{
			{Index: 0, Title: "A", Handle: "a", State: collections.StateDone, Row: csvio.Row{"title": "A", "handle": "a"}},
			{Index: 1, Title: "B", Handle: "b", State: collections.StateFailed, Error: "Handle has already been taken",
				Row: csvio.Row{"title": "B", "handle": "b", "match_any": true}},
		},
	}
	recorder.FinishCollections(ctx, run, report, nil)

	stored, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Equal(t, report.Status, stored.Counters)
	assert.NotNil(t, stored.FinishedAt)

	records, err := repo.Records(ctx, run.ID, models.OutcomeFailed)
	require.NoError(t, err)
	table, err := history.FailedTable(records)
	require.NoError(t, err)
	assert.Equal(t, "handle,match_any,title,error\n\"b\",true,\"B\",\"Handle has already been taken\"", csvio.Export(table))
}

func TestProductsRunFailure(t *testing.T) {
	repo := newRepo(t)
	recorder := history.NewRecorder(repo, logger.Nop())
	ctx := context.Background()

	run := recorder.Start(ctx, models.RunKindProducts, "s1", "Pets")
	recorder.FinishProducts(ctx, run, &products.Report{
		Status:  models.ProcessingStatus{Total: 1, Processed: 1, Successful: 1},
		Created: []shopify.Product{{ID: "gid://shopify/Product/1", Title: "Mug", Handle: "mug"}},
	}, errors.New("failed to fetch location: boom"))

	stored, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.Equal(t, "failed to fetch location: boom", stored.Message)

	records, err := repo.Records(ctx, run.ID, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, err = history.FailedTable(records)
	assert.ErrorIs(t, err, history.ErrNoFailures)
}

func TestFailedTableWithoutStoredRow(t *testing.T) {
	table, err := history.FailedTable([]models.RunRecord{{Title: "Mug", Handle: "mug", Outcome: models.OutcomeFailed, Error: "Missing Handle"}})
	require.NoError(t, err)
	assert.Equal(t, "handle,title,error\n\"mug\",\"Mug\",\"Missing Handle\"", csvio.Export(table))
}
