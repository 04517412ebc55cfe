package pgdb

import (
	"context"
	"os"
	"testing"

	"github.com/DRSN-tech/catalog-sync/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T) (*SyncEventRepo, *pgxpool.Pool, string) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../db/migrations/000002_create_sync_events.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	// журнал общий для всех филиалов, поэтому тест начинает с пустой очереди
	_, err = pool.Exec(ctx, `UPDATE sync_events SET delivery = 'processed' WHERE delivery <> 'processed'`)
	require.NoError(t, err)

	branch := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM sync_events WHERE branch_id = $1`, branch)
	})

	return NewSyncEventRepo(pool, converter.NewSyncEventConverterImpl()), pool, branch
}

func TestSyncEventRepoDeliveryCycle(t *testing.T) {
	repo, _, branch := newTestOutbox(t)
	ctx := context.Background()

	first := usecase.NewSyncEvent(usecase.EventPushMovement, branch, "A1", -20, nil)
	second := usecase.NewSyncEvent(usecase.EventPushDelete, branch, "A2", 0, assert.AnError)

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first), "duplicate event id is ignored")

	events, err := repo.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.EventID, events[0].Event.EventID)
	assert.Equal(t, int64(-20), events[0].Event.Delta)
	assert.Equal(t, usecase.EventFailed, events[1].Event.Status)

	again, err := repo.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, repo.MarkAsProcessed(ctx, events[0].ID))
	require.NoError(t, repo.ReturnToPending(ctx, events[1].ID))

	retry, err := repo.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, retry, 1)
	assert.Equal(t, second.EventID, retry[0].Event.EventID)
}
