package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/clients"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheRepo(t *testing.T) (*CacheRepo, redismock.ClientMock) {
	t.Helper()

	db, mock := redismock.NewClientMock()
	repo := NewCacheRepo(
		&clients.RedisClient{Client: db},
		&converter.CatalogPageConverterImpl{},
		&cfg.RedisCfg{PageTTL: time.Minute},
		logger.NewNopLogger(),
	)
	repo.pageTTL = func() time.Duration { return time.Minute }

	return repo, mock
}

func TestGetPageMiss(t *testing.T) {
	repo, mock := newTestCacheRepo(t)
	key := usecase.NewPageKey("b1", false, "", 500, 0)

	mock.ExpectGet("catalog:b1:ver").RedisNil()
	mock.ExpectGet("catalog:b1:v0:active:500:0:").RedisNil()

	page, err := repo.GetPage(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, page.Hit)
	assert.Zero(t, page.Version)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPageHit(t *testing.T) {
	repo, mock := newTestCacheRepo(t)
	key := usecase.NewPageKey("b1", true, " Agua ", 50, 100)

	products := []domain.Product{{ID: "p1", Code: "A1", Name: "Agua", Price: decimal.RequireFromString("12.5"), Stock: 4, BranchID: "b1"}}
	data, err := json.Marshal((&converter.CatalogPageConverterImpl{}).ToRedisModel(products))
	require.NoError(t, err)

	mock.ExpectGet("catalog:b1:ver").SetVal("3")
	mock.ExpectGet("catalog:b1:v3:archived:50:100:agua").SetVal(string(data))

	page, err := repo.GetPage(context.Background(), key)
	require.NoError(t, err)
	require.True(t, page.Hit)
	assert.Equal(t, int64(3), page.Version)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "A1", page.Products[0].Code)
	assert.True(t, decimal.RequireFromString("12.5").Equal(page.Products[0].Price))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPageCorruptedIsMiss(t *testing.T) {
	repo, mock := newTestCacheRepo(t)
	key := usecase.NewPageKey("b1", false, "", 500, 0)

	mock.ExpectGet("catalog:b1:ver").SetVal("1")
	mock.ExpectGet("catalog:b1:v1:active:500:0:").SetVal("{not json")

	page, err := repo.GetPage(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, page.Hit)
}

func TestGetPageRedisDown(t *testing.T) {
	repo, mock := newTestCacheRepo(t)

	mock.ExpectGet("catalog:b1:ver").SetErr(errors.New("connection refused"))

	_, err := repo.GetPage(context.Background(), usecase.NewPageKey("b1", false, "", 500, 0))
	assert.Error(t, err)
}

func TestSetPageWritesUnderCapturedVersion(t *testing.T) {
	repo, mock := newTestCacheRepo(t)
	key := usecase.NewPageKey("b1", false, "", 500, 0)

	products := []domain.Product{{ID: "p1", Code: "A1", Name: "Agua", Price: decimal.NewFromInt(10), BranchID: "b1"}}
	data, err := json.Marshal((&converter.CatalogPageConverterImpl{}).ToRedisModel(products))
	require.NoError(t, err)

	mock.ExpectSet("catalog:b1:v7:active:500:0:", data, time.Minute).SetVal("OK")

	require.NoError(t, repo.SetPage(context.Background(), key, 7, products))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateBranchBumpsVersion(t *testing.T) {
	repo, mock := newTestCacheRepo(t)

	mock.ExpectIncr("catalog:b1:ver").SetVal(8)

	require.NoError(t, repo.InvalidateBranch(context.Background(), "b1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
