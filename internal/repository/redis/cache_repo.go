package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/clients"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/jitter"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует страницы листинга каталога.
// Каждая страница лежит под версией филиала; инвалидация поднимает версию, и старые ключи просто доживают TTL.
type CacheRepo struct {
	client  *clients.RedisClient
	conv    converter.CatalogPageConverter
	logger  logger.Logger
	pageTTL func() time.Duration
}

func NewCacheRepo(client *clients.RedisClient, conv converter.CatalogPageConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		logger: logger,
		pageTTL: func() time.Duration {
			return jitter.Duration(cfg.PageTTL, jitter.DefaultJitter)
		},
	}
}

// GetPage возвращает страницу и текущую версию филиала. Промах не считается ошибкой: Hit == false.
func (c *CacheRepo) GetPage(ctx context.Context, key usecase.PageKey) (*usecase.CachedPage, error) {
	version, err := c.version(ctx, key.BranchID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	data, err := c.client.Client.Get(ctx, c.pageKey(key, version)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return usecase.NewCachedPage(version, nil, false), nil // cache miss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CatalogPageRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed, treating as miss: %v", e.Wrap(whereami.WhereAmI(), err))
		return usecase.NewCachedPage(version, nil, false), nil
	}

	return usecase.NewCachedPage(version, c.conv.ToEntities(&model), true), nil
}

// SetPage кладёт страницу под версией, прочитанной в GetPage.
func (c *CacheRepo) SetPage(ctx context.Context, key usecase.PageKey, version int64, products []domain.Product) error {
	data, err := json.Marshal(c.conv.ToRedisModel(products))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.pageKey(key, version), data, c.pageTTL()).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// InvalidateBranch поднимает версию филиала, все закэшированные страницы становятся недостижимы.
func (c *CacheRepo) InvalidateBranch(ctx context.Context, branchID string) error {
	if err := c.client.Client.Incr(ctx, versionKey(branchID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CacheRepo) version(ctx context.Context, branchID string) (int64, error) {
	v, err := c.client.Client.Get(ctx, versionKey(branchID)).Int64()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return v, nil
}

// pageKey возвращает Redis-ключ страницы листинга
func (c *CacheRepo) pageKey(key usecase.PageKey, version int64) string {
	scope := "active"
	if key.Archived {
		scope = "archived"
	}

	return fmt.Sprintf("catalog:%s:v%d:%s:%d:%d:%s",
		key.BranchID, version, scope, key.Limit, key.Offset, strings.ToLower(strings.TrimSpace(key.Search)))
}

func versionKey(branchID string) string {
	return fmt.Sprintf("catalog:%s:ver", branchID)
}
