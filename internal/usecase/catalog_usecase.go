package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// CatalogUseCase согласует локальные правки каталога филиала с удалённым сервером.
// Один экземпляр обслуживает одну сессию: оверлей создаётся вместе с ним и с ним же умирает.
type CatalogUseCase struct {
	branchID    string
	listLimit   int
	catalogRepo CatalogRepository
	cacheRepo   CacheRepository
	gateway     RemoteGateway
	events      SyncEventPublisher
	overlay     *StockOverlay
	logger      logger.Logger
	refreshing  atomic.Int32
	bg          sync.WaitGroup
	pages       singleflight.Group
}

func NewCatalogUC(
	branchID string,
	listLimit int,
	catalogRepo CatalogRepository,
	cacheRepo CacheRepository,
	gateway RemoteGateway,
	events SyncEventPublisher,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		branchID:    branchID,
		listLimit:   listLimit,
		catalogRepo: catalogRepo,
		cacheRepo:   cacheRepo,
		gateway:     gateway,
		events:      events,
		overlay:     NewStockOverlay(),
		logger:      logger,
	}
}

// ListLocal возвращает активные товары филиала с остатком из оверлея и применённым фильтром.
// При фильтре LOW/ZERO смещение и лимит считаются по подходящим товарам, а не по строкам хранилища.
func (c *CatalogUseCase) ListLocal(ctx context.Context, req *ListLocalReq) (*ListLocalRes, error) {
	const op = "CatalogUseCase.ListLocal"

	limit, offset := c.normalizeLimit(req.Limit), max(req.Offset, 0)
	if req.Filter.IsAll() {
		products, err := c.loadPage(ctx, NewPageKey(c.branchID, false, req.Search, limit, offset))
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		views := make([]ProductView, 0, len(products))
		for _, p := range products {
			stock, pending := c.displayStock(&p)
			views = append(views, NewProductView(p, stock, pending))
		}
		return NewListLocalRes(views, c.Loading()), nil
	}

	views := make([]ProductView, 0, limit)
	skipped := 0
	for storeOffset := 0; ; storeOffset += c.listLimit {
		products, err := c.loadPage(ctx, NewPageKey(c.branchID, false, req.Search, c.listLimit, storeOffset))
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		for _, p := range products {
			stock, pending := c.displayStock(&p)
			if !req.Filter.Matches(stock) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			views = append(views, NewProductView(p, stock, pending))
			if len(views) == limit {
				return NewListLocalRes(views, c.Loading()), nil
			}
		}

		if len(products) < c.listLimit {
			break
		}
	}

	return NewListLocalRes(views, c.Loading()), nil
}

// ListArchived возвращает архивные товары филиала. Фильтр по остатку к архиву не применяется.
func (c *CatalogUseCase) ListArchived(ctx context.Context, req *ListLocalReq) (*ListLocalRes, error) {
	const op = "CatalogUseCase.ListArchived"

	products, err := c.loadPage(ctx, NewPageKey(c.branchID, true, req.Search, c.normalizeLimit(req.Limit), max(req.Offset, 0)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p, p.Stock, false))
	}

	return NewListLocalRes(views, c.Loading()), nil
}

// Refresh подтягивает снимок каталога с сервера и сбрасывает весь оверлей.
// Сетевая ошибка не возвращается вызывающему: локальные данные остаются как были.
func (c *CatalogUseCase) Refresh(ctx context.Context) (*RefreshRes, error) {
	const op = "CatalogUseCase.Refresh"

	c.refreshing.Add(1)
	defer c.refreshing.Add(-1)
	// Оверлей чистится и при неудаче: правка, идущая параллельно, может на миг показать старый остаток.
	defer c.overlay.ClearAll()

	count, err := c.pullAndReplace(ctx, nil)
	if err != nil {
		if errors.Is(err, e.ErrNetwork) {
			c.logger.Warnf("Catalog refresh skipped, keeping local state: %v", e.Wrap(op, err))
			return &RefreshRes{Synced: false}, nil
		}
		return nil, e.Wrap(op, err)
	}

	return &RefreshRes{Synced: true, Count: count}, nil
}

// EditProduct применяет правку имени, цены и остатка.
// Ошибка возвращается только если локальная запись имени и цены не прошла; сбои сети уходят в Warnings.
func (c *CatalogUseCase) EditProduct(ctx context.Context, req *EditProductReq) (*EditProductRes, error) {
	const op = "CatalogUseCase.EditProduct"

	res := &EditProductRes{State: StateIdle, Target: domain.ClampStock(req.TargetStock)}

	// Оверлей ставится до любого I/O и снимается на любом пути выхода
	ticket := c.overlay.Set(req.ProductID, res.Target)
	defer func() {
		if !c.overlay.Release(ticket) {
			c.logger.Debugf("overlay for product %s already released or taken over by a newer edit", req.ProductID)
		}
	}()
	res.State = StateOptimisticApplied

	updated, err := c.catalogRepo.UpdateNamePrice(ctx, req.ProductID, req.Name, req.Price)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	res.State = StateBasePersisted
	res.Product = updated

	// После записи имени и цены локальные шаги доводятся до конца, даже если вызывающий отвалился.
	// Дедлайн ctx ограничивает только сетевые вызовы.
	storeCtx := context.WithoutCancel(ctx)
	c.invalidateCache(storeCtx)

	if err := c.gateway.PushBaseFields(ctx, updated); err != nil {
		res.warn("push base fields: %v", err)
		c.logger.Warnf("Failed to push base fields, local state kept. code: %s, error: %v", updated.Code, e.Wrap(op, err))
	}
	c.publish(storeCtx, NewSyncEvent(EventPushBase, updated.BranchID, updated.Code, 0, err))

	// Остаток «до» читается заново после записи, а не из объекта, который был до правки
	latest, err := c.catalogRepo.GetByID(storeCtx, updated.ID)
	if err != nil {
		res.warn("re-read product: %v", err)
		c.logger.Warnf("Failed to re-read product after base update, skipping delta. id: %s, error: %v", updated.ID, e.Wrap(op, err))
		c.reconcile(ctx, nil, res)
		return res, nil
	}
	res.Before = latest.Stock
	res.Delta = res.Target - res.Before
	res.State = StateDeltaComputed

	if persisted, err := c.catalogRepo.SetStock(storeCtx, latest.ID, res.Target); err != nil {
		res.warn("persist target stock: %v", err)
		c.logger.Warnf("Failed to persist target stock locally. id: %s, error: %v", latest.ID, e.Wrap(op, err))
	} else {
		res.Product = persisted
	}
	c.invalidateCache(storeCtx)

	var pending map[string]int64
	if res.Delta != 0 {
		movement := domain.NewStockMovement(latest.BranchID, latest.Code, res.Delta, domain.ReasonEdit)
		err := c.gateway.PushMovement(ctx, movement)
		if err != nil {
			// Сервер не знает о дельте: свежий снимок не должен откатить локальный остаток
			pending = map[string]int64{latest.Code: res.Target}
			res.warn("push stock movement: %v", err)
			c.logger.Warnf("Failed to push stock movement, local stock kept. code: %s, delta: %d, error: %v",
				latest.Code, res.Delta, e.Wrap(op, err))
		}
		c.publish(storeCtx, NewSyncEvent(EventPushMovement, movement.BranchID, movement.Code, movement.Delta, err))
	}
	res.State = StateDeltaPushed

	c.reconcile(ctx, pending, res)
	if fresh, err := c.catalogRepo.GetByID(storeCtx, latest.ID); err == nil {
		res.Product = fresh
	}

	return res, nil
}

// ArchiveProduct скрывает товар из активного листинга. На сервер ничего не отправляется.
func (c *CatalogUseCase) ArchiveProduct(ctx context.Context, id string) error {
	const op = "CatalogUseCase.ArchiveProduct"

	if err := c.catalogRepo.Archive(ctx, id); err != nil {
		return e.Wrap(op, err)
	}
	c.invalidateCache(ctx)

	return nil
}

// DeleteProduct удаляет товар локально и в фоне отправляет надгробие на сервер.
// Удаление отсутствующего товара не считается ошибкой.
func (c *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "CatalogUseCase.DeleteProduct"

	product, err := c.catalogRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil
		}
		return e.Wrap(op, err)
	}

	if err := c.catalogRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}
	c.overlay.Clear(id)
	c.invalidateCache(ctx)

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()

		bgCtx := context.Background()
		err := c.gateway.PushDelete(bgCtx, product.BranchID, product.Code)
		if err != nil {
			c.logger.Warnf("Failed to push delete, remote will lag. code: %s, error: %v", product.Code, e.Wrap(op, err))
		}
		c.publish(bgCtx, NewSyncEvent(EventPushDelete, product.BranchID, product.Code, 0, err))
	}()

	return nil
}

// DisplayStock возвращает остаток, который видит пользователь: значение из оверлея либо из хранилища.
func (c *CatalogUseCase) DisplayStock(p *domain.Product) int64 {
	return c.overlay.ReadThrough(p)
}

func (c *CatalogUseCase) displayStock(p *domain.Product) (int64, bool) {
	if stock, pending := c.overlay.Get(p.ID); pending {
		return stock, true
	}
	return p.Stock, false
}

// PendingStock возвращает неподтверждённый остаток товара, если правка ещё идёт.
func (c *CatalogUseCase) PendingStock(id string) (int64, bool) {
	return c.overlay.Get(id)
}

// Loading сообщает, идёт ли сейчас Refresh.
func (c *CatalogUseCase) Loading() bool {
	return c.refreshing.Load() > 0
}

// WaitForBackground ждёт фоновые push-вызовы с учётом таймаута остановки приложения.
func (c *CatalogUseCase) WaitForBackground(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background sync calls did not finish: %w", ctx.Err())
	}
}

// reconcile выполняет последний шаг правки: pull и замена снимка. Сбой только логируется.
func (c *CatalogUseCase) reconcile(ctx context.Context, pending map[string]int64, res *EditProductRes) {
	const op = "CatalogUseCase.reconcile"

	if _, err := c.pullAndReplace(ctx, pending); err != nil {
		res.warn("reconcile: %v", err)
		c.logger.Warnf("Reconciliation incomplete, local state kept: %v", e.Wrap(op, err))
	}
	res.State = StateReconciled
}

// pullAndReplace забирает снимок с сервера и записывает его как текущий каталог филиала.
// pending подменяет остаток товаров, чья дельта не дошла до сервера.
// Снимок, полученный с сервера, записывается целиком независимо от отмены ctx.
func (c *CatalogUseCase) pullAndReplace(ctx context.Context, pending map[string]int64) (int, error) {
	products, err := c.gateway.PullCatalog(ctx, c.branchID)
	storeCtx := context.WithoutCancel(ctx)
	c.publish(storeCtx, NewSyncEvent(EventPull, c.branchID, "", 0, err))
	if err != nil {
		return 0, err
	}

	for i := range products {
		if stock, ok := pending[products[i].Code]; ok {
			products[i].Stock = stock
		}
	}

	if err := c.catalogRepo.ReplaceSnapshot(storeCtx, c.branchID, products); err != nil {
		return 0, err
	}
	c.invalidateCache(storeCtx)

	return len(products), nil
}

// loadPage читает страницу из кэша, при промахе из хранилища, и в фоне кладёт её в кэш.
// Одновременные промахи по одной странице сводятся к одному чтению хранилища.
func (c *CatalogUseCase) loadPage(ctx context.Context, key PageKey) ([]domain.Product, error) {
	const op = "CatalogUseCase.loadPage"

	page, cacheErr := c.cacheRepo.GetPage(ctx, key)
	if cacheErr != nil {
		c.logger.Warnf("Catalog cache unavailable, reading store: %v", e.Wrap(op, cacheErr))
		page = NewCachedPage(-1, nil, false)
	} else if page.Hit {
		return page.Products, nil
	}

	flightKey := fmt.Sprintf("%+v@%d", key, page.Version)
	v, err, _ := c.pages.Do(flightKey, func() (any, error) {
		// чтение общее для всех ждущих, отмена первого запроса не должна обрывать остальные
		readCtx := context.WithoutCancel(ctx)
		if key.Archived {
			return c.catalogRepo.ListArchived(readCtx, key.BranchID, key.Search, key.Limit, key.Offset)
		}
		return c.catalogRepo.ListByBranch(readCtx, key.BranchID, key.Search, key.Limit, key.Offset)
	})
	if err != nil {
		return nil, err
	}
	products := v.([]domain.Product)

	if cacheErr == nil {
		version := page.Version
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := c.cacheRepo.SetPage(bgCtx, key, version, products); err != nil {
				c.logger.Warnf("Failed to cache catalog page in background: %v", e.Wrap(op, err))
			}
		}()
	}

	return products, nil
}

func (c *CatalogUseCase) invalidateCache(ctx context.Context) {
	if err := c.cacheRepo.InvalidateBranch(ctx, c.branchID); err != nil {
		c.logger.Warnf("Failed to invalidate catalog cache: %v", e.Wrap("CatalogUseCase.invalidateCache", err))
	}
}

func (c *CatalogUseCase) publish(ctx context.Context, event *SyncEvent) {
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warnf("Failed to publish sync event %s: %v", event.Kind, err)
	}
}

func (c *CatalogUseCase) normalizeLimit(limit int) int {
	if limit <= 0 || limit > c.listLimit {
		return c.listLimit
	}
	return limit
}

func (r *EditProductRes) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
