package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeCatalogRepo хранит товары в памяти и повторяет семантику ReplaceSnapshot из pgdb.
type fakeCatalogRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newFakeCatalogRepo(products ...domain.Product) *fakeCatalogRepo {
	r := &fakeCatalogRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeCatalogRepo) list(branchID, search string, archived bool, limit, offset int) []domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []domain.Product
	for _, p := range r.products {
		if p.BranchID != branchID || p.IsArchived != archived {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Code), strings.ToLower(search)) {
			continue
		}
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	if offset >= len(res) {
		return nil
	}
	res = res[offset:]
	if limit < len(res) {
		res = res[:limit]
	}
	return res
}

func (r *fakeCatalogRepo) ListByBranch(_ context.Context, branchID, search string, limit, offset int) ([]domain.Product, error) {
	return r.list(branchID, search, false, limit, offset), nil
}

func (r *fakeCatalogRepo) ListArchived(_ context.Context, branchID, search string, limit, offset int) ([]domain.Product, error) {
	return r.list(branchID, search, true, limit, offset), nil
}

func (r *fakeCatalogRepo) GetByCode(_ context.Context, branchID, code string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.BranchID == branchID && p.Code == code {
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (r *fakeCatalogRepo) UpdateNamePrice(_ context.Context, id, name string, price decimal.Decimal) (*domain.Product, error) {
	name, price, err := domain.NormalizeBaseFields(name, price)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	p.Name, p.Price = name, price
	r.products[id] = p
	return &p, nil
}

func (r *fakeCatalogRepo) SetStock(_ context.Context, id string, stock int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	p.Stock = domain.ClampStockInt(stock)
	r.products[id] = p
	return &p, nil
}

func (r *fakeCatalogRepo) Archive(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil
	}
	p.IsArchived = true
	r.products[id] = p
	return nil
}

func (r *fakeCatalogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeCatalogRepo) ReplaceSnapshot(_ context.Context, branchID string, products []domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byCode := make(map[string]domain.Product)
	for id, p := range r.products {
		if p.BranchID != branchID {
			continue
		}
		byCode[p.Code] = p
		delete(r.products, id)
	}

	for _, in := range products {
		p := in
		p.BranchID = branchID
		p.Stock = domain.ClampStockInt(p.Stock)
		if local, ok := byCode[in.Code]; ok {
			p.ID = local.ID
			p.IsArchived = local.IsArchived || in.IsArchived
		} else {
			p.ID = uuid.NewString()
		}
		r.products[p.ID] = p
	}
	return nil
}

func (r *fakeCatalogRepo) stockOf(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

// fakeGateway изображает сервер: хранит каталог по коду и суммирует дельты.
type fakeGateway struct {
	mu        sync.Mutex
	catalog   map[string]domain.Product
	movements []domain.StockMovement
	bases     []domain.Product
	deletes   []string
	calls     []string

	pullErr     error
	baseErr     error
	movementErr error
	deleteErr   error
	// pullHook вызывается в начале PullCatalog, до захвата блокировки.
	pullHook func()
}

func newFakeGateway(products ...domain.Product) *fakeGateway {
	g := &fakeGateway{catalog: make(map[string]domain.Product)}
	for _, p := range products {
		p.ID = ""
		g.catalog[p.Code] = p
	}
	return g
}

func (g *fakeGateway) PullCatalog(_ context.Context, branchID string) ([]domain.Product, error) {
	if g.pullHook != nil {
		g.pullHook()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, "pull")
	if g.pullErr != nil {
		return nil, g.pullErr
	}

	res := make([]domain.Product, 0, len(g.catalog))
	for _, p := range g.catalog {
		if p.BranchID == branchID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (g *fakeGateway) PushBaseFields(_ context.Context, product *domain.Product) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, "base")
	if g.baseErr != nil {
		return g.baseErr
	}
	g.bases = append(g.bases, *product)

	p := g.catalog[product.Code]
	p.Code, p.BranchID = product.Code, product.BranchID
	p.Name, p.Price = product.Name, product.Price
	g.catalog[product.Code] = p
	return nil
}

func (g *fakeGateway) PushMovement(_ context.Context, movement *domain.StockMovement) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, "movement")
	if g.movementErr != nil {
		return g.movementErr
	}
	g.movements = append(g.movements, *movement)

	p := g.catalog[movement.Code]
	p.Stock += movement.Delta
	g.catalog[movement.Code] = p
	return nil
}

func (g *fakeGateway) PushDelete(_ context.Context, branchID, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, "delete")
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deletes = append(g.deletes, branchID+"/"+code)
	delete(g.catalog, code)
	return nil
}

// adjust имитирует движение с другого устройства.
func (g *fakeGateway) adjust(code string, delta int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.catalog[code]
	p.Stock += delta
	g.catalog[code] = p
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) pushedMovements() []domain.StockMovement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.StockMovement(nil), g.movements...)
}

func (g *fakeGateway) pushedDeletes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deletes...)
}

// fakeCache всегда промахивается и считает инвалидации.
type fakeCache struct {
	mu            sync.Mutex
	version       int64
	invalidations int
	getErr        error
}

func (c *fakeCache) GetPage(_ context.Context, _ PageKey) (*CachedPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	return NewCachedPage(c.version, nil, false), nil
}

func (c *fakeCache) SetPage(_ context.Context, _ PageKey, _ int64, _ []domain.Product) error {
	return nil
}

func (c *fakeCache) InvalidateBranch(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version++
	c.invalidations++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SyncEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) byKind(kind SyncEventKind) []SyncEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res []SyncEvent
	for _, ev := range p.events {
		if ev.Kind == kind {
			res = append(res, ev)
		}
	}
	return res
}

func networkErr(msg string) error {
	return fmt.Errorf("%w: %s", e.ErrNetwork, msg)
}

// ctxCatalogRepo отказывает на отменённом контексте, как пул pgx.
type ctxCatalogRepo struct {
	*fakeCatalogRepo
}

func (r ctxCatalogRepo) ListByBranch(ctx context.Context, branchID, search string, limit, offset int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeCatalogRepo.ListByBranch(ctx, branchID, search, limit, offset)
}

func (r ctxCatalogRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeCatalogRepo.GetByID(ctx, id)
}

func (r ctxCatalogRepo) UpdateNamePrice(ctx context.Context, id, name string, price decimal.Decimal) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeCatalogRepo.UpdateNamePrice(ctx, id, name, price)
}

func (r ctxCatalogRepo) SetStock(ctx context.Context, id string, stock int64) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeCatalogRepo.SetStock(ctx, id, stock)
}

func (r ctxCatalogRepo) ReplaceSnapshot(ctx context.Context, branchID string, products []domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.fakeCatalogRepo.ReplaceSnapshot(ctx, branchID, products)
}

// stallingGateway зависает на PushBaseFields до истечения дедлайна, остальные вызовы после него падают.
type stallingGateway struct {
	*fakeGateway
}

func (g stallingGateway) PushBaseFields(ctx context.Context, _ *domain.Product) error {
	<-ctx.Done()
	return ctx.Err()
}

func (g stallingGateway) PushMovement(ctx context.Context, movement *domain.StockMovement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.fakeGateway.PushMovement(ctx, movement)
}

func (g stallingGateway) PullCatalog(ctx context.Context, branchID string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.fakeGateway.PullCatalog(ctx, branchID)
}
