package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// CatalogRepository — локальное хранилище каталога, единственный источник истины для чтения.
type CatalogRepository interface {
	ListByBranch(ctx context.Context, branchID, search string, limit, offset int) ([]domain.Product, error)
	ListArchived(ctx context.Context, branchID, search string, limit, offset int) ([]domain.Product, error)
	GetByCode(ctx context.Context, branchID, code string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateNamePrice(ctx context.Context, id, name string, price decimal.Decimal) (*domain.Product, error)
	SetStock(ctx context.Context, id string, stock int64) (*domain.Product, error)
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ReplaceSnapshot(ctx context.Context, branchID string, products []domain.Product) error
}

// CacheRepository кэширует страницы листинга. Версия страницы фиксируется при чтении,
// чтобы запоздалая фоновая запись не положила устаревшие данные после инвалидации.
type CacheRepository interface {
	GetPage(ctx context.Context, key PageKey) (*CachedPage, error)
	SetPage(ctx context.Context, key PageKey, version int64, products []domain.Product) error
	InvalidateBranch(ctx context.Context, branchID string) error
}

// SyncEventOutbox описывает локальный журнал событий синхронизации. Доставка в Kafka забирает события отсюда,
// поэтому события, записанные без связи с брокером, не теряются.
type SyncEventOutbox interface {
	Create(ctx context.Context, event *SyncEvent) error
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	ReturnToPending(ctx context.Context, id int64) error
}
