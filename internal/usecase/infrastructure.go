package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// RemoteGateway описывает сетевую границу с авторитетным сервером каталога.
type RemoteGateway interface {
	PullCatalog(ctx context.Context, branchID string) ([]domain.Product, error)
	PushBaseFields(ctx context.Context, product *domain.Product) error
	PushMovement(ctx context.Context, movement *domain.StockMovement) error
	PushDelete(ctx context.Context, branchID, code string) error
}

// SyncEventPublisher принимает исходы сетевых вызовов. Внешний планировщик повторов читает их отсюда.
type SyncEventPublisher interface {
	Publish(ctx context.Context, event *SyncEvent) error
}
