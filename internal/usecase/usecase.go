package usecase

import "context"

type CatalogUC interface {
	ListLocal(ctx context.Context, req *ListLocalReq) (*ListLocalRes, error)
	ListArchived(ctx context.Context, req *ListLocalReq) (*ListLocalRes, error)
	Refresh(ctx context.Context) (*RefreshRes, error)
	EditProduct(ctx context.Context, req *EditProductReq) (*EditProductRes, error)
	ArchiveProduct(ctx context.Context, id string) error
	DeleteProduct(ctx context.Context, id string) error
}
