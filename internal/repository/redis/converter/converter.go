package converter

import (
	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// CatalogPageConverter преобразует страницу товаров между domain и моделью Redis.
type CatalogPageConverter interface {
	ToRedisModel(products []domain.Product) *CatalogPageRedisModel
	ToEntities(model *CatalogPageRedisModel) []domain.Product
}

type CatalogPageConverterImpl struct{}

func NewCatalogPageConverterImpl() *CatalogPageConverterImpl {
	return &CatalogPageConverterImpl{}
}

func (c *CatalogPageConverterImpl) ToRedisModel(products []domain.Product) *CatalogPageRedisModel {
	models := make([]ProductRedisModel, 0, len(products))
	for _, p := range products {
		models = append(models, ProductRedisModel{
			ID:         p.ID,
			BranchID:   p.BranchID,
			Code:       p.Code,
			Name:       p.Name,
			Price:      p.Price,
			Stock:      p.Stock,
			IsArchived: p.IsArchived,
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}

	return &CatalogPageRedisModel{Products: models}
}

func (c *CatalogPageConverterImpl) ToEntities(model *CatalogPageRedisModel) []domain.Product {
	if model == nil {
		return nil
	}

	res := make([]domain.Product, 0, len(model.Products))
	for _, m := range model.Products {
		res = append(res, domain.Product{
			ID:         m.ID,
			Code:       m.Code,
			Name:       m.Name,
			Price:      m.Price,
			Stock:      m.Stock,
			BranchID:   m.BranchID,
			IsArchived: m.IsArchived,
			CreatedAt:  m.CreatedAt,
			UpdatedAt:  m.UpdatedAt,
		})
	}

	return res
}
