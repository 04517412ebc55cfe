package converter

import (
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
	ToArrEntity(models []ProductModel) []domain.Product
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
		ID:         entity.ID,
		BranchID:   entity.BranchID,
		Code:       entity.Code,
		Name:       entity.Name,
		Price:      max(domain.PriceToCents(entity.Price), 0),
		Stock:      domain.ClampStockInt(entity.Stock),
		IsArchived: entity.IsArchived,
		CreatedAt:  entity.CreatedAt,
		UpdatedAt:  entity.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	return &domain.Product{
		ID:         model.ID,
		Code:       model.Code,
		Name:       model.Name,
		Price:      domain.PriceFromCents(model.Price),
		Stock:      model.Stock,
		BranchID:   model.BranchID,
		IsArchived: model.IsArchived,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToArrEntity(models []ProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, *c.ToEntity(&models[i]))
	}
	return res
}

// SyncEventConverter преобразует события синхронизации между usecase и журналом sync_events.
type SyncEventConverter interface {
	ToModel(event *usecase.SyncEvent) *SyncEventModel
	ToOutboxEvent(model *SyncEventModel) *usecase.OutboxEvent
}

type SyncEventConverterImpl struct{}

func NewSyncEventConverterImpl() *SyncEventConverterImpl {
	return &SyncEventConverterImpl{}
}

func (c *SyncEventConverterImpl) ToModel(event *usecase.SyncEvent) *SyncEventModel {
	if event == nil {
		return nil
	}

	return &SyncEventModel{
		EventID:    event.EventID,
		Kind:       string(event.Kind),
		BranchID:   event.BranchID,
		Code:       event.Code,
		Delta:      event.Delta,
		Status:     string(event.Status),
		Error:      event.Error,
		OccurredAt: event.OccurredAt,
	}
}

func (c *SyncEventConverterImpl) ToOutboxEvent(model *SyncEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID: model.ID,
		Event: usecase.SyncEvent{
			EventID:    model.EventID,
			Kind:       usecase.SyncEventKind(model.Kind),
			BranchID:   model.BranchID,
			Code:       model.Code,
			Delta:      model.Delta,
			Status:     usecase.SyncEventStatus(model.Status),
			Error:      model.Error,
			OccurredAt: model.OccurredAt,
		},
	}
}
