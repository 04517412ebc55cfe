package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CATALOG USECASE

// ListLocalReq описывает запрос страницы локального каталога.
type ListLocalReq struct {
	Search string
	Filter domain.StockFilter
	Limit  int
	Offset int
}

// ProductView — товар с остатком, который надо показать пользователю (с учётом оверлея).
type ProductView struct {
	Product      domain.Product
	DisplayStock int64
	Pending      bool // остаток ещё не подтверждён синхронизацией
}

type ListLocalRes struct {
	Products []ProductView
	Loading  bool
}

// EditProductReq описывает редактирование имени, цены и целевого остатка.
// TargetStock может быть отрицательным или дробным: он приводится к max(0, floor(x)).
type EditProductReq struct {
	ProductID   string
	Name        string
	Price       decimal.Decimal
	TargetStock decimal.Decimal
}

// EditState задаёт шаг протокола редактирования.
type EditState string

const (
	StateIdle              EditState = "idle"
	StateOptimisticApplied EditState = "optimistic_applied"
	StateBasePersisted     EditState = "base_persisted"
	StateDeltaComputed     EditState = "delta_computed"
	StateDeltaPushed       EditState = "delta_pushed"
	StateReconciled        EditState = "reconciled"
)

// EditProductRes содержит итог редактирования. Warnings содержит сбои удалённых шагов,
// которые не отменяют локальный результат.
type EditProductRes struct {
	Product  *domain.Product
	Target   int64
	Before   int64
	Delta    int64
	State    EditState
	Warnings []string
}

type RefreshRes struct {
	Synced bool
	Count  int
}

// CACHE

// PageKey идентифицирует страницу листинга в кэше.
type PageKey struct {
	BranchID string
	Archived bool
	Search   string
	Limit    int
	Offset   int
}

type CachedPage struct {
	Version  int64
	Products []domain.Product
	Hit      bool
}

// SYNC EVENTS

type SyncEventKind string

const (
	EventPull         SyncEventKind = "pull"
	EventPushBase     SyncEventKind = "push_base"
	EventPushMovement SyncEventKind = "push_movement"
	EventPushDelete   SyncEventKind = "push_delete"
)

type SyncEventStatus string

const (
	EventOK     SyncEventStatus = "ok"
	EventFailed SyncEventStatus = "failed"
)

// SyncEvent — исход одного сетевого вызова.
type SyncEvent struct {
	EventID    string
	Kind       SyncEventKind
	BranchID   string
	Code       string
	Delta      int64
	Status     SyncEventStatus
	Error      string
	OccurredAt time.Time
}

// OUTBOX

// DeliveryStatus задаёт состояние доставки события из журнала в Kafka.
type DeliveryStatus string

const (
	Pending    DeliveryStatus = "pending"
	Processing DeliveryStatus = "processing"
	Processed  DeliveryStatus = "processed"
)

// OutboxEvent — событие синхронизации, сохранённое в журнал до доставки.
type OutboxEvent struct {
	ID    int64
	Event SyncEvent
}

// MAPPERS

func NewListLocalReq(search string, filter domain.StockFilter, limit, offset int) *ListLocalReq {
	return &ListLocalReq{
		Search: search,
		Filter: filter,
		Limit:  limit,
		Offset: offset,
	}
}

func NewProductView(product domain.Product, displayStock int64, pending bool) ProductView {
	return ProductView{
		Product:      product,
		DisplayStock: displayStock,
		Pending:      pending,
	}
}

func NewListLocalRes(products []ProductView, loading bool) *ListLocalRes {
	return &ListLocalRes{
		Products: products,
		Loading:  loading,
	}
}

func NewEditProductReq(productID, name string, price, targetStock decimal.Decimal) *EditProductReq {
	return &EditProductReq{
		ProductID:   productID,
		Name:        name,
		Price:       price,
		TargetStock: targetStock,
	}
}

func NewPageKey(branchID string, archived bool, search string, limit, offset int) PageKey {
	return PageKey{
		BranchID: branchID,
		Archived: archived,
		Search:   search,
		Limit:    limit,
		Offset:   offset,
	}
}

func NewCachedPage(version int64, products []domain.Product, hit bool) *CachedPage {
	return &CachedPage{
		Version:  version,
		Products: products,
		Hit:      hit,
	}
}

// NewSyncEvent фиксирует исход вызова; err == nil означает успех.
func NewSyncEvent(kind SyncEventKind, branchID, code string, delta int64, err error) *SyncEvent {
	ev := &SyncEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		BranchID:   branchID,
		Code:       code,
		Delta:      delta,
		Status:     EventOK,
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		ev.Status = EventFailed
		ev.Error = err.Error()
	}

	return ev
}
