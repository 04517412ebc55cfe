package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger}
}

type ProductResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Stock        int64  `json:"stock"`
	DisplayStock int64  `json:"display_stock"`
	Pending      bool   `json:"pending"`
	BranchID     string `json:"branch_id"`
	IsArchived   bool   `json:"is_archived"`
}

type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Loading  bool              `json:"loading"`
}

type EditProductRequest struct {
	Name  string     `json:"name"`
	Price flexNumber `json:"price" swaggertype:"string" example:"120,50"`
	Stock flexNumber `json:"stock" swaggertype:"string" example:"30"`
}

type EditProductResponse struct {
	Product  *ProductResponse `json:"product"`
	Target   int64            `json:"target"`
	Before   int64            `json:"before"`
	Delta    int64            `json:"delta"`
	State    string           `json:"state"`
	Warnings []string         `json:"warnings,omitempty"`
}

type RefreshResponse struct {
	Synced bool `json:"synced"`
	Count  int  `json:"count"`
}

// listProducts
//
//	@Summary		Листинг каталога филиала
//	@Description	Активные товары с остатком с учётом неподтверждённых правок
//	@Tags			products
//	@Produce		json
//	@Param			search	query		string	false	"Подстрока имени или кода"
//	@Param			filter	query		string	false	"ALL, LOW или ZERO"
//	@Param			limit	query		int		false	"Размер страницы (до 500)"
//	@Param			offset	query		int		false	"Смещение"
//	@Success		200		{object}	ListProductsResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [get]
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, err := parseListQuery(r)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.ListLocal(r.Context(), req)
	if err != nil {
		h.logger.Errorf(err, "list products failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toListResponse(res))
}

// listArchived
//
//	@Summary	Архивные товары филиала
//	@Tags		products
//	@Produce	json
//	@Param		search	query		string	false	"Подстрока имени или кода"
//	@Param		limit	query		int		false	"Размер страницы (до 500)"
//	@Param		offset	query		int		false	"Смещение"
//	@Success	200		{object}	ListProductsResponse
//	@Router		/products/archived [get]
func (h *CatalogHandler) listArchived(w http.ResponseWriter, r *http.Request) {
	req, err := parseListQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.ListArchived(r.Context(), req)
	if err != nil {
		h.logger.Errorf(err, "list archived products failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toListResponse(res))
}

// refresh
//
//	@Summary		Синхронизация с сервером
//	@Description	Забирает снимок каталога. Недоступность сервера не ошибка: synced=false
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Router			/products/refresh [post]
func (h *CatalogHandler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalogUsecase.Refresh(r.Context())
	if err != nil {
		h.logger.Errorf(err, "refresh failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, RefreshResponse{Synced: res.Synced, Count: res.Count})
}

// editProduct
//
//	@Summary		Редактирование товара
//	@Description	Имя, цена и целевой остаток. На сервер уходит дельта остатка
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Локальный id товара"
//	@Param			body	body		EditProductRequest	true	"Новые значения"
//	@Success		200		{object}	EditProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id} [put]
func (h *CatalogHandler) editProduct(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 64 << 10

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var body EditProductRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	price, err := parsePrice(body.Price)
	if err != nil {
		WriteError(w, err)
		return
	}

	stock, err := parseStock(body.Stock)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.catalogUsecase.EditProduct(r.Context(), usecase.NewEditProductReq(chi.URLParam(r, "id"), body.Name, price, stock))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	resp := EditProductResponse{
		Target:   res.Target,
		Before:   res.Before,
		Delta:    res.Delta,
		State:    string(res.State),
		Warnings: res.Warnings,
	}
	if res.Product != nil {
		p := toProductResponse(*res.Product, res.Product.Stock, false)
		resp.Product = &p
	}

	WriteSuccess(w, http.StatusOK, resp)
}

// archiveProduct
//
//	@Summary	Архивирование товара
//	@Tags		products
//	@Param		id	path	string	true	"Локальный id товара"
//	@Success	204
//	@Router		/products/{id}/archive [post]
func (h *CatalogHandler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUsecase.ArchiveProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Errorf(err, "archive failed")
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Удаляет локально сразу; сервер уведомляется в фоне
//	@Tags			products
//	@Param			id	path	string	true	"Локальный id товара"
//	@Success		204
//	@Router			/products/{id} [delete]
func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUsecase.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Errorf(err, "delete failed")
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toListResponse(res *usecase.ListLocalRes) ListProductsResponse {
	products := make([]ProductResponse, 0, len(res.Products))
	for _, v := range res.Products {
		products = append(products, toProductResponse(v.Product, v.DisplayStock, v.Pending))
	}

	return ListProductsResponse{Products: products, Loading: res.Loading}
}

func toProductResponse(p domain.Product, displayStock int64, pending bool) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		Price:        p.Price.StringFixed(domain.PriceScale),
		Stock:        p.Stock,
		DisplayStock: displayStock,
		Pending:      pending,
		BranchID:     p.BranchID,
		IsArchived:   p.IsArchived,
	}
}
