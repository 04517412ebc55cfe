package remote

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// productDTO описывает товар в формате сервера. Числа приходят как JSON-числа или строки с числом.
type productDTO struct {
	ID       string       `json:"id,omitempty"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Price    json.Number  `json:"price"`
	Stock    *json.Number `json:"stock,omitempty"`
	BranchID string       `json:"branch_id"`
	Archived bool         `json:"archived,omitempty"`
}

type stockMoveDTO struct {
	BranchID    string    `json:"branchId"`
	ProductCode string    `json:"productCode"`
	Delta       int64     `json:"delta"`
	Reason      string    `json:"reason"`
	EmittedAt   time.Time `json:"emittedAt"`
}

// syncBody задаёт тело POST /sync. Документы (remitos) этим клиентом не отправляются, но поля обязательны.
type syncBody struct {
	BranchID    string         `json:"branchId"`
	Products    []productDTO   `json:"products"`
	StockMoves  []stockMoveDTO `json:"stockMoves"`
	Remitos     []struct{}     `json:"remitos"`
	RemitoItems []struct{}     `json:"remitoItems"`
}

func newSyncBody(branchID string) *syncBody {
	return &syncBody{
		BranchID:    branchID,
		Products:    []productDTO{},
		StockMoves:  []stockMoveDTO{},
		Remitos:     []struct{}{},
		RemitoItems: []struct{}{},
	}
}

// toBaseFieldsDTO отдаёт только код, имя, цену и филиал: абсолютный остаток на сервер не уходит.
func toBaseFieldsDTO(p *domain.Product) productDTO {
	return productDTO{
		Code:     p.Code,
		Name:     p.Name,
		Price:    json.Number(p.Price.StringFixed(domain.PriceScale)),
		BranchID: p.BranchID,
	}
}

func toStockMoveDTO(m *domain.StockMovement) stockMoveDTO {
	return stockMoveDTO{
		BranchID:    m.BranchID,
		ProductCode: m.Code,
		Delta:       m.Delta,
		Reason:      string(m.Reason),
		EmittedAt:   m.EmittedAt,
	}
}

// toDomain разбирает товар из снимка сервера. Пустая цена читается как 0, остаток приводится к max(0, floor(x)).
func (d *productDTO) toDomain(branchID string) (domain.Product, error) {
	price := decimal.Zero
	if d.Price != "" {
		p, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return domain.Product{}, err
		}
		price = p
	}

	var stock int64
	if d.Stock != nil && *d.Stock != "" {
		s, err := decimal.NewFromString(d.Stock.String())
		if err != nil {
			return domain.Product{}, err
		}
		stock = domain.ClampStock(s)
	}

	if d.BranchID != "" {
		branchID = d.BranchID
	}

	return domain.Product{
		Code:       d.Code,
		Name:       d.Name,
		Price:      price,
		Stock:      stock,
		BranchID:   branchID,
		IsArchived: d.Archived,
	}, nil
}
