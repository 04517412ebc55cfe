package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogPageRedisModel — страница листинга в кэше.
type CatalogPageRedisModel struct {
	Products []ProductRedisModel `json:"products"`
}

type ProductRedisModel struct {
	ID         string          `json:"id"`
	BranchID   string          `json:"branch_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int64           `json:"stock"`
	IsArchived bool            `json:"is_archived"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}
