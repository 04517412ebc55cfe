package domain

import (
	"math"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/shopspring/decimal"
)

// PriceScale — количество знаков после запятой в цене. В БД цена хранится в центах.
const PriceScale = 2

// Product описывает товар каталога филиала
type Product struct {
	ID         string // локальный идентификатор, стабильный между синхронизациями
	Code       string // бизнес-код, уникален в пределах филиала и не меняется
	Name       string
	Price      decimal.Decimal
	Stock      int64
	BranchID   string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

func NewProduct(branchID, code, name string, price decimal.Decimal, stock int64) *Product {
	return &Product{
		Code:     code,
		Name:     name,
		Price:    price,
		Stock:    ClampStockInt(stock),
		BranchID: branchID,
	}
}

var maxStock = decimal.NewFromInt(math.MaxInt64)

// ClampStock приводит запрошенный остаток к max(0, floor(v)). Значения за пределами int64 упираются в MaxInt64.
func ClampStock(v decimal.Decimal) int64 {
	if v.IsNegative() {
		return 0
	}
	if v.GreaterThan(maxStock) {
		return math.MaxInt64
	}
	return v.Floor().IntPart()
}

// ClampStockInt не даёт остатку уйти в минус.
func ClampStockInt(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeBaseFields проверяет и нормализует имя и цену перед записью.
func NormalizeBaseFields(name string, price decimal.Decimal) (string, decimal.Decimal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", decimal.Zero, e.ErrProductNameRequired
	}

	if price.IsNegative() {
		return "", decimal.Zero, e.ErrInvalidPrice
	}

	// цена хранится в центах
	return name, price.Round(PriceScale), nil
}

// PriceToCents переводит цену в центы для хранения.
func PriceToCents(price decimal.Decimal) int64 {
	return price.Shift(PriceScale).Round(0).IntPart()
}

// PriceFromCents восстанавливает цену из центов.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -PriceScale)
}
