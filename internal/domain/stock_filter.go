package domain

import (
	"strings"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
)

// LowStockThreshold задаёт порог «мало на складе» для фильтра LOW.
const LowStockThreshold = 20

// StockFilter отбирает товары по отображаемому остатку
type StockFilter string

const (
	FilterAll  StockFilter = "ALL"
	FilterLow  StockFilter = "LOW"
	FilterZero StockFilter = "ZERO"
)

// ParseStockFilter разбирает фильтр из запроса; пустая строка означает ALL.
func ParseStockFilter(s string) (StockFilter, error) {
	switch f := StockFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterLow, FilterZero:
		return f, nil
	default:
		return "", e.ErrInvalidFilter
	}
}

func (f StockFilter) Matches(stock int64) bool {
	switch f {
	case FilterLow:
		return stock > 0 && stock < LowStockThreshold
	case FilterZero:
		return stock == 0
	default:
		return true
	}
}

// IsAll сообщает, что фильтр ничего не отсекает.
func (f StockFilter) IsAll() bool {
	return f != FilterLow && f != FilterZero
}
