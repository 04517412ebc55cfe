package domain

import "time"

// MovementReason задаёт причину движения остатка, уходит на сервер вместе с дельтой.
type MovementReason string

const (
	ReasonEdit MovementReason = "edit"
)

// StockMovement — неизменяемый факт изменения остатка на дельту.
// Сервер суммирует дельты от всех устройств, поэтому абсолютное значение сюда не попадает.
type StockMovement struct {
	BranchID  string
	Code      string
	Delta     int64
	Reason    MovementReason
	EmittedAt time.Time
}

func NewStockMovement(branchID, code string, delta int64, reason MovementReason) *StockMovement {
	return &StockMovement{
		BranchID:  branchID,
		Code:      code,
		Delta:     delta,
		Reason:    reason,
		EmittedAt: time.Now().UTC(),
	}
}

// ApplyMovements применяет дельты к начальному остатку. Порядок не важен.
func ApplyMovements(stock int64, movements []StockMovement) int64 {
	for _, m := range movements {
		stock += m.Delta
	}
	return stock
}
