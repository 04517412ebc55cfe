package usecase

import (
	"sync"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// OverlayTicket выдаётся редактированию при установке оверлея.
// Снять запись по билету можно, только пока она не перезаписана более новым редактированием.
type OverlayTicket struct {
	ProductID string
	seq       uint64
}

type overlayEntry struct {
	stock int64
	seq   uint64
}

// StockOverlay хранит ещё не подтверждённые остатки (id товара → целевой остаток).
// Живёт столько же, сколько сессия, и никогда не сохраняется.
type StockOverlay struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]overlayEntry
}

func NewStockOverlay() *StockOverlay {
	return &StockOverlay{entries: make(map[string]overlayEntry)}
}

func (o *StockOverlay) Get(id string) (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[id]
	return entry.stock, ok
}

// Set перезаписывает оверлей товара и возвращает билет этой записи.
func (o *StockOverlay) Set(id string, stock int64) OverlayTicket {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	o.entries[id] = overlayEntry{stock: stock, seq: o.seq}
	return OverlayTicket{ProductID: id, seq: o.seq}
}

func (o *StockOverlay) Clear(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.entries, id)
}

func (o *StockOverlay) ClearAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.entries)
}

// Release снимает запись, если она всё ещё принадлежит билету.
// Возвращает false, когда запись уже снята или её заменило более новое редактирование.
func (o *StockOverlay) Release(t OverlayTicket) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.entries[t.ProductID]
	if !ok || entry.seq != t.seq {
		return false
	}
	delete(o.entries, t.ProductID)
	return true
}

// ReadThrough возвращает остаток из оверлея, а если его нет, из товара.
func (o *StockOverlay) ReadThrough(p *domain.Product) int64 {
	if stock, ok := o.Get(p.ID); ok {
		return stock
	}
	return p.Stock
}

func (o *StockOverlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}
