package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL. Цена хранится в центах.
type ProductModel struct {
	ID         string     `db:"id"`
	BranchID   string     `db:"branch_id"`
	Code       string     `db:"code"`
	Name       string     `db:"name"`
	Price      int64      `db:"price"`
	Stock      int64      `db:"stock"`
	IsArchived bool       `db:"is_archived"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at"`
}

// SyncEventModel представляет запись журнала sync_events.
type SyncEventModel struct {
	ID         int64     `db:"id"`
	EventID    string    `db:"event_id"`
	Kind       string    `db:"kind"`
	BranchID   string    `db:"branch_id"`
	Code       string    `db:"code"`
	Delta      int64     `db:"delta"`
	Status     string    `db:"status"`
	Error      string    `db:"error"`
	OccurredAt time.Time `db:"occurred_at"`
}
