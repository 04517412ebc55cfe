package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/catalog-sync/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/tr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OutboxChannel: канал LISTEN/NOTIFY, в который пишется при появлении нового события.
const OutboxChannel = "sync_events_pending"

// SyncEventRepo — журнал событий синхронизации в PostgreSQL.
type SyncEventRepo struct {
	pool *pgxpool.Pool
	conv converter.SyncEventConverter
}

func NewSyncEventRepo(pool *pgxpool.Pool, conv converter.SyncEventConverter) *SyncEventRepo {
	return &SyncEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create сохраняет событие и будит воркер доставки. Повторная запись того же event_id игнорируется.
func (s *SyncEventRepo) Create(ctx context.Context, event *usecase.SyncEvent) error {
	model := s.conv.ToModel(event)
	query := `
		INSERT INTO sync_events (
			event_id,
			kind,
			branch_id,
			code,
			delta,
			status,
			error,
			occurred_at,
			delivery
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	q := s.q(ctx)
	if _, err := q.Exec(ctx, query,
		model.EventID,
		model.Kind,
		model.BranchID,
		model.Code,
		model.Delta,
		model.Status,
		model.Error,
		model.OccurredAt,
		usecase.Pending,
	); err != nil {
		if postgresDuplicate(err) {
			return nil
		}
		return fmt.Errorf("%s: failed to insert sync event: %w", whereami.WhereAmI(), err)
	}

	if _, err := q.Exec(ctx, "NOTIFY "+OutboxChannel); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetAndMarkAsProcessing забирает пачку ожидающих событий. События, зависшие в processing дольше минуты
// (воркер упал посреди доставки), забираются повторно.
func (s *SyncEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE sync_events
		SET delivery = $1, processing_started_at = NOW()
		WHERE id IN (
			SELECT id FROM sync_events
			WHERE delivery = $2
			   OR (delivery = $1 AND processing_started_at < NOW() - INTERVAL '1 minute')
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, kind, branch_id, code, delta, status, error, occurred_at
	`

	rows, err := tx.Query(ctx, query, usecase.Processing, usecase.Pending, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var events []*usecase.OutboxEvent
	for rows.Next() {
		var model converter.SyncEventModel
		if err := rows.Scan(
			&model.ID,
			&model.EventID,
			&model.Kind,
			&model.BranchID,
			&model.Code,
			&model.Delta,
			&model.Status,
			&model.Error,
			&model.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("%s: failed to scan event: %w", whereami.WhereAmI(), err)
		}

		events = append(events, s.conv.ToOutboxEvent(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iterator error: %w", whereami.WhereAmI(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return events, nil
}

func (s *SyncEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE sync_events
		SET delivery = $1, processed_at = NOW()
		WHERE id = $2 AND delivery = $3
	`

	// 0 строк: событие уже доставил другой воркер
	if _, err := s.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// ReturnToPending возвращает событие в очередь после неудачной доставки.
func (s *SyncEventRepo) ReturnToPending(ctx context.Context, id int64) error {
	query := `
		UPDATE sync_events
		SET delivery = $1, processing_started_at = NULL
		WHERE id = $2 AND delivery = $3
	`

	if _, err := s.pool.Exec(ctx, query, usecase.Pending, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to return event %d to pending: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

func (s *SyncEventRepo) q(ctx context.Context) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return s.pool
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
