package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
)

// LogEventPublisher пишет события синхронизации только в лог. Используется, когда Kafka не настроена.
type LogEventPublisher struct {
	logger logger.Logger
}

func NewLogEventPublisher(logger logger.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (l *LogEventPublisher) Publish(_ context.Context, event *SyncEvent) error {
	if event.Status == EventFailed {
		l.logger.Warnf("sync event: kind=%s branch=%s code=%s delta=%d error=%s",
			event.Kind, event.BranchID, event.Code, event.Delta, event.Error)
		return nil
	}

	l.logger.Debugf("sync event: kind=%s branch=%s code=%s delta=%d", event.Kind, event.BranchID, event.Code, event.Delta)
	return nil
}

// OutboxEventPublisher сохраняет события в журнал; в Kafka их отправляет воркер доставки.
type OutboxEventPublisher struct {
	outbox SyncEventOutbox
}

func NewOutboxEventPublisher(outbox SyncEventOutbox) *OutboxEventPublisher {
	return &OutboxEventPublisher{outbox: outbox}
}

func (o *OutboxEventPublisher) Publish(ctx context.Context, event *SyncEvent) error {
	const op = "OutboxEventPublisher.Publish"

	if err := o.outbox.Create(ctx, event); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}
