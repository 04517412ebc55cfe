package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// Producer публикует события синхронизации в Kafka. Запись синхронная: Publish возвращает ошибку,
// если брокер не подтвердил сообщение, и воркер журнала оставляет событие в очереди.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

// syncEventPayload задаёт JSON-представление события синхронизации в топике.
type syncEventPayload struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	BranchID   string    `json:"branch_id"`
	Code       string    `json:"code,omitempty"`
	Delta      int64     `json:"delta,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    outboxBatchSize,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		MaxAttempts:  3,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// Publish записывает событие. Ключ состоит из филиала и кода, чтобы события одного товара шли в одну партицию.
func (p *Producer) Publish(ctx context.Context, event *usecase.SyncEvent) error {
	value, err := GetPayloadBytes(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   MessageKey(event),
		Value: value,
	})
}

// EnsureTopic создаёт топик событий, если его ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		p.logger.Infof("Kafka topic %s created", p.cfg.Topic)
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

// Close дописывает буфер и закрывает writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func GetPayloadBytes(event *usecase.SyncEvent) ([]byte, error) {
	return json.Marshal(syncEventPayload{
		EventID:    event.EventID,
		Kind:       string(event.Kind),
		BranchID:   event.BranchID,
		Code:       event.Code,
		Delta:      event.Delta,
		Status:     string(event.Status),
		Error:      event.Error,
		OccurredAt: event.OccurredAt,
	})
}

func MessageKey(event *usecase.SyncEvent) []byte {
	return []byte(event.BranchID + ":" + event.Code)
}
