package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

type kafkaMessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer читает задания из топика и передаёт их процессору.
// Сообщение коммитится после обработки, поэтому при падении задание будет прочитано снова;
// повторная запись результата отклоняется хранилищем задач.
type Consumer struct {
	reader    kafkaMessageReader
	processor Processor
}

func NewConsumer(brokers []string, topic, groupID string, processor Processor) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, processor: processor}
}

func newConsumerWith(r kafkaMessageReader, processor Processor) *Consumer {
	return &Consumer{reader: r, processor: processor}
}

// Run обрабатывает сообщения до отмены контекста.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("worker: read kafka: %w", err)
		}

		c.handle(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("worker: commit offset: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	log := logger.Log.WithFields(logrus.Fields{
		"partition": m.Partition,
		"offset":    m.Offset,
	})

	var req tryon.GenerationRequest
	if err := json.Unmarshal(m.Value, &req); err != nil {
		log.WithError(err).Error("некорректное задание примерки, пропускаем")
		return
	}
	if err := c.processor.Process(ctx, req); err != nil {
		log.WithField("job_id", req.JobID).WithError(err).Error("задание примерки не обработано")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
