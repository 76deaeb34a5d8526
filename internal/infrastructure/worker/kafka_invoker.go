package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

// kafkaMessageWriter: часть kafka.Writer, нужная инвокеру. Подменяется в тестах.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaInvoker публикует задание в топик, его забирает cmd/tryon-worker.
type KafkaInvoker struct {
	writer kafkaMessageWriter
	closer func() error
}

func NewKafkaInvoker(brokers []string, topic string) *KafkaInvoker {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaInvoker{writer: w, closer: w.Close}
}

func newKafkaInvokerWith(w kafkaMessageWriter) *KafkaInvoker {
	return &KafkaInvoker{writer: w}
}

// Invoke пишет задание синхронно. Ключ: id заказа, чтобы задания одного заказа шли по порядку.
func (k *KafkaInvoker) Invoke(ctx context.Context, req tryon.GenerationRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("worker: marshal request: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(req.OrderID.String()), Value: b}); err != nil {
		return fmt.Errorf("worker: publish request: %w", err)
	}
	return nil
}

func (k *KafkaInvoker) Close() error {
	if k.closer == nil {
		return nil
	}
	return k.closer()
}
