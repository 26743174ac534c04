package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"tcu-monitor/internal/logging"
)

// Publisher exports alert and report events as JSON to a Kafka topic for
// downstream consumers. Entirely optional and best-effort: a publish
// failure is logged and forgotten.
type Publisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

func NewPublisher(broker, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		logger: logger,
	}
}

type envelope struct {
	Kind      string      `json:"kind"`
	EmittedAt time.Time   `json:"emitted_at"`
	Payload   interface{} `json:"payload"`
}

// Publish serializes the event and writes it without blocking the caller.
func (p *Publisher) Publish(kind string, payload interface{}) {
	data, err := json.Marshal(envelope{Kind: kind, EmittedAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.logger.Errorf("Event marshal failed for %s: %v", kind, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(kind),
			Value: data,
		}); err != nil {
			p.logger.Errorf("Event publish failed for %s: %v", kind, err)
		}
	}()
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Errorf("Kafka writer close failed: %v", err)
	}
}
