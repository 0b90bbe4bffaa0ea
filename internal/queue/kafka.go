package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

// Publisher writes jobs onto named Kafka topics, one lazily created writer
// per topic.
type Publisher struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		brokers: strings.Split(brokers, ","),
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *Publisher) Publish(ctx context.Context, queue string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer(queue).WriteMessages(ctx, kafka.Message{Value: value})
}

func (p *Publisher) writer(queue string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[queue]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  queue,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	p.writers[queue] = w
	return w
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	p.writers = make(map[string]*kafka.Writer)
	return first
}

// Consumer runs one reader loop per consumed queue. A failing job handler is
// logged and never stops the loop; delivery is at-least-once.
type Consumer struct {
	brokers []string
	group   string
}

func NewConsumer(brokers, group string) *Consumer {
	return &Consumer{brokers: strings.Split(brokers, ","), group: group}
}

func (c *Consumer) Consume(ctx context.Context, queue string, fn func(ctx context.Context, payload []byte) error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    queue,
		GroupID:  c.group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	telemetry.Logger.Info("Started consuming", zap.String("queue", queue))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			telemetry.Logger.Error("Error reading message",
				zap.String("queue", queue), zap.Error(err))
			continue
		}

		if err := fn(ctx, msg.Value); err != nil {
			telemetry.Logger.Error("Job handler failed",
				zap.String("queue", queue), zap.Error(err))
		}
	}
}
