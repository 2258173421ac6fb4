// Package stream relays publish sessions over Kafka: commands go out on one
// topic, backend events come back on another and are folded per session.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"hydrogen-admin/internal/events"

	"github.com/segmentio/kafka-go"
)

// Sink delivers commands to the backend.
type Sink interface {
	Send(ctx context.Context, ev events.Event) error
}

// ErrSourceClosed is returned by Read once the source has been closed.
var ErrSourceClosed = errors.New("event source closed")

// Source yields backend events until it fails or ctx ends.
type Source interface {
	Read(ctx context.Context) (events.Event, error)
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: w, topic: topic}
}

// Send writes the event keyed by session so one session stays on one
// partition and keeps its order.
func (p *Producer) Send(ctx context.Context, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{Key: []byte(ev.Session), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", ev.Name, p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader}
}

func (c *Consumer) Read(ctx context.Context) (events.Event, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if errors.Is(err, io.EOF) {
		return events.Event{}, ErrSourceClosed
	}
	if err != nil {
		return events.Event{}, err
	}
	ev, err := events.Decode(msg.Value)
	if err != nil {
		return events.Event{}, &DecodeError{Offset: msg.Offset, Err: err}
	}
	return ev, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeError marks a message that was read but could not be understood.
// It does not break the connection.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("message at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
