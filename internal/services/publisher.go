package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/metrics"
	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// DefaultPublishTimeout bounds a single background publish.
const DefaultPublishTimeout = 5 * time.Second

// EventPublisher emits a sentiment observation to a named topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic, partitionKey string, obs models.SentimentObservation) error
	Transport() string
}

// NoopPublisher is used when no analytics transport is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, topic, partitionKey string, _ models.SentimentObservation) error {
	slog.Warn("analytics transport not configured, skipping sentiment observation",
		"topic", topic, "partition_key", partitionKey)
	return nil
}

func (NoopPublisher) Transport() string { return "none" }

// SentimentEnvelope is the Redis Pub/Sub payload. Pub/Sub has no message key,
// so the partition key rides along with the observation.
type SentimentEnvelope struct {
	Key         string                      `json:"key"`
	Observation models.SentimentObservation `json:"observation"`
}

// RedisPublisher publishes observations on a Redis channel named after the topic.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic, partitionKey string, obs models.SentimentObservation) error {
	data, err := json.Marshal(SentimentEnvelope{Key: partitionKey, Observation: obs})
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", topic, err)
	}
	return nil
}

func (p *RedisPublisher) Transport() string { return "redis" }

// messageWriter is the slice of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes observations to Kafka, keyed by partition key so all
// observations for one user land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1, // Retries belong to the caller's transport policy, not here
		WriteTimeout: DefaultPublishTimeout,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, partitionKey string, obs models.SentimentObservation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	msg := kafka.Message{Topic: topic, Key: []byte(partitionKey), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Transport() string { return "kafka" }

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// AsyncPublisher runs publishes in the background. Errors and panics are
// logged and counted, never returned, never retried.
type AsyncPublisher struct {
	next    EventPublisher
	clock   clockwork.Clock
	timeout time.Duration
	metrics *metrics.PublisherMetrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(next EventPublisher, clock clockwork.Clock, m *metrics.PublisherMetrics) *AsyncPublisher {
	if next == nil {
		next = NoopPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AsyncPublisher{next: next, clock: clock, timeout: DefaultPublishTimeout, metrics: m}
}

// PublishAsync schedules obs for emission and returns immediately. ctx values
// are kept but its cancellation is not, so a finished request does not abort
// the publish.
func (a *AsyncPublisher) PublishAsync(ctx context.Context, topic, partitionKey string, obs models.SentimentObservation) {
	obs = obs.Stamped(a.clock.Now())
	transport := a.next.Transport()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.fail(transport)
		slog.Warn("sentiment publish dropped, publisher closed", "transport", transport, "topic", topic)
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.fail(transport)
				slog.Error("sentiment publish panicked", "transport", transport, "panic", r)
			}
		}()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		if a.metrics != nil {
			a.metrics.Attempts.WithLabelValues(transport).Inc()
		}
		if err := a.next.Publish(pubCtx, topic, partitionKey, obs); err != nil {
			a.fail(transport)
			slog.Error("sentiment publish failed", "transport", transport, "topic", topic, "error", err)
			return
		}
		slog.Debug("sentiment observation published", "transport", transport, "topic", topic)
	}()
}

// Wait blocks until in-flight publishes finish. Publishes may still be
// scheduled afterwards; use Close on shutdown.
func (a *AsyncPublisher) Wait() {
	a.wg.Wait()
}

// Close stops accepting publishes and waits for in-flight ones. Later calls
// to PublishAsync are dropped and counted as failures. Safe to call twice.
func (a *AsyncPublisher) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *AsyncPublisher) fail(transport string) {
	if a.metrics != nil {
		a.metrics.Failures.WithLabelValues(transport).Inc()
	}
}
