package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	feedBufferSize = 16
	feedMaxBackoff = 30 * time.Second
)

// SentimentFeed relays observations published on the Redis transport to local
// subscribers of the same user. It is a downstream consumer: nothing in the
// entry pipeline waits on it.
type SentimentFeed struct {
	client *redis.Client
	topic  string

	mu   sync.RWMutex
	subs map[string]map[chan models.SentimentObservation]struct{} // username -> subscribers
}

func NewSentimentFeed(client *redis.Client, topic string) *SentimentFeed {
	if topic == "" {
		topic = DefaultSentimentTopic
	}
	return &SentimentFeed{
		client: client,
		topic:  topic,
		subs:   make(map[string]map[chan models.SentimentObservation]struct{}),
	}
}

// Subscribe registers interest in username's observations. The returned
// cancel func must be called to release the channel.
func (f *SentimentFeed) Subscribe(username string) (<-chan models.SentimentObservation, func()) {
	ch := make(chan models.SentimentObservation, feedBufferSize)

	f.mu.Lock()
	if f.subs[username] == nil {
		f.subs[username] = make(map[chan models.SentimentObservation]struct{})
	}
	f.subs[username][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[username], ch)
			if len(f.subs[username]) == 0 {
				delete(f.subs, username)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports how many local subscribers username has.
func (f *SentimentFeed) Subscribers(username string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[username])
}

// Run listens on the topic channel until ctx is cancelled, reconnecting with
// exponential backoff.
func (f *SentimentFeed) Run(ctx context.Context) {
	if f.client == nil {
		slog.Warn("Redis client not initialized; sentiment feed not started")
		return
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		if f.listen(ctx) {
			backoff = time.Second
		}
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > feedMaxBackoff {
			backoff = feedMaxBackoff
		}
	}
}

// listen runs one subscription and reports whether any message arrived.
func (f *SentimentFeed) listen(ctx context.Context) bool {
	pubsub := f.client.Subscribe(ctx, f.topic)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			slog.Error("sentiment feed subscribe failed", "topic", f.topic, "error", err)
		}
		return false
	}
	slog.Info("sentiment feed subscribed", "topic", f.topic)

	received := false
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return received
		case msg, ok := <-ch:
			if !ok {
				slog.Warn("sentiment feed channel closed", "topic", f.topic)
				return received
			}
			received = true
			f.dispatch([]byte(msg.Payload))
		}
	}
}

func (f *SentimentFeed) dispatch(payload []byte) {
	var env SentimentEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		slog.Warn("failed to decode sentiment envelope", "error", err)
		return
	}

	username := env.Observation.Username
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs[username] {
		select {
		case ch <- env.Observation:
		default:
			slog.Warn("sentiment subscriber is slow, dropping observation", "username", username)
		}
	}
}
