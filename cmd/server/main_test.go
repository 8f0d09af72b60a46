package main

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/models"
	"github.com/AnshRaj112/serenify-journal/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closableTransport counts publishes that land before and after close.
type closableTransport struct {
	mu     sync.Mutex
	closed bool
	before int
	after  int
}

func (c *closableTransport) Publish(context.Context, string, string, models.SentimentObservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.after++
	} else {
		c.before++
	}
	return nil
}

func (c *closableTransport) Transport() string { return "test" }

func (c *closableTransport) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func TestRunGracefulShutdown_DrainsRequestsBeforeClosingTransport(t *testing.T) {
	transport := &closableTransport{}
	events := services.NewAsyncPublisher(transport, nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		events.PublishAsync(r.Context(), "weekly_sentiments", "alice@example.com", models.SentimentObservation{Username: "alice"})
		w.WriteHeader(http.StatusCreated)
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runGracefulShutdown(ctx, srv, events, transport.close)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/journal", "application/json", nil)
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-entered
	cancel()
	// Serve returns as soon as draining starts, while the request is still open.
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	select {
	case <-done:
		t.Fatal("shutdown finished before the in-flight request")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	assert.Equal(t, http.StatusCreated, <-status)
	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 1, transport.before)
	assert.Zero(t, transport.after)
}
