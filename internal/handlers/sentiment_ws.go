package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/serenify-journal/internal/logging"
	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/AnshRaj112/serenify-journal/internal/services"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 4 * 1024
	wsPongWait     = 90 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// SentimentWebSocket streams the caller's own sentiment observations.
type SentimentWebSocket struct {
	feed     *services.SentimentFeed
	upgrader websocket.Upgrader
}

// NewSentimentWebSocket accepts upgrades only from allowedOrigins; requests
// without an Origin header (non-browser clients) are accepted.
func NewSentimentWebSocket(feed *services.SentimentFeed, allowedOrigins []string) *SentimentWebSocket {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &SentimentWebSocket{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// ServeHTTP handles GET /ws/sentiments.
func (h *SentimentWebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := middleware.UsernameFromContext(r.Context())
	log := logging.WithUser(username)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.feed.Subscribe(username)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		// Client messages are ignored; reading detects disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case obs, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(obs); err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
