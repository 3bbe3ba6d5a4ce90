package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/dispatcher"
	"github.com/samirnavas/metro-tracker/internal/hub"
)

const (
	maxRequestSize = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
)

// Broadcaster registers subscriber connections.
type Broadcaster interface {
	Subscribe(conn hub.Conn) (*hub.Subscriber, error)
	Unsubscribe(id string)
	Len() int
}

// RequestHandler answers pull requests read from a connection.
type RequestHandler interface {
	Handle(ctx context.Context, r dispatcher.Replier, raw []byte)
}

// StreamHandler upgrades clients to WebSocket subscribers.
type StreamHandler struct {
	hub      Broadcaster
	requests RequestHandler
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(b Broadcaster, requests RequestHandler) *StreamHandler {
	return &StreamHandler{
		hub:      b,
		requests: requests,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream serves /ws. The hub owns all writes; this goroutine only reads.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	sub, err := h.hub.Subscribe(conn)
	if err != nil {
		if !errors.Is(err, hub.ErrStopped) {
			log.WithError(err).Error("Subscribe failed")
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	go keepAlive(conn, sub.Done())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer h.hub.Unsubscribe(sub.ID())

	conn.SetReadLimit(maxRequestSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("subscriber", sub.ID()).Debug("Read failed")
			}
			return
		}
		h.requests.Handle(ctx, sub, msg)
	}
}

func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
