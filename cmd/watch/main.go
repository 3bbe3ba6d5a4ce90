package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/models"
)

// request builds the pull request sent after connecting, or nil when
// WATCH_REQUEST is unset.
func request(kind, routeID string) ([]byte, error) {
	if kind == "" {
		return nil, nil
	}
	return json.Marshal(models.Request{Type: models.MessageType(kind), RouteID: routeID})
}

// describe turns one server message into log fields.
func describe(data []byte) (log.Fields, error) {
	var head struct {
		Type models.MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	fields := log.Fields{"type": head.Type}

	switch head.Type {
	case models.MessageVehicleUpdate:
		var msg models.VehicleUpdate
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		fields["vehicles"] = len(msg.Data)
		for _, v := range msg.Data {
			next := "-"
			if v.NextStation != nil {
				next = v.NextStation.Name
			}
			fields[v.ID] = fmt.Sprintf("%s -> %s %.0f%%", v.CurrentStation.Name, next, v.Progress*100)
		}
	case models.MessageRoutes:
		var msg struct {
			Data []models.RouteView `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		fields["routes"] = len(msg.Data)
	case models.MessageRouteData:
		var msg struct {
			Data models.RouteView `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		fields["route"] = msg.Data.Code
		fields["stations"] = len(msg.Data.Stations)
	case models.MessageError:
		var msg models.ErrorMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		fields["message"] = msg.Message
	}
	return fields, nil
}

// watch prints messages until ctx is done, the server closes the stream or
// limit messages were read. A limit of 0 means no limit.
func watch(ctx context.Context, url string, req []byte, limit int) (int, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if req != nil {
		if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
			return 0, err
		}
	}

	n := 0
	for limit == 0 || n < limit {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return n, nil
			}
			return n, err
		}
		n++
		fields, err := describe(data)
		if err != nil {
			log.WithError(err).Warn("Unreadable message")
			continue
		}
		log.WithFields(fields).Info("Message")
	}
	return n, nil
}

func main() {
	url := os.Getenv("WATCH_URL")
	if url == "" {
		url = "ws://localhost:8080/ws"
	}
	limit := 0
	if v := os.Getenv("WATCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}
	req, err := request(os.Getenv("WATCH_REQUEST"), os.Getenv("WATCH_ROUTE"))
	if err != nil {
		log.WithError(err).Fatal("Invalid request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{"url": url, "limit": limit}).Info("Watching vehicle stream")
	n, err := watch(ctx, url, req, limit)
	if err != nil {
		log.WithError(err).Fatal("Stream failed")
	}
	log.WithField("messages", n).Info("Stream closed")
}
