// Package dispatcher answers pull requests sent by a subscriber over its
// connection. Replies go to that connection only and interleave with the
// broadcast stream.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// Replier delivers a message to a single connection.
type Replier interface {
	Reply(msg []byte) bool
}

// Vehicles provides the current vehicle batch.
type Vehicles interface {
	Snapshot() []models.VehicleSnapshot
}

// Directory provides the current route directory.
type Directory interface {
	Current() *directory.Snapshot
	Lookup(ctx context.Context, idOrCode string) (*models.Route, *directory.Snapshot, error)
}

// Dispatcher reads from the engine and the directory; it never mutates either.
type Dispatcher struct {
	vehicles Vehicles
	dir      Directory
	now      func() time.Time
}

// New creates a dispatcher.
func New(vehicles Vehicles, dir Directory) *Dispatcher {
	return &Dispatcher{vehicles: vehicles, dir: dir, now: time.Now}
}

// Handle decodes one request and replies to it. Malformed and unknown
// requests are logged and dropped; the connection stays open.
func (d *Dispatcher) Handle(ctx context.Context, r Replier, raw []byte) {
	if ctx.Err() != nil {
		return
	}
	var req models.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.WithError(err).WithField("request", truncate(raw)).Warn("Ignoring malformed request")
		return
	}

	switch req.Type {
	case models.RequestGetRoutes:
		snap := d.dir.Current()
		if snap == nil {
			d.fail(r, raw, directory.ErrUnavailable.Error())
			return
		}
		d.reply(r, models.Response{Type: models.MessageRoutes, Data: snap.RouteViews()})

	case models.RequestGetVehicles:
		d.reply(r, models.NewVehicleUpdate(d.now().Unix(), d.vehicles.Snapshot()))

	case models.RequestGetRoute, models.RequestGetRouteByID:
		id := strings.TrimSpace(req.RouteID)
		if id == "" {
			d.fail(r, raw, "routeId is required")
			return
		}
		route, snap, err := d.dir.Lookup(ctx, id)
		if errors.Is(err, directory.ErrRouteNotFound) {
			d.fail(r, raw, directory.ErrRouteNotFound.Error())
			return
		}
		if err != nil {
			log.WithError(err).WithField("route", id).Warn("Route lookup failed")
			d.fail(r, raw, directory.ErrUnavailable.Error())
			return
		}
		d.reply(r, models.Response{Type: models.MessageRouteData, Data: snap.RouteView(route)})

	default:
		log.WithField("type", req.Type).Warn("Ignoring unknown request type")
	}
}

func (d *Dispatcher) fail(r Replier, raw []byte, message string) {
	msg := models.ErrorMessage{Type: models.MessageError, Message: message}
	if json.Valid(raw) {
		msg.Request = json.RawMessage(raw)
	}
	d.reply(r, msg)
}

func (d *Dispatcher) reply(r Replier, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("Failed to encode reply")
		return
	}
	if !r.Reply(data) {
		log.Debug("Reply dropped, subscriber gone or busy")
	}
}

func truncate(raw []byte) string {
	const limit = 128
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
