package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/engine"
	"github.com/samirnavas/metro-tracker/internal/gtfsrt"
	"github.com/samirnavas/metro-tracker/internal/middleware"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// Fleet is the engine surface used by the HTTP API.
type Fleet interface {
	Snapshot() []models.VehicleSnapshot
	Vehicles() []models.Vehicle
	Retire(id string) error
	Reinstate(id string) error
	Faults() uint64
}

// Refresher reloads the route directory.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// VehicleHandler serves vehicle state and operator actions.
type VehicleHandler struct {
	fleet Fleet
	now   func() time.Time
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(fleet Fleet) *VehicleHandler {
	return &VehicleHandler{fleet: fleet, now: time.Now}
}

// ListVehicles returns the current batch of active vehicles.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	writeData(w, models.NewVehicleUpdate(h.now().Unix(), h.fleet.Snapshot()).Data)
}

// GetVehicle returns one active vehicle.
func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, v := range h.fleet.Snapshot() {
		if v.ID == id {
			writeData(w, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Vehicle not found", nil)
}

// ListFleet returns every vehicle with its stored state, retired ones
// included.
func (h *VehicleHandler) ListFleet(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.fleet.Vehicles())
}

// Retire takes a vehicle out of service.
func (h *VehicleHandler) Retire(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.fleet.Retire, "retired")
}

// Reinstate puts a retired vehicle back into service.
func (h *VehicleHandler) Reinstate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.fleet.Reinstate, "reinstated")
}

func (h *VehicleHandler) setActive(w http.ResponseWriter, r *http.Request, apply func(string) error, verb string) {
	id := mux.Vars(r)["id"]
	if err := apply(id); err != nil {
		if errors.Is(err, engine.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "Vehicle not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update vehicle", err)
		return
	}
	fields := log.Fields{"vehicle": id}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		fields["by"] = claims.Username
	}
	log.WithFields(fields).Info("Vehicle " + verb)
	writeData(w, map[string]string{"id": id, "status": verb})
}

// VehiclePositions exports the current batch as GTFS-Realtime. Protobuf by
// default, protobuf JSON with ?format=json.
func (h *VehicleHandler) VehiclePositions(w http.ResponseWriter, r *http.Request) {
	feed := gtfsrt.Build(h.now(), h.fleet.Snapshot())
	if r.URL.Query().Get("format") == "json" {
		data, err := gtfsrt.MarshalJSON(feed)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode feed", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}
	data, err := gtfsrt.Marshal(feed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode feed", err)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(data)
}

// AdminHandler serves directory maintenance.
type AdminHandler struct {
	dir Refresher
	cur Directory
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(dir Refresher, cur Directory) *AdminHandler {
	return &AdminHandler{dir: dir, cur: cur}
}

// RefreshDirectory reloads routes and stations from the store.
func (h *AdminHandler) RefreshDirectory(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to refresh route directory", err)
		return
	}
	snap := h.cur.Current()
	writeData(w, map[string]interface{}{
		"routes":   len(snap.Routes()),
		"stations": len(snap.Stations()),
		"loadedAt": snap.LoadedAt(),
	})
}
