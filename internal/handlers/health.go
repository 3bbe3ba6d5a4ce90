package handlers

import (
	"net/http"
	"time"
)

// Counter reports a size, such as the number of subscribers.
type Counter interface {
	Len() int
}

// HealthHandler reports liveness and a few vital numbers.
type HealthHandler struct {
	fleet Fleet
	dir   Directory
	subs  Counter
	start time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(fleet Fleet, dir Directory, subs Counter) *HealthHandler {
	return &HealthHandler{fleet: fleet, dir: dir, subs: subs, start: time.Now()}
}

type healthStatus struct {
	Status            string     `json:"status"`
	Uptime            string     `json:"uptime"`
	Vehicles          int        `json:"vehicles"`
	Subscribers       int        `json:"subscribers"`
	Faults            uint64     `json:"faults"`
	DirectoryLoadedAt *time.Time `json:"directoryLoadedAt,omitempty"`
}

// Health returns 200 when the directory is loaded and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:      "ok",
		Uptime:      time.Since(h.start).Round(time.Second).String(),
		Vehicles:    len(h.fleet.Snapshot()),
		Subscribers: h.subs.Len(),
		Faults:      h.fleet.Faults(),
	}
	code := http.StatusOK
	if snap := h.dir.Current(); snap != nil {
		loaded := snap.LoadedAt()
		status.DirectoryLoadedAt = &loaded
	} else {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
