package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/geo"
	"github.com/samirnavas/metro-tracker/internal/models"
)

const defaultNearbyLimit = 5

// Directory is the cached route directory.
type Directory interface {
	Current() *directory.Snapshot
	Lookup(ctx context.Context, idOrCode string) (*models.Route, *directory.Snapshot, error)
}

// RouteHandler serves routes and stations from the cached directory.
type RouteHandler struct {
	dir Directory
}

// NewRouteHandler creates a route handler.
func NewRouteHandler(dir Directory) *RouteHandler {
	return &RouteHandler{dir: dir}
}

func (h *RouteHandler) snapshot(w http.ResponseWriter) (*directory.Snapshot, bool) {
	snap := h.dir.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "Route directory unavailable", directory.ErrUnavailable)
		return nil, false
	}
	return snap, true
}

func (h *RouteHandler) route(w http.ResponseWriter, r *http.Request) (*directory.Snapshot, *models.Route, bool) {
	route, snap, err := h.dir.Lookup(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, directory.ErrRouteNotFound):
		writeError(w, http.StatusNotFound, "Route not found", nil)
		return nil, nil, false
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, "Route directory unavailable", err)
		return nil, nil, false
	}
	return snap, route, true
}

// ListRoutes returns active routes with their stations.
func (h *RouteHandler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	if snap, ok := h.snapshot(w); ok {
		writeData(w, snap.RouteViews())
	}
}

// GetRoute returns one route by id or code.
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	if snap, route, ok := h.route(w, r); ok {
		writeData(w, snap.RouteView(route))
	}
}

// RouteGeoJSON returns the route as a FeatureCollection: one LineString for
// the path and one Point per station.
func (h *RouteHandler) RouteGeoJSON(w http.ResponseWriter, r *http.Request) {
	snap, route, ok := h.route(w, r)
	if !ok {
		return
	}
	fc := geojson.NewFeatureCollection()
	var line orb.LineString
	for _, id := range route.Stations {
		st, ok := snap.Station(id)
		if !ok || st.Coordinates == nil {
			continue
		}
		p := geo.Point(*st.Coordinates)
		line = append(line, p)

		f := geojson.NewFeature(p)
		f.Properties["id"] = st.ID.Hex()
		f.Properties["name"] = st.Name
		f.Properties["code"] = st.Code
		f.Properties["orderIndex"] = st.OrderIndex
		fc.Append(f)
	}
	if len(line) > 1 {
		path := geojson.NewFeature(line)
		path.Properties["id"] = route.ID.Hex()
		path.Properties["name"] = route.Name
		path.Properties["code"] = route.Code
		path.Properties["type"] = string(route.Type)
		fc.Features = append([]*geojson.Feature{path}, fc.Features...)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode route", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListStations returns every station ordered by orderIndex.
func (h *RouteHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	stations := snap.Stations()
	sort.SliceStable(stations, func(i, j int) bool { return stations[i].OrderIndex < stations[j].OrderIndex })
	views := make([]models.StationView, 0, len(stations))
	for _, st := range stations {
		views = append(views, st.View())
	}
	writeData(w, views)
}

// NearbyStations returns the stations closest to lat/lng, nearest first,
// with distances in km rounded to one decimal.
func (h *RouteHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "Latitude and longitude are required", nil)
		return
	}
	limit := defaultNearbyLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	origin := models.Location{Lat: lat, Lng: lng}
	views := make([]models.StationView, 0)
	for _, st := range snap.Stations() {
		if st.Coordinates == nil {
			continue
		}
		d := geo.Round(geo.DistanceKm(origin, *st.Coordinates), 1)
		view := st.View()
		view.Distance = &d
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool { return *views[i].Distance < *views[j].Distance })
	if len(views) > limit {
		views = views[:limit]
	}
	writeData(w, views)
}
