package directory

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/models"
)

// Snapshot is an immutable, indexed copy of the route directory. It is never
// mutated after construction, so readers need no locking.
type Snapshot struct {
	loadedAt time.Time
	routes   []models.Route
	byID     map[string]*models.Route
	byCode   map[string]*models.Route
	stations []models.Station
	station  map[primitive.ObjectID]*models.Station
}

// NewSnapshot indexes routes and stations.
func NewSnapshot(routes []models.Route, stations []models.Station, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		loadedAt: loadedAt,
		routes:   append([]models.Route(nil), routes...),
		byID:     make(map[string]*models.Route, len(routes)),
		byCode:   make(map[string]*models.Route, len(routes)),
		stations: append([]models.Station(nil), stations...),
		station:  make(map[primitive.ObjectID]*models.Station, len(stations)),
	}
	for i := range s.routes {
		r := &s.routes[i]
		s.byID[r.ID.Hex()] = r
		s.byCode[strings.ToUpper(r.Code)] = r
	}
	for i := range s.stations {
		st := &s.stations[i]
		s.station[st.ID] = st
	}
	return s
}

// LoadedAt reports when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Routes returns the active routes ordered as loaded.
func (s *Snapshot) Routes() []models.Route {
	return append([]models.Route(nil), s.routes...)
}

// Stations returns every known station.
func (s *Snapshot) Stations() []models.Station {
	return append([]models.Station(nil), s.stations...)
}

// Route looks a route up by hex id or, failing that, by code.
func (s *Snapshot) Route(idOrCode string) (*models.Route, bool) {
	if r, ok := s.byID[idOrCode]; ok {
		return r, true
	}
	r, ok := s.byCode[strings.ToUpper(strings.TrimSpace(idOrCode))]
	return r, ok
}

// RouteByObjectID looks a route up by its id.
func (s *Snapshot) RouteByObjectID(id primitive.ObjectID) (*models.Route, bool) {
	r, ok := s.byID[id.Hex()]
	return r, ok
}

// Station looks a station up by id.
func (s *Snapshot) Station(id primitive.ObjectID) (*models.Station, bool) {
	st, ok := s.station[id]
	return st, ok
}

// RouteView resolves a route and its stations into the client representation.
// Station references that cannot be resolved are skipped.
func (s *Snapshot) RouteView(r *models.Route) models.RouteView {
	view := models.RouteView{
		ID:          r.ID.Hex(),
		Name:        r.Name,
		Code:        r.Code,
		Type:        r.Type,
		Description: r.Description,
		Stations:    make([]models.StationView, 0, len(r.Stations)),
	}
	for _, id := range r.Stations {
		if st, ok := s.station[id]; ok {
			view.Stations = append(view.Stations, st.View())
		}
	}
	return view
}

// RouteViews resolves every route.
func (s *Snapshot) RouteViews() []models.RouteView {
	views := make([]models.RouteView, 0, len(s.routes))
	for i := range s.routes {
		views = append(views, s.RouteView(&s.routes[i]))
	}
	return views
}
