package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// Source is the read-only route and station store consulted by the directory.
type Source interface {
	ListActiveRoutes(ctx context.Context) ([]models.Route, error)
	GetRouteByID(ctx context.Context, id string) (*models.Route, error)
	ListStations(ctx context.Context) ([]models.Station, error)
}

// MongoSource reads the directory from MongoDB collections.
type MongoSource struct {
	Routes   db.RouteCollection
	Stations db.StationCollection
}

// ListActiveRoutes returns active routes ordered by code.
func (s *MongoSource) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	routes, err := s.Routes.ListActiveRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list routes: %v", ErrUnavailable, err)
	}
	return routes, nil
}

// GetRouteByID finds a route by hex id, falling back to its code.
func (s *MongoSource) GetRouteByID(ctx context.Context, id string) (*models.Route, error) {
	route, err := s.Routes.FindRouteByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		route, err = s.Routes.FindRouteByCode(ctx, id)
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find route: %v", ErrUnavailable, err)
	}
	return route, nil
}

// ListStations returns all stations.
func (s *MongoSource) ListStations(ctx context.Context) ([]models.Station, error) {
	stations, err := s.Stations.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list stations: %v", ErrUnavailable, err)
	}
	return stations, nil
}

// MemorySource serves a fixed dataset.
type MemorySource struct {
	routes   []models.Route
	stations []models.Station
}

// NewMemorySource copies the given routes and stations.
func NewMemorySource(routes []models.Route, stations []models.Station) *MemorySource {
	return &MemorySource{
		routes:   append([]models.Route(nil), routes...),
		stations: append([]models.Station(nil), stations...),
	}
}

// ListActiveRoutes returns active routes ordered by code.
func (s *MemorySource) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	out := make([]models.Route, 0, len(s.routes))
	for _, r := range s.routes {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// GetRouteByID finds a route by hex id or code.
func (s *MemorySource) GetRouteByID(ctx context.Context, id string) (*models.Route, error) {
	for i := range s.routes {
		r := s.routes[i]
		if r.ID.Hex() == id || strings.EqualFold(r.Code, id) {
			return &r, nil
		}
	}
	return nil, ErrRouteNotFound
}

// ListStations returns all stations ordered by orderIndex.
func (s *MemorySource) ListStations(ctx context.Context) ([]models.Station, error) {
	out := append([]models.Station(nil), s.stations...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}
