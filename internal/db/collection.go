package db

import (
	"context"

	"github.com/samirnavas/metro-tracker/internal/models"
)

// RouteCollection defines the interface for route data operations.
type RouteCollection interface {
	ListActiveRoutes(ctx context.Context) ([]models.Route, error)
	FindRouteByID(ctx context.Context, id string) (*models.Route, error)
	FindRouteByCode(ctx context.Context, code string) (*models.Route, error)
}

// StationCollection defines the interface for station data operations.
type StationCollection interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

// VehicleCollection defines the interface for vehicle state operations.
type VehicleCollection interface {
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	SaveVehicleStates(ctx context.Context, vehicles []models.Vehicle) error
}

// TimetableCollection defines the interface for timetable lookups.
type TimetableCollection interface {
	FindTimetable(ctx context.Context, routeID string, dayType models.DayType) (*models.Timetable, error)
	FindTimetables(ctx context.Context, dayType models.DayType) ([]models.Timetable, error)
}
