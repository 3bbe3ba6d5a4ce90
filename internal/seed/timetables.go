package seed

import (
	"context"

	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// Timetables serves the dataset's timetables when running without a database.
type Timetables struct {
	items []models.Timetable
}

// NewTimetables wraps a fixed timetable list.
func NewTimetables(items []models.Timetable) *Timetables {
	return &Timetables{items: items}
}

// FindTimetable returns the active timetable of a route for a day type.
func (t *Timetables) FindTimetable(_ context.Context, routeID string, dayType models.DayType) (*models.Timetable, error) {
	for i := range t.items {
		tt := t.items[i]
		if tt.Active && tt.RouteID.Hex() == routeID && tt.DayType == dayType {
			return &tt, nil
		}
	}
	return nil, db.ErrNotFound
}

// FindTimetables returns active timetables, optionally filtered by day type.
func (t *Timetables) FindTimetables(_ context.Context, dayType models.DayType) ([]models.Timetable, error) {
	var out []models.Timetable
	for _, tt := range t.items {
		if tt.Active && (dayType == "" || tt.DayType == dayType) {
			out = append(out, tt)
		}
	}
	return out, nil
}
