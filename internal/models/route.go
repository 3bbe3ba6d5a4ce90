package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RouteType distinguishes metro lines from feeder bus routes.
type RouteType string

const (
	RouteTypeMetro RouteType = "METRO"
	RouteTypeBus   RouteType = "BUS"
)

// IsValidRouteType checks if a route type is known
func IsValidRouteType(t RouteType) bool {
	switch t {
	case RouteTypeMetro, RouteTypeBus:
		return true
	default:
		return false
	}
}

// Route is an ordered, cyclic sequence of stations. After the last station
// vehicles continue to the first one.
type Route struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Code        string               `bson:"code" json:"code"`
	Type        RouteType            `bson:"type" json:"type"`
	Stations    []primitive.ObjectID `bson:"stations" json:"stations"`
	Active      bool                 `bson:"active" json:"active"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// StationIndex returns the position of a station within the route, or -1.
func (r *Route) StationIndex(id primitive.ObjectID) int {
	for i, s := range r.Stations {
		if s == id {
			return i
		}
	}
	return -1
}

// RouteView is the denormalized route representation served to clients.
type RouteView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Code        string        `json:"code"`
	Type        RouteType     `json:"type"`
	Description string        `json:"description,omitempty"`
	Stations    []StationView `json:"stations"`
}
