package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a WGS84 coordinate pair as stored and sent to clients.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Station is a stop on a route. Coordinates are optional.
type Station struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Code        string             `bson:"code" json:"code"`
	OrderIndex  int                `bson:"orderIndex" json:"orderIndex"`
	Coordinates *Location          `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"-"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"-"`
}

// StationView is the station representation embedded in route responses.
type StationView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	OrderIndex  int       `json:"orderIndex"`
	Coordinates *Location `json:"coordinates,omitempty"`
	Distance    *float64  `json:"distance,omitempty"` // km, nearby queries only
}

// View converts a station into its client representation.
func (s Station) View() StationView {
	return StationView{
		ID:          s.ID.Hex(),
		Name:        s.Name,
		Code:        s.Code,
		OrderIndex:  s.OrderIndex,
		Coordinates: s.Coordinates,
	}
}
