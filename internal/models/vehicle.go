package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Vehicle is the mutable state of a train or bus running on a route.
// NextStationID is always the station that follows CurrentStationID on the
// route, wrapping to the first station after the last one.
type Vehicle struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	VehicleID        string             `bson:"vehicleId" json:"id"`
	Type             RouteType          `bson:"type" json:"type"`
	RouteID          primitive.ObjectID `bson:"route" json:"routeId"`
	CurrentStationID primitive.ObjectID `bson:"currentStation" json:"currentStationId"`
	NextStationID    primitive.ObjectID `bson:"nextStation,omitempty" json:"nextStationId,omitempty"`
	Progress         float64            `bson:"progressToNextStation" json:"progress"` // fraction of the current leg, 0..1
	LastUpdate       time.Time          `bson:"lastUpdate" json:"lastUpdate"`
	Active           bool               `bson:"active" json:"active"`
}
