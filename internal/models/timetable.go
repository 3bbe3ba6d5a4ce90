package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// DayType selects which timetable applies.
type DayType string

const (
	DayTypeWeekday DayType = "Weekday"
	DayTypeWeekend DayType = "Weekend"
	DayTypeHoliday DayType = "Holiday"
)

// IsValidDayType checks if a day type is known
func IsValidDayType(d DayType) bool {
	switch d {
	case DayTypeWeekday, DayTypeWeekend, DayTypeHoliday:
		return true
	default:
		return false
	}
}

// TimeRange is a service window, e.g. "6:00 AM" to "9:00 AM".
type TimeRange struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// Frequency is the headway within a service window.
type Frequency struct {
	Minutes int    `bson:"minutes" json:"minutes"`
	Type    string `bson:"type" json:"type"` // "Peak", "Off-Peak", "Night"
}

// ScheduleEntry is one service window of a timetable.
type ScheduleEntry struct {
	TimeRange TimeRange `bson:"timeRange" json:"timeRange"`
	Frequency Frequency `bson:"frequency" json:"frequency"`
}

// Timetable holds the service frequency of a route for one day type.
type Timetable struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RouteID   primitive.ObjectID `bson:"route" json:"routeId"`
	DayType   DayType            `bson:"dayType" json:"dayType"`
	Schedule  []ScheduleEntry    `bson:"schedule" json:"schedule"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"-"`
	UpdatedAt time.Time          `bson:"updated_at" json:"-"`
}

// TimetableView is a timetable denormalized with its route summary.
type TimetableView struct {
	ID        string          `json:"id,omitempty"`
	RouteID   string          `json:"routeId"`
	RouteName string          `json:"routeName"`
	RouteCode string          `json:"routeCode"`
	RouteType RouteType       `json:"routeType"`
	DayType   DayType         `json:"dayType"`
	Schedule  []ScheduleEntry `json:"schedule"`
}
