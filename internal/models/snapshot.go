package models

// StationRef is the station summary embedded in a vehicle snapshot.
type StationRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	OrderIndex int    `json:"orderIndex"`
}

// VehicleSnapshot is a point-in-time, denormalized view of one vehicle.
type VehicleSnapshot struct {
	ID             string      `json:"id"`
	Type           RouteType   `json:"type"`
	RouteID        string      `json:"routeId"`
	RouteName      string      `json:"routeName"`
	RouteCode      string      `json:"routeCode"`
	CurrentStation StationRef  `json:"currentStation"`
	NextStation    *StationRef `json:"nextStation"`
	Progress       float64     `json:"progress"`
	Position       *Location   `json:"position,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}
