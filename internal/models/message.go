package models

import "encoding/json"

// MessageType identifies the kind of a WebSocket message.
type MessageType string

const (
	// pushed every tick, also the reply to GET_VEHICLES
	MessageVehicleUpdate MessageType = "VEHICLE_UPDATE"
	MessageRoutes        MessageType = "ROUTES"
	MessageRouteData     MessageType = "ROUTE_DATA"
	MessageError         MessageType = "ERROR"

	RequestGetRoutes    MessageType = "GET_ROUTES"
	RequestGetVehicles  MessageType = "GET_VEHICLES"
	RequestGetRoute     MessageType = "GET_ROUTE"
	RequestGetRouteByID MessageType = "GET_ROUTE_BY_ID"
)

// VehicleUpdate is the per-tick push message.
type VehicleUpdate struct {
	Type      MessageType       `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Data      []VehicleSnapshot `json:"data"`
}

// NewVehicleUpdate wraps a snapshot batch. A nil batch is sent as an empty list.
func NewVehicleUpdate(timestamp int64, data []VehicleSnapshot) VehicleUpdate {
	if data == nil {
		data = []VehicleSnapshot{}
	}
	return VehicleUpdate{Type: MessageVehicleUpdate, Timestamp: timestamp, Data: data}
}

// Request is a pull request sent by a subscriber.
type Request struct {
	Type    MessageType `json:"type"`
	RouteID string      `json:"routeId,omitempty"`
}

// Response answers a pull request.
type Response struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// ErrorMessage reports a failed pull request to a single subscriber.
type ErrorMessage struct {
	Type    MessageType     `json:"type"`
	Message string          `json:"message"`
	Request json.RawMessage `json:"request,omitempty"`
}
