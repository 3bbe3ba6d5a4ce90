// Package gtfsrt exports vehicle snapshots as a GTFS-Realtime
// VehiclePositions feed.
package gtfsrt

import (
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/samirnavas/metro-tracker/internal/models"
)

const version = "2.0"

// Build converts a vehicle batch into a full-dataset feed. Vehicles at
// progress 0 are reported as stopped at their current station, the rest as
// in transit to the next one.
func Build(now time.Time, batch []models.VehicleSnapshot) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(version),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(batch)),
	}
	for _, s := range batch {
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:      proto.String(s.ID),
			Vehicle: position(s),
		})
	}
	return feed
}

func position(s models.VehicleSnapshot) *gtfs.VehiclePosition {
	vp := &gtfs.VehiclePosition{
		Trip: &gtfs.TripDescriptor{
			RouteId: proto.String(s.RouteCode),
		},
		Vehicle: &gtfs.VehicleDescriptor{
			Id:    proto.String(s.ID),
			Label: proto.String(s.ID),
		},
	}
	if s.Timestamp > 0 {
		vp.Timestamp = proto.Uint64(uint64(s.Timestamp))
	}
	if s.Position != nil {
		vp.Position = &gtfs.Position{
			Latitude:  proto.Float32(float32(s.Position.Lat)),
			Longitude: proto.Float32(float32(s.Position.Lng)),
		}
	}

	switch {
	case s.NextStation == nil || s.Progress == 0:
		vp.StopId = proto.String(s.CurrentStation.Code)
		vp.CurrentStatus = gtfs.VehiclePosition_STOPPED_AT.Enum()
	default:
		vp.StopId = proto.String(s.NextStation.Code)
		vp.CurrentStatus = gtfs.VehiclePosition_IN_TRANSIT_TO.Enum()
	}
	return vp
}

// Marshal encodes the feed in protobuf wire format.
func Marshal(feed *gtfs.FeedMessage) ([]byte, error) {
	return proto.Marshal(feed)
}

// MarshalJSON encodes the feed as protobuf JSON, for debugging.
func MarshalJSON(feed *gtfs.FeedMessage) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(feed)
}
