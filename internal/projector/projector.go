// Package projector turns internal vehicle state into the denormalized
// snapshots sent to clients.
package projector

import (
	"sort"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/geo"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// ProgressPlaces is the number of decimals kept in a snapshot's progress.
const ProgressPlaces = 3

// Project builds the snapshot of one vehicle. It reads the directory but
// changes nothing. References the directory cannot resolve are emitted with
// their id only; a missing or degenerate next station is emitted as null.
func Project(v models.Vehicle, dir *directory.Snapshot) models.VehicleSnapshot {
	out := models.VehicleSnapshot{
		ID:             v.VehicleID,
		Type:           v.Type,
		RouteID:        v.RouteID.Hex(),
		CurrentStation: models.StationRef{ID: v.CurrentStationID.Hex()},
		Progress:       geo.Round(v.Progress, ProgressPlaces),
		Timestamp:      v.LastUpdate.Unix(),
	}
	if v.LastUpdate.IsZero() {
		out.Timestamp = 0
	}
	if dir == nil {
		return out
	}

	if route, ok := dir.RouteByObjectID(v.RouteID); ok {
		out.RouteName = route.Name
		out.RouteCode = route.Code
		if out.Type == "" {
			out.Type = route.Type
		}
	}

	current, ok := dir.Station(v.CurrentStationID)
	if ok {
		out.CurrentStation = ref(current)
	}

	if v.NextStationID.IsZero() || v.NextStationID == v.CurrentStationID {
		return withPosition(out, current, nil, v.Progress)
	}
	next, ok := dir.Station(v.NextStationID)
	if !ok {
		return withPosition(out, current, nil, v.Progress)
	}
	nextRef := ref(next)
	out.NextStation = &nextRef
	return withPosition(out, current, next, v.Progress)
}

// ProjectAll projects every active vehicle, ordered by vehicle id.
func ProjectAll(vehicles []models.Vehicle, dir *directory.Snapshot) []models.VehicleSnapshot {
	out := make([]models.VehicleSnapshot, 0, len(vehicles))
	for _, v := range vehicles {
		if !v.Active {
			continue
		}
		out = append(out, Project(v, dir))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func ref(st *models.Station) models.StationRef {
	return models.StationRef{
		ID:         st.ID.Hex(),
		Name:       st.Name,
		Code:       st.Code,
		OrderIndex: st.OrderIndex,
	}
}

func withPosition(out models.VehicleSnapshot, from, to *models.Station, progress float64) models.VehicleSnapshot {
	if from == nil || from.Coordinates == nil {
		return out
	}
	if to == nil || to.Coordinates == nil {
		pos := *from.Coordinates
		out.Position = &pos
		return out
	}
	pos := geo.Interpolate(*from.Coordinates, *to.Coordinates, progress)
	pos.Lat = geo.Round(pos.Lat, 6)
	pos.Lng = geo.Round(pos.Lng, 6)
	out.Position = &pos
	return out
}
