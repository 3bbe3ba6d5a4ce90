package projector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/models"
)

func testDirectory() (*directory.Snapshot, models.Route, models.Station, models.Station) {
	a := models.Station{ID: primitive.NewObjectID(), Name: "Aluva", Code: "ALV", OrderIndex: 0,
		Coordinates: &models.Location{Lat: 10.1099, Lng: 76.3495}}
	b := models.Station{ID: primitive.NewObjectID(), Name: "Pulinchodu", Code: "PLC", OrderIndex: 1,
		Coordinates: &models.Location{Lat: 10.0951, Lng: 76.3466}}
	r := models.Route{ID: primitive.NewObjectID(), Name: "Kochi Metro Line 1", Code: "L1",
		Type: models.RouteTypeMetro, Active: true, Stations: []primitive.ObjectID{a.ID, b.ID}}
	return directory.NewSnapshot([]models.Route{r}, []models.Station{a, b}, time.Now()), r, a, b
}

func TestProject(t *testing.T) {
	dir, r, a, b := testDirectory()
	v := models.Vehicle{
		VehicleID: "METRO-101", Type: models.RouteTypeMetro, RouteID: r.ID,
		CurrentStationID: a.ID, NextStationID: b.ID, Progress: 0.123456,
		LastUpdate: time.Unix(1700000000, 500), Active: true,
	}

	snap := Project(v, dir)
	assert.Equal(t, "METRO-101", snap.ID)
	assert.Equal(t, r.ID.Hex(), snap.RouteID)
	assert.Equal(t, "Kochi Metro Line 1", snap.RouteName)
	assert.Equal(t, "L1", snap.RouteCode)
	assert.Equal(t, models.StationRef{ID: a.ID.Hex(), Name: "Aluva", Code: "ALV", OrderIndex: 0}, snap.CurrentStation)
	require.NotNil(t, snap.NextStation)
	assert.Equal(t, "PLC", snap.NextStation.Code)
	assert.Equal(t, 0.123, snap.Progress)
	assert.Equal(t, int64(1700000000), snap.Timestamp)

	require.NotNil(t, snap.Position)
	assert.Less(t, snap.Position.Lat, a.Coordinates.Lat)
	assert.Greater(t, snap.Position.Lat, b.Coordinates.Lat)

	assert.Equal(t, snap, Project(v, dir), "projection must be repeatable")
}

func TestProject_NullNextStation(t *testing.T) {
	dir, r, a, _ := testDirectory()

	cases := map[string]primitive.ObjectID{
		"missing":    primitive.NilObjectID,
		"unresolved": primitive.NewObjectID(),
		"degenerate": a.ID,
	}
	for name, next := range cases {
		t.Run(name, func(t *testing.T) {
			v := models.Vehicle{VehicleID: "BUS-1", RouteID: r.ID, CurrentStationID: a.ID, NextStationID: next, Active: true}
			snap := Project(v, dir)
			assert.Nil(t, snap.NextStation)
			require.NotNil(t, snap.Position)
			assert.Equal(t, *a.Coordinates, *snap.Position)
		})
	}
}

func TestProject_UnknownReferences(t *testing.T) {
	dir, _, _, _ := testDirectory()
	v := models.Vehicle{VehicleID: "X", RouteID: primitive.NewObjectID(), CurrentStationID: primitive.NewObjectID()}

	snap := Project(v, dir)
	assert.Empty(t, snap.RouteName)
	assert.Equal(t, v.CurrentStationID.Hex(), snap.CurrentStation.ID)
	assert.Nil(t, snap.Position)
	assert.Equal(t, int64(0), snap.Timestamp)

	assert.NotPanics(t, func() { Project(v, nil) })
}

func TestProjectAll_ActiveOnlySorted(t *testing.T) {
	dir, r, a, b := testDirectory()
	vehicles := []models.Vehicle{
		{VehicleID: "METRO-102", RouteID: r.ID, CurrentStationID: b.ID, NextStationID: a.ID, Active: true},
		{VehicleID: "METRO-100", RouteID: r.ID, CurrentStationID: a.ID, NextStationID: b.ID, Active: false},
		{VehicleID: "METRO-101", RouteID: r.ID, CurrentStationID: a.ID, NextStationID: b.ID, Active: true},
	}

	batch := ProjectAll(vehicles, dir)
	require.Len(t, batch, 2)
	assert.Equal(t, "METRO-101", batch[0].ID)
	assert.Equal(t, "METRO-102", batch[1].ID)
	assert.Equal(t, models.RouteTypeMetro, batch[0].Type)

	assert.NotNil(t, ProjectAll(nil, dir))
}
