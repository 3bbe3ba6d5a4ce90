package engine

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/models"
)

type fixture struct {
	dir      *directory.Directory
	route    models.Route
	single   models.Route
	stations map[string]models.Station
}

func station(code string, order int, lat, lng float64) models.Station {
	return models.Station{
		ID:          primitive.NewObjectID(),
		Name:        "Station " + code,
		Code:        code,
		OrderIndex:  order,
		Coordinates: &models.Location{Lat: lat, Lng: lng},
	}
}

func newFixture() *fixture {
	a := station("A", 0, 10.000, 76.000)
	b := station("B", 1, 10.010, 76.000)
	c := station("C", 2, 10.020, 76.000)
	d := station("D", 0, 10.100, 76.100)
	route := models.Route{
		ID: primitive.NewObjectID(), Code: "L1", Name: "Line 1", Type: models.RouteTypeMetro, Active: true,
		Stations: []primitive.ObjectID{a.ID, b.ID, c.ID},
	}
	single := models.Route{
		ID: primitive.NewObjectID(), Code: "S1", Name: "Shuttle", Type: models.RouteTypeBus, Active: true,
		Stations: []primitive.ObjectID{d.ID},
	}
	snap := directory.NewSnapshot([]models.Route{route, single}, []models.Station{a, b, c, d}, time.Now())
	return &fixture{
		dir:      directory.NewStatic(snap),
		route:    route,
		single:   single,
		stations: map[string]models.Station{"A": a, "B": b, "C": c, "D": d},
	}
}

func (f *fixture) vehicle(id, current, next string, progress float64) models.Vehicle {
	v := models.Vehicle{
		VehicleID:        id,
		Type:             models.RouteTypeMetro,
		RouteID:          f.route.ID,
		CurrentStationID: f.stations[current].ID,
		Progress:         progress,
		Active:           true,
	}
	if next != "" {
		v.NextStationID = f.stations[next].ID
	}
	return v
}

func (f *fixture) assertLeg(t *testing.T, v models.Vehicle, current, next string, progress float64) {
	t.Helper()
	assert.Equal(t, f.stations[current].ID, v.CurrentStationID, "current station")
	assert.Equal(t, f.stations[next].ID, v.NextStationID, "next station")
	assert.InDelta(t, progress, v.Progress, 1e-9)
}

func TestAdvance_ThreeStationScenario(t *testing.T) {
	f := newFixture()
	e := New(f.dir, []models.Vehicle{f.vehicle("M1", "A", "B", 0)}, WithPolicy(FixedPolicy{Step: 0.5}))
	now := time.Unix(1700000000, 0)

	e.Advance(now, time.Second)
	v, ok := e.Vehicle("M1")
	require.True(t, ok)
	f.assertLeg(t, v, "A", "B", 0.5)
	assert.Equal(t, now, v.LastUpdate)

	e.Advance(now.Add(time.Second), time.Second)
	v, _ = e.Vehicle("M1")
	f.assertLeg(t, v, "B", "C", 0)

	e.Advance(now.Add(2*time.Second), time.Second)
	e.Advance(now.Add(3*time.Second), time.Second)
	v, _ = e.Vehicle("M1")
	f.assertLeg(t, v, "C", "A", 0)
}

func TestAdvance_CyclicClosureAndBounds(t *testing.T) {
	f := newFixture()
	e := New(f.dir, []models.Vehicle{f.vehicle("M1", "A", "B", 0)})
	now := time.Now()

	// default step of 0.05 makes each leg twenty ticks long
	for tick := 0; tick < 3*20; tick++ {
		e.Advance(now, time.Second)
		v, _ := e.Vehicle("M1")
		assert.GreaterOrEqual(t, v.Progress, 0.0)
		assert.Less(t, v.Progress, 1.0)
	}
	v, _ := e.Vehicle("M1")
	f.assertLeg(t, v, "A", "B", 0)
}

func TestAdvance_SingleStationRouteStaysPut(t *testing.T) {
	f := newFixture()
	d := f.stations["D"].ID
	v := models.Vehicle{VehicleID: "S-1", RouteID: f.single.ID, CurrentStationID: d, Progress: 0.4, Active: true}
	e := New(f.dir, []models.Vehicle{v}, WithPolicy(SpeedPolicy{SpeedKmh: map[models.RouteType]float64{models.RouteTypeBus: 30}}))

	for i := 0; i < 10; i++ {
		e.Advance(time.Now(), time.Second)
	}
	got, _ := e.Vehicle("S-1")
	assert.Equal(t, d, got.CurrentStationID)
	assert.Equal(t, d, got.NextStationID)
	assert.Equal(t, 0.0, got.Progress)
	assert.Equal(t, uint64(0), e.Faults())

	snaps := e.Snapshot()
	require.Len(t, snaps, 1)
	assert.Nil(t, snaps[0].NextStation)
	assert.Equal(t, models.RouteTypeBus, snaps[0].Type)
}

func TestAdvance_InconsistentVehicleIsSkipped(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	f := newFixture()
	stray := f.vehicle("BAD", "A", "B", 0.3)
	stray.CurrentStationID = f.stations["D"].ID
	lost := f.vehicle("LOST", "A", "B", 0.2)
	lost.RouteID = primitive.NewObjectID()
	good := f.vehicle("GOOD", "A", "B", 0)

	e := New(f.dir, []models.Vehicle{stray, lost, good}, WithPolicy(FixedPolicy{Step: 0.5}))
	e.Advance(time.Now(), time.Second)

	got, _ := e.Vehicle("BAD")
	assert.Equal(t, f.stations["D"].ID, got.CurrentStationID)
	assert.InDelta(t, 0.3, got.Progress, 1e-9)
	assert.True(t, got.LastUpdate.IsZero())

	got, _ = e.Vehicle("LOST")
	assert.InDelta(t, 0.2, got.Progress, 1e-9)

	got, _ = e.Vehicle("GOOD")
	assert.InDelta(t, 0.5, got.Progress, 1e-9)

	assert.Equal(t, uint64(2), e.Faults())
	require.NotEmpty(t, hook.AllEntries())
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), ErrDataInconsistency)
}

func TestAdvance_NothingMovesBeforeDirectoryLoads(t *testing.T) {
	f := newFixture()
	v := f.vehicle("M1", "A", "B", 0.1)
	e := New(directory.New(nil), []models.Vehicle{v})

	batch := e.AdvanceAndProject(time.Now(), time.Second)
	require.Len(t, batch, 1)
	assert.InDelta(t, 0.1, batch[0].Progress, 1e-9)
	assert.Empty(t, batch[0].RouteName)
}

func TestNew_NormalizesState(t *testing.T) {
	f := newFixture()
	wrongNext := f.vehicle("M1", "B", "A", 1.7)
	e := New(f.dir, []models.Vehicle{wrongNext, f.vehicle("M1", "C", "A", 0)})

	vehicles := e.Vehicles()
	require.Len(t, vehicles, 1)
	f.assertLeg(t, vehicles[0], "B", "C", 0)
}

func TestRetireAndReinstate(t *testing.T) {
	f := newFixture()
	e := New(f.dir, []models.Vehicle{f.vehicle("M1", "A", "B", 0), f.vehicle("M2", "B", "C", 0)},
		WithPolicy(FixedPolicy{Step: 0.25}))

	require.NoError(t, e.Retire("M1"))
	e.Advance(time.Now(), time.Second)

	batch := e.Snapshot()
	require.Len(t, batch, 1)
	assert.Equal(t, "M2", batch[0].ID)

	retired, _ := e.Vehicle("M1")
	assert.Equal(t, 0.0, retired.Progress)
	assert.False(t, retired.Active)

	require.NoError(t, e.Reinstate("M1"))
	assert.Len(t, e.Snapshot(), 2)

	assert.ErrorIs(t, e.Retire("NOPE"), ErrVehicleNotFound)
}

func TestNew_RetiredVehicleCanBeReinstatedAfterReload(t *testing.T) {
	f := newFixture()
	first := New(f.dir, []models.Vehicle{f.vehicle("M1", "A", "B", 0.5), f.vehicle("M2", "B", "C", 0)})
	require.NoError(t, first.Retire("M1"))

	// the persisted state, retired vehicle included, seeds the next engine
	e := New(f.dir, first.Vehicles())
	assert.Len(t, e.Snapshot(), 1)

	require.NoError(t, e.Reinstate("M1"))
	batch := e.Snapshot()
	require.Len(t, batch, 2)
	assert.Equal(t, "M1", batch[0].ID)
	assert.Equal(t, 0.5, batch[0].Progress)
}

func TestAdvanceAndProject_BatchMatchesState(t *testing.T) {
	f := newFixture()
	e := New(f.dir, []models.Vehicle{f.vehicle("M2", "B", "C", 0), f.vehicle("M1", "A", "B", 0)},
		WithPolicy(FixedPolicy{Step: 0.25}))
	now := time.Unix(1700000100, 0)

	batch := e.AdvanceAndProject(now, time.Second)
	require.Len(t, batch, 2)
	assert.Equal(t, "M1", batch[0].ID)
	assert.Equal(t, "M2", batch[1].ID)
	assert.Equal(t, 0.25, batch[0].Progress)
	assert.Equal(t, int64(1700000100), batch[0].Timestamp)
	assert.Equal(t, "Station A", batch[0].CurrentStation.Name)
	require.NotNil(t, batch[0].NextStation)
	assert.Equal(t, "B", batch[0].NextStation.Code)
	assert.Equal(t, batch, e.Snapshot())
}
