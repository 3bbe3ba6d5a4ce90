package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Route), args.Error(1)
}

func (m *MockSource) GetRouteByID(ctx context.Context, id string) (*models.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Route), args.Error(1)
}

func (m *MockSource) ListStations(ctx context.Context) ([]models.Station, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Station), args.Error(1)
}

func fixture() ([]models.Route, []models.Station) {
	a := models.Station{ID: primitive.NewObjectID(), Name: "A", Code: "A", OrderIndex: 0}
	b := models.Station{ID: primitive.NewObjectID(), Name: "B", Code: "B", OrderIndex: 1}
	route := models.Route{ID: primitive.NewObjectID(), Name: "Line 1", Code: "L1", Type: models.RouteTypeMetro,
		Stations: []primitive.ObjectID{a.ID, b.ID}, Active: true}
	return []models.Route{route}, []models.Station{a, b}
}

func TestDirectory_Refresh(t *testing.T) {
	routes, stations := fixture()
	source := new(MockSource)
	source.On("ListActiveRoutes", mock.Anything).Return(routes, nil)
	source.On("ListStations", mock.Anything).Return(stations, nil)

	dir := New(source)
	assert.Nil(t, dir.Current())

	require.NoError(t, dir.Refresh(context.Background()))
	snap := dir.Current()
	require.NotNil(t, snap)

	r, ok := snap.Route("l1")
	require.True(t, ok)
	assert.Equal(t, routes[0].ID, r.ID)

	r, ok = snap.Route(routes[0].ID.Hex())
	require.True(t, ok)
	assert.Equal(t, "L1", r.Code)

	st, ok := snap.Station(stations[1].ID)
	require.True(t, ok)
	assert.Equal(t, "B", st.Name)

	source.AssertExpectations(t)
}

func TestDirectory_RefreshFailureKeepsLastGoodSnapshot(t *testing.T) {
	routes, stations := fixture()
	source := new(MockSource)
	source.On("ListActiveRoutes", mock.Anything).Return(routes, nil).Once()
	source.On("ListStations", mock.Anything).Return(stations, nil).Once()
	source.On("ListActiveRoutes", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	dir := New(source)
	require.NoError(t, dir.Refresh(context.Background()))
	first := dir.Current()

	err := dir.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Same(t, first, dir.Current())
}

func TestDirectory_LookupFallsBackToSource(t *testing.T) {
	routes, stations := fixture()
	added := models.Route{ID: primitive.NewObjectID(), Name: "Line 2", Code: "L2", Type: models.RouteTypeMetro,
		Stations: routes[0].Stations, Active: true}
	closed := models.Route{ID: primitive.NewObjectID(), Code: "OLD", Active: false}

	source := new(MockSource)
	source.On("ListActiveRoutes", mock.Anything).Return(routes, nil)
	source.On("ListStations", mock.Anything).Return(stations, nil)
	source.On("GetRouteByID", mock.Anything, "L2").Return(&added, nil)
	source.On("GetRouteByID", mock.Anything, "OLD").Return(&closed, nil)
	source.On("GetRouteByID", mock.Anything, "NOPE").Return(nil, ErrRouteNotFound)
	source.On("GetRouteByID", mock.Anything, "L9").Return(nil, errors.New("connection refused"))

	dir := New(source)
	ctx := context.Background()
	_, _, err := dir.Lookup(ctx, "L1")
	assert.ErrorIs(t, err, ErrUnavailable, "nothing loaded yet")

	require.NoError(t, dir.Refresh(ctx))

	r, snap, err := dir.Lookup(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, routes[0].ID, r.ID)
	assert.Same(t, dir.Current(), snap)

	r, snap, err = dir.Lookup(ctx, "L2")
	require.NoError(t, err)
	assert.Equal(t, "L2", r.Code)
	assert.Len(t, snap.RouteView(r).Stations, 2)

	_, _, err = dir.Lookup(ctx, "OLD")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	_, _, err = dir.Lookup(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	_, _, err = dir.Lookup(ctx, "L9")
	assert.ErrorIs(t, err, ErrUnavailable)

	source.AssertNotCalled(t, "GetRouteByID", mock.Anything, "l1")
}

func TestDirectory_LookupStaticSnapshot(t *testing.T) {
	routes, stations := fixture()
	dir := NewStatic(NewSnapshot(routes, stations, time.Now()))

	r, _, err := dir.Lookup(context.Background(), routes[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "L1", r.Code)

	_, _, err = dir.Lookup(context.Background(), "L2")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestSnapshot_RouteViewSkipsUnknownStations(t *testing.T) {
	routes, stations := fixture()
	routes[0].Stations = append(routes[0].Stations, primitive.NewObjectID())
	snap := NewSnapshot(routes, stations, time.Now())

	view := snap.RouteView(&snap.Routes()[0])
	assert.Equal(t, "L1", view.Code)
	require.Len(t, view.Stations, 2)
	assert.Equal(t, "A", view.Stations[0].Name)
	assert.Len(t, snap.RouteViews(), 1)
}

func TestMemorySource(t *testing.T) {
	routes, stations := fixture()
	retired := models.Route{ID: primitive.NewObjectID(), Code: "OLD", Active: false}
	src := NewMemorySource(append(routes, retired), []models.Station{stations[1], stations[0]})
	ctx := context.Background()

	active, err := src.ListActiveRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	sorted, err := src.ListStations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", sorted[0].Code)

	r, err := src.GetRouteByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, routes[0].ID, r.ID)

	_, err = src.GetRouteByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

type fakeRoutes struct {
	byID   *models.Route
	byCode *models.Route
	err    error
}

func (f *fakeRoutes) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	return nil, f.err
}

func (f *fakeRoutes) FindRouteByID(ctx context.Context, id string) (*models.Route, error) {
	if f.byID == nil {
		return nil, db.ErrNotFound
	}
	return f.byID, nil
}

func (f *fakeRoutes) FindRouteByCode(ctx context.Context, code string) (*models.Route, error) {
	if f.byCode == nil {
		return nil, db.ErrNotFound
	}
	return f.byCode, nil
}

func TestMongoSource_GetRouteByID(t *testing.T) {
	ctx := context.Background()
	route := &models.Route{Code: "F1"}

	src := &MongoSource{Routes: &fakeRoutes{byCode: route}}
	found, err := src.GetRouteByID(ctx, "F1")
	require.NoError(t, err)
	assert.Same(t, route, found)

	src = &MongoSource{Routes: &fakeRoutes{}}
	_, err = src.GetRouteByID(ctx, "F1")
	assert.ErrorIs(t, err, ErrRouteNotFound)

	src = &MongoSource{Routes: &fakeRoutes{err: errors.New("timeout")}}
	_, err = src.ListActiveRoutes(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
