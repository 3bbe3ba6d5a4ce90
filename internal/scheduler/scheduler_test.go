package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samirnavas/metro-tracker/internal/models"
)

func TestScheduler_Add(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("refresh", "@every 1m", noop))
	require.NoError(t, s.Add("disabled", "", noop))
	assert.Error(t, s.Add("broken", "every now and then", noop))
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New()
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) SaveVehicleStates(ctx context.Context, vehicles []models.Vehicle) error {
	args := m.Called(ctx, vehicles)
	return args.Error(0)
}

type staticVehicles []models.Vehicle

func (s staticVehicles) Vehicles() []models.Vehicle { return s }

func TestPersistVehicles(t *testing.T) {
	vehicles := staticVehicles{{VehicleID: "METRO-101", Progress: 0.3, Active: true}}
	saver := new(mockSaver)
	saver.On("SaveVehicleStates", mock.Anything, []models.Vehicle(vehicles)).Return(nil).Once()

	require.NoError(t, PersistVehicles(vehicles, saver)(context.Background()))
	saver.AssertExpectations(t)

	empty := new(mockSaver)
	require.NoError(t, PersistVehicles(staticVehicles{}, empty)(context.Background()))
	empty.AssertNotCalled(t, "SaveVehicleStates", mock.Anything, mock.Anything)

	failing := new(mockSaver)
	failing.On("SaveVehicleStates", mock.Anything, mock.Anything).Return(errors.New("write conflict"))
	assert.Error(t, PersistVehicles(vehicles, failing)(context.Background()))
}

type countingRefresher struct{ calls int }

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls++
	return nil
}

func TestRefreshDirectory(t *testing.T) {
	r := &countingRefresher{}
	require.NoError(t, RefreshDirectory(r)(context.Background()))
	assert.Equal(t, 1, r.calls)
}
