package scheduler

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/models"
)

// Refresher reloads a cached directory.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// VehicleLister exposes the simulated vehicle state.
type VehicleLister interface {
	Vehicles() []models.Vehicle
}

// VehicleSaver stores the last known vehicle state.
type VehicleSaver interface {
	SaveVehicleStates(ctx context.Context, vehicles []models.Vehicle) error
}

// RefreshDirectory reloads the route directory.
func RefreshDirectory(r Refresher) JobFunc {
	return r.Refresh
}

// PersistVehicles writes the engine's current vehicle state to the store so
// a restart resumes where the simulation stopped.
func PersistVehicles(src VehicleLister, dst VehicleSaver) JobFunc {
	return func(ctx context.Context) error {
		vehicles := src.Vehicles()
		if len(vehicles) == 0 {
			return nil
		}
		if err := dst.SaveVehicleStates(ctx, vehicles); err != nil {
			return err
		}
		log.WithField("vehicles", len(vehicles)).Debug("Vehicle state persisted")
		return nil
	}
}
