package engine

import "errors"

var (
	// ErrDataInconsistency marks a vehicle whose stored state contradicts the
	// route directory. The vehicle is skipped for the tick.
	ErrDataInconsistency = errors.New("data inconsistency")
	// ErrVehicleNotFound is returned by Retire and Reinstate for unknown ids.
	ErrVehicleNotFound = errors.New("vehicle not found")
)
