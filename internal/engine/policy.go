package engine

import (
	"time"

	"github.com/samirnavas/metro-tracker/internal/geo"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// DefaultStep is the fraction of a leg covered per tick by FixedPolicy.
const DefaultStep = 0.05

// Leg is the stretch a vehicle is currently travelling.
type Leg struct {
	Type models.RouteType
	From *models.Station
	To   *models.Station
}

// Policy decides how much progress a vehicle makes in one tick.
type Policy interface {
	Increment(leg Leg, dt time.Duration) float64
}

// FixedPolicy adds the same step every tick regardless of elapsed time.
type FixedPolicy struct {
	Step float64
}

// Increment returns the fixed step, or DefaultStep when unset.
func (p FixedPolicy) Increment(_ Leg, _ time.Duration) float64 {
	if p.Step <= 0 {
		return DefaultStep
	}
	return p.Step
}

// SpeedPolicy moves vehicles at a constant speed per route type, so progress
// is proportional to elapsed time and inversely proportional to leg length.
type SpeedPolicy struct {
	SpeedKmh map[models.RouteType]float64
	Fallback FixedPolicy
}

// Increment converts speed and elapsed time into a fraction of the leg. Legs
// without coordinates, or of zero length, use the fallback step.
func (p SpeedPolicy) Increment(leg Leg, dt time.Duration) float64 {
	speed := p.SpeedKmh[leg.Type]
	if speed <= 0 || dt <= 0 || leg.From == nil || leg.To == nil ||
		leg.From.Coordinates == nil || leg.To.Coordinates == nil {
		return p.Fallback.Increment(leg, dt)
	}
	km := geo.DistanceKm(*leg.From.Coordinates, *leg.To.Coordinates)
	if km <= 0 {
		return p.Fallback.Increment(leg, dt)
	}
	return speed * dt.Hours() / km
}
