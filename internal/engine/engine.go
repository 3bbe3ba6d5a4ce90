// Package engine owns the mutable state of every simulated vehicle and moves
// it along its route one tick at a time.
package engine

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/models"
	"github.com/samirnavas/metro-tracker/internal/projector"
)

// arrival tolerance for accumulated floating point steps
const epsilon = 1e-9

// Directory provides the current read-only route directory.
type Directory interface {
	Current() *directory.Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the increment policy. The default is FixedPolicy{DefaultStep}.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// Engine is the single writer of vehicle state. Advance holds the write lock
// for one full pass, so readers never observe a partially advanced batch.
type Engine struct {
	mu       sync.RWMutex
	dir      Directory
	policy   Policy
	vehicles []models.Vehicle
	index    map[string]int
	faults   atomic.Uint64
}

// New creates an engine over the given vehicles. Vehicles are copied and
// normalized against the directory when it is loaded: progress is clamped
// into [0,1) and the next station is recomputed from the current one.
func New(dir Directory, vehicles []models.Vehicle, opts ...Option) *Engine {
	e := &Engine{
		dir:    dir,
		policy: FixedPolicy{Step: DefaultStep},
		index:  make(map[string]int, len(vehicles)),
	}
	for _, opt := range opts {
		opt(e)
	}

	sorted := append([]models.Vehicle(nil), vehicles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].VehicleID < sorted[j].VehicleID })
	snap := e.current()
	for _, v := range sorted {
		if _, dup := e.index[v.VehicleID]; dup {
			log.WithField("vehicle", v.VehicleID).Warn("Duplicate vehicle id ignored")
			continue
		}
		normalize(&v, snap)
		e.index[v.VehicleID] = len(e.vehicles)
		e.vehicles = append(e.vehicles, v)
	}
	activeVehicles.Set(float64(e.activeCount()))
	return e
}

func (e *Engine) current() *directory.Snapshot {
	if e.dir == nil {
		return nil
	}
	return e.dir.Current()
}

func normalize(v *models.Vehicle, snap *directory.Snapshot) {
	if math.IsNaN(v.Progress) || v.Progress < 0 || v.Progress >= 1 {
		v.Progress = 0
	}
	if snap == nil {
		return
	}
	route, ok := snap.RouteByObjectID(v.RouteID)
	if !ok || len(route.Stations) == 0 {
		return
	}
	i := route.StationIndex(v.CurrentStationID)
	if i < 0 {
		return
	}
	v.NextStationID = route.Stations[(i+1)%len(route.Stations)]
	if len(route.Stations) == 1 {
		v.Progress = 0
	}
	if v.Type == "" {
		v.Type = route.Type
	}
}

// Advance moves every active vehicle forward by one tick. Vehicles whose
// state contradicts the directory are logged, counted and left untouched;
// they never abort the pass. Nothing moves before the directory has loaded.
func (e *Engine) Advance(now time.Time, dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advance(e.current(), now, dt)
}

// AdvanceAndProject advances one tick and projects the result under the same
// lock hold, so the batch reflects exactly the post-advance state.
func (e *Engine) AdvanceAndProject(now time.Time, dt time.Duration) []models.VehicleSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.current()
	e.advance(snap, now, dt)
	return projector.ProjectAll(e.vehicles, snap)
}

func (e *Engine) advance(snap *directory.Snapshot, now time.Time, dt time.Duration) {
	if snap == nil {
		return
	}
	for i := range e.vehicles {
		v := &e.vehicles[i]
		if !v.Active {
			continue
		}
		if err := e.step(v, snap, now, dt); err != nil {
			e.faults.Add(1)
			faultsTotal.Inc()
			log.WithFields(log.Fields{
				"vehicle": v.VehicleID,
				"route":   v.RouteID.Hex(),
				"station": v.CurrentStationID.Hex(),
			}).WithError(err).Warn("Skipping vehicle this tick")
		}
	}
}

func (e *Engine) step(v *models.Vehicle, snap *directory.Snapshot, now time.Time, dt time.Duration) error {
	route, ok := snap.RouteByObjectID(v.RouteID)
	if !ok {
		return fmt.Errorf("%w: route not in directory", ErrDataInconsistency)
	}
	n := len(route.Stations)
	i := route.StationIndex(v.CurrentStationID)
	if i < 0 {
		return fmt.Errorf("%w: current station not on route %s", ErrDataInconsistency, route.Code)
	}

	// single-station routes have no leg to traverse
	if n == 1 {
		v.NextStationID = v.CurrentStationID
		v.Progress = 0
		v.LastUpdate = now
		return nil
	}

	next := route.Stations[(i+1)%n]
	from, _ := snap.Station(v.CurrentStationID)
	to, _ := snap.Station(next)
	inc := e.policy.Increment(Leg{Type: route.Type, From: from, To: to}, dt)
	if math.IsNaN(inc) || inc < 0 {
		inc = 0
	}

	progress := v.Progress + inc
	if progress >= 1-epsilon {
		cur := (i + 1) % n
		v.CurrentStationID = route.Stations[cur]
		v.NextStationID = route.Stations[(cur+1)%n]
		v.Progress = 0
		legsCompleted.Inc()
	} else {
		v.NextStationID = next
		v.Progress = progress
	}
	v.LastUpdate = now
	return nil
}

// Snapshot projects the current state of every active vehicle.
func (e *Engine) Snapshot() []models.VehicleSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return projector.ProjectAll(e.vehicles, e.current())
}

// Vehicles returns a copy of every vehicle, retired ones included.
func (e *Engine) Vehicles() []models.Vehicle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.Vehicle(nil), e.vehicles...)
}

// Vehicle returns a copy of one vehicle.
func (e *Engine) Vehicle(id string) (models.Vehicle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.index[id]
	if !ok {
		return models.Vehicle{}, false
	}
	return e.vehicles[i], true
}

// Retire removes a vehicle from simulation without discarding its state.
func (e *Engine) Retire(id string) error {
	return e.setActive(id, false)
}

// Reinstate puts a retired vehicle back into simulation where it stopped.
func (e *Engine) Reinstate(id string) error {
	return e.setActive(id, true)
}

func (e *Engine) setActive(id string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	e.vehicles[i].Active = active
	activeVehicles.Set(float64(e.activeCount()))
	log.WithFields(log.Fields{
		"vehicle": id,
		"active":  active,
	}).Info("Vehicle state changed")
	return nil
}

func (e *Engine) activeCount() int {
	n := 0
	for _, v := range e.vehicles {
		if v.Active {
			n++
		}
	}
	return n
}

// Faults reports how many vehicle-ticks were skipped as inconsistent.
func (e *Engine) Faults() uint64 {
	return e.faults.Load()
}
