// Package directory keeps a cached, read-only copy of routes and stations.
// The cache is rebuilt only on Refresh, so the simulation never queries the
// store while ticking.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/models"
)

var (
	// ErrUnavailable means the backing store could not be read.
	ErrUnavailable = errors.New("directory unavailable")
	// ErrRouteNotFound means no route matches the requested id or code.
	ErrRouteNotFound = errors.New("route not found")
)

// Directory holds the current snapshot behind an atomic pointer.
type Directory struct {
	source  Source
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

// New creates a directory over source. Call Refresh before use.
func New(source Source) *Directory {
	return &Directory{source: source, now: time.Now}
}

// NewStatic creates a directory that serves a prebuilt snapshot.
func NewStatic(snap *Snapshot) *Directory {
	d := &Directory{now: time.Now}
	d.current.Store(snap)
	return d
}

// Current returns the last successfully loaded snapshot, or nil when the
// directory has never loaded.
func (d *Directory) Current() *Snapshot {
	return d.current.Load()
}

// Refresh reloads routes and stations from the source. On failure the
// previous snapshot stays in place.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.source == nil {
		return nil
	}
	routes, err := d.source.ListActiveRoutes(ctx)
	if err != nil {
		return wrapUnavailable(err)
	}
	stations, err := d.source.ListStations(ctx)
	if err != nil {
		return wrapUnavailable(err)
	}

	snap := NewSnapshot(routes, stations, d.now())
	for _, r := range routes {
		for _, id := range r.Stations {
			if _, ok := snap.Station(id); !ok {
				log.WithFields(log.Fields{
					"route":   r.Code,
					"station": id.Hex(),
				}).Warn("Route references unknown station")
			}
		}
	}
	d.current.Store(snap)

	log.WithFields(log.Fields{
		"routes":   len(routes),
		"stations": len(stations),
	}).Info("Route directory loaded")
	return nil
}

// Lookup finds an active route by hex id or code. The cached snapshot is
// consulted first; on a miss the source is asked directly so routes added
// since the last refresh can still be served. The returned snapshot resolves
// the route's stations.
func (d *Directory) Lookup(ctx context.Context, idOrCode string) (*models.Route, *Snapshot, error) {
	snap := d.Current()
	if snap == nil {
		return nil, nil, ErrUnavailable
	}
	if route, ok := snap.Route(idOrCode); ok {
		return route, snap, nil
	}
	if d.source == nil {
		return nil, nil, ErrRouteNotFound
	}
	route, err := d.source.GetRouteByID(ctx, idOrCode)
	if err != nil {
		if errors.Is(err, ErrRouteNotFound) {
			return nil, nil, ErrRouteNotFound
		}
		return nil, nil, wrapUnavailable(err)
	}
	if !route.Active {
		return nil, nil, ErrRouteNotFound
	}
	log.WithField("route", route.Code).Debug("Route served from store ahead of refresh")
	return route, snap, nil
}

func wrapUnavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
