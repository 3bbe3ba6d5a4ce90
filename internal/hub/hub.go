// Package hub fans the simulation out to every connected subscriber. A single
// shared ticker drives the engine; each tick is encoded once and the same
// bytes are offered to every subscriber.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/models"
)

const (
	DefaultPeriod       = time.Second
	DefaultWriteTimeout = 5 * time.Second
	defaultReplyQueue   = 16
)

// ErrStopped is returned by Subscribe after Stop.
var ErrStopped = errors.New("hub stopped")

// Engine is the part of the motion engine the hub drives.
type Engine interface {
	Advance(now time.Time, dt time.Duration)
	AdvanceAndProject(now time.Time, dt time.Duration) []models.VehicleSnapshot
	Snapshot() []models.VehicleSnapshot
}

// Directory provides the current route directory for late joiners.
type Directory interface {
	Current() *directory.Snapshot
}

// Option configures a Hub.
type Option func(*Hub)

// WithWriteTimeout bounds every write to a subscriber.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) { h.writeTimeout = d }
}

// WithReplyQueue sets how many pull replies may wait per subscriber.
func WithReplyQueue(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.replyQueue = n
		}
	}
}

// Hub owns the subscriber registry. It reads vehicle state through the
// engine and never holds its own lock while writing to a connection.
type Hub struct {
	engine       Engine
	dir          Directory
	writeTimeout time.Duration
	replyQueue   int

	mu       sync.Mutex
	subs     map[string]*Subscriber
	lastTick time.Time
	period   time.Duration
	stopped  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	writers  sync.WaitGroup
	stopOnce sync.Once
}

// New creates a hub driving engine.
func New(engine Engine, dir Directory, opts ...Option) *Hub {
	h := &Hub{
		engine:       engine,
		dir:          dir,
		writeTimeout: DefaultWriteTimeout,
		replyQueue:   defaultReplyQueue,
		subs:         make(map[string]*Subscriber),
		period:       DefaultPeriod,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers conn. Before any tick reaches it, the new subscriber is
// sent the route directory and the current vehicle batch.
func (h *Hub) Subscribe(conn Conn) (*Subscriber, error) {
	s := newSubscriber(uuid.NewString(), conn, h.writeTimeout, h.replyQueue)

	if routes, err := h.routesMessage(); err == nil {
		s.Reply(routes)
	} else {
		log.WithError(err).Error("Failed to encode routes")
	}
	if batch, err := encodeUpdate(time.Now(), h.engine.Snapshot()); err == nil {
		s.push(batch)
	} else {
		log.WithError(err).Error("Failed to encode vehicle update")
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrStopped
	}
	h.subs[s.id] = s
	n := len(h.subs)
	h.writers.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.writers.Done()
		s.writeLoop(h.Unsubscribe)
	}()

	subscribersGauge.Set(float64(n))
	log.WithFields(log.Fields{
		"subscriber":  s.id,
		"subscribers": n,
	}).Info("Subscriber joined")
	return s, nil
}

// Unsubscribe removes a subscriber and releases its connection. Unknown or
// already removed ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if !ok {
		return
	}
	s.close()
	subscribersGauge.Set(float64(n))
	log.WithFields(log.Fields{
		"subscriber":  id,
		"subscribers": n,
	}).Info("Subscriber left")
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Tick advances the engine once and offers the resulting batch to every
// subscriber. With nobody subscribed the engine still advances but nothing is
// projected, encoded or sent.
func (h *Hub) Tick(now time.Time) {
	start := time.Now()
	defer func() { tickDuration.Observe(time.Since(start).Seconds()) }()

	h.mu.Lock()
	dt := h.period
	if !h.lastTick.IsZero() {
		dt = now.Sub(h.lastTick)
	}
	h.lastTick = now
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	if len(subs) == 0 {
		h.engine.Advance(now, dt)
		idleTicks.Inc()
		return
	}

	payload, err := encodeUpdate(now, h.engine.AdvanceAndProject(now, dt))
	if err != nil {
		log.WithError(err).Error("Failed to encode vehicle update")
		return
	}
	for _, s := range subs {
		s.push(payload)
	}
}

// Run ticks every period until ctx is cancelled or Stop is called.
func (h *Hub) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultPeriod
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.stopped || h.loopDone != nil {
		h.mu.Unlock()
		return
	}
	h.period = period
	h.cancel = cancel
	done := make(chan struct{})
	h.loopDone = done
	h.mu.Unlock()
	defer close(done)

	log.WithField("period", period).Info("Broadcast loop started")
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Broadcast loop stopped")
			return
		case now := <-ticker.C:
			h.Tick(now)
		}
	}
}

// Stop cancels the ticker, waits for a tick in progress, then closes every
// subscriber and waits for their writers to finish. Only the first call has
// any effect.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		cancel, done := h.cancel, h.loopDone
		h.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		h.mu.Lock()
		subs := h.subs
		h.subs = make(map[string]*Subscriber)
		h.mu.Unlock()
		for _, s := range subs {
			s.close()
		}
		h.writers.Wait()
		subscribersGauge.Set(0)
	})
}

func (h *Hub) routesMessage() ([]byte, error) {
	routes := []models.RouteView{}
	if h.dir != nil {
		if snap := h.dir.Current(); snap != nil {
			routes = snap.RouteViews()
		}
	}
	return json.Marshal(models.Response{Type: models.MessageRoutes, Data: routes})
}

func encodeUpdate(now time.Time, batch []models.VehicleSnapshot) ([]byte, error) {
	return json.Marshal(models.NewVehicleUpdate(now.Unix(), batch))
}
