package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/samirnavas/metro-tracker/internal/auth"
	"github.com/samirnavas/metro-tracker/internal/config"
	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/directory"
	"github.com/samirnavas/metro-tracker/internal/dispatcher"
	"github.com/samirnavas/metro-tracker/internal/engine"
	"github.com/samirnavas/metro-tracker/internal/handlers"
	"github.com/samirnavas/metro-tracker/internal/hub"
	"github.com/samirnavas/metro-tracker/internal/models"
	"github.com/samirnavas/metro-tracker/internal/mqttbridge"
	"github.com/samirnavas/metro-tracker/internal/scheduler"
	"github.com/samirnavas/metro-tracker/internal/seed"
)

// backend is where routes, vehicles, timetables and users come from.
type backend struct {
	source     directory.Source
	vehicles   []models.Vehicle
	timetables db.TimetableCollection
	users      db.UserCollection
	saver      scheduler.VehicleSaver
	client     *mongo.Client
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Directory.Source == "memory" {
		data := seed.Kochi(time.Now())
		log.WithFields(log.Fields{
			"routes":   len(data.Routes),
			"stations": len(data.Stations),
			"vehicles": len(data.Vehicles),
		}).Info("Using built-in dataset")
		return &backend{
			source:     directory.NewMemorySource(data.Routes, data.Stations),
			vehicles:   data.Vehicles,
			timetables: seed.NewTimetables(data.Timetables),
		}, nil
	}

	client, err := db.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")
	store := db.NewStore(client, cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Failed to ensure indexes")
	}
	vehicles, err := store.Vehicles.FindVehicles(ctx)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	return &backend{
		source:     &directory.MongoSource{Routes: store.Routes, Stations: store.Stations},
		vehicles:   vehicles,
		timetables: store.Timetables,
		users:      store.Users,
		saver:      store.Vehicles,
		client:     client,
	}, nil
}

func (b *backend) close() {
	if b.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.client.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("MongoDB disconnect failed")
	}
}

func policyFromConfig(sim config.SimulationConfig) engine.Policy {
	fixed := engine.FixedPolicy{Step: sim.ProgressStep}
	if sim.MotionPolicy != "speed" {
		return fixed
	}
	return engine.SpeedPolicy{
		SpeedKmh: map[models.RouteType]float64{
			models.RouteTypeMetro: sim.MetroSpeedKmh,
			models.RouteTypeBus:   sim.BusSpeedKmh,
		},
		Fallback: fixed,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	config.SetupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open data source")
	}
	defer b.close()

	dir := directory.New(b.source)
	if err := dir.Refresh(ctx); err != nil {
		log.WithError(err).Fatal("Failed to load route directory")
	}

	eng := engine.New(dir, b.vehicles, engine.WithPolicy(policyFromConfig(cfg.Simulation)))
	h := hub.New(eng, dir, hub.WithWriteTimeout(cfg.WriteTimeout()))

	jobs := scheduler.New()
	if err := jobs.Add("refresh-directory", cfg.Directory.RefreshSchedule, scheduler.RefreshDirectory(dir)); err != nil {
		log.WithError(err).Fatal("Invalid refresh schedule")
	}
	if b.saver != nil {
		if err := jobs.Add("persist-vehicles", cfg.Directory.PersistSchedule, scheduler.PersistVehicles(eng, b.saver)); err != nil {
			log.WithError(err).Fatal("Invalid persist schedule")
		}
	}
	jobs.Start()

	if cfg.MQTT.Broker != "" {
		client, err := mqttbridge.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.WithError(err).Error("MQTT bridge disabled")
		} else {
			defer client.Disconnect(250)
			if _, err := h.Subscribe(mqttbridge.NewConn(client, cfg.MQTT.Topic)); err != nil {
				log.WithError(err).Error("MQTT bridge disabled")
			}
		}
	}

	var authService *auth.Service
	if b.users != nil {
		authService, err = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
		if err != nil {
			log.WithError(err).Fatal("Invalid auth settings")
		}
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Directory:   dir,
		Fleet:       eng,
		Hub:         h,
		Requests:    dispatcher.New(eng, dir),
		Timetables:  b.timetables,
		Auth:        authService,
		Users:       b.users,
		WSRateLimit: cfg.Server.WSRateLimit,
		TrustProxy:  cfg.Server.TrustProxy,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go h.Run(ctx, cfg.TickPeriod())
	go func() {
		log.WithFields(log.Fields{
			"port":   cfg.Server.Port,
			"tick":   cfg.TickPeriod(),
			"policy": cfg.Simulation.MotionPolicy,
		}).Info("Metro tracker listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	h.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	jobs.Stop(shutdownCtx)
	if b.saver != nil {
		if err := scheduler.PersistVehicles(eng, b.saver)(shutdownCtx); err != nil {
			log.WithError(err).Error("Final vehicle persist failed")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
}
