package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samirnavas/metro-tracker/internal/auth"
	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/middleware"
	"github.com/samirnavas/metro-tracker/internal/models"
)

// DirectoryService is the cached route directory with reload.
type DirectoryService interface {
	Directory
	Refresher
}

// RouterConfig carries the services exposed over HTTP. Auth and Users are
// optional; without them the login and admin routes are not mounted.
type RouterConfig struct {
	Directory   DirectoryService
	Fleet       Fleet
	Hub         Broadcaster
	Requests    RequestHandler
	Timetables  db.TimetableCollection
	Auth        *auth.Service
	Users       db.UserCollection
	WSRateLimit int
	TrustProxy  bool
}

// NewRouter wires every HTTP route.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)

	routes := NewRouteHandler(cfg.Directory)
	timetables := NewTimetableHandler(cfg.Timetables, cfg.Directory)
	vehicles := NewVehicleHandler(cfg.Fleet)
	health := NewHealthHandler(cfg.Fleet, cfg.Directory, cfg.Hub)
	stream := NewStreamHandler(cfg.Hub, cfg.Requests)
	limiter := middleware.NewRateLimitMiddleware(cfg.TrustProxy)

	r.HandleFunc("/health", health.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.Handle("/ws", limiter.RateLimit(cfg.WSRateLimit, time.Minute)(
		http.HandlerFunc(stream.Stream)))
	r.HandleFunc("/gtfsrt/vehicle-positions", vehicles.VehiclePositions).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", health.Health).Methods("GET")
	api.HandleFunc("/routes", routes.ListRoutes).Methods("GET")
	api.HandleFunc("/routes/{id}", routes.GetRoute).Methods("GET")
	api.HandleFunc("/routes/{id}/geojson", routes.RouteGeoJSON).Methods("GET")
	api.HandleFunc("/stations", routes.ListStations).Methods("GET")
	api.HandleFunc("/stations/nearby", routes.NearbyStations).Methods("GET")
	if cfg.Timetables != nil {
		api.HandleFunc("/timetables", timetables.ListTimetables).Methods("GET")
		api.HandleFunc("/timetables/{routeId}", timetables.GetTimetable).Methods("GET")
	}
	api.HandleFunc("/vehicles", vehicles.ListVehicles).Methods("GET")
	api.HandleFunc("/vehicles/{id}", vehicles.GetVehicle).Methods("GET")

	if cfg.Auth == nil {
		return r
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.Authenticate)

	if cfg.Users != nil {
		users := NewAuthHandler(cfg.Auth, cfg.Users)
		api.HandleFunc("/auth/login", users.Login).Methods("POST")
		admin.HandleFunc("/me", users.Profile).Methods("GET")
		admin.Handle("/users", authMiddleware.RequirePermission(models.ActionManageUsers)(
			http.HandlerFunc(users.SaveUser))).Methods("POST")
	}

	admin.Handle("/vehicles", authMiddleware.RequirePermission(models.ActionViewVehicles)(
		http.HandlerFunc(vehicles.ListFleet))).Methods("GET")

	fleet := admin.PathPrefix("/vehicles").Subrouter()
	fleet.Use(authMiddleware.RequirePermission(models.ActionRetireVehicle))
	fleet.HandleFunc("/{id}/retire", vehicles.Retire).Methods("POST")
	fleet.HandleFunc("/{id}/reinstate", vehicles.Reinstate).Methods("POST")

	directory := admin.PathPrefix("/directory").Subrouter()
	directory.Use(authMiddleware.RequirePermission(models.ActionRefreshDirectory))
	directory.HandleFunc("/refresh", NewAdminHandler(cfg.Directory, cfg.Directory).RefreshDirectory).Methods("POST")

	return r
}
