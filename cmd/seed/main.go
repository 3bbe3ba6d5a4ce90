package main

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samirnavas/metro-tracker/internal/auth"
	"github.com/samirnavas/metro-tracker/internal/config"
	"github.com/samirnavas/metro-tracker/internal/db"
	"github.com/samirnavas/metro-tracker/internal/models"
	"github.com/samirnavas/metro-tracker/internal/seed"
)

const defaultAdminPassword = "metro-admin-1"

// adminUser builds the bootstrap account from ADMIN_USERNAME and
// ADMIN_PASSWORD.
func adminUser(service *auth.Service) (models.User, error) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Warn("ADMIN_PASSWORD not set, using the default password")
		password = defaultAdminPassword
	}
	if err := service.ValidatePassword(password); err != nil {
		return models.User{}, err
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	config.SetupLogging(cfg.Log)

	client, err := db.ConnectMongo(cfg.Mongo.URI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := db.NewStore(client, cfg.Mongo.Database)
	data := seed.Kochi(time.Now())
	err = seed.Load(ctx, seed.Collections{
		Routes:     store.Routes,
		Stations:   store.Stations,
		Vehicles:   store.Vehicles,
		Timetables: store.Timetables,
	}, data)
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	service, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		log.WithError(err).Fatal("Invalid auth settings")
	}
	admin, err := adminUser(service)
	if err != nil {
		log.WithError(err).Fatal("Invalid admin account")
	}
	if err := store.Users.UpsertUser(ctx, admin); err != nil {
		log.WithError(err).Fatal("Failed to create admin account")
	}

	log.WithFields(log.Fields{
		"database": cfg.Mongo.Database,
		"routes":   len(data.Routes),
		"stations": len(data.Stations),
		"vehicles": len(data.Vehicles),
		"admin":    admin.Username,
	}).Info("Database seeded")
}
