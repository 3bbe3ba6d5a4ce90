// Package config loads settings from an optional config.yml, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultFile = "config.yml"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, WSRateLimit: 60, WriteTimeout: 5000},
		Simulation: SimulationConfig{
			TickMS:        1000,
			ProgressStep:  0.05,
			MotionPolicy:  "fixed",
			MetroSpeedKmh: 35,
			BusSpeedKmh:   25,
		},
		Directory: DirectoryConfig{
			Source:          "mongo",
			RefreshSchedule: "@every 10m",
			PersistSchedule: "@every 30s",
		},
		Mongo: MongoConfig{URI: "mongodb://localhost:27017", Database: "metro_tracker"},
		MQTT:  MQTTConfig{Topic: "metro/vehicles", ClientID: "metro-tracker"},
		Auth:  AuthConfig{JWTSecret: "default-secret-key-change-in-production", JWTExpiry: 24 * time.Hour},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing config.yml is fine unless the
// file was named explicitly through CONFIG_FILE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Failed to read .env")
	}

	cfg := Default()
	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultFile
	}
	if err := loadFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			log.WithField("file", path).Debug("No config file, using defaults")
		} else {
			return nil, err
		}
	}

	applyEnv(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks struct constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envInt("PORT", &cfg.Server.Port)
	envInt("WS_RATE_LIMIT", &cfg.Server.WSRateLimit)
	envInt("WRITE_TIMEOUT_MS", &cfg.Server.WriteTimeout)
	envBool("TRUST_PROXY", &cfg.Server.TrustProxy)

	envInt("TICK_MS", &cfg.Simulation.TickMS)
	envFloat("PROGRESS_STEP", &cfg.Simulation.ProgressStep)
	envString("MOTION_POLICY", &cfg.Simulation.MotionPolicy)
	envFloat("METRO_SPEED_KMH", &cfg.Simulation.MetroSpeedKmh)
	envFloat("BUS_SPEED_KMH", &cfg.Simulation.BusSpeedKmh)

	envString("DIRECTORY_SOURCE", &cfg.Directory.Source)
	envString("DIRECTORY_REFRESH", &cfg.Directory.RefreshSchedule)
	envString("PERSIST_SCHEDULE", &cfg.Directory.PersistSchedule)

	envString("MONGO_URI", &cfg.Mongo.URI)
	envString("MONGO_DB", &cfg.Mongo.Database)

	envString("MQTT_BROKER", &cfg.MQTT.Broker)
	envString("MQTT_TOPIC", &cfg.MQTT.Topic)
	envString("MQTT_CLIENT_ID", &cfg.MQTT.ClientID)

	envString("JWT_SECRET", &cfg.Auth.JWTSecret)
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWTExpiry = parsed
		} else {
			log.WithField("JWT_EXPIRY", v).Warn("Invalid duration, keeping default")
		}
	}

	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
	cfg.Simulation.MotionPolicy = strings.ToLower(cfg.Simulation.MotionPolicy)
	cfg.Directory.Source = strings.ToLower(cfg.Directory.Source)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.WithField(key, v).Warn("Invalid integer, keeping default")
		return
	}
	*dst = parsed
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.WithField(key, v).Warn("Invalid boolean, keeping default")
		return
	}
	*dst = parsed
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.WithField(key, v).Warn("Invalid number, keeping default")
		return
	}
	*dst = parsed
}

// SetupLogging applies the log level and format to the standard logger.
func SetupLogging(c LogConfig) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
