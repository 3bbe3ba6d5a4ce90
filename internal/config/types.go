package config

import "time"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port         int `yaml:"port" validate:"gt=0,lte=65535"`
	WSRateLimit  int `yaml:"wsRateLimit" validate:"gte=0"` // upgrades per minute per client, 0 disables
	WriteTimeout int `yaml:"writeTimeoutMS" validate:"gt=0"`

	// TrustProxy takes client IPs from X-Forwarded-For; set it only behind a
	// proxy that overwrites the header.
	TrustProxy bool `yaml:"trustProxy"`
}

// SimulationConfig holds the tick and motion settings.
type SimulationConfig struct {
	TickMS        int     `yaml:"tickMS" validate:"gt=0"`
	ProgressStep  float64 `yaml:"progressStep" validate:"gt=0,lte=1"`
	MotionPolicy  string  `yaml:"motionPolicy" validate:"oneof=fixed speed"`
	MetroSpeedKmh float64 `yaml:"metroSpeedKmh" validate:"gte=0"`
	BusSpeedKmh   float64 `yaml:"busSpeedKmh" validate:"gte=0"`
}

// DirectoryConfig selects where routes and stations come from.
type DirectoryConfig struct {
	Source          string `yaml:"source" validate:"oneof=mongo memory"`
	RefreshSchedule string `yaml:"refreshSchedule"`
	PersistSchedule string `yaml:"persistSchedule"`
}

// MongoConfig holds the database connection.
type MongoConfig struct {
	URI      string `yaml:"uri" validate:"omitempty,uri"`
	Database string `yaml:"database" validate:"required"`
}

// MQTTConfig enables the MQTT bridge when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker" validate:"omitempty,uri"`
	Topic    string `yaml:"topic" validate:"required_with=Broker"`
	ClientID string `yaml:"clientID"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret" validate:"required"`
	JWTExpiry time.Duration `yaml:"jwtExpiry" validate:"gt=0"`
}

// LogConfig holds logrus settings.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Mongo      MongoConfig      `yaml:"mongo"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
}

// TickPeriod returns the simulation period.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.Simulation.TickMS) * time.Millisecond
}

// WriteTimeout returns the per-write deadline for subscribers.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeout) * time.Millisecond
}
