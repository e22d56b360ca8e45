// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"net"
	"strconv"
	"time"
)

// Database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Event transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// Assignment lock strategies. "none" relies entirely on the store's
// insert-if-absent primitive.
const (
	LockNone     = "none"
	LockLocal    = "local"
	LockAdvisory = "advisory"
	LockRedis    = "redis"
)

// Config holds all service configuration.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	Events      EventsConfig      `koanf:"events"`
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Discovery   DiscoveryConfig   `koanf:"discovery"`
	Experiments ExperimentsConfig `koanf:"experiments"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // duckdb or postgres
	Path            string        `koanf:"path"`   // DuckDB file path, ":memory:" allowed
	DSN             string        `koanf:"dsn"`    // Postgres connection string
	MaxMemory       string        `koanf:"max_memory"`
	Threads         int           `koanf:"threads"` // 0 = NumCPU
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	CreateMoodTable bool          `koanf:"create_mood_table"`
	SkipIndexes     bool          `koanf:"skip_indexes"` // fast test setup
}

// RedisConfig holds the optional Redis client settings.
type RedisConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Addr          string        `koanf:"addr"`
	Password      string        `koanf:"password"`
	DB            int           `koanf:"db"`
	KeyPrefix     string        `koanf:"key_prefix"`
	AssignmentTTL time.Duration `koanf:"assignment_ttl"`
	DialTimeout   time.Duration `koanf:"dial_timeout"`
}

// EventsConfig holds feedback event ingestion settings.
type EventsConfig struct {
	Enabled              bool          `koanf:"enabled"`
	Transport            string        `koanf:"transport"`
	NATSURL              string        `koanf:"nats_url"`
	QueueGroup           string        `koanf:"queue_group"`
	ExposureTopic        string        `koanf:"exposure_topic"`
	ConversionTopic      string        `koanf:"conversion_topic"`
	PoisonQueueTopic     string        `koanf:"poison_queue_topic"`
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// ServerConfig holds the admin HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DiscoveryConfig holds candidate generation tuning.
type DiscoveryConfig struct {
	Graph               GraphTuning   `koanf:"graph"`
	Context             ContextTuning `koanf:"context"`
	MoodRefreshInterval time.Duration `koanf:"mood_refresh_interval"` // 0 disables periodic re-check
}

// GraphTuning holds GraphRecommender weights and fan-out bounds.
// The 60/40 content/collaborative split is tunable but should stay fixed
// for a given deployment so experiment results remain comparable.
type GraphTuning struct {
	GenreWeight         float64 `koanf:"genre_weight"`
	CastWeight          float64 `koanf:"cast_weight"`
	DirectorWeight      float64 `koanf:"director_weight"`
	ThemeWeight         float64 `koanf:"theme_weight"`
	ContentWeight       float64 `koanf:"content_weight"`
	CollaborativeWeight float64 `koanf:"collaborative_weight"`
	CollaborativeDecay  float64 `koanf:"collaborative_decay"`
	MaxSeeds            int     `koanf:"max_seeds"`
	MaxCastPerSeed      int     `koanf:"max_cast_per_seed"`
	GenreLimit          int     `koanf:"genre_limit"`
	CastLimit           int     `koanf:"cast_limit"`
	DirectorLimit       int     `koanf:"director_limit"`
	ThemeLimit          int     `koanf:"theme_limit"`
	SimilarUsers        int     `koanf:"similar_users"`
	MinOverlap          int     `koanf:"min_overlap"`
	ItemsPerNeighbor    int     `koanf:"items_per_neighbor"`
	HighCompletion      float64 `koanf:"high_completion"`
	MaxConcurrency      int     `koanf:"max_concurrency"`
}

// ContextTuning holds ContextAwareFilter bounds.
type ContextTuning struct {
	TimeOfDayLimit int     `koanf:"time_of_day_limit"`
	DeviceLimit    int     `koanf:"device_limit"`
	MoodLimit      int     `koanf:"mood_limit"`
	MinCompletion  float64 `koanf:"min_completion"`
}

// ExperimentsConfig holds ABTestingService settings.
type ExperimentsConfig struct {
	AssignmentLock        string        `koanf:"assignment_lock"`
	AssignmentLockTimeout time.Duration `koanf:"assignment_lock_timeout"`
	CacheSize             int           `koanf:"cache_size"` // 0 disables the in-process assignment cache
	CacheTTL              time.Duration `koanf:"cache_ttl"`
}

// Addr returns the admin listener address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
