// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverDuckDB,
			Path:            "/data/marquee.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			CreateMoodTable: false,
		},
		Redis: RedisConfig{
			Enabled:       false,
			Addr:          "127.0.0.1:6379",
			DB:            0,
			KeyPrefix:     "marquee:",
			AssignmentTTL: 24 * time.Hour,
			DialTimeout:   5 * time.Second,
		},
		Events: EventsConfig{
			Enabled:              true,
			Transport:            TransportGoChannel,
			NATSURL:              "nats://127.0.0.1:4222",
			QueueGroup:           "experiment-feedback",
			ExposureTopic:        "discovery.exposure",
			ConversionTopic:      "discovery.conversion",
			PoisonQueueTopic:     "discovery.poison",
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			CloseTimeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9470,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Discovery: DiscoveryConfig{
			Graph: GraphTuning{
				GenreWeight:         0.35,
				CastWeight:          0.25,
				DirectorWeight:      0.20,
				ThemeWeight:         0.20,
				ContentWeight:       0.6,
				CollaborativeWeight: 0.4,
				CollaborativeDecay:  0.5,
				MaxSeeds:            50,
				MaxCastPerSeed:      10,
				GenreLimit:          30,
				CastLimit:           20,
				DirectorLimit:       15,
				ThemeLimit:          20,
				SimilarUsers:        20,
				MinOverlap:          3,
				ItemsPerNeighbor:    30,
				HighCompletion:      0.7,
				MaxConcurrency:      8,
			},
			Context: ContextTuning{
				TimeOfDayLimit: 50,
				DeviceLimit:    50,
				MoodLimit:      50,
				MinCompletion:  0.3,
			},
			MoodRefreshInterval: 10 * time.Minute,
		},
		Experiments: ExperimentsConfig{
			AssignmentLock:        LockNone,
			AssignmentLockTimeout: 5 * time.Second,
			CacheSize:             10000,
			CacheTTL:              time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// the environment, in that order of increasing precedence, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment cannot leak into config.
var envMappings = map[string]string{
	// Database
	"database_driver":            "database.driver",
	"duckdb_path":                "database.path",
	"duckdb_max_memory":          "database.max_memory",
	"duckdb_threads":             "database.threads",
	"database_dsn":               "database.dsn",
	"database_max_open_conns":    "database.max_open_conns",
	"database_max_idle_conns":    "database.max_idle_conns",
	"database_conn_max_lifetime": "database.conn_max_lifetime",
	"database_create_mood_table": "database.create_mood_table",

	// Redis
	"redis_enabled":        "redis.enabled",
	"redis_addr":           "redis.addr",
	"redis_password":       "redis.password",
	"redis_db":             "redis.db",
	"redis_key_prefix":     "redis.key_prefix",
	"redis_assignment_ttl": "redis.assignment_ttl",

	// Events
	"events_enabled":          "events.enabled",
	"events_transport":        "events.transport",
	"nats_url":                "events.nats_url",
	"nats_queue_group":        "events.queue_group",
	"events_exposure_topic":   "events.exposure_topic",
	"events_conversion_topic": "events.conversion_topic",
	"events_poison_topic":     "events.poison_queue_topic",
	"events_retry_count":      "events.retry_count",
	"events_retry_interval":   "events.retry_initial_interval",
	"events_close_timeout":    "events.close_timeout",

	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Discovery
	"discovery_genre_weight":          "discovery.graph.genre_weight",
	"discovery_cast_weight":           "discovery.graph.cast_weight",
	"discovery_director_weight":       "discovery.graph.director_weight",
	"discovery_theme_weight":          "discovery.graph.theme_weight",
	"discovery_content_weight":        "discovery.graph.content_weight",
	"discovery_collaborative_weight":  "discovery.graph.collaborative_weight",
	"discovery_collaborative_decay":   "discovery.graph.collaborative_decay",
	"discovery_max_seeds":             "discovery.graph.max_seeds",
	"discovery_max_concurrency":       "discovery.graph.max_concurrency",
	"discovery_min_completion":        "discovery.context.min_completion",
	"discovery_mood_refresh_interval": "discovery.mood_refresh_interval",

	// Experiments
	"experiment_assignment_lock":         "experiments.assignment_lock",
	"experiment_assignment_lock_timeout": "experiments.assignment_lock_timeout",
	"experiment_cache_size":              "experiments.cache_size",
	"experiment_cache_ttl":               "experiments.cache_ttl",
}

// envTransformFunc maps an environment variable name to a koanf path.
//
//   - DUCKDB_PATH -> database.path
//   - EVENTS_TRANSPORT -> events.transport
//   - EXPERIMENT_ASSIGNMENT_LOCK -> experiments.assignment_lock
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
