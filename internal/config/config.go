// Package config loads the typed configuration record every Application
// is constructed from (spec.md §9 "no global mutable singleton"),
// grounded on the teacher's cmd/cobra_cli.go viper wiring
// (SetConfigName/SetConfigType/AddConfigPath/ReadInConfig, env var
// binding) via github.com/spf13/viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete set of knobs an Application needs at
// construction time: no package-level global ever reads these, they are
// threaded explicitly (§9).
type Config struct {
	// HTTPListenAddr is the address the primary HTTP transport binds to.
	HTTPListenAddr string

	// PathSeparator is the TaskID path segment delimiter (§4.1); almost
	// always "/".
	PathSeparator string

	// SessionPoolMax is the hard cap on concurrently cached sessions
	// (§4.7 "pool.size() <= Max").
	SessionPoolMax int
	// SessionEvictionBatchSize is how many sessions are evicted at once
	// when the pool is over capacity (§4.7).
	SessionEvictionBatchSize int
	// SessionInactiveThreshold is how long a session may go unused
	// before the sweep goroutine considers it inactive (§4.7).
	SessionInactiveThreshold time.Duration
	// SessionSweepInterval is how often the pool's background sweep runs.
	SessionSweepInterval time.Duration

	// PubSubBrokerDSN is the redis connection string backing
	// internal/transport/pubsub.
	PubSubBrokerDSN string
	// QueueBrokerDSN is the redis connection string backing
	// internal/transport/queue.
	QueueBrokerDSN string
	// EventBusChannel is the pub/sub channel internal/eventbus publishes
	// emitted events to.
	EventBusChannel string

	// JWTSigningSecret verifies bearer tokens decoded by
	// internal/session.FieldsFromBearerToken. Empty disables session
	// resolution from bearer credentials.
	JWTSigningSecret string

	// ManifestPath, if set, points cmd/taskgridd at a YAML static
	// manager-registration manifest (internal/manifest) to load at
	// startup.
	ManifestPath string
}

// Default returns a Config populated with the framework's baked-in
// defaults, overridden by Load when a config source is present.
func Default() Config {
	return Config{
		HTTPListenAddr:           ":8080",
		PathSeparator:            "/",
		SessionPoolMax:           10_000,
		SessionEvictionBatchSize: 100,
		SessionInactiveThreshold: 30 * time.Minute,
		SessionSweepInterval:     time.Minute,
		PubSubBrokerDSN:          "redis://localhost:6379/0",
		QueueBrokerDSN:           "redis://localhost:6379/1",
		EventBusChannel:          "taskgrid.events",
	}
}

// Load reads taskgrid.{yaml,json,...} from the given search paths (falling
// back silently to Default() if none is found, the way the teacher's CLI
// tolerates a missing alex-config file in debug-off mode) plus
// TASKGRID_-prefixed environment variables, and returns the merged Config.
func Load(configName string, searchPaths ...string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(configName)
	v.SetEnvPrefix("TASKGRID")
	v.AutomaticEnv()
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, fmt.Errorf("config: reading %s: %w", configName, err)
		}
	}

	cfg.HTTPListenAddr = v.GetString("http_listen_addr")
	cfg.PathSeparator = v.GetString("path_separator")
	cfg.SessionPoolMax = v.GetInt("session_pool_max")
	cfg.SessionEvictionBatchSize = v.GetInt("session_eviction_batch_size")
	cfg.SessionInactiveThreshold = v.GetDuration("session_inactive_threshold")
	cfg.SessionSweepInterval = v.GetDuration("session_sweep_interval")
	cfg.PubSubBrokerDSN = v.GetString("pubsub_broker_dsn")
	cfg.QueueBrokerDSN = v.GetString("queue_broker_dsn")
	cfg.EventBusChannel = v.GetString("eventbus_channel")
	cfg.JWTSigningSecret = v.GetString("jwt_signing_secret")
	cfg.ManifestPath = v.GetString("manifest_path")
	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("http_listen_addr", cfg.HTTPListenAddr)
	v.SetDefault("path_separator", cfg.PathSeparator)
	v.SetDefault("session_pool_max", cfg.SessionPoolMax)
	v.SetDefault("session_eviction_batch_size", cfg.SessionEvictionBatchSize)
	v.SetDefault("session_inactive_threshold", cfg.SessionInactiveThreshold)
	v.SetDefault("session_sweep_interval", cfg.SessionSweepInterval)
	v.SetDefault("pubsub_broker_dsn", cfg.PubSubBrokerDSN)
	v.SetDefault("queue_broker_dsn", cfg.QueueBrokerDSN)
	v.SetDefault("eventbus_channel", cfg.EventBusChannel)
	v.SetDefault("jwt_signing_secret", cfg.JWTSigningSecret)
	v.SetDefault("manifest_path", cfg.ManifestPath)
}
