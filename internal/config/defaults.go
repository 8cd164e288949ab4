// Package config provides configuration loading, defaults, and validation for
// the assessment continuity platform.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "qiyas"
	DefaultDBMaxConns = 25

	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisContextTTL = 10 * time.Minute
	DefaultRedisKeyPrefix  = "qiyas"

	DefaultKafkaBroker      = "localhost:9092"
	DefaultKafkaTopicPrefix = "continuity"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "recommendation-uploads"

	DefaultMatchThreshold   = 0.90
	DefaultSuggestThreshold = 0.60
	DefaultThreeFieldFloor  = 0.70
	DefaultTwoFieldFloor    = 0.85

	DefaultUploadMaxFileSize = 10 << 20 // 10 MiB

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.ContextTTL == 0 {
		cfg.Redis.ContextTTL = DefaultRedisContextTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.TopicPrefix == "" {
		cfg.Kafka.TopicPrefix = DefaultKafkaTopicPrefix
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Matching ──────────────────────────────────────────────────────────────
	if cfg.Matching.Threshold == 0 {
		cfg.Matching.Threshold = DefaultMatchThreshold
	}
	if cfg.Matching.SuggestThreshold == 0 {
		cfg.Matching.SuggestThreshold = DefaultSuggestThreshold
	}
	if cfg.Matching.ThreeFieldFloor == 0 {
		cfg.Matching.ThreeFieldFloor = DefaultThreeFieldFloor
	}
	if cfg.Matching.TwoFieldFloor == 0 {
		cfg.Matching.TwoFieldFloor = DefaultTwoFieldFloor
	}

	// ── Upload ────────────────────────────────────────────────────────────────
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = DefaultUploadMaxFileSize
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
