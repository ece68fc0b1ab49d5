/*
Package config is Chronicle's Config struct and its cobra/pflag wiring:
PersistentFlags read once at startup into a plain struct rather than
threaded through as individual flag lookups.
*/
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the ingestion core's configuration (§6's configuration
// options table) plus the data directory and log options every command
// needs.
type Config struct {
	// Url is the upstream node endpoint; must use the http scheme (§6).
	Url string `yaml:"url"`
	// ConnectionRetryInterval bounds the sleep between reconnect attempts.
	ConnectionRetryInterval time.Duration `yaml:"connection_retry_interval"`
	// SyncStartSlot is the floor for start_index when the store is empty.
	SyncStartSlot uint32 `yaml:"sync_start_slot"`
	// InsertBatchSize is the chunk size for bootstrap's parallel writes and
	// for per-milestone ledger-update-record building.
	InsertBatchSize int `yaml:"insert_batch_size"`

	DataDir       string `yaml:"data_dir"`
	CommitLogBind string `yaml:"commit_log_bind"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns Chronicle's out-of-the-box configuration.
func Default() Config {
	return Config{
		Url:                     "http://127.0.0.1:9029",
		ConnectionRetryInterval: 5 * time.Second,
		SyncStartSlot:           0,
		InsertBatchSize:         1000,
		DataDir:                 "./chronicle-data",
		CommitLogBind:           "127.0.0.1:9030",
		LogLevel:                "info",
		LogJSON:                 false,
	}
}

// RegisterFlags attaches Chronicle's options to fs: one String/Bool/
// Duration/Int call per option, defaults supplied here rather than
// scattered across call sites.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Url, "url", cfg.Url, "upstream node endpoint (http scheme)")
	fs.DurationVar(&cfg.ConnectionRetryInterval, "connection-retry-interval", cfg.ConnectionRetryInterval, "bounded retry sleep between reconnect attempts")
	fs.Uint32Var(&cfg.SyncStartSlot, "sync-start-slot", cfg.SyncStartSlot, "floor for start_index when the store is empty")
	fs.IntVar(&cfg.InsertBatchSize, "insert-batch-size", cfg.InsertBatchSize, "chunk size for bootstrap's parallel writes and per-milestone record building")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory for the output/ledger-update/block stores")
	fs.StringVar(&cfg.CommitLogBind, "commit-log-bind", cfg.CommitLogBind, "bind address for the local commit log's (unused) raft transport")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "output logs in JSON format")
}

// LoadFile overlays a YAML config file onto cfg; fields absent from the
// file are left untouched. A missing path is not an error — flags and
// defaults alone are a valid configuration.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the invariants the ingestion core depends on before it
// starts: the url scheme (§6), a positive batch size and a positive
// connection retry interval.
func (c Config) Validate() error {
	u, err := url.Parse(c.Url)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.Url, err)
	}
	if u.Scheme != "http" {
		return fmt.Errorf("invalid url %q: must use http scheme", c.Url)
	}
	if c.InsertBatchSize <= 0 {
		return fmt.Errorf("insert_batch_size must be positive, got %d", c.InsertBatchSize)
	}
	if c.ConnectionRetryInterval <= 0 {
		return fmt.Errorf("connection_retry_interval must be positive, got %s", c.ConnectionRetryInterval)
	}
	return nil
}

// LogConfig adapts Config's log fields into pkg/log's Config.
func (c Config) LogConfig() log.Config {
	return log.Config{
		Level:      log.Level(c.LogLevel),
		JSONOutput: c.LogJSON,
	}
}
