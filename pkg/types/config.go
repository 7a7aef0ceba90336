package types

import "time"

// StoreDriver selects the record store backend.
type StoreDriver string

const (
	DriverSQLite   StoreDriver = "sqlite"
	DriverPostgres StoreDriver = "postgres"
)

// StoreConfig holds settings for opening the record store.
type StoreConfig struct {
	// Driver selects the backend: sqlite or postgres.
	Driver StoreDriver `json:"driver" yaml:"driver"`

	// Path is the SQLite database file (default "newspapers.db").
	Path string `json:"path" yaml:"path"`

	// DSN is the PostgreSQL connection string. Falls back to the
	// postgres-dsn secret when empty.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// SearchConfig holds settings for the search engine.
type SearchConfig struct {
	// ChunkSize is the number of records fetched per store round-trip (default 100).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
}

// HistoryConfig holds settings for the search history cache.
type HistoryConfig struct {
	// Capacity is the maximum number of remembered queries (default 10).
	Capacity int `json:"capacity" yaml:"capacity"`
}

// IngestConfig holds settings for building the store from source listings.
type IngestConfig struct {
	// Root is the directory containing one folder per newspaper.
	Root string `json:"root" yaml:"root"`

	// BatchSize is the number of files committed per transaction (default 1000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BaseURL is the archive item prefix (default "https://archive.org/details").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// ServeConfig holds settings for the HTTP surface.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout bounds request header and body reads.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Store   StoreConfig   `json:"store" yaml:"store"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	History HistoryConfig `json:"history" yaml:"history"`
	Ingest  IngestConfig  `json:"ingest" yaml:"ingest"`
	Serve   ServeConfig   `json:"serve" yaml:"serve"`
}
