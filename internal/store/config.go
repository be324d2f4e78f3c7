package store

// Backend names a storage engine selectable at startup.
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendSQLite  Backend = "sqlite"
	BackendRocksDB Backend = "rocksdb"
)

// Config holds configuration for the storage layer, mirroring the shape
// of the teacher's own Config (internal/store/config.go: a top-level
// struct composing per-backend sub-configs) narrowed to the one backend
// selected at a time rather than always wiring every backend.
type Config struct {
	Backend Backend `validate:"required"`

	// SQLitePath is the database file path when Backend == BackendSQLite.
	SQLitePath string

	RocksDB RocksDBConfig
}

// RocksDBConfig configures the grocksdb-backed backend, trimmed to the
// tuning knobs the teacher's own RocksDBConfig exposes.
type RocksDBConfig struct {
	Path                 string
	MaxOpenFiles         int
	WriteBufferSizeMB    int
	BlockCacheSizeMB     int
	EnableWAL            bool
	SyncWrites           bool
	CompressionType      string
}

// DefaultConfig returns an in-memory store configuration, the always-
// available default when no persistence backend is configured.
func DefaultConfig() *Config {
	return &Config{Backend: BackendMemory}
}

// Validate reports whether the config names a supported backend and
// carries the fields that backend needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendSQLite:
		if c.SQLitePath == "" {
			return &StoreError{Op: "validate", Err: ErrNotFound, Key: "sqlite_path"}
		}
		return nil
	case BackendRocksDB:
		if c.RocksDB.Path == "" {
			return &StoreError{Op: "validate", Err: ErrNotFound, Key: "rocksdb.path"}
		}
		return nil
	default:
		return &StoreError{Op: "validate", Err: ErrNotFound, Key: "backend"}
	}
}
