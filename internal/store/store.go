// Package store is the durable key-value boundary used to keep the station
// list across restarts.
package store

import (
	"errors"
	"fmt"
	"time"
)

// StationsKey is the single key the station list is saved under
const StationsKey = "stations"

// opTimeout bounds a single database round trip
const opTimeout = 5 * time.Second

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown store backend")

// Store reads and writes string values by key. Get reports ok=false for a
// key that was never written.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and configures a backend
type Options struct {
	Backend string
	Path    string // directory for file, database file for sqlite
	DSN     string // connection string for postgres
}

// Open creates the store described by opts
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		dir := opts.Path
		if dir == "" {
			dir = DefaultDir()
		}
		return NewFileStore(dir)
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = DefaultSQLitePath()
		}
		return NewSQLiteStore(path)
	case BackendPostgres:
		return NewPostgresStore(opts.DSN)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
