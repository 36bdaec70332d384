package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrStorageWrite = errors.New("storage: write failed")
	ErrEmptyKey     = errors.New("storage: empty key")
)

// Mirror is a durable key-value store. Put replaces the whole value for a key.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverFile   Driver = "file"
	DriverMemory Driver = "memory"
)

func (d Driver) IsValid() bool {
	switch d {
	case DriverSQLite, DriverFile, DriverMemory:
		return true
	default:
		return false
	}
}

// Open builds the mirror for driver. SQLite databases are migrated on open.
func Open(driver Driver, path string) (Mirror, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverFile:
		return NewFileMirror(path)
	case DriverMemory:
		return NewMemoryMirror(), nil
	default:
		return nil, errors.New("storage: unknown driver " + string(driver))
	}
}
