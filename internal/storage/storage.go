package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested slot does not exist.
var ErrNotFound = errors.New("not found")

// Backend is a durable key -> blob substrate. A SetSlot call replaces the
// whole value in one write: readers observe either the old or the new blob.
type Backend interface {
	GetSlot(ctx context.Context, key string) ([]byte, error)
	SetSlot(ctx context.Context, key string, value []byte) error
	Close() error
}

// Driver names a Backend implementation.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverFile   Driver = "file"
	DriverMemory Driver = "memory"
)

// OpenBackend selects a Backend by driver name. dataDir is ignored by the
// memory driver.
func OpenBackend(driver, dataDir string) (Backend, error) {
	switch Driver(strings.ToLower(driver)) {
	case DriverSQLite, "":
		return Open(dataDir)
	case DriverFile:
		return NewFileStore(dataDir)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty slot key")
	}
	return nil
}
