// Package backend opens the storage selected by DATA_BACKEND.
package backend

import (
	"context"

	"remont/internal/ports"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Store is a repository that also holds the sync outbox.
type Store interface {
	ports.Repository
	ports.SyncQueue
}

// Result contains the opened store and its cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type         Type
	SQLiteDBPath string
}

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
