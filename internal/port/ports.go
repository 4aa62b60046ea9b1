// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/go-entulho/internal/domain"
)

// SlotStore is a local key-value store holding whole serialized snapshots
// under a named slot, the way a browser keeps data in localStorage.
type SlotStore interface {
	// Read returns nil, nil when the slot has never been written.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write overwrites the slot with data.
	Write(ctx context.Context, key string, data []byte) error
}

// ClientRepository is the record store seen by the controller and the query engine.
type ClientRepository interface {
	List(ctx context.Context) []domain.ClientRecord
	Get(ctx context.Context, nif string) (domain.ClientRecord, error)
	Upsert(ctx context.Context, rec domain.ClientRecord) (domain.ClientRecord, error)
	Replace(ctx context.Context, targetNIF string, rec domain.ClientRecord) (domain.ClientRecord, error)
	Remove(ctx context.Context, nif string) error
	SetFlag(ctx context.Context, nif string, flag domain.Flag, value bool) (domain.ClientRecord, error)
	Toggle(ctx context.Context, nif string, flag domain.Flag) (domain.ClientRecord, error)
}

// Notifier delivers a submitted record to the outbound automation webhook.
type Notifier interface {
	Notify(ctx context.Context, rec domain.ClientRecord) error
}

// Dispatcher hands a record to the notifier without waiting for the outcome.
type Dispatcher interface {
	Dispatch(rec domain.ClientRecord)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
