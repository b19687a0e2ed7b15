package repository

import (
	"context"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
)

// SyncQueueRepository persists deferred mutations awaiting replay.
type SyncQueueRepository interface {
	// Enqueue durably stores a new mutation. Never touches the network.
	Enqueue(ctx context.Context, m *entities.QueuedMutation) error
	// ListPending returns all queued mutations in insertion order
	// (enqueue time, then insert sequence).
	ListPending(ctx context.Context) ([]entities.QueuedMutation, error)
	// Delete removes a mutation after successful replay.
	Delete(ctx context.Context, id uint) error
	// RecordAttempt increments the mutation's attempt counter.
	RecordAttempt(ctx context.Context, id uint) error
	// Count returns the queue depth.
	Count(ctx context.Context) (int64, error)
}
