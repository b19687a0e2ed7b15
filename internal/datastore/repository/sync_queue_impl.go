package repository

import (
	"context"
	"fmt"

	"github.com/agrotrace/agrobio-go/internal/datastore/entities"
	"gorm.io/gorm"
)

// syncQueueRepository implements SyncQueueRepository.
type syncQueueRepository struct {
	db *gorm.DB
}

// NewSyncQueueRepository creates a new SyncQueueRepository.
func NewSyncQueueRepository(db *gorm.DB) SyncQueueRepository {
	return &syncQueueRepository{db: db}
}

// Enqueue durably stores a new mutation.
func (r *syncQueueRepository) Enqueue(ctx context.Context, m *entities.QueuedMutation) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	return nil
}

// ListPending returns all queued mutations in insertion order.
func (r *syncQueueRepository) ListPending(ctx context.Context) ([]entities.QueuedMutation, error) {
	var mutations []entities.QueuedMutation
	err := r.db.WithContext(ctx).
		Order("enqueued_at ASC, id ASC").
		Find(&mutations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queued mutations: %w", err)
	}
	return mutations, nil
}

// Delete removes a mutation by ID.
func (r *syncQueueRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.QueuedMutation{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete queued mutation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQueuedMutationNotFound
	}
	return nil
}

// RecordAttempt increments the mutation's attempt counter.
func (r *syncQueueRepository) RecordAttempt(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&entities.QueuedMutation{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to record attempt for mutation %d: %w", id, err)
	}
	return nil
}

// Count returns the queue depth.
func (r *syncQueueRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.QueuedMutation{}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count queued mutations: %w", err)
	}
	return count, nil
}
