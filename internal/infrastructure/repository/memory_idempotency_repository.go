package repository

import (
	"context"
	"sync"

	"skillswap/internal/domain/idempotency"
	interfaces "skillswap/internal/interfaces/infrastructure"
)

type memoryIdempotencyRepository struct {
	keys  map[string]idempotency.Key
	mutex sync.RWMutex
}

func NewMemoryIdempotencyRepository() *memoryIdempotencyRepository {
	return &memoryIdempotencyRepository{keys: make(map[string]idempotency.Key)}
}

func (r *memoryIdempotencyRepository) Create(ctx context.Context, key *idempotency.Key) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.keys[key.Key]; ok && !existing.IsExpired() {
		return nil
	}
	r.keys[key.Key] = *key
	return nil
}

func (r *memoryIdempotencyRepository) GetByKey(ctx context.Context, key string) (*idempotency.Key, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, ok := r.keys[key]
	if !ok {
		return nil, ErrIdempotencyKeyNotFound
	}
	return &stored, nil
}

func (r *memoryIdempotencyRepository) Delete(ctx context.Context, key string) error {
	r.mutex.Lock()
	delete(r.keys, key)
	r.mutex.Unlock()
	return nil
}

var _ interfaces.IdempotencyRepository = (*memoryIdempotencyRepository)(nil)
