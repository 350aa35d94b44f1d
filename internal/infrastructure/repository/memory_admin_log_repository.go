package repository

import (
	"context"
	"sync"

	"skillswap/internal/domain/adminlog"
)

type memoryAdminLogRepository struct {
	entries []*adminlog.Entry
	mutex   sync.RWMutex
}

// NewMemoryAdminLogRepository creates a new in-memory audit trail
func NewMemoryAdminLogRepository() *memoryAdminLogRepository {
	return &memoryAdminLogRepository{}
}

func (r *memoryAdminLogRepository) Append(ctx context.Context, e *adminlog.Entry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := *e
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *memoryAdminLogRepository) Recent(ctx context.Context, limit int) ([]*adminlog.Entry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if limit <= 0 {
		return []*adminlog.Entry{}, nil
	}
	out := make([]*adminlog.Entry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := *r.entries[i]
		out = append(out, &e)
	}
	return out, nil
}
