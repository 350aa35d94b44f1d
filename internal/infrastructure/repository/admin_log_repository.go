package repository

import (
	"context"
	"fmt"

	"skillswap/internal/domain/adminlog"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"gorm.io/gorm"
)

type adminLogRepository struct {
	db *gorm.DB
}

// NewAdminLogRepository creates a postgres-backed audit trail
func NewAdminLogRepository(db *gorm.DB) interfaces.AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Append(ctx context.Context, e *adminlog.Entry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to append admin log: %w", err)
	}
	return nil
}

func (r *adminLogRepository) Recent(ctx context.Context, limit int) ([]*adminlog.Entry, error) {
	entries := make([]*adminlog.Entry, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admin logs: %w", err)
	}
	return entries, nil
}
