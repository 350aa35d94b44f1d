package repository

import (
	"context"
	"fmt"

	"skillswap/internal/domain/user"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/jmoiron/sqlx"
)

const skillSnapshotQuery = `SELECT id, active, skills_offered, skills_wanted FROM users ORDER BY seq`

type skillSnapshotRepository struct {
	db *sqlx.DB
}

// NewSkillSnapshotRepository reads the skill columns of all users for index rebuilds.
func NewSkillSnapshotRepository(db *sqlx.DB) interfaces.SkillSnapshotSource {
	return &skillSnapshotRepository{db: db}
}

func (r *skillSnapshotRepository) SkillSnapshots(ctx context.Context) ([]user.SkillSnapshot, error) {
	snapshots := make([]user.SkillSnapshot, 0)
	if err := r.db.SelectContext(ctx, &snapshots, skillSnapshotQuery); err != nil {
		return nil, fmt.Errorf("failed to load skill snapshots: %w", err)
	}
	return snapshots, nil
}
