package repository

import (
	"context"
	"errors"
	"fmt"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/user"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a postgres-backed user repository
func NewUserRepository(db *gorm.DB) interfaces.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User, after interfaces.UserHook) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if constraint, ok := uniqueViolation(err); ok {
				if constraint == usersEmailConstraint {
					return apperror.Conflict("user", "email", "email already registered")
				}
				return apperror.Conflict("user", "id", "user already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if after != nil {
			return after(ctx, u.Clone())
		}
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id.String())
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	users := make([]*user.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListPublic(ctx context.Context, excludeID uuid.UUID) ([]*user.User, error) {
	var users []*user.User
	err := r.db.WithContext(ctx).
		Where("is_public = ? AND active = ?", true, true).
		Where("id <> ?", excludeID).
		Order("seq ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list public users: %w", err)
	}
	return users, nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent writers to the same user queue up.
func (r *userRepository) Update(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error, after interfaces.UserHook) (*user.User, error) {
	var updated user.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&updated).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id.String())
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		if err := mutate(&updated); err != nil {
			return err
		}

		err = tx.Model(&user.User{}).Where("id = ?", id).Updates(map[string]any{
			"name":           updated.Name,
			"location":       updated.Location,
			"availability":   updated.Availability,
			"is_public":      updated.IsPublic,
			"active":         updated.Active,
			"role":           updated.Role,
			"rating":         updated.Rating,
			"skills_offered": updated.SkillsOffered,
			"skills_wanted":  updated.SkillsWanted,
			"updated_at":     updated.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if after != nil {
			return after(ctx, updated.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
