package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/swap"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type swapRequestRepository struct {
	db *gorm.DB
}

// NewSwapRequestRepository creates a postgres-backed swap request repository.
// The pending-pair rule is enforced by the partial unique index idx_swap_requests_pending_pair.
func NewSwapRequestRepository(db *gorm.DB) interfaces.SwapRequestRepository {
	return &swapRequestRepository{db: db}
}

func (r *swapRequestRepository) CreatePending(ctx context.Context, req *swap.Request) error {
	err := r.db.WithContext(ctx).Create(req).Error
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == pendingPairConstraint {
			return apperror.Conflict("swap_request", "receiver_id", "a pending request to this user already exists")
		}
		return apperror.Conflict("swap_request", "id", "swap request already exists")
	}
	return fmt.Errorf("failed to create swap request: %w", err)
}

func (r *swapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*swap.Request, error) {
	return r.getByID(r.db.WithContext(ctx), id)
}

func (r *swapRequestRepository) getByID(db *gorm.DB, id uuid.UUID) (*swap.Request, error) {
	var req swap.Request
	if err := db.Where("id = ?", id).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("swap_request", id.String())
		}
		return nil, fmt.Errorf("failed to get swap request: %w", err)
	}
	return &req, nil
}

func (r *swapRequestRepository) ListForUser(ctx context.Context, userID uuid.UUID, direction swap.Direction) ([]*swap.Request, error) {
	query := r.db.WithContext(ctx)
	switch direction {
	case swap.DirectionSent:
		query = query.Where("requester_id = ?", userID)
	case swap.DirectionReceived:
		query = query.Where("receiver_id = ?", userID)
	default:
		query = query.Where("requester_id = ? OR receiver_id = ?", userID, userID)
	}

	requests := make([]*swap.Request, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list swap requests: %w", err)
	}
	return requests, nil
}

// Transition is a compare-and-set on status: the UPDATE only matches a pending row.
func (r *swapRequestRepository) Transition(ctx context.Context, id uuid.UUID, status swap.Status, at time.Time) (*swap.Request, error) {
	if !swap.CanTransition(swap.StatusPending, status) {
		return nil, apperror.InvalidState("swap_request", id.String(), "cannot move to "+string(status))
	}

	var updated *swap.Request
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&swap.Request{}).
			Where("id = ? AND status = ?", id, swap.StatusPending).
			Updates(map[string]any{"status": status, "updated_at": at})
		if result.Error != nil {
			return fmt.Errorf("failed to transition swap request: %w", result.Error)
		}

		current, err := r.getByID(tx, id)
		if err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return apperror.InvalidState("swap_request", id.String(), "request is already "+string(current.Status))
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
