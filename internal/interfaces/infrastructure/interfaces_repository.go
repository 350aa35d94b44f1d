package interfaces

import (
	"context"
	"time"

	"skillswap/internal/domain/adminlog"
	"skillswap/internal/domain/idempotency"
	"skillswap/internal/domain/swap"
	"skillswap/internal/domain/user"

	"github.com/google/uuid"
)

// UserHook runs while a user write is still uncommitted. Returning an error rolls the write back.
type UserHook func(ctx context.Context, u *user.User) error

type UserRepository interface {
	// Create inserts u and runs after before committing. A duplicate email yields a conflict error.
	Create(ctx context.Context, u *user.User, after UserHook) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	// GetByIDs returns the users found among ids; unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	// ListPublic returns listed users in insertion order.
	ListPublic(ctx context.Context, excludeID uuid.UUID) ([]*user.User, error)
	// Update serializes writers per user: it locks the user, applies mutate, persists the result
	// and runs after before releasing the lock.
	Update(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error, after UserHook) (*user.User, error)
}

// SkillSnapshotSource streams the skill columns of every user for index rebuilds.
type SkillSnapshotSource interface {
	SkillSnapshots(ctx context.Context) ([]user.SkillSnapshot, error)
}

type SwapRequestRepository interface {
	// CreatePending inserts r unless a pending request already exists for the same
	// (requester, receiver) pair, in which case it returns a conflict error. Check and insert are atomic.
	CreatePending(ctx context.Context, r *swap.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*swap.Request, error)
	ListForUser(ctx context.Context, userID uuid.UUID, direction swap.Direction) ([]*swap.Request, error)
	// Transition moves the request from pending to status. It returns an invalid state error when the
	// request is no longer pending, so only one of several concurrent callers can win.
	Transition(ctx context.Context, id uuid.UUID, status swap.Status, at time.Time) (*swap.Request, error)
}

type IdempotencyRepository interface {
	Create(ctx context.Context, key *idempotency.Key) error
	GetByKey(ctx context.Context, key string) (*idempotency.Key, error)
	Delete(ctx context.Context, key string) error
}

// AdminLogRepository is the append-only audit trail of operator commands.
type AdminLogRepository interface {
	Append(ctx context.Context, e *adminlog.Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]*adminlog.Entry, error)
}
