package repository

import (
	"context"
	"sync"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/user"
	interfaces "skillswap/internal/interfaces/infrastructure"
	"skillswap/pkg/keylock"

	"github.com/google/uuid"
)

// memoryUserRepository is an in-memory implementation of UserRepository for tests and single-process runs
type memoryUserRepository struct {
	users  map[uuid.UUID]*user.User
	emails map[string]uuid.UUID
	order  []uuid.UUID
	seq    int64
	mutex  sync.RWMutex
	locks  *keylock.KeyLock[uuid.UUID]
}

// NewMemoryUserRepository creates a new in-memory user repository
func NewMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		users:  make(map[uuid.UUID]*user.User),
		emails: make(map[string]uuid.UUID),
		locks:  keylock.New[uuid.UUID](),
	}
}

// Create stores a new user
func (r *memoryUserRepository) Create(ctx context.Context, u *user.User, after interfaces.UserHook) error {
	unlock := r.locks.Lock(u.ID)
	defer unlock()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[u.ID]; exists {
		return apperror.Conflict("user", "id", "user already exists")
	}
	if _, exists := r.emails[u.Email]; exists {
		return apperror.Conflict("user", "email", "email already registered")
	}

	stored := u.Clone()
	if after != nil {
		if err := after(ctx, stored.Clone()); err != nil {
			return err
		}
	}

	r.seq++
	stored.Seq = r.seq
	u.Seq = r.seq
	r.users[u.ID] = stored
	r.emails[u.Email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

// GetByID retrieves a user by ID
func (r *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, apperror.NotFound("user", id.String())
	}
	return u.Clone(), nil
}

// GetByEmail retrieves a user by email
func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	id, exists := r.emails[email]
	if !exists {
		return nil, apperror.NotFound("user", email)
	}
	return r.users[id].Clone(), nil
}

func (r *memoryUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]*user.User, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if u, ok := r.users[id]; ok {
			users = append(users, u.Clone())
		}
	}
	return users, nil
}

func (r *memoryUserRepository) ListPublic(ctx context.Context, excludeID uuid.UUID) ([]*user.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	users := make([]*user.User, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		if id == excludeID || !u.Listed() {
			continue
		}
		users = append(users, u.Clone())
	}
	return users, nil
}

// Update applies mutate to a copy of the user while holding that user's lock
func (r *memoryUserRepository) Update(ctx context.Context, id uuid.UUID, mutate func(u *user.User) error, after interfaces.UserHook) (*user.User, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(current); err != nil {
		return nil, err
	}
	if after != nil {
		if err := after(ctx, current.Clone()); err != nil {
			return nil, err
		}
	}

	r.mutex.Lock()
	r.users[id] = current.Clone()
	r.mutex.Unlock()

	return current, nil
}

func (r *memoryUserRepository) SkillSnapshots(ctx context.Context) ([]user.SkillSnapshot, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	snapshots := make([]user.SkillSnapshot, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		snapshots = append(snapshots, user.SkillSnapshot{
			ID:            u.ID,
			Active:        u.Active,
			SkillsOffered: append([]string{}, u.SkillsOffered...),
			SkillsWanted:  append([]string{}, u.SkillsWanted...),
		})
	}
	return snapshots, nil
}

var (
	_ interfaces.UserRepository      = (*memoryUserRepository)(nil)
	_ interfaces.SkillSnapshotSource = (*memoryUserRepository)(nil)
)
