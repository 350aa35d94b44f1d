package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
	infrastructure "skillswap/internal/interfaces/infrastructure"
	interfaces "skillswap/internal/interfaces/service"
	"skillswap/internal/metrics"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// directoryService owns user profiles and keeps the skill index in step with them.
// Every write that touches skills runs the index update inside the repository's
// per-user critical section, so a failed index write leaves the user unchanged.
type directoryService struct {
	users     infrastructure.UserRepository
	snapshots infrastructure.SkillSnapshotSource
	index     infrastructure.SkillIndex
	hasher    PasswordHasher
	clock     Clock
	metrics   metrics.MetricsCollector
	repairs   infrastructure.QueueService
}

type DirectoryOption func(*directoryService)

// WithRepairQueue schedules an index repair for a user whenever a write fails for a reason
// other than a classified service error.
func WithRepairQueue(q infrastructure.QueueService) DirectoryOption {
	return func(s *directoryService) {
		s.repairs = q
	}
}

func NewDirectoryService(
	users infrastructure.UserRepository,
	snapshots infrastructure.SkillSnapshotSource,
	index infrastructure.SkillIndex,
	hasher PasswordHasher,
	clock Clock,
	collector metrics.MetricsCollector,
	opts ...DirectoryOption,
) interfaces.DirectoryService {
	if collector == nil {
		collector = metrics.Nop{}
	}
	s := &directoryService{
		users:     users,
		snapshots: snapshots,
		index:     index,
		hasher:    hasher,
		clock:     clock,
		metrics:   collector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *directoryService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	normalized := *req
	normalized.Name = strings.TrimSpace(req.Name)
	normalized.Email = strings.ToLower(strings.TrimSpace(req.Email))
	normalized.Location = strings.TrimSpace(req.Location)
	normalized.Availability = strings.TrimSpace(req.Availability)

	if err := validate(&normalized); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(normalized.Password)
	if err != nil {
		return nil, err
	}

	u := user.NewUser(&normalized, hash, s.clock.Now())
	if err := s.users.Create(ctx, u, s.reindex); err != nil {
		if apperror.KindOf(err) == "" {
			logger.Error("Failed to create user %s: %v", normalized.Email, err)
			s.scheduleRepair(ctx, u.ID, "create failed")
		}
		return nil, err
	}

	s.metrics.RecordUserCreated()
	logger.WithField("user_id", u.ID).Info("User registered")
	return u, nil
}

func (s *directoryService) UpdateSkills(ctx context.Context, userID uuid.UUID, req *user.UpdateSkillsRequest) (*user.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	offered := skill.NewSet(req.SkillsOffered)
	wanted := skill.NewSet(req.SkillsWanted)

	updated, err := s.users.Update(ctx, userID, func(u *user.User) error {
		u.SkillsOffered = offered
		u.SkillsWanted = wanted
		u.UpdatedAt = s.clock.Now()
		return nil
	}, s.reindex)
	if err != nil {
		if apperror.KindOf(err) == "" {
			s.scheduleRepair(ctx, userID, "skill update failed")
		}
		return nil, err
	}

	s.metrics.RecordSkillsUpdated()
	logger.Debug("Updated skills for user %s: offered=%v wanted=%v", userID, offered, wanted)
	return updated, nil
}

// GetPublicUsers lists listed users other than excludeID in registration order.
func (s *directoryService) GetPublicUsers(ctx context.Context, excludeID uuid.UUID) ([]*user.User, error) {
	users, err := s.users.ListPublic(ctx, excludeID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(users))
	unique := make([]*user.User, 0, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		unique = append(unique, u)
	}
	return unique, nil
}

func (s *directoryService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *directoryService) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	return s.users.GetByIDs(ctx, ids)
}

func (s *directoryService) SetVisibility(ctx context.Context, userID uuid.UUID, public bool) (*user.User, error) {
	return s.users.Update(ctx, userID, func(u *user.User) error {
		u.IsPublic = public
		u.UpdatedAt = s.clock.Now()
		return nil
	}, nil)
}

// SetActive deactivates or reactivates a user. Deactivated users are purged from the index.
func (s *directoryService) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*user.User, error) {
	updated, err := s.users.Update(ctx, userID, func(u *user.User) error {
		u.Active = active
		u.UpdatedAt = s.clock.Now()
		return nil
	}, s.reindex)
	if err != nil {
		if apperror.KindOf(err) == "" {
			s.scheduleRepair(ctx, userID, "activation change failed")
		}
		return nil, err
	}

	logger.WithFields(map[string]any{"user_id": userID, "active": active}).Info("User activation changed")
	return updated, nil
}

func (s *directoryService) SetRating(ctx context.Context, userID uuid.UUID, rating float64) (*user.User, error) {
	if rating < 0 || rating > user.MaxRating {
		return nil, apperror.Validation("rating", fmt.Sprintf("rating must be between 0 and %.0f", user.MaxRating))
	}

	return s.users.Update(ctx, userID, func(u *user.User) error {
		u.Rating = rating
		u.UpdatedAt = s.clock.Now()
		return nil
	}, nil)
}

// RebuildIndex clears the index and re-derives every user through the same locked write
// that UpdateSkills uses, so it can run against a live server. The snapshot only supplies ids.
func (s *directoryService) RebuildIndex(ctx context.Context) (int, error) {
	start := time.Now()

	snapshots, err := s.snapshots.SkillSnapshots(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.index.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset skill index: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(snapshots))
	indexed := 0
	for pass := 0; pass < 2; pass++ {
		// the second pass picks up users registered while the first one ran
		if pass > 0 {
			if snapshots, err = s.snapshots.SkillSnapshots(ctx); err != nil {
				return indexed, err
			}
		}
		for _, snap := range snapshots {
			if _, done := seen[snap.ID]; done {
				continue
			}
			seen[snap.ID] = struct{}{}

			u, err := s.repair(ctx, snap.ID)
			if err != nil {
				return indexed, fmt.Errorf("failed to index user %s: %w", snap.ID, err)
			}
			if u != nil && u.Active {
				indexed++
			}
		}
	}

	s.metrics.RecordIndexRebuild(indexed, time.Since(start))
	logger.Info("Rebuilt skill index: %d of %d users indexed in %v", indexed, len(seen), time.Since(start))
	return indexed, nil
}

func (s *directoryService) RepairUserIndex(ctx context.Context, userID uuid.UUID) error {
	_, err := s.repair(ctx, userID)
	return err
}

// repair re-derives one user's entries under the user's write lock. A user that no longer
// exists is purged and reported as nil.
func (s *directoryService) repair(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.Update(ctx, userID, func(*user.User) error { return nil }, s.reindex)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, s.index.RemoveUser(ctx, userID)
	}
	return u, err
}

// scheduleRepair queues userID for RepairUserIndex. A full queue only loses the repair,
// which the reindex command also covers.
func (s *directoryService) scheduleRepair(ctx context.Context, userID uuid.UUID, reason string) {
	if s.repairs == nil {
		return
	}
	job := infrastructure.IndexRepairJob{
		UserID:    userID,
		Reason:    reason,
		Timestamp: s.clock.Now(),
	}
	if err := s.repairs.EnqueueIndexRepair(context.WithoutCancel(ctx), job); err != nil {
		logger.Warn("Failed to schedule index repair for user %s: %v", userID, err)
	}
}

// reindex brings the index in line with u; it runs inside the repository write.
func (s *directoryService) reindex(ctx context.Context, u *user.User) error {
	if !u.Active {
		if err := s.index.RemoveUser(ctx, u.ID); err != nil {
			return fmt.Errorf("failed to remove user from skill index: %w", err)
		}
		return nil
	}
	if err := s.index.IndexSkillsForUser(ctx, u.ID, u.SkillsOffered, u.SkillsWanted); err != nil {
		return fmt.Errorf("failed to update skill index: %w", err)
	}
	return nil
}
