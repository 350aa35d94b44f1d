package service

import (
	"context"
	"fmt"
	"strings"

	"skillswap/internal/domain/adminlog"
	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/user"
	infrastructure "skillswap/internal/interfaces/infrastructure"
	interfaces "skillswap/internal/interfaces/service"
	"skillswap/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultAdminLogLimit = 20
	maxAdminLogLimit     = 500
)

// KeyClearer deletes keys matching a glob pattern. The redis cache implements it.
type KeyClearer interface {
	Clear(ctx context.Context, pattern string) (int64, error)
}

type adminService struct {
	directory interfaces.DirectoryService
	logs      infrastructure.AdminLogRepository
	clearer   KeyClearer
	pattern   string
	clock     Clock
}

// NewAdminService wires the operator commands. clearer may be nil when idempotency outcomes
// are not kept in redis; ClearIdempotency then fails with an invalid state error.
func NewAdminService(
	directory interfaces.DirectoryService,
	logs infrastructure.AdminLogRepository,
	clearer KeyClearer,
	idempotencyPattern string,
	clock Clock,
) interfaces.AdminService {
	return &adminService{
		directory: directory,
		logs:      logs,
		clearer:   clearer,
		pattern:   idempotencyPattern,
		clock:     clock,
	}
}

func (s *adminService) SetRating(ctx context.Context, actor string, userID uuid.UUID, rating float64) (*user.User, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	u, err := s.directory.SetRating(ctx, userID, rating)
	if err != nil {
		return nil, err
	}
	return u, s.record(ctx, actor, adminlog.ActionSetRating, &userID, fmt.Sprintf("rating=%.2f", u.Rating))
}

func (s *adminService) Reactivate(ctx context.Context, actor string, userID uuid.UUID) (*user.User, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	u, err := s.directory.SetActive(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	return u, s.record(ctx, actor, adminlog.ActionReactivate, &userID, "")
}

func (s *adminService) ClearIdempotency(ctx context.Context, actor string) (int64, error) {
	if err := validateActor(actor); err != nil {
		return 0, err
	}
	if s.clearer == nil {
		return 0, apperror.InvalidState("idempotency", "", "idempotency outcomes are not stored in redis")
	}
	n, err := s.clearer.Clear(ctx, s.pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to clear idempotency keys: %w", err)
	}
	return n, s.record(ctx, actor, adminlog.ActionClearIdempotency, nil, fmt.Sprintf("deleted=%d", n))
}

func (s *adminService) RecentLogs(ctx context.Context, limit int) ([]*adminlog.Entry, error) {
	if limit <= 0 {
		limit = defaultAdminLogLimit
	}
	if limit > maxAdminLogLimit {
		limit = maxAdminLogLimit
	}
	return s.logs.Recent(ctx, limit)
}

// record appends the audit entry for a command that already took effect. A failed append is
// returned so the operator knows the trail is incomplete.
func (s *adminService) record(ctx context.Context, actor string, action adminlog.Action, target *uuid.UUID, details string) error {
	entry := adminlog.NewEntry(strings.TrimSpace(actor), action, target, details, s.clock.Now())
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.WithFields(map[string]any{"actor": entry.Actor, "action": action}).
			Error("Admin action applied but not recorded")
		return err
	}
	logger.WithFields(map[string]any{"actor": entry.Actor, "action": action, "details": details}).Info("Admin action recorded")
	return nil
}

func validateActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return apperror.Validation("actor", "actor is required")
	}
	return nil
}
