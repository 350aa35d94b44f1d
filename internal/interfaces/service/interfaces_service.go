package service

import (
	"context"
	"time"

	"skillswap/internal/domain/adminlog"
	"skillswap/internal/domain/idempotency"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/swap"
	"skillswap/internal/domain/user"

	"github.com/google/uuid"
)

// SearchQuery describes one skill search
type SearchQuery struct {
	Skill     string
	Side      skill.Side
	Partial   bool
	ExcludeID uuid.UUID
	Offset    int
	Limit     int
}

// SearchPage is one page of search results. Total counts matches before pagination.
type SearchPage struct {
	Users  []*user.User `json:"users"`
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
	Skill  string       `json:"skill,omitempty"`
	Side   skill.Side   `json:"side"`
}

// LoginResult is returned to a caller that presented valid credentials
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}

type DirectoryService interface {
	CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error)
	UpdateSkills(ctx context.Context, userID uuid.UUID, req *user.UpdateSkillsRequest) (*user.User, error)
	GetPublicUsers(ctx context.Context, excludeID uuid.UUID) ([]*user.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	SetVisibility(ctx context.Context, userID uuid.UUID, public bool) (*user.User, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) (*user.User, error)
	SetRating(ctx context.Context, userID uuid.UUID, rating float64) (*user.User, error)

	// RebuildIndex discards the skill index and re-derives it from the directory.
	// It returns the number of users indexed.
	RebuildIndex(ctx context.Context) (int, error)
	// RepairUserIndex re-derives one user's index entries under that user's write lock.
	RepairUserIndex(ctx context.Context, userID uuid.UUID) error
}

type SearchService interface {
	SearchBySkill(ctx context.Context, query SearchQuery) (*SearchPage, error)
}

type SwapService interface {
	CreateRequest(ctx context.Context, requesterID uuid.UUID, in *swap.CreateRequestInput) (*swap.Request, error)
	ListRequests(ctx context.Context, userID uuid.UUID, direction swap.Direction) ([]*swap.Request, error)
	GetRequest(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error)
	Accept(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error)
	Decline(ctx context.Context, id, callerID uuid.UUID) (*swap.Request, error)
}

type AuthService interface {
	Login(ctx context.Context, req *user.LoginRequest) (*LoginResult, error)
	// Authenticate resolves a bearer token to the principal id it was issued for.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

type IdempotencyService interface {
	// CheckDuplicateRequest returns the stored outcome when key was already used by principalID
	// with the same request data. Reusing key with different data is a conflict.
	CheckDuplicateRequest(ctx context.Context, key string, principalID uuid.UUID, requestData any) (*idempotency.Key, bool, error)
	StoreProcessedRequest(ctx context.Context, key string, principalID uuid.UUID, requestData any, responseData any, statusCode int) error
}

// AdminService runs operator commands and records each successful one in the audit trail.
type AdminService interface {
	SetRating(ctx context.Context, actor string, userID uuid.UUID, rating float64) (*user.User, error)
	Reactivate(ctx context.Context, actor string, userID uuid.UUID) (*user.User, error)
	// ClearIdempotency deletes every stored idempotency outcome and returns how many were removed.
	ClearIdempotency(ctx context.Context, actor string) (int64, error)
	RecentLogs(ctx context.Context, limit int) ([]*adminlog.Entry, error)
}
