package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"skillswap/internal/auth"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
	"skillswap/internal/infrastructure/index"
	"skillswap/internal/infrastructure/repository"
	infrastructure "skillswap/internal/interfaces/infrastructure"
	interfaces "skillswap/internal/interfaces/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errIndexDown = errors.New("index unavailable")

// flakyIndex fails writes while broken is set.
type flakyIndex struct {
	*index.MemoryIndex
	broken atomic.Bool
}

func (f *flakyIndex) IndexSkillsForUser(ctx context.Context, id uuid.UUID, offered, wanted []string) error {
	if f.broken.Load() {
		return errIndexDown
	}
	return f.MemoryIndex.IndexSkillsForUser(ctx, id, offered, wanted)
}

func (f *flakyIndex) RemoveUser(ctx context.Context, id uuid.UUID) error {
	if f.broken.Load() {
		return errIndexDown
	}
	return f.MemoryIndex.RemoveUser(ctx, id)
}

var _ infrastructure.SkillIndex = (*flakyIndex)(nil)

type testEnv struct {
	users     infrastructure.UserRepository
	requests  infrastructure.SwapRequestRepository
	index     *flakyIndex
	clock     *MonotonicClock
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenManager
	directory interfaces.DirectoryService
	search    interfaces.SearchService
	swaps     interfaces.SwapService
	auth      interfaces.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := repository.NewMemoryUserRepository()
	idx := &flakyIndex{MemoryIndex: index.NewMemoryIndex()}
	env := &testEnv{
		users:    userRepo,
		requests: repository.NewMemorySwapRepository(),
		index:    idx,
		clock:    NewMonotonicClock(),
		hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
		tokens:   auth.NewTokenManager("test-secret", "skillswap", time.Hour),
	}
	env.directory = NewDirectoryService(userRepo, userRepo, idx, env.hasher, env.clock, nil)
	env.search = NewSearchService(env.directory, idx, 20, 100, nil)
	env.swaps = NewSwapService(env.requests, userRepo, env.clock, nil)
	env.auth = NewAuthService(userRepo, env.hasher, env.tokens)
	return env
}

type profile struct {
	name    string
	offered []string
	wanted  []string
	public  bool
}

func (e *testEnv) register(t *testing.T, p profile) *user.User {
	t.Helper()
	u, err := e.directory.CreateUser(context.Background(), &user.CreateUserRequest{
		Name:          p.name,
		Email:         p.name + "@example.com",
		Password:      "secret123",
		Availability:  "weekends",
		SkillsOffered: p.offered,
		SkillsWanted:  p.wanted,
		IsPublic:      p.public,
	})
	require.NoError(t, err)
	return u
}

// indexMatchesDirectory asserts that the index holds exactly the skills of every active user.
func (e *testEnv) indexMatchesDirectory(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	expected := index.NewMemoryIndex()
	snapshots, err := e.users.(infrastructure.SkillSnapshotSource).SkillSnapshots(ctx)
	require.NoError(t, err)
	for _, s := range snapshots {
		if s.Active {
			require.NoError(t, expected.IndexSkillsForUser(ctx, s.ID, s.SkillsOffered, s.SkillsWanted))
		}
	}
	require.Equal(t, expected.Snapshot(), e.index.Snapshot())
}

func ids(users []*user.User) []uuid.UUID {
	out := make([]uuid.UUID, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func lookup(t *testing.T, e *testEnv, name string, side skill.Side) []uuid.UUID {
	t.Helper()
	found, err := e.index.Lookup(context.Background(), name, side)
	require.NoError(t, err)
	return found
}
