package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"skillswap/internal/domain/apperror"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.directory.CreateUser(ctx, &user.CreateUserRequest{
		Name:          "  Alice ",
		Email:         " Alice@Example.COM ",
		Password:      "secret123",
		SkillsOffered: []string{"Excel", " excel", "SQL  Server"},
		SkillsWanted:  []string{"Python", ""},
		IsPublic:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, env.hasher.Compare(u.PasswordHash, "secret123"))
	assert.Equal(t, []string{"excel", "sql server"}, []string(u.SkillsOffered))
	assert.Equal(t, []string{"python"}, []string(u.SkillsWanted))
	assert.True(t, u.Active)
	assert.Equal(t, user.RoleUser, u.Role)

	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, "excel", skill.Offered))
	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, "Python", skill.Wanted))
	env.indexMatchesDirectory(t)
}

func TestDirectoryService_CreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   user.CreateUserRequest
		field string
	}{
		{"blank name", user.CreateUserRequest{Name: "   ", Email: "a@example.com", Password: "secret123"}, "name"},
		{"bad email", user.CreateUserRequest{Name: "A", Email: "not-an-email", Password: "secret123"}, "email"},
		{"short password", user.CreateUserRequest{Name: "A", Email: "a@example.com", Password: "123"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.directory.CreateUser(ctx, &tc.req)
			require.Error(t, err)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tc.field, appErr.Field)
		})
	}
}

func TestDirectoryService_CreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, profile{name: "alice", offered: []string{"go"}, public: true})

	_, err := env.directory.CreateUser(ctx, &user.CreateUserRequest{
		Name:          "Impostor",
		Email:         "ALICE@example.com",
		Password:      "secret123",
		SkillsOffered: []string{"rust"},
	})
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, "email", appErr.Field)

	// the failed insert must not leave index entries behind
	assert.Empty(t, lookup(t, env, "rust", skill.Offered))
}

func TestDirectoryService_UpdateSkills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", offered: []string{"excel", "sql"}, wanted: []string{"python"}, public: true})

	updated, err := env.directory.UpdateSkills(ctx, u.ID, &user.UpdateSkillsRequest{
		SkillsOffered: []string{"SQL", "Go"},
		SkillsWanted:  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sql", "go"}, []string(updated.SkillsOffered))
	assert.Empty(t, updated.SkillsWanted)
	assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))

	assert.Empty(t, lookup(t, env, "excel", skill.Offered))
	assert.Empty(t, lookup(t, env, "python", skill.Wanted))
	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, "go", skill.Offered))
	env.indexMatchesDirectory(t)

	_, err = env.directory.UpdateSkills(ctx, uuid.New(), &user.UpdateSkillsRequest{})
	assert.True(t, apperror.KindOf(err) == apperror.KindNotFound)
}

func TestDirectoryService_UpdateSkills_IndexFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", offered: []string{"excel"}, public: true})

	env.index.broken.Store(true)
	_, err := env.directory.UpdateSkills(ctx, u.ID, &user.UpdateSkillsRequest{SkillsOffered: []string{"go"}})
	require.ErrorIs(t, err, errIndexDown)
	env.index.broken.Store(false)

	stored, err := env.directory.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"excel"}, []string(stored.SkillsOffered))
	env.indexMatchesDirectory(t)
}

func TestDirectoryService_UpdateSkills_ConcurrentSameUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", offered: []string{"seed"}, public: true})

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.directory.UpdateSkills(ctx, u.ID, &user.UpdateSkillsRequest{
				SkillsOffered: []string{fmt.Sprintf("skill-%d", i), "shared"},
				SkillsWanted:  []string{fmt.Sprintf("want-%d", i%3)},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// whichever write committed last, the index reflects exactly that write
	env.indexMatchesDirectory(t)
	stored, err := env.directory.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, stored.SkillsOffered, 2)
	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, stored.SkillsOffered[0], skill.Offered))
}

func TestDirectoryService_GetPublicUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.register(t, profile{name: "a", public: true})
	env.register(t, profile{name: "b", public: false})
	c := env.register(t, profile{name: "c", public: true})
	d := env.register(t, profile{name: "d", public: true})
	_, err := env.directory.SetActive(ctx, d.ID, false)
	require.NoError(t, err)

	users, err := env.directory.GetPublicUsers(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(users))

	users, err = env.directory.GetPublicUsers(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids(users))
}

func TestDirectoryService_SetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", offered: []string{"go"}, public: true})

	updated, err := env.directory.SetVisibility(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)

	// private users stay indexed; search filters them out
	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, "go", skill.Offered))

	_, err = env.directory.SetVisibility(ctx, uuid.New(), true)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDirectoryService_SetActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", offered: []string{"go"}, wanted: []string{"sql"}, public: true})

	_, err := env.directory.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Empty(t, lookup(t, env, "go", skill.Offered))
	assert.Empty(t, lookup(t, env, "sql", skill.Wanted))

	// skill edits while inactive are stored but not indexed
	_, err = env.directory.UpdateSkills(ctx, u.ID, &user.UpdateSkillsRequest{SkillsOffered: []string{"rust"}})
	require.NoError(t, err)
	assert.Empty(t, lookup(t, env, "rust", skill.Offered))
	env.indexMatchesDirectory(t)

	_, err = env.directory.SetActive(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u.ID}, lookup(t, env, "rust", skill.Offered))
	env.indexMatchesDirectory(t)
}

func TestDirectoryService_SetRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, profile{name: "alice", public: true})

	updated, err := env.directory.SetRating(ctx, u.ID, 4.5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)

	for _, bad := range []float64{-0.1, 5.1} {
		_, err := env.directory.SetRating(ctx, u.ID, bad)
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, "rating", appErr.Field)
	}
}

func TestDirectoryService_RebuildIndexMatchesIncremental(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.register(t, profile{name: "a", offered: []string{"excel", "go"}, wanted: []string{"python"}, public: true})
	b := env.register(t, profile{name: "b", offered: []string{"python"}, wanted: []string{"excel"}, public: false})
	c := env.register(t, profile{name: "c", offered: []string{"go"}, public: true})
	_, err := env.directory.UpdateSkills(ctx, a.ID, &user.UpdateSkillsRequest{SkillsOffered: []string{"go"}, SkillsWanted: []string{"rust"}})
	require.NoError(t, err)
	_, err = env.directory.SetActive(ctx, c.ID, false)
	require.NoError(t, err)

	incremental := env.index.Snapshot()

	// scramble the index, then rebuild from the directory
	require.NoError(t, env.index.IndexSkillsForUser(ctx, uuid.New(), []string{"junk"}, nil))
	require.NoError(t, env.index.RemoveUser(ctx, b.ID))

	n, err := env.directory.RebuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, incremental, env.index.Snapshot())
}
