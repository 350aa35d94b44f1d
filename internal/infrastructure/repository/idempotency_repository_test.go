package repository

import (
	"context"
	"testing"
	"time"

	"skillswap/internal/domain/idempotency"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotencyRepositories(t *testing.T) (map[string]interfaces.IdempotencyRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]interfaces.IdempotencyRepository{
		"memory": NewMemoryIdempotencyRepository(),
		"redis":  NewRedisIdempotencyRepository(client, time.Hour),
	}, mr
}

func TestIdempotencyRepository_RoundTrip(t *testing.T) {
	repos, _ := idempotencyRepositories(t)
	for name, repo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := &idempotency.Key{
				Key:          "k1",
				PrincipalID:  uuid.New(),
				RequestHash:  "abc",
				ResponseData: `{"ok":true}`,
				StatusCode:   201,
				ProcessedAt:  time.Now().UTC(),
				ExpiresAt:    time.Now().Add(time.Hour).UTC(),
			}
			require.NoError(t, repo.Create(ctx, key))

			got, err := repo.GetByKey(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, key.PrincipalID, got.PrincipalID)
			assert.Equal(t, 201, got.StatusCode)

			// first writer wins
			second := *key
			second.StatusCode = 500
			require.NoError(t, repo.Create(ctx, &second))
			got, err = repo.GetByKey(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, 201, got.StatusCode)

			require.NoError(t, repo.Delete(ctx, "k1"))
			_, err = repo.GetByKey(ctx, "k1")
			assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
		})
	}
}

func TestRedisIdempotencyRepository_ExpiresWithTTL(t *testing.T) {
	repos, mr := idempotencyRepositories(t)
	repo := repos["redis"]
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &idempotency.Key{
		Key:       "short",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}))
	mr.FastForward(11 * time.Minute)

	_, err := repo.GetByKey(ctx, "short")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
}
