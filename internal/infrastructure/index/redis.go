package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"skillswap/internal/domain/skill"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	DefaultRedisPrefix = "skillswap:"

	maxWatchRetries = 16
)

// RedisIndex stores each bucket as a Redis set keyed by side and skill, plus a reverse set per
// user and side so removed skills can be pruned. Redis drops empty sets on its own.
type RedisIndex struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIndex(client redis.UniversalClient, prefix string) *RedisIndex {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisIndex{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisIndex) IndexSkillsForUser(ctx context.Context, userID uuid.UUID, offered, wanted []string) error {
	offered = skill.NewSet(offered)
	wanted = skill.NewSet(wanted)
	offeredKey, wantedKey := r.userKey(userID, skill.Offered), r.userKey(userID, skill.Wanted)

	// The reverse sets are watched so a concurrent writer for the same user aborts the
	// EXEC and the diff is recomputed.
	update := func(tx *redis.Tx) error {
		prevOffered, err := tx.SMembers(ctx, offeredKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read indexed offered skills: %w", err)
		}
		prevWanted, err := tx.SMembers(ctx, wantedKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read indexed wanted skills: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.queueSide(ctx, pipe, userID, skill.Offered, prevOffered, offered)
			r.queueSide(ctx, pipe, userID, skill.Wanted, prevWanted, wanted)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.client.Watch(ctx, update, offeredKey, wantedKey)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return fmt.Errorf("failed to update skill index: %w", err)
	}
	return fmt.Errorf("failed to update skill index for user %s: gave up after %d conflicting writes", userID, maxWatchRetries)
}

func (r *RedisIndex) queueSide(ctx context.Context, pipe redis.Pipeliner, userID uuid.UUID, side skill.Side, prev, next []string) {
	added, removed := skill.Diff(prev, next)
	member := userID.String()
	for _, name := range removed {
		pipe.SRem(ctx, r.skillKey(name, side), member)
	}
	for _, name := range added {
		pipe.SAdd(ctx, r.skillKey(name, side), member)
	}

	userKey := r.userKey(userID, side)
	pipe.Del(ctx, userKey)
	if len(next) > 0 {
		members := make([]interface{}, len(next))
		for i, name := range next {
			members[i] = name
		}
		pipe.SAdd(ctx, userKey, members...)
	}
}

func (r *RedisIndex) RemoveUser(ctx context.Context, userID uuid.UUID) error {
	return r.IndexSkillsForUser(ctx, userID, nil, nil)
}

func (r *RedisIndex) Lookup(ctx context.Context, name string, side skill.Side) ([]uuid.UUID, error) {
	key := skill.Normalize(name)
	if key == "" {
		return []uuid.UUID{}, nil
	}

	members, err := r.client.SMembers(ctx, r.skillKey(key, side)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up skill %q: %w", key, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in skill index: %w", m, err)
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

func (r *RedisIndex) Skills(ctx context.Context, side skill.Side) ([]string, error) {
	prefix := r.prefix + "skill:" + string(side) + ":"
	keys, err := r.scan(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisIndex) Reset(ctx context.Context) error {
	for _, pattern := range []string{r.prefix + "skill:*", r.prefix + "user:*"} {
		keys, err := r.scan(ctx, pattern)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			continue
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete index keys: %w", err)
		}
	}
	return nil
}

func (r *RedisIndex) scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan Redis keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func (r *RedisIndex) skillKey(name string, side skill.Side) string {
	return r.prefix + "skill:" + string(side) + ":" + name
}

func (r *RedisIndex) userKey(userID uuid.UUID, side skill.Side) string {
	return r.prefix + "user:" + userID.String() + ":" + string(side)
}

var _ interfaces.SkillIndex = (*RedisIndex)(nil)
