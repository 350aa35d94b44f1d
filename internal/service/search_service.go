package service

import (
	"context"
	"fmt"
	"sort"
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

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type searchService struct {
	directory    interfaces.DirectoryService
	index        infrastructure.SkillIndex
	defaultLimit int
	maxLimit     int
	metrics      metrics.MetricsCollector
}

func NewSearchService(
	directory interfaces.DirectoryService,
	index infrastructure.SkillIndex,
	defaultLimit, maxLimit int,
	collector metrics.MetricsCollector,
) interfaces.SearchService {
	if maxLimit <= 0 {
		maxLimit = MaxSearchLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultSearchLimit, maxLimit)
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &searchService{
		directory:    directory,
		index:        index,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		metrics:      collector,
	}
}

// SearchBySkill finds listed users by skill. An empty query browses every listed user in
// registration order; otherwise matches are ranked by rating, highest first, ties by id.
func (s *searchService) SearchBySkill(ctx context.Context, q interfaces.SearchQuery) (*interfaces.SearchPage, error) {
	start := time.Now()

	if q.Offset < 0 {
		return nil, apperror.Validation("offset", "offset must not be negative")
	}
	if q.Limit < 0 {
		return nil, apperror.Validation("limit", "limit must not be negative")
	}
	limit := q.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	side := q.Side
	if side == "" {
		side = skill.Offered
	}
	if !side.Valid() {
		return nil, apperror.Validation("side", "side must be offered or wanted")
	}

	term := skill.Normalize(q.Skill)
	mode := "exact"

	var matches []*user.User
	var err error
	switch {
	case term == "":
		mode = "browse"
		matches, err = s.directory.GetPublicUsers(ctx, q.ExcludeID)
	case q.Partial:
		mode = "partial"
		matches, err = s.searchPartial(ctx, term, side, q.ExcludeID)
	default:
		matches, err = s.searchExact(ctx, term, side, q.ExcludeID)
	}
	if err != nil {
		return nil, err
	}

	page := &interfaces.SearchPage{
		Users:  paginate(matches, q.Offset, limit),
		Total:  len(matches),
		Offset: q.Offset,
		Limit:  limit,
		Skill:  term,
		Side:   side,
	}

	s.metrics.RecordSearch(mode, len(matches), time.Since(start))
	logger.Debug("Search %s %q on %s side: %d matches", mode, term, side, len(matches))
	return page, nil
}

func (s *searchService) searchExact(ctx context.Context, term string, side skill.Side, exclude uuid.UUID) ([]*user.User, error) {
	ids, err := s.index.Lookup(ctx, term, side)
	if err != nil {
		return nil, fmt.Errorf("skill index lookup failed: %w", err)
	}
	return s.hydrate(ctx, ids, exclude, func(u *user.User) bool {
		return skill.Contains(u.Skills(side), term)
	})
}

func (s *searchService) searchPartial(ctx context.Context, term string, side skill.Side, exclude uuid.UUID) ([]*user.User, error) {
	keys, err := s.index.Skills(ctx, side)
	if err != nil {
		return nil, fmt.Errorf("skill index listing failed: %w", err)
	}

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, key := range keys {
		if !strings.Contains(key, term) {
			continue
		}
		found, err := s.index.Lookup(ctx, key, side)
		if err != nil {
			return nil, fmt.Errorf("skill index lookup failed: %w", err)
		}
		for _, id := range found {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return s.hydrate(ctx, ids, exclude, func(u *user.User) bool {
		for _, name := range u.Skills(side) {
			if strings.Contains(name, term) {
				return true
			}
		}
		return false
	})
}

// hydrate loads ids from the directory and keeps listed users that still match.
// The re-check guards against an index that lags behind the directory.
func (s *searchService) hydrate(ctx context.Context, ids []uuid.UUID, exclude uuid.UUID, matches func(*user.User) bool) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}

	users, err := s.directory.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*user.User, 0, len(users))
	for _, u := range users {
		if u.ID == exclude || !u.Listed() || !matches(u) {
			continue
		}
		result = append(result, u)
	}

	sortByRating(result)
	return result, nil
}

// sortByRating orders by rating descending, then id ascending.
func sortByRating(users []*user.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Rating != users[j].Rating {
			return users[i].Rating > users[j].Rating
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}

func paginate(users []*user.User, offset, limit int) []*user.User {
	if offset >= len(users) {
		return []*user.User{}
	}
	end := offset + limit
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end]
}
