package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"skillswap/internal/domain/skill"
	interfaces "skillswap/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

type bucket struct {
	offered map[uuid.UUID]struct{}
	wanted  map[uuid.UUID]struct{}
}

func (b *bucket) side(s skill.Side) map[uuid.UUID]struct{} {
	if s == skill.Wanted {
		return b.wanted
	}
	return b.offered
}

func (b *bucket) empty() bool {
	return len(b.offered) == 0 && len(b.wanted) == 0
}

type userSkills struct {
	offered []string
	wanted  []string
}

// MemoryIndex keeps the inverted index in process memory.
type MemoryIndex struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	users   map[uuid.UUID]*userSkills
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		buckets: make(map[string]*bucket),
		users:   make(map[uuid.UUID]*userSkills),
	}
}

func (m *MemoryIndex) IndexSkillsForUser(ctx context.Context, userID uuid.UUID, offered, wanted []string) error {
	offered = skill.NewSet(offered)
	wanted = skill.NewSet(wanted)

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.users[userID]
	if prev == nil {
		prev = &userSkills{}
	}

	m.apply(userID, skill.Offered, prev.offered, offered)
	m.apply(userID, skill.Wanted, prev.wanted, wanted)

	if len(offered) == 0 && len(wanted) == 0 {
		delete(m.users, userID)
	} else {
		m.users[userID] = &userSkills{offered: offered, wanted: wanted}
	}
	return nil
}

func (m *MemoryIndex) apply(userID uuid.UUID, side skill.Side, prev, next []string) {
	added, removed := skill.Diff(prev, next)
	for _, name := range removed {
		b, ok := m.buckets[name]
		if !ok {
			continue
		}
		delete(b.side(side), userID)
		if b.empty() {
			delete(m.buckets, name)
		}
	}
	for _, name := range added {
		b, ok := m.buckets[name]
		if !ok {
			b = &bucket{offered: make(map[uuid.UUID]struct{}), wanted: make(map[uuid.UUID]struct{})}
			m.buckets[name] = b
		}
		b.side(side)[userID] = struct{}{}
	}
}

func (m *MemoryIndex) RemoveUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.users[userID]
	if !ok {
		return nil
	}
	m.apply(userID, skill.Offered, prev.offered, nil)
	m.apply(userID, skill.Wanted, prev.wanted, nil)
	delete(m.users, userID)
	return nil
}

func (m *MemoryIndex) Lookup(ctx context.Context, name string, side skill.Side) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buckets[skill.Normalize(name)]
	if !ok {
		return []uuid.UUID{}, nil
	}
	ids := make([]uuid.UUID, 0, len(b.side(side)))
	for id := range b.side(side) {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

func (m *MemoryIndex) Skills(ctx context.Context, side skill.Side) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name, b := range m.buckets {
		if len(b.side(side)) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buckets = make(map[string]*bucket)
	m.users = make(map[uuid.UUID]*userSkills)
	return nil
}

// Snapshot renders the whole index deterministically, one line per skill and side.
func (m *MemoryIndex) Snapshot() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		b := m.buckets[name]
		for _, side := range []skill.Side{skill.Offered, skill.Wanted} {
			ids := make([]uuid.UUID, 0, len(b.side(side)))
			for id := range b.side(side) {
				ids = append(ids, id)
			}
			sortIDs(ids)
			fmt.Fprintf(&sb, "%s/%s:%v\n", name, side, ids)
		}
	}
	return sb.String()
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

var _ interfaces.SkillIndex = (*MemoryIndex)(nil)
