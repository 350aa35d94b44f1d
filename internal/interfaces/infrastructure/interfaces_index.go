package interfaces

import (
	"context"

	"skillswap/internal/domain/skill"

	"github.com/google/uuid"
)

// SkillIndex is the inverted index from normalized skill name to the users offering or wanting it.
// It is derived from the user directory and holds no independent truth.
type SkillIndex interface {
	// IndexSkillsForUser replaces the user's indexed skills. Calling it twice with the same
	// arguments leaves the index unchanged.
	IndexSkillsForUser(ctx context.Context, userID uuid.UUID, offered, wanted []string) error
	// RemoveUser purges userID from every bucket on both sides.
	RemoveUser(ctx context.Context, userID uuid.UUID) error
	// Lookup returns the users on side of skill, sorted ascending. Unknown skills yield an empty set.
	Lookup(ctx context.Context, name string, side skill.Side) ([]uuid.UUID, error)
	// Skills lists the skill keys that currently have at least one user on side.
	Skills(ctx context.Context, side skill.Side) ([]string, error)
	Reset(ctx context.Context) error
}
