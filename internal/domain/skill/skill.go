// Package skill holds the skill value type: a normalized name used as the matching key.
package skill

import (
	"strings"
)

// Side selects the offered or wanted half of a user's skills.
type Side string

const (
	Offered Side = "offered"
	Wanted  Side = "wanted"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == Offered || s == Wanted
}

// ParseSide maps a query value to a Side, defaulting to Offered for "".
func ParseSide(v string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case "", Offered:
		return Offered, true
	case Wanted:
		return Wanted, true
	default:
		return "", false
	}
}

// Normalize lowercases and trims a skill name and collapses inner whitespace,
// so "  Java  Script " and "java script" collide.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NewSet normalizes names and removes blanks and duplicates, keeping the first occurrence order.
// The result is never nil.
func NewSet(names []string) []string {
	set := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := Normalize(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		set = append(set, key)
	}
	return set
}

// Diff returns the keys present in next but not prev (added) and in prev but not next (removed).
func Diff(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, s := range prev {
		prevSet[s] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, s := range next {
		nextSet[s] = struct{}{}
		if _, ok := prevSet[s]; !ok {
			added = append(added, s)
		}
	}
	for _, s := range prev {
		if _, ok := nextSet[s]; !ok {
			removed = append(removed, s)
		}
	}
	return added, removed
}

// Contains reports whether the normalized set holds name.
func Contains(set []string, name string) bool {
	key := Normalize(name)
	for _, s := range set {
		if s == key {
			return true
		}
	}
	return false
}
