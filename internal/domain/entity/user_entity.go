package entity

import (
	"time"
)

// DefaultUserName is stored when a user is constructed without a display name.
const DefaultUserName = "Unknown"

// User is the identity record every other ledger row hangs off.
// UserID is the natural key chosen by the enrolling caller; ID is the store surrogate.
type User struct {
	ID        int64
	UserID    string
	Name      string
	Tags      []string
	CreatedAt time.Time
}

// NewUser builds a user with a normalized tag set.
func NewUser(userID, name string, tags []string) *User {
	if name == "" {
		name = DefaultUserName
	}
	return &User{UserID: userID, Name: name, Tags: NormalizeTags(tags)}
}

// NormalizeTags drops duplicates and empty strings while keeping first-seen order.
// The result is never nil so it encodes as an empty JSON array.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasAllTags reports whether the user's tag set contains every tag in want.
func (u *User) HasAllTags(want []string) bool {
	have := make(map[string]struct{}, len(u.Tags))
	for _, t := range u.Tags {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}
