package model

import (
	"time"

	"golang.org/x/exp/maps"
)

// CallUser is the coordinator's record of a call member.
type CallUser struct {
	ID        string
	Name      string
	Role      string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Merge overlays the non-zero fields of `other` on top of the receiver.
// The ID is never replaced: merging records for different users is a bug
// on the caller's side and the receiver's identity wins.
func (u CallUser) Merge(other CallUser) CallUser {
	merged := u
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.Role != "" {
		merged.Role = other.Role
	}
	if other.ImageURL != "" {
		merged.ImageURL = other.ImageURL
	}
	if !other.CreatedAt.IsZero() {
		merged.CreatedAt = other.CreatedAt
	}
	if !other.UpdatedAt.IsZero() {
		merged.UpdatedAt = other.UpdatedAt
	}
	return merged
}

// MergeUsers overlays `update` onto `users` and returns a new map. New data
// overlays old per user, it never replaces the map wholesale. Neither input
// is mutated.
func MergeUsers(users map[string]CallUser, update map[string]CallUser) map[string]CallUser {
	merged := maps.Clone(users)
	if merged == nil {
		merged = make(map[string]CallUser, len(update))
	}
	for id, user := range update {
		if existing, ok := merged[id]; ok {
			merged[id] = existing.Merge(user)
		} else {
			merged[id] = user
		}
	}
	return merged
}

// MergeUser overlays a single user record onto the map. See MergeUsers.
func MergeUser(users map[string]CallUser, user CallUser) map[string]CallUser {
	return MergeUsers(users, map[string]CallUser{user.ID: user})
}
