package calendar

import (
	"maps"
	"slices"
)

// Category is a notification preference bucket.
type Category string

const (
	// CategoryAssignments covers assignment and update notices.
	CategoryAssignments Category = "assignments"
	// CategoryConfirmations covers partner confirmation notices.
	CategoryConfirmations Category = "confirmations"
	// CategoryUnassignedAlerts covers owner alerts about unassigned events.
	CategoryUnassignedAlerts Category = "unassigned_alerts"
)

// Categories lists every known preference category.
func Categories() []Category {
	return []Category{CategoryAssignments, CategoryConfirmations, CategoryUnassignedAlerts}
}

// Destination is a single device registration.
type Destination struct {
	// Token is the push token; empty tokens are never delivered to.
	Token string
	// Platform is an optional hint such as "ios" or "android".
	Platform string
}

// Preferences holds per-category switches. A category without an entry is enabled.
type Preferences map[Category]bool

// Allows reports whether notifications of the category may be delivered.
func (p Preferences) Allows(c Category) bool {
	enabled, ok := p[c]

	return !ok || enabled
}

// User is a family member that can receive notifications.
type User struct {
	// ID is the user identifier.
	ID string
	// DisplayName is shown in notification text.
	DisplayName string
	// Destinations maps device IDs to their push registration.
	Destinations map[string]Destination
	// Preferences holds the notification switches.
	Preferences Preferences
}

// Tokens returns the distinct non-empty push tokens ordered by device ID.
func (u *User) Tokens() []string {
	if u == nil {
		return nil
	}

	var (
		seen   = make(map[string]struct{}, len(u.Destinations))
		tokens = make([]string, 0, len(u.Destinations))
	)

	for _, deviceID := range slices.Sorted(maps.Keys(u.Destinations)) {
		token := u.Destinations[deviceID].Token
		if token == "" {
			continue
		}

		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	return tokens
}

// DevicesWithTokens returns the device IDs whose token is in the given set.
func (u *User) DevicesWithTokens(tokens []string) []string {
	if u == nil || len(tokens) == 0 {
		return nil
	}

	var devices []string

	for _, deviceID := range slices.Sorted(maps.Keys(u.Destinations)) {
		if slices.Contains(tokens, u.Destinations[deviceID].Token) {
			devices = append(devices, deviceID)
		}
	}

	return devices
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	return &User{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		Destinations: maps.Clone(u.Destinations),
		Preferences:  maps.Clone(u.Preferences),
	}
}

// Family groups members around a shared calendar.
type Family struct {
	// ID is the family identifier.
	ID string
	// OwnerID is the member receiving unassigned-event alerts.
	OwnerID string
	// MemberIDs lists every member including the owner.
	MemberIDs []string
}

// MembersExcept returns the members other than userID, preserving order.
func (f *Family) MembersExcept(userID string) []string {
	if f == nil {
		return nil
	}

	partners := make([]string, 0, len(f.MemberIDs))

	for _, id := range f.MemberIDs {
		if id == "" || id == userID {
			continue
		}

		partners = append(partners, id)
	}

	return partners
}

// Clone returns a deep copy of the family.
func (f *Family) Clone() *Family {
	if f == nil {
		return nil
	}

	return &Family{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		MemberIDs: slices.Clone(f.MemberIDs),
	}
}

// Child is only used for label text.
type Child struct {
	ID          string
	FamilyID    string
	DisplayName string
}
