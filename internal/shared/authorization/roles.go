// Package authorization names the roles an authenticated actor can hold.
package authorization

import "strings"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEditor   UserRole = "editor"
	RoleReviewer UserRole = "reviewer"
	RoleAuthor   UserRole = "author"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleReviewer, RoleAuthor:
		return true
	}
	return false
}

// ParseRoles keeps the recognised roles from a token claim, dropping
// unknown ones. Case and surrounding space are ignored.
func ParseRoles(raw []string) []UserRole {
	roles := make([]UserRole, 0, len(raw))
	seen := make(map[UserRole]struct{}, len(raw))
	for _, s := range raw {
		r := UserRole(strings.ToLower(strings.TrimSpace(s)))
		if !r.IsValid() {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	return roles
}

func HasRole(roles []UserRole, want UserRole) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
