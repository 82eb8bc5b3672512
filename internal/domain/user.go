package domain

import "strings"

// Role is the marketplace role a user signed up with. It never changes.
type Role string

const (
	RoleStudent   Role = "student"
	RoleParent    Role = "parent"
	RoleTutor     Role = "tutor"
	RoleInstitute Role = "institute"
	RoleAdmin     Role = "admin"
)

// Roles lists every known role.
var Roles = []Role{RoleStudent, RoleParent, RoleTutor, RoleInstitute, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole normalises s into a Role. Unknown values return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is the identity of the signed-in user as served by GET /auth/me.
// Credits is a cached copy of a server-owned value.
type User struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role" validate:"required,oneof=student parent tutor institute admin"`
	Credits int    `json:"credits" validate:"gte=0"`
}

// Credential is the token pair issued at login.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
