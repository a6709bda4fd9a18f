package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of principal roles. The constants form a total order
// used by minimum-rank requirements: RoleUser < RoleModerator < RoleAdmin.
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
}

// ParseRole converts the stored string form into a Role. An unknown value is
// an error at construction time, never a silent deny later.
func ParseRole(s string) (Role, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "user":
		return RoleUser, nil
	case "moderator":
		return RoleModerator, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// MarshalText renders the role in its wire/storage form.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d outside closed set", ErrInvalidInput, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Requirement specifies which roles satisfy a protected operation: either an
// explicit set of acceptable roles or a minimum rank in the role order.
// Evaluation is pure and total; the zero Requirement denies every role.
type Requirement struct {
	anyOf []Role
	min   Role
}

// AnyOf builds a requirement satisfied by exact membership in the given set.
// A single role is the one-element set.
func AnyOf(roles ...Role) Requirement {
	set := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r.Valid() {
			set = append(set, r)
		}
	}
	return Requirement{anyOf: set}
}

// AtLeast builds a requirement satisfied by any role ranked at or above min.
func AtLeast(min Role) Requirement {
	return Requirement{min: min}
}

// Satisfied reports whether the role meets the requirement.
func (q Requirement) Satisfied(role Role) bool {
	if !role.Valid() {
		return false
	}
	if q.min != 0 {
		return role >= q.min
	}
	for _, allowed := range q.anyOf {
		if role == allowed {
			return true
		}
	}
	return false
}

// Roles lists every role that satisfies the requirement, highest rank first.
// Used for forbidden-response diagnostics.
func (q Requirement) Roles() []Role {
	var out []Role
	for _, r := range []Role{RoleAdmin, RoleModerator, RoleUser} {
		if q.Satisfied(r) {
			out = append(out, r)
		}
	}
	return out
}

func (q Requirement) String() string {
	names := make([]string, 0, 3)
	for _, r := range q.Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}
