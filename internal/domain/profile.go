package domain

import (
	"time"
)

// Role selects which identity collection a profile belongs to. Users and
// doctors share the same record shape but live in disjoint collections.
type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleDoctor:
		return RoleDoctor, true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleDoctor
}

func (r Role) String() string {
	return string(r)
}

// Principal is the opaque caller identity stamped onto a profile at creation.
// Only the owning principal may delete the profile.
type Principal string

type Profile struct {
	ID        int32     `json:"id"`
	Role      Role      `json:"role"`
	Username  string    `json:"username"`
	Owner     Principal `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}
