package auth

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Role is the closed set of user roles known to the platform.
type Role int

// Roles
const (
	RoleUnknown Role = iota
	RoleDonor
	RoleRecipient
	RoleAdmin
)

var (
	ErrUnknownRole = errors.New("unknown role")

	// Roles lists the assignable roles, in display order.
	Roles = []Role{RoleDonor, RoleRecipient, RoleAdmin}
)

// ParseRole parses the wire value of a role (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DONOR":
		return RoleDonor, nil
	case "RECIPIENT":
		return RoleRecipient, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return RoleUnknown, errors.Wrapf(ErrUnknownRole, "%q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleRecipient, RoleAdmin:
		return true
	case RoleUnknown:
		return false
	}
	return false
}

// String returns the wire value.
func (r Role) String() string {
	switch r {
	case RoleDonor:
		return "DONOR"
	case RoleRecipient:
		return "RECIPIENT"
	case RoleAdmin:
		return "ADMIN"
	case RoleUnknown:
		return ""
	}
	return ""
}

// Label returns the human readable name.
func (r Role) Label() string {
	switch r {
	case RoleDonor:
		return "Donor"
	case RoleRecipient:
		return "Recipient"
	case RoleAdmin:
		return "Admin"
	case RoleUnknown:
		return "Unknown"
	}
	return "Unknown"
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire role; null and "" decode to RoleUnknown.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding role")
	}
	if s == "" {
		*r = RoleUnknown
		return nil
	}
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// MarshalText lets roles be used in query strings and flags.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}
