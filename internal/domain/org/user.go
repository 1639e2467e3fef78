package org

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Role represents a user's permission level within an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid returns true if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// User is a member of an organization. Tokens are issued against a user so
// that writes are attributable; authentication itself is by org API key.
type User struct {
	ID        string
	OrgID     string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks business rules for the User entity.
func (u *User) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(u.Email) == "" {
		fields["email"] = domain.MsgRequired
	} else if !strings.Contains(u.Email, "@") {
		fields["email"] = fmt.Sprintf("invalid: %q", u.Email)
	}
	if !u.Role.IsValid() {
		fields["role"] = fmt.Sprintf("invalid: %q", u.Role)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
