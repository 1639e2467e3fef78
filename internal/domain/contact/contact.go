// Package contact defines the Contact entity: a lead that has been converted
// into a known person attached to deals.
package contact

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Contact represents a person the organization actively works with.
// LeadID links back to the originating lead when the contact came from a
// conversion; it is empty for contacts created directly.
type Contact struct {
	ID        string
	OrgID     string
	LeadID    string
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks business rules for the Contact entity.
func (c *Contact) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(c.Email) == "" {
		fields["email"] = domain.MsgRequired
	} else if !strings.Contains(c.Email, "@") {
		fields["email"] = fmt.Sprintf("invalid: %q", c.Email)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Filter holds optional filter criteria for listing contacts.
type Filter struct {
	Company string
	Limit   int
	Offset  int
}
