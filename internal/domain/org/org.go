// Package org defines the tenancy entities: the Organization every record is
// scoped to, and the Users who act on its behalf.
package org

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// HashAPIKey returns the hex-encoded SHA-256 of a plaintext API key. Only
// this hash is ever stored or compared.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// slugPattern constrains org slugs to URL-safe lowercase identifiers.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Plan represents the subscription tier of an organization. The platform
// does not implement billing; the plan is carried for limit decisions only.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanScale Plan = "scale"
)

// IsValid returns true if the plan is one of the defined constants.
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanScale:
		return true
	default:
		return false
	}
}

// Organization is the tenant root. APIKeyHash stores the SHA-256 of the
// org's API key; the plaintext key is never persisted.
type Organization struct {
	ID         string
	Name       string
	Slug       string
	Plan       Plan
	APIKeyHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks business rules for the Organization entity.
func (o *Organization) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(o.Name) == "" {
		fields["name"] = domain.MsgRequired
	}
	if !slugPattern.MatchString(o.Slug) {
		fields["slug"] = fmt.Sprintf("must match %s, got %q", slugPattern, o.Slug)
	}
	if !o.Plan.IsValid() {
		fields["plan"] = fmt.Sprintf("invalid: %q", o.Plan)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
