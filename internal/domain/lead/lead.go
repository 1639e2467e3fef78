package lead

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Lead represents a prospective customer captured from a form, import, or
// integration. Leads are org-scoped; Score is adjusted by the scoring
// subscriber and by workflow actions.
type Lead struct {
	ID         string
	OrgID      string
	Email      string
	FirstName  string
	LastName   string
	Company    string
	Phone      string
	Source     string
	Status     Status
	Score      int
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks business rules for the Lead entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details, or nil if all rules pass.
func (l *Lead) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(l.Email) == "" {
		fields["email"] = domain.MsgRequired
	} else if !strings.Contains(l.Email, "@") {
		fields["email"] = fmt.Sprintf("invalid: %q", l.Email)
	}
	if !l.Status.IsValid() {
		fields["status"] = fmt.Sprintf("invalid: %q", l.Status)
	}
	if l.Score < 0 {
		fields["score"] = fmt.Sprintf("must be >= 0, got %d", l.Score)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// SignalFields flattens the lead into the string map evaluated by workflow
// conditions and carried on bus signals.
func (l *Lead) SignalFields() map[string]string {
	fields := map[string]string{
		"email":      l.Email,
		"first_name": l.FirstName,
		"last_name":  l.LastName,
		"company":    l.Company,
		"phone":      l.Phone,
		"source":     l.Source,
		"status":     l.Status.String(),
		"score":      fmt.Sprintf("%d", l.Score),
	}
	for k, v := range l.Attributes {
		fields["attr."+k] = v
	}
	return fields
}
