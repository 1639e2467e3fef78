package deal

import (
	"fmt"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
)

// Deal represents a revenue opportunity moving through the pipeline.
// AmountCents avoids floating point money; Currency is an ISO 4217 code.
type Deal struct {
	ID         string
	OrgID      string
	ContactID  string
	Name       string
	Stage      Stage
	AmountCents int64
	Currency   string
	CloseDate  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks business rules for the Deal entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details, or nil if all rules pass.
func (d *Deal) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(d.Name) == "" {
		fields["name"] = domain.MsgRequired
	}
	if strings.TrimSpace(d.ContactID) == "" {
		fields["contact_id"] = domain.MsgRequired
	}
	if !d.Stage.IsValid() {
		fields["stage"] = fmt.Sprintf("invalid: %q", d.Stage)
	}
	if d.AmountCents < 0 {
		fields["amount_cents"] = fmt.Sprintf("must be >= 0, got %d", d.AmountCents)
	}
	if len(d.Currency) != 3 {
		fields["currency"] = fmt.Sprintf("must be a 3-letter code, got %q", d.Currency)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// SignalFields flattens the deal into the string map carried on bus signals.
func (d *Deal) SignalFields() map[string]string {
	return map[string]string{
		"name":         d.Name,
		"contact_id":   d.ContactID,
		"stage":        d.Stage.String(),
		"amount_cents": fmt.Sprintf("%d", d.AmountCents),
		"currency":     d.Currency,
	}
}
