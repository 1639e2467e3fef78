package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/lead"
	"github.com/salesforge/platform/internal/domain/task"
	"github.com/salesforge/platform/internal/domain/workflow"
	"github.com/salesforge/platform/internal/ports"
)

// Actions dispatches workflow actions to their handlers. Each handler
// receives the run so it can read the frozen signal fields; wait is handled
// by the executor and never reaches the dispatcher.
type Actions struct {
	leads     ports.LeadService
	leadStore ports.LeadStore
	tasks     ports.TaskService
	sequences ports.SequenceService
	email     ports.EmailClient
	webhooks  ports.WebhookClient
	logger    *slog.Logger
}

// NewActions creates the action dispatcher.
func NewActions(
	leads ports.LeadService,
	leadStore ports.LeadStore,
	tasks ports.TaskService,
	sequences ports.SequenceService,
	email ports.EmailClient,
	webhooks ports.WebhookClient,
	logger *slog.Logger,
) *Actions {
	return &Actions{
		leads:     leads,
		leadStore: leadStore,
		tasks:     tasks,
		sequences: sequences,
		email:     email,
		webhooks:  webhooks,
		logger:    logger,
	}
}

// Execute runs one action against the run's frozen signal fields.
func (a *Actions) Execute(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	switch act.Type {
	case workflow.ActionSendEmail:
		return a.sendEmail(ctx, run, act)
	case workflow.ActionCallWebhook:
		return a.callWebhook(ctx, run, act)
	case workflow.ActionCreateTask:
		return a.createTask(ctx, run, act)
	case workflow.ActionUpdateLeadField:
		return a.updateLeadField(ctx, run, act)
	case workflow.ActionAdjustScore:
		return a.adjustScore(ctx, run, act)
	case workflow.ActionEnrollSequence:
		return a.enrollSequence(ctx, run, act)
	default:
		return fmt.Errorf("no handler for action type %q: %w", act.Type, domain.ErrValidation)
	}
}

// sendEmail delivers a templated email. The recipient defaults to the
// signal subject's email field when the action does not name one.
func (a *Actions) sendEmail(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	to := act.Param("to")
	if to == "" {
		to = run.SignalFields["email"]
	}
	if to == "" {
		return fmt.Errorf("no recipient: action has no to param and signal carries no email field: %w", domain.ErrValidation)
	}

	return a.email.Send(ctx, ports.EmailMessage{
		To:       to,
		Subject:  act.Param("subject"),
		Template: act.Param("template"),
		Vars:     run.SignalFields,
	})
}

// callWebhook posts the signal fields plus run identity to the action's URL.
func (a *Actions) callWebhook(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	payload := make(map[string]string, len(run.SignalFields)+4)
	for k, v := range run.SignalFields {
		payload[k] = v
	}
	payload["signal_type"] = run.SignalType
	payload["subject_id"] = run.SubjectID
	payload["workflow_id"] = run.WorkflowID
	payload["run_id"] = run.ID

	return a.webhooks.Post(ctx, act.Param("url"), payload)
}

// createTask creates a follow-up task related to the signal's subject.
func (a *Actions) createTask(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	t := &task.Task{
		OrgID:       run.OrgID,
		Title:       act.Param("title"),
		Status:      task.StatusOpen,
		RelatedKind: relatedKind(run.SignalType),
		RelatedID:   run.SubjectID,
	}
	if run.SubjectID == "" {
		t.RelatedKind = ""
	}
	if v := act.Param("due_in"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing due_in: %w", err)
		}
		due := time.Now().UTC().Add(d)
		t.DueAt = &due
	}

	_, err := a.tasks.CreateTask(ctx, t)
	return err
}

// updateLeadField writes one lead field through the store, bypassing the
// lead service so no lead.updated signal fires. A workflow triggered by
// lead.updated that wrote through the service would retrigger itself.
func (a *Actions) updateLeadField(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	l, err := a.leadStore.GetLead(ctx, run.OrgID, run.SubjectID)
	if err != nil {
		return err
	}

	field, value := act.Param("field"), act.Param("value")
	switch {
	case field == "status":
		status := lead.Status(value)
		if !status.IsValid() {
			return fmt.Errorf("invalid lead status %q: %w", value, domain.ErrValidation)
		}
		l.Status = status
	case field == "first_name":
		l.FirstName = value
	case field == "last_name":
		l.LastName = value
	case field == "company":
		l.Company = value
	case field == "phone":
		l.Phone = value
	case field == "source":
		l.Source = value
	case strings.HasPrefix(field, "attr."):
		if l.Attributes == nil {
			l.Attributes = map[string]string{}
		}
		l.Attributes[strings.TrimPrefix(field, "attr.")] = value
	default:
		return fmt.Errorf("field %q is not writable: %w", field, domain.ErrValidation)
	}
	l.UpdatedAt = time.Now().UTC()

	_, err = a.leadStore.UpdateLead(ctx, l)
	return err
}

// adjustScore applies the delta through the lead service so the change
// publishes lead.score_changed like any other scoring event.
func (a *Actions) adjustScore(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	delta, err := strconv.Atoi(act.Param("delta"))
	if err != nil {
		return fmt.Errorf("parsing delta: %w", err)
	}

	_, err = a.leads.AdjustScore(ctx, run.OrgID, run.SubjectID, delta)
	return err
}

// enrollSequence enrolls the subject lead. An existing active enrollment is
// the desired end state, so conflicts are not errors.
func (a *Actions) enrollSequence(ctx context.Context, run *workflow.Run, act workflow.Action) error {
	_, err := a.sequences.Enroll(ctx, run.OrgID, act.Param("sequence_id"), run.SubjectID)
	if errors.Is(err, domain.ErrConflict) {
		a.logger.DebugContext(ctx, "lead already enrolled",
			slog.String("org_id", run.OrgID),
			slog.String("lead_id", run.SubjectID),
			slog.String("sequence_id", act.Param("sequence_id")),
		)
		return nil
	}
	return err
}

// relatedKind maps a signal type to the task relation it implies. Engagement
// and sequence signals are about leads.
func relatedKind(signalType string) domain.SubjectKind {
	prefix, _, _ := strings.Cut(signalType, ".")
	switch prefix {
	case "lead", "email", "form", "sequence":
		return domain.SubjectLead
	case "contact":
		return domain.SubjectContact
	case "deal":
		return domain.SubjectDeal
	case "task":
		return domain.SubjectTask
	default:
		return ""
	}
}
