// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salesforge/platform/internal/adapters/http/handlers"
	"github.com/salesforge/platform/internal/adapters/http/middleware"
	"github.com/salesforge/platform/internal/platform/authtoken"
)

// Handlers bundles the HTTP handlers the router wires up.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Lead     *handlers.LeadHandler
	Contact  *handlers.ContactHandler
	Deal     *handlers.DealHandler
	Task     *handlers.TaskHandler
	Workflow *handlers.WorkflowHandler
	Sequence *handlers.SequenceHandler
	Signal   *handlers.SignalHandler
	Health   *handlers.HealthHandler
}

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given; everything under
// /api/v1 except token issuance additionally requires a bearer token.
func NewRouter(
	h Handlers,
	tokens *authtoken.Manager,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", h.Auth.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))

			// Lead CRM, conversion, and scoring.
			r.Get("/leads", h.Lead.ListLeads)
			r.Post("/leads", h.Lead.CreateLead)
			r.Get("/leads/{id}", h.Lead.GetLead)
			r.Put("/leads/{id}", h.Lead.UpdateLead)
			r.Delete("/leads/{id}", h.Lead.DeleteLead)
			r.Post("/leads/{id}/convert", h.Lead.ConvertLead)
			r.Post("/leads/{id}/score", h.Lead.AdjustScore)

			// Contact CRUD.
			r.Get("/contacts", h.Contact.ListContacts)
			r.Post("/contacts", h.Contact.CreateContact)
			r.Get("/contacts/{id}", h.Contact.GetContact)
			r.Put("/contacts/{id}", h.Contact.UpdateContact)
			r.Delete("/contacts/{id}", h.Contact.DeleteContact)

			// Deal pipeline.
			r.Get("/deals", h.Deal.ListDeals)
			r.Post("/deals", h.Deal.CreateDeal)
			r.Get("/deals/{id}", h.Deal.GetDeal)
			r.Put("/deals/{id}", h.Deal.UpdateDeal)
			r.Delete("/deals/{id}", h.Deal.DeleteDeal)

			// Task CRUD.
			r.Get("/tasks", h.Task.ListTasks)
			r.Post("/tasks", h.Task.CreateTask)
			r.Get("/tasks/{id}", h.Task.GetTask)
			r.Put("/tasks/{id}", h.Task.UpdateTask)
			r.Delete("/tasks/{id}", h.Task.DeleteTask)

			// Workflow definitions and runs.
			r.Get("/workflows", h.Workflow.ListWorkflows)
			r.Post("/workflows", h.Workflow.CreateWorkflow)
			r.Get("/workflows/{id}", h.Workflow.GetWorkflow)
			r.Put("/workflows/{id}", h.Workflow.UpdateWorkflow)
			r.Delete("/workflows/{id}", h.Workflow.DeleteWorkflow)
			r.Post("/workflows/{id}/enable", h.Workflow.EnableWorkflow)
			r.Post("/workflows/{id}/disable", h.Workflow.DisableWorkflow)
			r.Get("/workflows/{id}/runs", h.Workflow.ListRuns)
			r.Get("/runs/{id}", h.Workflow.GetRun)

			// Sequences and enrollments.
			r.Get("/sequences", h.Sequence.ListSequences)
			r.Post("/sequences", h.Sequence.CreateSequence)
			r.Get("/sequences/{id}", h.Sequence.GetSequence)
			r.Put("/sequences/{id}", h.Sequence.UpdateSequence)
			r.Delete("/sequences/{id}", h.Sequence.DeleteSequence)
			r.Post("/sequences/{id}/enrollments", h.Sequence.Enroll)
			r.Get("/sequences/{id}/enrollments", h.Sequence.ListEnrollments)
			r.Delete("/enrollments/{id}", h.Sequence.ExitEnrollment)

			// External engagement signal ingestion.
			r.Post("/signals", h.Signal.Ingest)
		})
	})

	return r
}
