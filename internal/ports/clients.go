package ports

import "context"

// EmailMessage is an outbound email rendered by the provider from a template
// name and substitution variables.
type EmailMessage struct {
	To       string
	Subject  string
	Template string
	Vars     map[string]string
}

// EmailClient defines the client port for the outbound email provider.
// Implemented by the outbound adapter over the instrumented HTTP client;
// called by workflow actions and the sequence scheduler.
type EmailClient interface {
	// Send delivers one message. Returns domain.ErrUnavailable when the
	// provider cannot be reached or rejects the request.
	Send(ctx context.Context, msg EmailMessage) error
}

// WebhookClient defines the client port for workflow webhook actions.
type WebhookClient interface {
	// Post delivers the payload as JSON to the given URL. Returns
	// domain.ErrUnavailable on transport failure or a non-2xx response.
	Post(ctx context.Context, url string, payload map[string]string) error
}
