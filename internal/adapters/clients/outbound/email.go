package outbound

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/salesforge/platform/internal/platform/httpclient"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time interface check.
var _ ports.EmailClient = (*EmailClient)(nil)

// EmailClient delivers transactional email through the configured provider.
// The provider renders the named template with the given variables; this
// adapter only submits the message.
type EmailClient struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewEmailClient creates an EmailClient. The httpclient's base URL must
// point at the provider root (e.g. "https://mail.example.com").
func NewEmailClient(client *httpclient.Client, logger *slog.Logger) *EmailClient {
	return &EmailClient{client: client, logger: logger}
}

// emailRequestDTO is the provider's message submission shape.
type emailRequestDTO struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars,omitempty"`
}

// Send submits one message to POST /v1/messages. The provider acknowledges
// accepted messages with 202.
func (c *EmailClient) Send(ctx context.Context, msg ports.EmailMessage) error {
	url := c.client.BaseURL() + "/v1/messages"
	dto := emailRequestDTO{
		To:       msg.To,
		Subject:  msg.Subject,
		Template: msg.Template,
		Vars:     msg.Vars,
	}

	status, err := postJSON(ctx, c.client, c.logger, url, dto)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		c.logger.ErrorContext(ctx, "email provider rejected message",
			slog.String("to", msg.To),
			slog.String("template", msg.Template),
			slog.Int("status", status),
		)
		return translateStatus(status)
	}
	return nil
}
