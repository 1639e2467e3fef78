package outbound

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/httpclient"
	"github.com/salesforge/platform/internal/ports"
)

// Compile-time interface check.
var _ ports.WebhookClient = (*WebhookClient)(nil)

// WebhookClient posts workflow payloads to customer-provided URLs. Unlike
// the email client there is no base URL; every call carries an absolute
// target configured on the workflow action.
type WebhookClient struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewWebhookClient creates a WebhookClient. The httpclient should be built
// with an empty base URL.
func NewWebhookClient(client *httpclient.Client, logger *slog.Logger) *WebhookClient {
	return &WebhookClient{client: client, logger: logger}
}

// Post delivers the payload as JSON. Any 2xx response counts as delivered.
func (c *WebhookClient) Post(ctx context.Context, target string, payload map[string]string) error {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("webhook url %q: %w", target, domain.ErrValidation)
	}

	status, err := postJSON(ctx, c.client, c.logger, target, payload)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.logger.ErrorContext(ctx, "webhook delivery failed",
			slog.String("url", target),
			slog.Int("status", status),
		)
		return translateStatus(status)
	}
	return nil
}
