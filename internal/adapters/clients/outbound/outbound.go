// Package outbound implements the delivery adapters for workflow actions and
// sequence sends: the transactional email provider and arbitrary customer
// webhooks. Both ride on the instrumented HTTP client (circuit breaker,
// retry, tracing) and map responses to domain errors so callers never see
// transport detail.
package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/httpclient"
)

// maxErrorBodySize limits how much of an error response body we read.
const maxErrorBodySize = 1 << 20 // 1 MB

// postJSON marshals body, sends it through the instrumented client, and
// ensures the response body is closed. The caller interprets the status.
func postJSON(ctx context.Context, client *httpclient.Client, logger *slog.Logger, url string, body any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshaling POST body for %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating POST request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(ctx, req)
	if resp != nil {
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				logger.WarnContext(ctx, "failed to close response body",
					slog.String("error", cerr.Error()),
				)
			}
		}()
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	}
	if err != nil {
		if resp != nil {
			// Retries exhausted on a retryable status; report the status.
			return resp.StatusCode, nil
		}
		logger.ErrorContext(ctx, "request failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("POST %s: %w: %w", url, domain.ErrUnavailable, err)
	}

	return resp.StatusCode, nil
}

// translateStatus maps a non-success provider status to a domain error.
func translateStatus(status int) error {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("provider rejected payload (status %d): %w", status, domain.ErrValidation)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("provider rejected credentials (status %d): %w", status, domain.ErrForbidden)
	default:
		return fmt.Errorf("provider returned status %d: %w", status, domain.ErrUnavailable)
	}
}
