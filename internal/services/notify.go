// Notification transports.
//
// A target identifier is either the persistent-notification sentinel
// (delivered to the local log surface) or a "domain.service" pair delivered
// over a webhook endpoint.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// NotifyTransport routes sends by target identifier. The persistent
// sentinel goes to the logger; everything else is POSTed to the webhook
// base URL with the target as topic.
type NotifyTransport struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewNotifyTransport creates a transport. webhookBaseURL may be empty, in
// which case only the persistent sentinel target is deliverable.
func NewNotifyTransport(webhookBaseURL string, httpClient *http.Client, logger *log.Logger) *NotifyTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NotifyTransport{
		baseURL:    strings.TrimRight(webhookBaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Send delivers one notification to one target.
func (t *NotifyTransport) Send(ctx context.Context, target, title, message, imageURL string) error {
	if target == models.TargetPersistent {
		t.logger.Info("notification", "title", title, "message", message)
		return nil
	}

	if t.baseURL == "" {
		return fmt.Errorf("%w: %s (no webhook base URL configured)", shared.ErrNoTransport, target)
	}

	// "domain.service" targets map onto webhook topics; the dot form is
	// kept as-is so the receiving side can route.
	endpoint := fmt.Sprintf("%s/%s", t.baseURL, target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Title", title)
	if imageURL != "" {
		req.Header.Set("Attach", imageURL)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSendFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d from %s", shared.ErrSendFailed, resp.StatusCode, target)
	}

	return nil
}
