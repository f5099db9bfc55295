package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// SystemLogClient retrieves authentication, API access and error logs for a
// transaction within a bounded time window.
type SystemLogClient struct {
	httpClient
}

func NewSystemLogClient(baseURL string, timeout time.Duration) *SystemLogClient {
	return &SystemLogClient{newHTTPClient(baseURL, timeout)}
}

func (c *SystemLogClient) GetAuthenticationLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	return c.getLogs(ctx, "auth", transactionID, from, to)
}

func (c *SystemLogClient) GetAPIAccessLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	return c.getLogs(ctx, "api-access", transactionID, from, to)
}

func (c *SystemLogClient) GetErrorLogs(ctx context.Context, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	return c.getLogs(ctx, "errors", transactionID, from, to)
}

func (c *SystemLogClient) getLogs(ctx context.Context, kind string, transactionID uuid.UUID, from, to time.Time) (map[string]any, error) {
	params := url.Values{}
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))

	var logs map[string]any
	path := fmt.Sprintf("/api/v1/logs/%s/%s?%s", kind, transactionID, params.Encode())
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
