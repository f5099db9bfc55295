package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// BehaviorClient queries the behavior-analytics collaborator for a user's
// typical patterns and deviation on a specific transaction.
type BehaviorClient struct {
	httpClient
}

func NewBehaviorClient(baseURL string, timeout time.Duration) *BehaviorClient {
	return &BehaviorClient{newHTTPClient(baseURL, timeout)}
}

func (c *BehaviorClient) GetTypicalPatterns(ctx context.Context, userID uuid.UUID) (map[string]any, error) {
	var patterns map[string]any
	path := fmt.Sprintf("/api/v1/behavior/%s/patterns", userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (c *BehaviorClient) AnalyzeDeviation(ctx context.Context, userID, transactionID uuid.UUID) (map[string]any, error) {
	var deviation map[string]any
	path := fmt.Sprintf("/api/v1/behavior/%s/deviation/%s", userID, transactionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &deviation); err != nil {
		return nil, err
	}
	return deviation, nil
}

func (c *BehaviorClient) GetRecentActivity(ctx context.Context, userID uuid.UUID, days int) (map[string]any, error) {
	var activity map[string]any
	path := fmt.Sprintf("/api/v1/behavior/%s/activity?days=%d", userID, days)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &activity); err != nil {
		return nil, err
	}
	return activity, nil
}
