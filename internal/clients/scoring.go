package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ScoringClient queries the fraud-scoring oracle. The model behind it is out
// of scope here; this core only consumes a confidence value in [0,1].
type ScoringClient struct {
	httpClient
}

func NewScoringClient(baseURL string, timeout time.Duration) *ScoringClient {
	return &ScoringClient{newHTTPClient(baseURL, timeout)}
}

func (c *ScoringClient) GetFraudConfidence(ctx context.Context, caseID uuid.UUID) (float64, error) {
	var resp struct {
		Confidence float64 `json:"confidence"`
	}
	path := fmt.Sprintf("/api/v1/fraud-confidence/%s", caseID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return 0, fmt.Errorf("scoring: confidence %v out of range", resp.Confidence)
	}
	return resp.Confidence, nil
}
