package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TransactionDetails is the ledger's view of a transaction, used for
// reversal execution and the arbitrator case view.
type TransactionDetails struct {
	TransactionID       uuid.UUID        `json:"transactionId"`
	Amount              float64          `json:"amount"`
	Currency            string           `json:"currency"`
	FromWallet          uuid.UUID        `json:"fromWallet"`
	ToWallet            uuid.UUID        `json:"toWallet"`
	Timestamp           time.Time        `json:"timestamp"`
	DeviceInfo          map[string]any   `json:"deviceInfo,omitempty"`
	LocationInfo        map[string]any   `json:"locationInfo,omitempty"`
	RelatedTransactions []map[string]any `json:"relatedTransactions,omitempty"`
	FraudScore          *float64         `json:"fraudScore,omitempty"`
	ProcessingTimeMs    *int64           `json:"processingTimeMs,omitempty"`
}

// LedgerClient talks to the transaction/token services that own balances and
// token state. The reversibility core never mutates ledger data directly.
type LedgerClient struct {
	httpClient
}

func NewLedgerClient(baseURL string, timeout time.Duration) *LedgerClient {
	return &LedgerClient{newHTTPClient(baseURL, timeout)}
}

func (c *LedgerClient) IsEligibleForFraudReport(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	var resp struct {
		Eligible bool `json:"eligible"`
	}
	path := fmt.Sprintf("/api/v1/transactions/%s/fraud-report-eligibility", transactionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Eligible, nil
}

func (c *LedgerClient) IsEligibleForReversal(ctx context.Context, transactionID uuid.UUID) (bool, error) {
	var resp struct {
		Eligible bool `json:"eligible"`
	}
	path := fmt.Sprintf("/api/v1/transactions/%s/reversal-eligibility", transactionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Eligible, nil
}

func (c *LedgerClient) GetTransactionAmount(ctx context.Context, transactionID uuid.UUID) (float64, error) {
	details, err := c.GetTransactionDetails(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	return details.Amount, nil
}

func (c *LedgerClient) GetTransactionDetails(ctx context.Context, transactionID uuid.UUID) (*TransactionDetails, error) {
	var details TransactionDetails
	path := fmt.Sprintf("/api/v1/transactions/%s", transactionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *LedgerClient) GetRelatedTransactions(ctx context.Context, transactionID uuid.UUID) (map[string]any, error) {
	var related map[string]any
	path := fmt.Sprintf("/api/v1/transactions/%s/related", transactionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &related); err != nil {
		return nil, err
	}
	return related, nil
}

// FreezeTokens locks the disputed transaction's tokens against the case.
func (c *LedgerClient) FreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error {
	body := map[string]any{"transactionId": transactionID, "caseId": caseID}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/tokens/freeze", body, nil)
}

func (c *LedgerClient) UnfreezeTokens(ctx context.Context, transactionID, caseID uuid.UUID) error {
	body := map[string]any{"transactionId": transactionID, "caseId": caseID}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/tokens/unfreeze", body, nil)
}

// InvalidateTokens permanently voids the disputed tokens. The ledger treats
// invalidating already-invalid tokens as a no-op, not an error.
func (c *LedgerClient) InvalidateTokens(ctx context.Context, transactionID uuid.UUID) error {
	body := map[string]any{"transactionId": transactionID}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/tokens/invalidate", body, nil)
}

// ReissueTokens mints clean-provenance replacement tokens to the victim's
// wallet, tagged with the case id for traceability.
func (c *LedgerClient) ReissueTokens(ctx context.Context, walletID uuid.UUID, amount float64, caseID uuid.UUID) (uuid.UUID, error) {
	body := map[string]any{"walletId": walletID, "amount": amount, "caseId": caseID}
	var resp struct {
		BatchID uuid.UUID `json:"batchId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/tokens/reissue", body, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.BatchID, nil
}

func (c *LedgerClient) MarkReversed(ctx context.Context, transactionID, caseID uuid.UUID) error {
	body := map[string]any{"caseId": caseID}
	path := fmt.Sprintf("/api/v1/transactions/%s/reverse", transactionID)
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}
