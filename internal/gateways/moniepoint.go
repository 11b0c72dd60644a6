package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/config"
	"pos-backend/internal/models"
)

// MoniepointClient talks to the Moniepoint terminal API. Charges are
// synchronous; transfers seen at a terminal are pulled for reconciliation.
type MoniepointClient struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

func NewMoniepointClient(cfg *config.Config) *MoniepointClient {
	timeout := time.Duration(cfg.Moniepoint.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MoniepointClient{
		baseURL:    cfg.Moniepoint.BaseURL,
		apiKey:     cfg.Moniepoint.APIKey,
		secretKey:  cfg.Moniepoint.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type moniepointChargeResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Charge pushes a charge to the given terminal and waits for the outcome
func (c *MoniepointClient) Charge(ctx context.Context, terminalID string, amount float64, transactionCode string) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"terminal_id": terminalID,
		"amount":      amount,
		"reference":   transactionCode,
	}

	var resp moniepointChargeResponse
	if err := c.post(ctx, "/v1/terminals/charge", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		log.Printf("[Moniepoint] Charge declined on terminal %s: %s", terminalID, resp.Message)
		return &ChargeResult{Success: false, Message: resp.Message}, nil
	}

	return &ChargeResult{Success: true, Reference: resp.Reference, Message: resp.Message}, nil
}

// Verify asks the gateway what became of a charge submitted under the given
// merchant reference. Used to resolve payments left pending by a transport
// failure, where the charge outcome was never observed.
func (c *MoniepointClient) Verify(ctx context.Context, transactionCode string) (*VerifyResult, error) {
	payload := map[string]interface{}{
		"reference": transactionCode,
	}

	var resp moniepointChargeResponse
	if err := c.post(ctx, "/v1/transactions/verify", payload, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "success":
		return &VerifyResult{Status: VerifySuccess, Reference: resp.Reference, Message: resp.Message}, nil
	case "pending":
		return &VerifyResult{Status: VerifyPending, Message: resp.Message}, nil
	default:
		return &VerifyResult{Status: VerifyFailed, Message: resp.Message}, nil
	}
}

// Refund reverses a settled charge. Callers must not void the local payment
// unless this succeeds.
func (c *MoniepointClient) Refund(ctx context.Context, reference string, amount float64) error {
	payload := map[string]interface{}{
		"reference": reference,
		"amount":    amount,
	}

	var resp moniepointChargeResponse
	if err := c.post(ctx, "/v1/transactions/refund", payload, &resp); err != nil {
		return err
	}

	if resp.Status != "success" {
		return apperrors.Conflict("refund rejected: %s", resp.Message)
	}

	log.Printf("[Moniepoint] Refunded %s (%.2f)", reference, amount)
	return nil
}

type moniepointTransfersResponse struct {
	Status    string `json:"status"`
	Transfers []struct {
		Amount    float64   `json:"amount"`
		Reference string    `json:"reference"`
		Date      time.Time `json:"date"`
	} `json:"transfers"`
}

// ListTransfers returns transfer events seen at a terminal in the window
func (c *MoniepointClient) ListTransfers(ctx context.Context, terminalID string, start, end time.Time) ([]models.TransferEvent, error) {
	payload := map[string]interface{}{
		"terminal_id": terminalID,
		"start_date":  start.Format(time.RFC3339),
		"end_date":    end.Format(time.RFC3339),
	}

	var resp moniepointTransfersResponse
	if err := c.post(ctx, "/v1/terminals/transfers", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, apperrors.External(nil, "transfer listing failed")
	}

	events := make([]models.TransferEvent, 0, len(resp.Transfers))
	for _, t := range resp.Transfers {
		events = append(events, models.TransferEvent{
			Amount:    t.Amount,
			Reference: t.Reference,
			Date:      t.Date,
		})
	}

	return events, nil
}

func (c *MoniepointClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Secret-Key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.External(err, "moniepoint request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.External(nil, "moniepoint returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.External(err, "moniepoint response decode failed")
	}

	return nil
}
