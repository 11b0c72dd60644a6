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
)

// SuregiftsClient talks to the Suregifts gift card API. Partial redemptions
// are allowed; the card keeps its remaining balance.
type SuregiftsClient struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

func NewSuregiftsClient(cfg *config.Config) *SuregiftsClient {
	timeout := time.Duration(cfg.Suregifts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SuregiftsClient{
		baseURL:    cfg.Suregifts.BaseURL,
		apiKey:     cfg.Suregifts.APIKey,
		secretKey:  cfg.Suregifts.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type suregiftsResponse struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	Reference        string  `json:"reference"`
	AmountUsed       float64 `json:"amount_used"`
	RemainingBalance float64 `json:"remaining_balance"`
	Balance          float64 `json:"balance"`
}

// Redeem draws down a gift card by the given amount
func (c *SuregiftsClient) Redeem(ctx context.Context, code string, amount float64) (*GiftCardRedemption, error) {
	payload := map[string]interface{}{
		"card_code": code,
		"amount":    amount,
	}

	var resp suregiftsResponse
	if err := c.post(ctx, "/v1/cards/redeem", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "success" {
		log.Printf("[Suregifts] Redemption declined: %s", resp.Message)
		return nil, apperrors.Conflict("gift card redemption declined: %s", resp.Message)
	}

	return &GiftCardRedemption{
		Reference:        resp.Reference,
		AmountUsed:       resp.AmountUsed,
		RemainingBalance: resp.RemainingBalance,
	}, nil
}

// Balance returns the card's current balance
func (c *SuregiftsClient) Balance(ctx context.Context, code string) (float64, error) {
	payload := map[string]interface{}{"card_code": code}

	var resp suregiftsResponse
	if err := c.post(ctx, "/v1/cards/balance", payload, &resp); err != nil {
		return 0, err
	}
	if resp.Status != "success" {
		return 0, apperrors.NotFound("gift card lookup failed: %s", resp.Message)
	}

	return resp.Balance, nil
}

// VoidRedemption restores a prior redemption to the card
func (c *SuregiftsClient) VoidRedemption(ctx context.Context, reference string) error {
	payload := map[string]interface{}{"reference": reference}

	var resp suregiftsResponse
	if err := c.post(ctx, "/v1/cards/void", payload, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return apperrors.Conflict("gift card void rejected: %s", resp.Message)
	}

	log.Printf("[Suregifts] Voided redemption %s", reference)
	return nil
}

func (c *SuregiftsClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
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
		return apperrors.External(err, "suregifts request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.External(nil, "suregifts returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.External(err, "suregifts response decode failed")
	}

	return nil
}
