package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suregiftsClientFor(url string) *SuregiftsClient {
	cfg := &config.Config{}
	cfg.Suregifts.BaseURL = url
	cfg.Suregifts.APIKey = "test-key"
	cfg.Suregifts.TimeoutSeconds = 5
	return NewSuregiftsClient(cfg)
}

func TestSuregiftsRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("partial redemption", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/cards/redeem", r.URL.Path)

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "GC123", payload["card_code"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "success", "reference": "SG-55",
				"amount_used": 400.0, "remaining_balance": 100.0,
			})
		}))
		defer server.Close()

		redemption, err := suregiftsClientFor(server.URL).Redeem(ctx, "GC123", 400)
		require.NoError(t, err)
		assert.Equal(t, "SG-55", redemption.Reference)
		assert.Equal(t, 400.0, redemption.AmountUsed)
		assert.Equal(t, 100.0, redemption.RemainingBalance)
	})

	t.Run("decline surfaces as conflict", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "card expired"})
		}))
		defer server.Close()

		_, err := suregiftsClientFor(server.URL).Redeem(ctx, "GC123", 400)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}

func TestSuregiftsBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cards/balance", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "balance": 2500.0})
	}))
	defer server.Close()

	balance, err := suregiftsClientFor(server.URL).Balance(context.Background(), "GC123")
	require.NoError(t, err)
	assert.Equal(t, 2500.0, balance)
}

func TestSuregiftsVoidRedemption(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/cards/void", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"status": "success"})
		}))
		defer server.Close()

		require.NoError(t, suregiftsClientFor(server.URL).VoidRedemption(context.Background(), "SG-55"))
	})

	t.Run("rejection surfaces as conflict", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "window elapsed"})
		}))
		defer server.Close()

		err := suregiftsClientFor(server.URL).VoidRedemption(context.Background(), "SG-55")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})
}
