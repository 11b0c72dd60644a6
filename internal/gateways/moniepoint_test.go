package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pos-backend/internal/apperrors"
	"pos-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moniepointClientFor(url string) *MoniepointClient {
	cfg := &config.Config{}
	cfg.Moniepoint.BaseURL = url
	cfg.Moniepoint.APIKey = "test-key"
	cfg.Moniepoint.SecretKey = "test-secret"
	cfg.Moniepoint.TimeoutSeconds = 5
	return NewMoniepointClient(cfg)
}

func TestMoniepointCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/terminals/charge", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "test-secret", r.Header.Get("X-Secret-Key"))

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "T1", payload["terminal_id"])
			assert.Equal(t, 1500.0, payload["amount"])

			json.NewEncoder(w).Encode(map[string]string{"status": "success", "reference": "MP-900"})
		}))
		defer server.Close()

		result, err := moniepointClientFor(server.URL).Charge(ctx, "T1", 1500, "TRX-TESTCODE")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "MP-900", result.Reference)
	})

	t.Run("decline is an outcome, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "card declined"})
		}))
		defer server.Close()

		result, err := moniepointClientFor(server.URL).Charge(ctx, "T1", 1500, "TRX-TESTCODE")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "card declined", result.Message)
	})

	t.Run("server error surfaces as external", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := moniepointClientFor(server.URL).Charge(ctx, "T1", 1500, "TRX-TESTCODE")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindExternal))
	})

	t.Run("unreachable host surfaces as external", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		_, err := moniepointClientFor(server.URL).Charge(ctx, "T1", 1500, "TRX-TESTCODE")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindExternal))
	})
}

func TestMoniepointVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("settled charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/transactions/verify", r.URL.Path)

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "TRX-TESTCODE", payload["reference"])

			json.NewEncoder(w).Encode(map[string]string{"status": "success", "reference": "MP-900"})
		}))
		defer server.Close()

		result, err := moniepointClientFor(server.URL).Verify(ctx, "TRX-TESTCODE")
		require.NoError(t, err)
		assert.Equal(t, VerifySuccess, result.Status)
		assert.Equal(t, "MP-900", result.Reference)
	})

	t.Run("declined charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "card declined"})
		}))
		defer server.Close()

		result, err := moniepointClientFor(server.URL).Verify(ctx, "TRX-TESTCODE")
		require.NoError(t, err)
		assert.Equal(t, VerifyFailed, result.Status)
		assert.Equal(t, "card declined", result.Message)
	})

	t.Run("unsettled charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
		}))
		defer server.Close()

		result, err := moniepointClientFor(server.URL).Verify(ctx, "TRX-TESTCODE")
		require.NoError(t, err)
		assert.Equal(t, VerifyPending, result.Status)
	})

	t.Run("server error surfaces as external", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := moniepointClientFor(server.URL).Verify(ctx, "TRX-TESTCODE")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindExternal))
	})
}

func TestMoniepointRefundRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions/refund", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "already refunded"})
	}))
	defer server.Close()

	err := moniepointClientFor(server.URL).Refund(context.Background(), "MP-900", 1500)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestMoniepointListTransfers(t *testing.T) {
	seen := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/terminals/transfers", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"transfers": []map[string]interface{}{
				{"amount": 750.0, "reference": "EVT-1", "date": seen.Format(time.RFC3339)},
			},
		})
	}))
	defer server.Close()

	events, err := moniepointClientFor(server.URL).ListTransfers(context.Background(),
		"T1", seen.Add(-time.Hour), seen.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 750.0, events[0].Amount)
	assert.Equal(t, "EVT-1", events[0].Reference)
	assert.True(t, events[0].Date.Equal(seen))
}
