package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"artistry-hub/internal/status"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&Config{
		BaseURL:    srv.URL,
		SecretKey:  "test-secret",
		WebsiteURL: "http://localhost:5173",
	})
}

func TestInitiate_Success(t *testing.T) {
	var gotAuth string
	var gotBody InitiateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/epayment/initiate/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(InitiateResponse{
			Pidx:       "px1",
			PaymentURL: "https://pay.example.com/px1",
			ExpiresAt:  "2026-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	resp, err := client.Initiate(context.Background(), &InitiateRequest{
		ReturnURL:       "http://localhost:8090/api/payment/callback",
		Amount:          decimal.NewFromInt(50000),
		PurchaseOrderID: "ah-u1-e1-N1",
	})

	require.NoError(t, err)
	assert.Equal(t, "px1", resp.Pidx)
	assert.Equal(t, "https://pay.example.com/px1", resp.PaymentURL)
	assert.Equal(t, "Key test-secret", gotAuth)

	// The configured website url fills in when the request omits it.
	assert.Equal(t, "http://localhost:5173", gotBody.WebsiteURL)
	assert.Equal(t, "ah-u1-e1-N1", gotBody.PurchaseOrderID)
}

func TestInitiate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"amount too small"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.Initiate(context.Background(), &InitiateRequest{
		Amount: decimal.NewFromInt(1),
	})

	assert.ErrorIs(t, err, status.ErrUpstream)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestInitiate_EmptyReplyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.Initiate(context.Background(), &InitiateRequest{
		Amount: decimal.NewFromInt(50000),
	})

	assert.ErrorIs(t, err, status.ErrUpstream)
}

func TestLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/epayment/lookup/", r.URL.Path)
		require.Equal(t, "Key test-secret", r.Header.Get("Authorization"))

		var req struct {
			Pidx string `json:"pidx"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "px1", req.Pidx)

		json.NewEncoder(w).Encode(map[string]any{
			"pidx":           "px1",
			"transaction_id": "txn1",
			"status":         "Completed",
			"total_amount":   50000,
			"fee":            1500,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	tx, err := client.Lookup(context.Background(), "px1")

	require.NoError(t, err)
	assert.Equal(t, status.StatusCompleted, tx.Status)
	assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(50000)))
}

func TestLookup_UnknownPidx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	_, err := client.Lookup(context.Background(), "no-such-pidx")

	assert.ErrorIs(t, err, status.ErrVerificationFailed)
}

func TestLookup_FillsMissingPidx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "Pending",
			"total_amount": 50000,
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	tx, err := client.Lookup(context.Background(), "px9")

	require.NoError(t, err)
	assert.Equal(t, "px9", tx.Pidx)
}
