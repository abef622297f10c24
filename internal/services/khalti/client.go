package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"artistry-hub/internal/status"

	"github.com/shopspring/decimal"
)

type Config struct {
	// BaseURL is the base url of the Khalti ePayment backend.
	BaseURL string `json:"baseUrl" mapstructure:"base_url"`

	// SecretKey authenticates outbound calls ("Key <secret>" header).
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`

	// WebsiteURL is sent with every initiate request.
	WebsiteURL string `json:"websiteUrl" mapstructure:"website_url"`
}

type Client struct {
	baseURL    string
	secretKey  string
	websiteURL string

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a new instance of the Khalti ePayment client.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		websiteURL: cfg.WebsiteURL,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type InitiateRequest struct {
	ReturnURL         string          `json:"return_url"`
	WebsiteURL        string          `json:"website_url"`
	Amount            decimal.Decimal `json:"amount"` // paisa
	PurchaseOrderID   string          `json:"purchase_order_id"`
	PurchaseOrderName string          `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo    `json:"customer_info"`

	// MerchantExtra is echoed back on the return URL by the gateway and
	// serves as the metadata identity carrier.
	MerchantExtra string `json:"merchant_extra,omitempty"`
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
}

// Initiate registers a payment with Khalti and returns the hosted
// payment page url plus the session identifier (pidx).
func (c *Client) Initiate(ctx context.Context, r *InitiateRequest) (*InitiateResponse, error) {
	if r.WebsiteURL == "" {
		r.WebsiteURL = c.websiteURL
	}

	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("initiate: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/epayment/initiate/"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("initiate: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Key %s", c.secretKey))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initiate: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("initiate: status %d: %s: %w", resp.StatusCode, detail, status.ErrUpstream)
	}

	var reply InitiateResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("initiate: json.Decode: %w", err)
	}
	if reply.Pidx == "" || reply.PaymentURL == "" {
		return nil, fmt.Errorf("initiate: empty pidx or payment_url: %w", status.ErrUpstream)
	}

	return &reply, nil
}

// Lookup re-verifies a payment with Khalti's lookup endpoint. Callback
// handling must never trust the redirect parameters without this.
func (c *Client) Lookup(ctx context.Context, pidx string) (*status.Transaction, error) {
	body := fmt.Sprintf(`{"pidx":%q}`, pidx)

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/epayment/lookup/"), bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, fmt.Errorf("lookup: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Key %s", c.secretKey))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("lookup: pidx %s: %w", pidx, status.ErrVerificationFailed)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("lookup: status %d: %s: %w", resp.StatusCode, detail, status.ErrUpstream)
	}

	var reply status.Transaction
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("lookup: json.Decode: %w", err)
	}
	if reply.Pidx == "" {
		reply.Pidx = pidx
	}

	return &reply, nil
}
