package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"payment-gateway/internal/util"
)

const defaultRequestTimeout = 15 * time.Second

// Client is the HTTP-backed Gateway implementation. The PSP exposes a JSON
// API authenticated with the merchant's public/private key pair.
type Client struct {
	creds   Credentials
	baseURL string
	client  *http.Client
}

// NewClient creates a Gateway talking to the PSP's REST endpoint.
func NewClient(creds Credentials, baseURL string) *Client {
	return &Client{
		creds:   creds,
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

type clientTokenResponse struct {
	ClientToken string `json:"client_token"`
}

type submitRequest struct {
	Nonce      string `json:"payment_method_nonce"`
	Amount     string `json:"amount"`
	Require3DS bool   `json:"require_three_d_secure"`
	Vault      string `json:"store_in_vault"`
}

type transactionResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Success        bool   `json:"success"`
	RiskOutcome    string `json:"liability_shift"`
	VaultToken     string `json:"payment_method_token,omitempty"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) GenerateClientToken(ctx context.Context) (string, error) {
	var resp clientTokenResponse
	if err := c.do(ctx, "generate_client_token", http.MethodPost, "/client_token", nil, &resp); err != nil {
		return "", err
	}
	return resp.ClientToken, nil
}

func (c *Client) SubmitTransaction(ctx context.Context, nonce string, amount decimal.Decimal, opts SubmitOptions) (*TransactionResult, error) {
	req := submitRequest{
		Nonce:      nonce,
		Amount:     amount.StringFixed(2),
		Require3DS: opts.Require3DS,
		Vault:      string(opts.Vault),
	}

	var resp transactionResponse
	if err := c.do(ctx, "submit_transaction", http.MethodPost, "/transactions", req, &resp); err != nil {
		return nil, err
	}
	return resp.toResult()
}

func (c *Client) FetchTransaction(ctx context.Context, transactionID string) (*TransactionResult, error) {
	var resp transactionResponse
	if err := c.do(ctx, "fetch_transaction", http.MethodGet, "/transactions/"+transactionID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toResult()
}

func (c *Client) FindVaultedMethod(ctx context.Context, token string) (*VaultedMethod, error) {
	var method VaultedMethod
	if err := c.do(ctx, "find_vaulted_method", http.MethodGet, "/payment_methods/"+token, nil, &method); err != nil {
		return nil, err
	}
	return &method, nil
}

func (c *Client) DeleteVaultedMethod(ctx context.Context, token string) error {
	return c.do(ctx, "delete_vaulted_method", http.MethodDelete, "/payment_methods/"+token, nil, nil)
}

func (r *transactionResponse) toResult() (*TransactionResult, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in PSP response: %q", r.Amount)
	}

	risk := RiskNotApplicable
	switch r.RiskOutcome {
	case "possible", "shifted", string(RiskLiabilityShifted):
		risk = RiskLiabilityShifted
	case "not_possible", string(RiskNoLiabilityShift):
		risk = RiskNoLiabilityShift
	}

	return &TransactionResult{
		Success:       r.Success,
		TransactionID: r.ID,
		Status:        r.Status,
		Amount:        amount,
		RiskOutcome:   risk,
		VaultToken:    r.VaultToken,
		FailureCode:   r.FailureCode,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	start := time.Now()
	defer func() {
		util.PSPRequestLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.creds.PublicKey, c.creds.PrivateKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Id", c.creds.MerchantID)

	resp, err := c.client.Do(req)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &AuthenticationError{Message: apiErr.Message}
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Kind: op, ID: path}
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &GatewayError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
