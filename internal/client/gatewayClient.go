package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bookshop-commerce/internal/config"
)

// GatewayClient talks to the hosted payment gateway. The gateway is a
// black box: we initialize a transaction, the shopper completes it in
// the gateway's own UI, and we verify the reference afterwards.
type GatewayClient interface {
	InitializeTransaction(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error)
}

type InitializeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Email     string
}

type InitializeResponse struct {
	AccessCode   string
	AuthorizeURL string
}

type VerifyResponse struct {
	Reference string
	Status    string // "success", "failed", "abandoned"
	Amount    decimal.Decimal
	Currency  string
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewGatewayClient(cfg *config.Gateway) GatewayClient {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

type gatewayEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *gatewayClientImpl) InitializeTransaction(ctx context.Context, initReq *InitializeRequest) (*InitializeResponse, error) {
	payload := map[string]interface{}{
		"reference": initReq.Reference,
		"amount":    initReq.Amount.Mul(decimal.NewFromInt(100)).IntPart(), // minor units
		"currency":  initReq.Currency,
		"email":     initReq.Email,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/transaction/initialize",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(b))
	}

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("gateway initialize declined: %s", envelope.Message)
	}

	var data struct {
		AccessCode       string `json:"access_code"`
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode gateway data: %w", err)
	}

	return &InitializeResponse{
		AccessCode:   data.AccessCode,
		AuthorizeURL: data.AuthorizationURL,
	}, nil
}

func (c *gatewayClientImpl) VerifyTransaction(ctx context.Context, reference string) (*VerifyResponse, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", c.baseApiURL, reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gateway verify failed: status=%d body=%s", resp.StatusCode, string(b))
	}

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("gateway verify declined: %s", envelope.Message)
	}

	var data struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"` // minor units
		Currency  string `json:"currency"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decode gateway data: %w", err)
	}

	return &VerifyResponse{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    decimal.NewFromInt(data.Amount).Div(decimal.NewFromInt(100)),
		Currency:  data.Currency,
	}, nil
}
