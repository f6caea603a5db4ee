package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
)

// Client is the storefront's view of the commerce API. Every call
// returns either data, a classified recoverable error, or an auth
// error that should send the shopper to login.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	guestID    string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithGuestID(guestID string) Option {
	return func(c *Client) { c.guestID = guestID }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken switches the client to an authenticated session.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// classifyStatus converts an HTTP failure into the error taxonomy,
// reading the server's error shape when one is present.
func classifyStatus(resp *http.Response) error {
	var wire dto.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&wire)
	if wire.Error == "" {
		wire.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errs.Auth(wire.Error)
	case resp.StatusCode == http.StatusPaymentRequired:
		return errs.Payment(wire.Error)
	case resp.StatusCode >= 500:
		return errs.Server(errors.New(wire.Error))
	default:
		return errs.Validation(wire.Field, wire.Error)
	}
}

// -------- cart --------

func (c *Client) GetCart(ctx context.Context) ([]dto.CartLine, error) {
	var resp dto.CartResponse
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) AddToCart(ctx context.Context, bookID uint, quantity int) ([]dto.CartLine, error) {
	var resp dto.CartResponse
	req := dto.AddItemRequest{BookID: bookID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/api/cart/add", req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, bookID uint, quantity int) ([]dto.CartLine, error) {
	var resp dto.CartResponse
	req := dto.UpdateItemRequest{Quantity: quantity}
	path := fmt.Sprintf("/api/cart/%d", bookID)
	if err := c.do(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, bookID uint) ([]dto.CartLine, error) {
	var resp dto.CartResponse
	path := fmt.Sprintf("/api/cart/%d", bookID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/clear", nil, nil)
}

func (c *Client) TransferGuestCart(ctx context.Context, items []dto.GuestItem) ([]dto.CartLine, error) {
	var resp dto.CartResponse
	req := dto.TransferGuestRequest{CartItems: items}
	if err := c.do(ctx, http.MethodPost, "/api/cart/transfer-guest", req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// -------- checkout --------

func (c *Client) Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	var resp dto.CheckoutResponse
	path := "/api/checkout-new"
	if c.token == "" {
		path = "/api/guest-checkout?guest_id=" + c.guestID
	}
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// -------- payment --------

func (c *Client) PrepareInlinePayment(ctx context.Context, orderID uint) (*dto.InlineParams, error) {
	var resp dto.InlineParams
	req := dto.PrepareInlineRequest{OrderID: orderID}
	if err := c.do(ctx, http.MethodPost, "/api/payment/inline", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CompletePayment(ctx context.Context, req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
	var resp dto.CompletePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payment/complete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetBankTransfer(ctx context.Context, id string) (*dto.BankTransferDetailResponse, error) {
	var resp dto.BankTransferDetailResponse
	if err := c.do(ctx, http.MethodGet, "/api/bank-transfer/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadProof posts the proof image as a multipart form.
func (c *Client) UploadProof(ctx context.Context, orderID uint, filename string, file io.Reader) (*dto.ProofView, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("proof", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	path := fmt.Sprintf("%s/api/bank-transfer/upload-proof/%d", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp)
	}

	var proof dto.ProofView
	if err := json.NewDecoder(resp.Body).Decode(&proof); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &proof, nil
}

// -------- orders --------

func (c *Client) ListUserOrders(ctx context.Context) ([]dto.OrderView, error) {
	var orders []dto.OrderView
	if err := c.do(ctx, http.MethodGet, "/api/orders/user", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
