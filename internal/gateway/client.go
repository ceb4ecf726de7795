package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"event-ticketing/internal/monitoring"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

// Client is the HTTP implementation of PaymentGateway.
type Client struct {
	baseURL       string
	apiKey        string
	merchantID    string
	webhookSecret string
	hc            *http.Client
	log           *zap.Logger
}

func NewClient(config utils.GatewayConfig, log *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:       config.BaseURL,
		apiKey:        config.APIKey,
		merchantID:    config.MerchantID,
		webhookSecret: config.WebhookSecret,
		hc: &http.Client{
			Timeout: timeout,
		},
		log: log.With(zap.String("component", "gateway")),
	}
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	payload := map[string]any{
		"order_id":    req.OrderID,
		"amount":      req.Amount.StringFixed(2),
		"customer_id": req.UserID,
		"return_url":  req.ReturnURL,
		"action":      "paymentPage",
	}

	body, err := c.do(ctx, http.MethodPost, "/session", payload)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Error("Failed to decode session response", zap.Error(err))
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	c.log.Info("Gateway session created",
		zap.String("order_id", req.OrderID),
		zap.String("session_id", parsed.ID),
	)

	return &Session{
		SessionID:  parsed.ID,
		SDKPayload: json.RawMessage(body),
	}, nil
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (*OrderState, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		TxnID   string `json:"txn_id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Error("Failed to decode order status response",
			zap.Error(err),
			zap.String("order_id", orderID),
		)
		return nil, fmt.Errorf("decode order status response: %w", err)
	}

	return &OrderState{
		Outcome:   mapStatus(parsed.Status),
		RawStatus: parsed.Status,
		Reference: parsed.TxnID,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	defer func() {
		monitoring.ObserveGatewayRequest(method+" "+path, time.Since(start))
	}()

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode gateway request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("x-merchantid", c.merchantID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Error("Gateway request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path),
		)
		return nil, fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("Gateway returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("method", method),
			zap.String("path", path),
		)
		return nil, fmt.Errorf("gateway %s %s: status %d", method, path, resp.StatusCode)
	}

	return body, nil
}
