package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const zenoPayChargePath = "/api/payments/mobile_money_tanzania"

// ZenoPayClient talks to the ZenoPay mobile-money API.
type ZenoPayClient struct {
	baseURL     string
	apiKey      string
	callbackURL string
	http        *http.Client
	logger      *slog.Logger
}

type ZenoPayConfig struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	Timeout     time.Duration
}

func NewZenoPayClient(cfg ZenoPayConfig) *ZenoPayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ZenoPayClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		callbackURL: cfg.CallbackURL,
		http:        &http.Client{Timeout: timeout},
		logger:      slog.Default(),
	}
}

func (c *ZenoPayClient) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *ZenoPayClient) Name() string { return "zenopay" }

type zenoPayRequest struct {
	OrderID    string      `json:"order_id"`
	BuyerEmail string      `json:"buyer_email"`
	BuyerName  string      `json:"buyer_name"`
	BuyerPhone string      `json:"buyer_phone"`
	Amount     json.Number `json:"amount"`
	WebhookURL string      `json:"webhook_url,omitempty"`
}

type zenoPayResponse struct {
	Status     string `json:"status"`
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	OrderID    string `json:"order_id"`
	PaymentID  string `json:"payment_id"`
	TransID    string `json:"transid"`
	PaymentURL string `json:"payment_url"`
}

func (c *ZenoPayClient) Charge(ctx context.Context, req ChargeRequest) GatewayResult {
	body, err := json.Marshal(zenoPayRequest{
		OrderID:    req.OrderID,
		BuyerEmail: req.BuyerEmail,
		BuyerName:  req.BuyerName,
		BuyerPhone: req.BuyerPhone,
		Amount:     json.Number(req.Amount.String()),
		WebhookURL: c.callbackURL,
	})
	if err != nil {
		return GatewayResult{Outcome: GatewayError, Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+zenoPayChargePath, bytes.NewReader(body))
	if err != nil {
		return GatewayResult{Outcome: GatewayError, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "gateway unreachable", "order_id", req.OrderID, "latency", time.Since(start), "err", err)
		return GatewayResult{Outcome: GatewayUnreachable, Cause: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		c.logger.WarnContext(ctx, "gateway response read failed", "order_id", req.OrderID, "err", err)
		return GatewayResult{Outcome: GatewayUnreachable, HTTPStatus: res.StatusCode, Cause: err}
	}

	result := classifyZenoPay(res.StatusCode, raw)
	c.logger.InfoContext(ctx, "gateway charge",
		"order_id", req.OrderID,
		"outcome", result.Outcome,
		"http_status", res.StatusCode,
		"latency", time.Since(start),
	)
	return result
}

func classifyZenoPay(status int, raw []byte) GatewayResult {
	var body zenoPayResponse
	parseErr := json.Unmarshal(raw, &body)

	if status < 200 || status > 299 {
		return GatewayResult{
			Outcome:    GatewayError,
			HTTPStatus: status,
			Reason:     body.Message,
			Raw:        asJSON(raw),
			Cause:      fmt.Errorf("gateway http %d", status),
		}
	}
	if parseErr != nil {
		return GatewayResult{
			Outcome:    GatewayError,
			HTTPStatus: status,
			Reason:     "unreadable gateway response",
			Raw:        asJSON(raw),
			Cause:      parseErr,
		}
	}

	if strings.EqualFold(body.Status, "success") {
		paymentID := body.PaymentID
		if paymentID == "" {
			paymentID = body.TransID
		}
		return GatewayResult{
			Outcome:    GatewayAccepted,
			HTTPStatus: status,
			PaymentID:  paymentID,
			PaymentURL: body.PaymentURL,
			Reason:     body.Message,
			Raw:        asJSON(raw),
		}
	}

	reason := body.Message
	if reason == "" {
		reason = "payment request was rejected"
	}
	return GatewayResult{Outcome: GatewayRejected, HTTPStatus: status, Reason: reason, Raw: asJSON(raw)}
}

// asJSON keeps valid JSON bodies as-is and wraps anything else in a string
// so it can still be stored in a JSON column.
func asJSON(raw []byte) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(map[string]string{"body": string(raw)})
	return quoted
}
