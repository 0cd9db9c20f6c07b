package view

import (
	"encoding/json"
	"time"
)

// Payment is the JSON shape of a payment record.
type Payment struct {
	OrderID         string          `json:"orderId"`
	Amount          json.Number     `json:"amount"`
	AmountDisplay   string          `json:"amountDisplay"`
	Currency        string          `json:"currency"`
	BuyerEmail      string          `json:"buyerEmail"`
	BuyerName       string          `json:"buyerName"`
	BuyerPhone      string          `json:"buyerPhone"`
	Status          string          `json:"status"`
	GatewayResponse json.RawMessage `json:"gatewayResponse,omitempty"`
	CallbackPayload json.RawMessage `json:"callbackPayload,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CallbackEntry struct {
	ID         string          `json:"id"`
	PaymentID  string          `json:"paymentId,omitempty"`
	Status     string          `json:"status"`
	Outcome    string          `json:"outcome"`
	Simulated  bool            `json:"simulated"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

type PaymentDetail struct {
	Payment
	Callbacks []CallbackEntry `json:"callbacks"`
}

// PaymentStatus is the public polling view; it carries no buyer data.
type PaymentStatus struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
