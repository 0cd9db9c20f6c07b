package payments

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	OrderID    string
	Amount     decimal.Decimal
	Currency   string
	BuyerEmail string
	BuyerName  string
	BuyerPhone string
}

type GatewayOutcome string

const (
	GatewayAccepted    GatewayOutcome = "accepted"
	GatewayRejected    GatewayOutcome = "rejected"    // gateway answered and said no
	GatewayUnreachable GatewayOutcome = "unreachable" // network failure or timeout
	GatewayError       GatewayOutcome = "error"       // non-2xx response
)

// GatewayResult is the classified answer to a charge request. Raw is the
// response body as JSON when one was received.
type GatewayResult struct {
	Outcome    GatewayOutcome
	PaymentID  string
	PaymentURL string
	Reason     string
	HTTPStatus int
	Raw        json.RawMessage
	Cause      error
}

// Gateway submits mobile-money charges. Implementations do not touch the
// Store.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) GatewayResult
}

// SandboxGateway accepts charges for the designated test phone and rejects
// everything else. It stands in for the real gateway when simulation is on
// and no gateway credentials are configured.
type SandboxGateway struct {
	TestPhone string
}

func (SandboxGateway) Name() string { return "sandbox" }

func (g SandboxGateway) Charge(_ context.Context, req ChargeRequest) GatewayResult {
	if req.BuyerPhone != g.TestPhone {
		raw, _ := json.Marshal(map[string]string{"status": "error", "message": "gateway not configured"})
		return GatewayResult{Outcome: GatewayRejected, Reason: "gateway not configured", Raw: raw}
	}
	raw, _ := json.Marshal(map[string]any{
		"status":    "success",
		"message":   "sandbox charge accepted",
		"order_id":  req.OrderID,
		"simulated": true,
	})
	return GatewayResult{Outcome: GatewayAccepted, PaymentID: "SBX-" + req.OrderID, Raw: raw}
}
