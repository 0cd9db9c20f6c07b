package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FlexString decodes both JSON strings and numbers; gateways are not
// consistent about how they send amounts.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// CallbackInput is the body the gateway posts. ZenoPay's own field names
// (order_id, payment_status) are accepted as aliases.
type CallbackInput struct {
	PaymentID     string     `json:"payment_id"`
	Reference     string     `json:"reference"`
	OrderID       string     `json:"order_id,omitempty"`
	Amount        FlexString `json:"amount"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	Signature     string     `json:"signature,omitempty"`
	Simulated     bool       `json:"simulated,omitempty"`
}

func (in *CallbackInput) normalize() {
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" {
		in.Reference = strings.TrimSpace(in.OrderID)
	}
	in.Amount = FlexString(strings.TrimSpace(string(in.Amount)))
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = strings.TrimSpace(in.PaymentStatus)
	}
}

type CallbackResult struct {
	OrderID  string
	Status   Status
	Previous Status
	Outcome  Outcome
}

// Notifier is told about payments that just reached completed.
type Notifier interface {
	PaymentCompleted(ctx context.Context, p Payment)
}

type CallbackService struct {
	store    Store
	verifier Verifier
	notifier Notifier
	logger   *slog.Logger
}

func NewCallbackService(store Store, v Verifier) *CallbackService {
	if v == nil {
		v = NoopVerifier{}
	}
	return &CallbackService{store: store, verifier: v, logger: slog.Default()}
}

func (s *CallbackService) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *CallbackService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Handle verifies and applies a callback received from the gateway. raw is
// the body as delivered and is what gets stored.
func (s *CallbackService) Handle(ctx context.Context, in CallbackInput, raw []byte) (CallbackResult, error) {
	in.normalize()
	if in.Reference == "" {
		return CallbackResult{}, &ValidationError{Fields: map[string]string{"reference": "is required"}}
	}
	if err := s.verifier.Verify(in); err != nil {
		s.logger.WarnContext(ctx, "callback signature rejected", "reference", in.Reference)
		return CallbackResult{}, err
	}
	// Only the simulator may mark a callback simulated.
	in.Simulated = false
	return s.apply(ctx, in, raw)
}

// Apply reconciles a callback produced inside the process (the simulator).
// It skips signature verification.
func (s *CallbackService) Apply(ctx context.Context, in CallbackInput) (CallbackResult, error) {
	in.normalize()
	if in.Reference == "" {
		return CallbackResult{}, &ValidationError{Fields: map[string]string{"reference": "is required"}}
	}
	return s.apply(ctx, in, nil)
}

func (s *CallbackService) apply(ctx context.Context, in CallbackInput, raw []byte) (CallbackResult, error) {
	payload := callbackPayload(in, raw)
	ev := CallbackEvent(in.Status)

	res, err := s.store.Reconcile(ctx, ReconcileInput{
		OrderID:         in.Reference,
		Event:           ev,
		CallbackPayload: payload,
		Log: &CallbackLog{
			ID:          uuid.NewString(),
			PaymentID:   in.PaymentID,
			Status:      in.Status,
			Simulated:   in.Simulated,
			PayloadJSON: payload,
			ReceivedAt:  time.Now(),
		},
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "callback for unknown order", "reference", in.Reference, "status", in.Status)
		} else {
			s.logger.ErrorContext(ctx, "callback reconcile failed", "reference", in.Reference, "err", err)
		}
		return CallbackResult{}, err
	}

	out := CallbackResult{
		OrderID:  res.Payment.OrderID,
		Status:   res.Payment.Status,
		Previous: res.Previous,
		Outcome:  res.Outcome,
	}

	switch res.Outcome {
	case OutcomeConflict:
		s.logger.WarnContext(ctx, "conflicting callback ignored",
			"order_id", out.OrderID, "current", res.Previous, "callback_status", in.Status)
	case OutcomeDuplicate:
		s.logger.InfoContext(ctx, "duplicate callback", "order_id", out.OrderID, "status", out.Status)
	default:
		s.logger.InfoContext(ctx, "callback processed",
			"order_id", out.OrderID, "outcome", res.Outcome, "from", res.Previous, "to", out.Status, "simulated", in.Simulated)
	}

	if res.Outcome == OutcomeApplied && res.Payment.Status == StatusCompleted && s.notifier != nil {
		s.notifier.PaymentCompleted(ctx, res.Payment)
	}
	return out, nil
}

func callbackPayload(in CallbackInput, raw []byte) datatypes.JSON {
	if !in.Simulated && len(bytes.TrimSpace(raw)) > 0 && json.Valid(raw) {
		if stored, ok := withoutSimulatedKey(raw); ok {
			return stored
		}
	}
	in.Signature = ""
	b, _ := json.Marshal(in)
	return datatypes.JSON(b)
}

// withoutSimulatedKey returns raw with any top-level "simulated" key removed.
// Bodies that are not JSON objects are reported as unusable.
func withoutSimulatedKey(raw []byte) (datatypes.JSON, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	if _, ok := obj["simulated"]; !ok {
		return datatypes.JSON(raw), true
	}
	delete(obj, "simulated")
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return datatypes.JSON(b), true
}
