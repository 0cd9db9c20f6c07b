package payments

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/datatypes"
)

// Service initiates payments: validate, record as pending, submit to the
// gateway, and for the designated test identity schedule a simulated
// completion.
type Service struct {
	store   Store
	gateway Gateway
	logger  *slog.Logger

	sim       *Simulator
	testPhone string
	callbacks *CallbackService
}

func NewService(store Store, gw Gateway) *Service {
	return &Service{store: store, gateway: gw, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// EnableSimulation turns on simulated completion for testPhone. Completions
// go through cb exactly like a gateway callback.
func (s *Service) EnableSimulation(sim *Simulator, testPhone string, cb *CallbackService) {
	s.sim = sim
	s.testPhone = testPhone
	s.callbacks = cb
}

type InitiateResult struct {
	OrderID    string
	PaymentID  string
	PaymentURL string
	Message    string
	Status     Status

	// Task is set when a simulated completion was scheduled.
	Task *SimTask
}

// Initiate runs one payment attempt. Errors are *ValidationError,
// ErrDuplicateOrder, ErrStoreUnavailable or *GatewayFailure. On any gateway
// failure the record is left pending for later reconciliation.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	in.Normalize()
	if err := Validate(in); err != nil {
		return InitiateResult{}, err
	}

	// Phase-1: record before any network call; the order id is the idempotency key.
	p, err := s.store.Create(ctx, Payment{
		OrderID:    in.OrderID,
		Amount:     in.Amount,
		Currency:   in.Currency,
		BuyerEmail: in.BuyerEmail,
		BuyerName:  in.BuyerName,
		BuyerPhone: in.BuyerPhone,
		Status:     StatusPending,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			s.logger.WarnContext(ctx, "duplicate order id", "order_id", in.OrderID)
		}
		return InitiateResult{}, err
	}

	// Phase-2: gateway call, outside any transaction.
	res := s.gateway.Charge(ctx, ChargeRequest{
		OrderID:    p.OrderID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		BuyerEmail: p.BuyerEmail,
		BuyerName:  p.BuyerName,
		BuyerPhone: p.BuyerPhone,
	})

	// Phase-3: keep the gateway's answer. Status is left alone so a fast
	// callback that already finished the record is not overwritten.
	if len(res.Raw) > 0 {
		if _, err := s.store.SetGatewayResponse(context.WithoutCancel(ctx), p.OrderID, datatypes.JSON(res.Raw)); err != nil {
			s.logger.ErrorContext(ctx, "failed to store gateway response", "order_id", p.OrderID, "err", err)
		}
	}

	if res.Outcome != GatewayAccepted {
		s.logger.WarnContext(ctx, "payment not accepted by gateway",
			"order_id", p.OrderID, "gateway", s.gateway.Name(), "outcome", res.Outcome, "http_status", res.HTTPStatus)
		return InitiateResult{}, &GatewayFailure{Result: res}
	}

	out := InitiateResult{
		OrderID:    p.OrderID,
		PaymentID:  res.PaymentID,
		PaymentURL: res.PaymentURL,
		Message:    "Payment request sent. Confirm it on your phone.",
		Status:     StatusPending,
	}
	if res.Reason != "" {
		out.Message = res.Reason
	}

	if s.simulates(p.BuyerPhone) {
		out.Task = s.scheduleCompletion(p, res.PaymentID)
		s.logger.InfoContext(ctx, "simulated completion scheduled", "order_id", p.OrderID, "delay", s.sim.Delay())
	}
	return out, nil
}

func (s *Service) simulates(phone string) bool {
	return s.sim != nil && s.callbacks != nil && s.testPhone != "" && phone == s.testPhone
}

func (s *Service) scheduleCompletion(p Payment, paymentID string) *SimTask {
	if paymentID == "" {
		paymentID = "SIM-" + p.OrderID
	}
	cb := CallbackInput{
		PaymentID: paymentID,
		Reference: p.OrderID,
		Amount:    FlexString(p.Amount.String()),
		Status:    "success",
		Simulated: true,
	}
	return s.sim.Schedule(p.OrderID, func(ctx context.Context) error {
		_, err := s.callbacks.Apply(ctx, cb)
		return err
	})
}
