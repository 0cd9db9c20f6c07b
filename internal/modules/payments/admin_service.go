package payments

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
)

// AdminService is the operator view over the store: listing, detail, manual
// record creation and the status override used when a callback is lost.
type AdminService struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

func NewAdminService(store Store) *AdminService {
	return &AdminService{store: store, logger: slog.Default()}
}

func (s *AdminService) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *AdminService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *AdminService) ListAll(ctx context.Context) ([]Payment, error) {
	return s.store.ListAll(ctx)
}

func (s *AdminService) List(ctx context.Context, in ListParams) (ListResult, error) {
	if st := strings.TrimSpace(in.Status); st != "" {
		if _, err := ParseStatus(st); err != nil {
			return ListResult{}, &ValidationError{Fields: map[string]string{"status": "must be pending, completed or failed"}}
		}
	}
	return s.store.List(ctx, in)
}

type PaymentDetail struct {
	Payment   Payment
	Callbacks []CallbackLog
}

func (s *AdminService) Get(ctx context.Context, orderID string) (PaymentDetail, error) {
	orderID = strings.TrimSpace(orderID)
	p, err := s.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return PaymentDetail{}, err
	}
	cbs, err := s.store.Callbacks(ctx, orderID)
	if err != nil {
		return PaymentDetail{}, err
	}
	return PaymentDetail{Payment: p, Callbacks: cbs}, nil
}

type CreateRecordInput struct {
	InitiateInput
	GatewayResponse datatypes.JSON
}

// CreateRecord inserts a pending record without contacting the gateway.
func (s *AdminService) CreateRecord(ctx context.Context, in CreateRecordInput) (Payment, error) {
	in.Normalize()
	if err := Validate(in.InitiateInput); err != nil {
		return Payment{}, err
	}
	p, err := s.store.Create(ctx, Payment{
		OrderID:         in.OrderID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		BuyerEmail:      in.BuyerEmail,
		BuyerName:       in.BuyerName,
		BuyerPhone:      in.BuyerPhone,
		Status:          StatusPending,
		GatewayResponse: in.GatewayResponse,
	})
	if err != nil {
		return Payment{}, err
	}
	s.logger.InfoContext(ctx, "payment record created by operator", "order_id", p.OrderID)
	return p, nil
}

type ManualStatusInput struct {
	OrderID         string
	Status          string
	GatewayResponse datatypes.JSON
	Actor           string
}

// ManualSetStatus forces the record to in.Status. It bypasses the terminal
// guard and is the only path that may move completed to failed or back.
func (s *AdminService) ManualSetStatus(ctx context.Context, in ManualStatusInput) (Payment, error) {
	fields := map[string]string{}
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		fields["orderId"] = "is required"
	}
	st, err := ParseStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if err != nil {
		fields["status"] = "must be pending, completed or failed"
	}
	if len(fields) > 0 {
		return Payment{}, &ValidationError{Fields: fields}
	}

	ev, err := ManualEvent(st)
	if err != nil {
		return Payment{}, err
	}
	res, err := s.store.Reconcile(ctx, ReconcileInput{
		OrderID:         orderID,
		Event:           ev,
		GatewayResponse: in.GatewayResponse,
	})
	if err != nil {
		return Payment{}, err
	}

	s.logger.WarnContext(ctx, "payment status overridden",
		"order_id", orderID, "from", res.Previous, "to", res.Payment.Status, "actor", in.Actor)

	if res.Outcome == OutcomeApplied && res.Payment.Status == StatusCompleted && s.notifier != nil {
		s.notifier.PaymentCompleted(ctx, res.Payment)
	}
	return res.Payment, nil
}
