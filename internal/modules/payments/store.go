package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists payment records. Records are created once and then only
// updated; nothing in normal operation deletes them.
type Store interface {
	Create(ctx context.Context, p Payment) (Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (Payment, error)
	UpdateStatus(ctx context.Context, orderID string, status Status, gatewayResponse datatypes.JSON) (Payment, error)
	UpdateWithCallback(ctx context.Context, orderID string, payload datatypes.JSON) (Payment, error)
	SetGatewayResponse(ctx context.Context, orderID string, resp datatypes.JSON) (Payment, error)
	Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error)
	ListAll(ctx context.Context) ([]Payment, error)
	List(ctx context.Context, in ListParams) (ListResult, error)
	Callbacks(ctx context.Context, orderID string) ([]CallbackLog, error)
}

// ReconcileInput drives one locked read-decide-write cycle on a record.
type ReconcileInput struct {
	OrderID         string
	Event           Event
	CallbackPayload datatypes.JSON // stored unless the event conflicts
	GatewayResponse datatypes.JSON
	Log             *CallbackLog // appended with the computed outcome
}

type ReconcileResult struct {
	Payment  Payment
	Previous Status
	Outcome  Outcome
}

type ListParams struct {
	Status   string
	Q        string
	Page     int
	PageSize int
}

type ListResult struct {
	Items []Payment
	Total int64
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// AutoMigrate creates or updates the payments and payment_callbacks tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Payment{}, &CallbackLog{})
}

func (s *GormStore) Create(ctx context.Context, p Payment) (Payment, error) {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = StatusPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Payment{}).Where("order_id = ?", p.OrderID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateOrder
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		if isDup(err) {
			return Payment{}, ErrDuplicateOrder
		}
		return Payment{}, storeErr(err)
	}
	return p, nil
}

func (s *GormStore) GetByOrderID(ctx context.Context, orderID string) (Payment, error) {
	var p Payment
	if err := s.db.WithContext(ctx).First(&p, "order_id = ?", orderID).Error; err != nil {
		return Payment{}, storeErr(err)
	}
	return p, nil
}

// UpdateStatus writes status unconditionally. It is the operator path; the
// callback path goes through Reconcile.
func (s *GormStore) UpdateStatus(ctx context.Context, orderID string, status Status, gatewayResponse datatypes.JSON) (Payment, error) {
	ev, err := ManualEvent(status)
	if err != nil {
		return Payment{}, err
	}
	res, err := s.Reconcile(ctx, ReconcileInput{OrderID: orderID, Event: ev, GatewayResponse: gatewayResponse})
	if err != nil {
		return Payment{}, err
	}
	return res.Payment, nil
}

// UpdateWithCallback stores the raw callback payload without touching status.
func (s *GormStore) UpdateWithCallback(ctx context.Context, orderID string, payload datatypes.JSON) (Payment, error) {
	return s.updateFields(ctx, orderID, map[string]any{"callback_payload": payload})
}

// SetGatewayResponse stores the synchronous gateway body without touching
// status, so a callback that already finished the record is not reverted.
func (s *GormStore) SetGatewayResponse(ctx context.Context, orderID string, resp datatypes.JSON) (Payment, error) {
	return s.updateFields(ctx, orderID, map[string]any{"gateway_response": resp})
}

func (s *GormStore) updateFields(ctx context.Context, orderID string, upd map[string]any) (Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPayment(tx, orderID, &p); err != nil {
			return err
		}
		upd["updated_at"] = time.Now()
		if err := tx.Model(&Payment{}).Where("order_id = ?", orderID).Updates(upd).Error; err != nil {
			return err
		}
		return tx.First(&p, "order_id = ?", orderID).Error
	})
	if err != nil {
		return Payment{}, storeErr(err)
	}
	return p, nil
}

// Reconcile locks the record, runs the state machine for in.Event and
// persists the result in one transaction. A conflicting event leaves the
// record untouched and reports OutcomeConflict without an error.
func (s *GormStore) Reconcile(ctx context.Context, in ReconcileInput) (ReconcileResult, error) {
	var res ReconcileResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Payment
		if err := lockPayment(tx, in.OrderID, &p); err != nil {
			return err
		}
		res.Previous = p.Status

		next, err := NextStatus(p.Status, in.Event)
		switch {
		case errors.Is(err, ErrConflictingTerminal):
			res.Outcome = OutcomeConflict
		case err != nil:
			return err
		case next != p.Status:
			res.Outcome = OutcomeApplied
		case p.Status.Terminal() && in.Event != EventCallbackPending:
			res.Outcome = OutcomeDuplicate
		default:
			res.Outcome = OutcomeRecorded
		}

		if res.Outcome != OutcomeConflict {
			now := time.Now()
			upd := map[string]any{"updated_at": now}
			if next != p.Status {
				upd["status"] = next
			}
			if in.CallbackPayload != nil {
				upd["callback_payload"] = in.CallbackPayload
			}
			if in.GatewayResponse != nil {
				upd["gateway_response"] = in.GatewayResponse
			}
			if err := tx.Model(&Payment{}).Where("order_id = ?", p.OrderID).Updates(upd).Error; err != nil {
				return err
			}
			if err := tx.First(&p, "order_id = ?", p.OrderID).Error; err != nil {
				return err
			}
		}
		res.Payment = p

		if in.Log != nil {
			entry := *in.Log
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			if entry.ReceivedAt.IsZero() {
				entry.ReceivedAt = time.Now()
			}
			entry.OrderID = p.OrderID
			entry.Outcome = res.Outcome
			if entry.PayloadJSON == nil {
				entry.PayloadJSON = datatypes.JSON("{}")
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, storeErr(err)
	}
	return res, nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *GormStore) List(ctx context.Context, in ListParams) (ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 30
	}

	base := s.db.WithContext(ctx).Model(&Payment{})
	if st := strings.TrimSpace(in.Status); st != "" {
		base = base.Where("status = ?", st)
	}
	if q := strings.TrimSpace(in.Q); q != "" {
		like := "%" + q + "%"
		base = base.Where("(order_id LIKE ? OR buyer_email LIKE ? OR buyer_phone LIKE ?)", like, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return ListResult{}, storeErr(err)
	}

	var items []Payment
	if err := base.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListResult{}, storeErr(err)
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *GormStore) Callbacks(ctx context.Context, orderID string) ([]CallbackLog, error) {
	var out []CallbackLog
	if err := s.db.WithContext(ctx).
		Order("received_at ASC").
		Find(&out, "order_id = ?", orderID).Error; err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func lockPayment(tx *gorm.DB, orderID string, p *Payment) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(p, "order_id = ?", orderID).Error
}

// storeErr maps driver errors onto the package sentinels. Anything that is
// not a known domain outcome is treated as the backend being unavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrDuplicateOrder),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidTransition):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
