package payments

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus accepts the lowercase status names used on the wire.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Payment is one payment attempt, keyed by the caller-generated order id.
// Only Status, GatewayResponse, CallbackPayload and UpdatedAt change after
// creation.
type Payment struct {
	OrderID    string          `gorm:"type:varchar(64);primaryKey"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Currency   string          `gorm:"type:char(3);not null"`
	BuyerEmail string          `gorm:"type:varchar(255);not null"`
	BuyerName  string          `gorm:"type:varchar(255);not null"`
	BuyerPhone string          `gorm:"type:varchar(32);not null"`
	Status     Status          `gorm:"type:varchar(16);not null;index:ix_payments_status"`

	GatewayResponse datatypes.JSON `gorm:"type:json"`
	CallbackPayload datatypes.JSON `gorm:"type:json"`

	CreatedAt time.Time `gorm:"precision:3;not null;index:ix_payments_created_at"`
	UpdatedAt time.Time `gorm:"precision:3;not null"`
}

func (Payment) TableName() string { return "payments" }

// Outcome describes what a reconciliation did to a record.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"   // status changed
	OutcomeDuplicate Outcome = "duplicate" // same terminal status re-applied
	OutcomeRecorded  Outcome = "recorded"  // payload stored, status untouched
	OutcomeConflict  Outcome = "conflict"  // contradicts a terminal status, ignored
)

// CallbackLog keeps every callback delivery that matched a record, including
// duplicates and ignored conflicts.
type CallbackLog struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	OrderID     string         `gorm:"type:varchar(64);not null;index:ix_payment_callbacks_order_id"`
	PaymentID   string         `gorm:"type:varchar(128)"`
	Status      string         `gorm:"type:varchar(32);not null"`
	Outcome     Outcome        `gorm:"type:varchar(16);not null"`
	Simulated   bool           `gorm:"not null;default:false"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`
	ReceivedAt  time.Time      `gorm:"precision:3;not null"`
}

func (CallbackLog) TableName() string { return "payment_callbacks" }
