package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"recantoverde/internal/money"
)

// Order statuses. Legal transitions:
//
//	pending → preparing → ready → delivered → paid
//	pending|preparing → cancelled
//
// paid and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderDelivered},
	OrderDelivered: {OrderPaid},
}

// CanTransition reports whether from → to is in the legal transition table.
func CanTransition(from, to string) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// PayableStatuses are the statuses in which an order can still be charged.
var PayableStatuses = []string{OrderPending, OrderPreparing, OrderReady, OrderDelivered}

// Order is a table's request for items. Line items are frozen at creation;
// Total is computed once from them and never recomputed per payment event.
// Orders are never deleted — they are retained for history.
type Order struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TableID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	ServerID uuid.UUID       `gorm:"type:uuid;not null"`
	Status   string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Payment info — set only on the transition to paid.
	PaymentMethod *string          `gorm:"type:varchar(20)"`
	AmountCharged *decimal.Decimal `gorm:"type:decimal(12,2)"`
	PayerName     *string
	PaidAt        *time.Time
	RecordedBy    *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items         []OrderItem         `gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusChange `gorm:"foreignKey:OrderID"`
}

// Payable reports whether the order may still be selected for payment.
func (o *Order) Payable() bool {
	switch o.Status {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered:
		return true
	}
	return false
}

// ComputeTotal sums line items as integer cents. This is the single source
// of truth for an order's value; every consumer observes the same figure.
func (o *Order) ComputeTotal() decimal.Decimal {
	var cents int64
	for _, it := range o.Items {
		cents += it.SubtotalCents()
	}
	return money.FromCents(cents)
}

// OrderItem is one line of an order. Name and UnitPrice are copied verbatim
// from the menu catalog at creation time and never re-resolved.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Position   int             `gorm:"not null"`
	MenuItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Name       string          `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity   int             `gorm:"not null"`
	Note       *string
	CreatedAt  time.Time
}

// SubtotalCents returns unitPrice × quantity in integer cents.
func (i *OrderItem) SubtotalCents() int64 {
	return money.Cents(i.UnitPrice) * int64(i.Quantity)
}

// OrderStatusChange is one entry of the append-only audit trail.
// Entries are never modified or deleted.
type OrderStatusChange struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Status    string    `gorm:"type:varchar(20);not null"`
	Note      *string
	CreatedAt time.Time
}

func (OrderStatusChange) TableName() string { return "order_status_changes" }
