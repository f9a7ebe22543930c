package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caixa session statuses. closed is terminal — a session is never reopened;
// a new Open creates a new session id.
const (
	CaixaOpen   = "open"
	CaixaClosed = "closed"
)

// Caixa movement types.
const (
	MovementSale    = "sale"
	MovementSangria = "sangria"
	MovementReforco = "reforco"
)

// Payment methods accepted at the drawer.
const (
	MethodCash   = "dinheiro"
	MethodCredit = "cartao_credito"
	MethodDebit  = "cartao_debito"
	MethodPix    = "pix"
)

// CaixaSession is one shift of the cash drawer. At most one session is open
// system-wide at any time, enforced by a partial unique index on status.
// All aggregates (sales totals, expected balance) are recomputed from the
// movement ledger, so a closed session's reconciliation can be reproduced
// by replay at any point.
type CaixaSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status         string          `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedBy       uuid.UUID       `gorm:"type:uuid;not null"`
	OpenedAt       time.Time       `gorm:"not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Closing data — frozen by Close, nil while open.
	ClosedBy        *uuid.UUID       `gorm:"type:uuid"`
	ClosedAt        *time.Time
	CountedBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Discrepancy = counted − expected. Negative is a shortage, positive a
	// surplus; both are recorded, never auto-corrected.
	Discrepancy *decimal.Decimal `gorm:"type:decimal(12,2)"`

	Movements []CaixaMovement `gorm:"foreignKey:SessionID"`
}

// CaixaMovement is an immutable entry in the drawer ledger. Amounts are
// signed: sales and reforços are positive, sangrias negative. The expected
// balance is therefore openingBalance + Σ(amounts), which is insensitive to
// the order the entries were appended in.
type CaixaMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type      string    `gorm:"type:varchar(20);not null"`
	// Method is set on sale movements only.
	Method *string         `gorm:"type:varchar(20)"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason string          `gorm:"not null"`
	// OrderID links a sale movement to the order it settles.
	OrderID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}
