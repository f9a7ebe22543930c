package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenCaixaRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
}

type CloseCaixaRequest struct {
	CountedBalance decimal.Decimal `json:"counted_balance" validate:"min=0"`
}

type CaixaMovementRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Reason string          `json:"reason" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SalesSummary struct {
	Total       decimal.Decimal            `json:"total"`
	CountOrders int                        `json:"count_orders"`
	ByMethod    map[string]decimal.Decimal `json:"by_method"`
}

type MovementResponse struct {
	Type    string          `json:"type"`
	Method  *string         `json:"method,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
	OrderID *string         `json:"order_id,omitempty"`
	At      string          `json:"at"`
}

type CaixaSessionResponse struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	OpenedBy       string          `json:"opened_by"`
	OpenedAt       string          `json:"opened_at"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`

	Sales           SalesSummary    `json:"sales"`
	Sangrias        decimal.Decimal `json:"sangrias"`
	Reforcos        decimal.Decimal `json:"reforcos"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`

	ClosedBy       *string          `json:"closed_by,omitempty"`
	ClosedAt       *string          `json:"closed_at,omitempty"`
	CountedBalance *decimal.Decimal `json:"counted_balance,omitempty"`
	Discrepancy    *decimal.Decimal `json:"discrepancy,omitempty"`

	Movements []MovementResponse `json:"movements,omitempty"`
}

type CaixaHistoryResponse struct {
	Data  []CaixaSessionResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// CaixaRangeSummary aggregates closed sessions over a date range.
// Read-only derived view; carries no core invariants.
type CaixaRangeSummary struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	Sessions         int             `json:"sessions"`
	OpeningBalances  decimal.Decimal `json:"opening_balances"`
	CountedBalances  decimal.Decimal `json:"counted_balances"`
	ExpectedBalances decimal.Decimal `json:"expected_balances"`
	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy"`
}
