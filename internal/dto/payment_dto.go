package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PayFullRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
	Method   string   `json:"method"    validate:"required,oneof=dinheiro cartao_credito cartao_debito pix"`
}

type ItemRefRequest struct {
	OrderID   string `json:"order_id"   validate:"required,uuid"`
	ItemIndex int    `json:"item_index" validate:"min=0"`
}

type PayerRequest struct {
	Name    string           `json:"name"    validate:"required,min=1"`
	Method  string           `json:"method"  validate:"required,oneof=dinheiro cartao_credito cartao_debito pix"`
	Percent *decimal.Decimal `json:"percent"`
	Items   []ItemRefRequest `json:"items" validate:"omitempty,dive"`
}

type PaySplitRequest struct {
	OrderIDs []string       `json:"order_ids" validate:"required,min=1,dive,uuid"`
	Strategy string         `json:"strategy"  validate:"required,oneof=equal percentage per_item"`
	Payers   []PayerRequest `json:"payers"    validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShareResponse struct {
	Name   string          `json:"name"`
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type BillSplitResponse struct {
	Strategy string          `json:"strategy"`
	OrderIDs []string        `json:"order_ids"`
	Total    decimal.Decimal `json:"total"`
	Shares   []ShareResponse `json:"shares"`
}

// PaymentResult reports an applied settlement. Released is best-effort: a
// payment can succeed while the table stays occupied because other orders
// remain open — those ids are listed in ReleaseBlockedBy.
type PaymentResult struct {
	Orders           []OrderResponse    `json:"orders"`
	CaixaSessionID   string             `json:"caixa_session_id"`
	TableID          string             `json:"table_id"`
	Released         bool               `json:"released"`
	ReleaseBlockedBy []string           `json:"release_blocked_by,omitempty"`
	Split            *BillSplitResponse `json:"split,omitempty"`
}
