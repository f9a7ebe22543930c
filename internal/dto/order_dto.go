package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	MenuItemID string  `json:"menu_item_id" validate:"required,uuid"`
	Quantity   int     `json:"quantity"     validate:"required,gt=0"`
	Note       *string `json:"note"`
}

type CreateOrderRequest struct {
	TableID string             `json:"table_id" validate:"required,uuid"`
	Items   []OrderItemRequest `json:"items"    validate:"required,min=1,dive"`
}

type TransitionOrderRequest struct {
	Status string  `json:"status" validate:"required,oneof=preparing ready delivered cancelled"`
	Note   *string `json:"note"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Note       *string         `json:"note"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type StatusChangeResponse struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
	At     string  `json:"at"`
}

type PaymentInfoResponse struct {
	Method        string          `json:"method"`
	AmountCharged decimal.Decimal `json:"amount_charged"`
	PayerName     *string         `json:"payer_name"`
	PaidAt        string          `json:"paid_at"`
	RecordedBy    string          `json:"recorded_by"`
}

type OrderResponse struct {
	ID            string                 `json:"id"`
	TableID       string                 `json:"table_id"`
	ServerID      string                 `json:"server_id"`
	Status        string                 `json:"status"`
	Total         decimal.Decimal        `json:"total"`
	Items         []OrderItemResponse    `json:"items"`
	StatusHistory []StatusChangeResponse `json:"status_history,omitempty"`
	Payment       *PaymentInfoResponse   `json:"payment"`
	CreatedAt     string                 `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
