package dto

import "github.com/shopspring/decimal"

type CreateMenuItemRequest struct {
	Name        string          `json:"name"        validate:"required,min=2,max=150"`
	Description *string         `json:"description"`
	Category    string          `json:"category"    validate:"required,min=2,max=50"`
	Price       decimal.Decimal `json:"price"       validate:"min=0"`
}

type UpdateMenuItemRequest struct {
	Name        string           `json:"name"        validate:"omitempty,min=2,max=150"`
	Description *string          `json:"description"`
	Category    string           `json:"category"    validate:"omitempty,min=2,max=50"`
	Price       *decimal.Decimal `json:"price"`
}

type MenuItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
}
