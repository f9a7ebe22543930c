package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"
	"recantoverde/internal/money"
	"recantoverde/internal/repository"
	"recantoverde/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns orders and their status state machine. Totals are
// computed here once, from integer cents — every consumer (receipt, report,
// UI) observes the same figure.
type OrderService interface {
	Create(ctx context.Context, serverID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, status string, page, limit int) (*dto.OrderListResponse, error)
	Transition(ctx context.Context, orderID uuid.UUID, target string, note *string) (*dto.OrderResponse, error)
	TotalOf(o *model.Order) decimal.Decimal
}

type orderService struct {
	repo       repository.OrderRepository
	tables     repository.TableRepository
	menu       repository.MenuRepository
	dispatcher worker.Broadcaster
}

func NewOrderService(
	repo repository.OrderRepository,
	tables repository.TableRepository,
	menu repository.MenuRepository,
	dispatcher worker.Broadcaster,
) OrderService {
	if dispatcher == nil {
		dispatcher = worker.NopBroadcaster{}
	}
	return &orderService{repo: repo, tables: tables, menu: menu, dispatcher: dispatcher}
}

// Create builds an order for an occupied table. Line item name and price are
// resolved from the menu catalog and copied verbatim; items are frozen from
// this point on.
func (s *orderService) Create(ctx context.Context, serverID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, apierror.Validation("invalid table_id: %v", err)
	}
	if len(req.Items) == 0 {
		return nil, apierror.Validation("an order requires at least one line item")
	}

	table, err := s.tables.FindByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "table", ID: tableID}
		}
		return nil, err
	}
	if table.Status != model.TableOccupied {
		return nil, &apierror.InvalidStateError{
			Entity: "table", ID: tableID, Current: table.Status, Wanted: model.TableOccupied,
		}
	}

	order := &model.Order{
		TableID:  tableID,
		ServerID: serverID,
		Status:   model.OrderPending,
	}
	for pos, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apierror.Validation("item %d: quantity must be positive", pos)
		}
		menuID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, apierror.Validation("item %d: invalid menu_item_id", pos)
		}
		mi, err := s.menu.FindByID(ctx, menuID)
		if err != nil {
			return nil, apierror.Validation("item %d: menu item %s not found", pos, item.MenuItemID)
		}
		if !mi.Active {
			return nil, apierror.Validation("menu item %q is inactive and cannot be ordered", mi.Name)
		}
		if mi.Price.IsNegative() {
			return nil, apierror.Validation("menu item %q has a negative price", mi.Name)
		}
		order.Items = append(order.Items, model.OrderItem{
			Position:   pos,
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  money.Round2(mi.Price),
			Quantity:   item.Quantity,
			Note:       item.Note,
		})
	}
	order.Total = order.ComputeTotal()

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := s.repo.AppendStatusChange(ctx, &model.OrderStatusChange{
		OrderID: order.ID,
		Status:  model.OrderPending,
	}); err != nil {
		return nil, err
	}

	resp := orderToResponse(order)
	s.dispatcher.Broadcast(ctx, worker.ChannelOrderUpdated, resp)
	return resp, nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "order", ID: id}
		}
		return nil, err
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, status string, page, limit int) (*dto.OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	orders, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		items[i] = *orderToResponse(&orders[i])
	}
	return &dto.OrderListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// Transition moves the order along the legal state machine and appends the
// audit entry. The status flip is a conditional update, so concurrent
// transitions race to exactly one winner. Entering paid is reserved for the
// payment recorder and rejected here.
func (s *orderService) Transition(ctx context.Context, orderID uuid.UUID, target string, note *string) (*dto.OrderResponse, error) {
	if target == model.OrderPaid {
		return nil, apierror.Validation("orders enter paid through a payment, not a status change")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}
	if !model.CanTransition(order.Status, target) {
		return nil, &apierror.IllegalTransitionError{OrderID: orderID, From: order.Status, To: target}
	}

	ok, err := s.repo.UpdateStatusIf(ctx, orderID, order.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent writer moved the order first.
		return nil, &apierror.InvalidStateError{
			Entity: "order", ID: orderID, Current: "changed concurrently", Wanted: order.Status,
		}
	}
	if err := s.repo.AppendStatusChange(ctx, &model.OrderStatusChange{
		OrderID: orderID,
		Status:  target,
		Note:    note,
	}); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := orderToResponse(updated)
	s.dispatcher.Broadcast(ctx, worker.ChannelOrderUpdated, resp)
	// Terminal transitions change the table's release eligibility; announce
	// the table so subscribers re-read its open orders.
	if target == model.OrderCancelled {
		if table, terr := s.tables.FindByID(ctx, updated.TableID); terr == nil {
			s.dispatcher.Broadcast(ctx, worker.ChannelTableUpdated, tableToResponse(table))
		}
	}
	return resp, nil
}

// TotalOf re-derives an order's total from its line items, in cents.
func (s *orderService) TotalOf(o *model.Order) decimal.Decimal {
	return o.ComputeTotal()
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.OrderItemResponse{
			MenuItemID: it.MenuItemID.String(),
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Note:       it.Note,
			Subtotal:   money.FromCents(it.SubtotalCents()),
		}
	}
	history := make([]dto.StatusChangeResponse, len(o.StatusHistory))
	for i, h := range o.StatusHistory {
		history[i] = dto.StatusChangeResponse{
			Status: h.Status,
			Note:   h.Note,
			At:     h.CreatedAt.Format(time.RFC3339),
		}
	}
	resp := &dto.OrderResponse{
		ID:            o.ID.String(),
		TableID:       o.TableID.String(),
		ServerID:      o.ServerID.String(),
		Status:        o.Status,
		Total:         o.Total,
		Items:         items,
		StatusHistory: history,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	if o.Status == model.OrderPaid && o.PaymentMethod != nil && o.AmountCharged != nil && o.PaidAt != nil && o.RecordedBy != nil {
		resp.Payment = &dto.PaymentInfoResponse{
			Method:        *o.PaymentMethod,
			AmountCharged: *o.AmountCharged,
			PayerName:     o.PayerName,
			PaidAt:        o.PaidAt.Format(time.RFC3339),
			RecordedBy:    o.RecordedBy.String(),
		}
	}
	return resp
}

// describeOrder is used in movement descriptions on the caixa ledger.
func describeOrder(o *model.Order) string {
	return fmt.Sprintf("order %s (table %s)", o.ID, o.TableID)
}
