package service

import (
	"context"
	"testing"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	tables  *fakeTableRepo
	orders  *fakeOrderRepo
	menu    *fakeMenuRepo
	svc     OrderService
	tableID uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		tables: newFakeTableRepo(),
		orders: newFakeOrderRepo(),
		menu:   newFakeMenuRepo(),
	}
	f.svc = NewOrderService(f.orders, f.tables, f.menu, nil)
	f.tableID = seedTable(f.tables, 1, 4)
	_, err := NewTableService(f.tables, f.orders, nil).
		Occupy(context.Background(), f.tableID, 2, uuid.New())
	require.NoError(t, err)
	return f
}

func (f *orderFixture) seedMenuItem(name string, price float64) uuid.UUID {
	item := &model.MenuItem{
		ID:       uuid.New(),
		Name:     name,
		Category: "food",
		Price:    decimal.NewFromFloat(price),
		Active:   true,
	}
	f.menu.items[item.ID] = item
	return item.ID
}

func TestCreateOrderFreezesItems(t *testing.T) {
	f := newOrderFixture(t)
	picanha := f.seedMenuItem("Picanha", 42.50)
	suco := f.seedMenuItem("Suco de Laranja", 8.75)

	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items: []dto.OrderItemRequest{
			{MenuItemID: picanha.String(), Quantity: 1},
			{MenuItemID: suco.String(), Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, resp.Status)
	assert.Equal(t, "60.00", resp.Total.StringFixed(2))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Picanha", resp.Items[0].Name)
	assert.Equal(t, "17.50", resp.Items[1].Subtotal.StringFixed(2))

	// A later price change never rewrites the frozen line.
	f.menu.items[picanha].Price = decimal.NewFromFloat(99.00)
	stored, err := f.svc.Get(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "42.50", stored.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "60.00", stored.Total.StringFixed(2))
}

func TestCreateOrderRequiresOccupiedTable(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Feijoada", 35.00)
	freeTable := seedTable(f.tables, 2, 4)

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: freeTable.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	var state *apierror.InvalidStateError
	assert.ErrorAs(t, err, &state)
}

func TestCreateOrderRejectsInactiveMenuItem(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Caipirinha", 18.00)
	f.menu.items[item].Active = false

	_, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "inactive")
}

func TestTransitionHappyPath(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Moqueca", 55.00)
	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := uuid.MustParse(resp.ID)

	for _, target := range []string{model.OrderPreparing, model.OrderReady, model.OrderDelivered} {
		resp, err = f.svc.Transition(context.Background(), orderID, target, nil)
		require.NoError(t, err)
		assert.Equal(t, target, resp.Status)
	}

	// pending + three transitions = four audit entries, in order.
	require.Len(t, resp.StatusHistory, 4)
	assert.Equal(t, model.OrderPending, resp.StatusHistory[0].Status)
	assert.Equal(t, model.OrderDelivered, resp.StatusHistory[3].Status)
}

func TestTransitionIllegalJump(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Moqueca", 55.00)
	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := uuid.MustParse(resp.ID)

	_, err = f.svc.Transition(context.Background(), orderID, model.OrderDelivered, nil)
	var illegal *apierror.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, model.OrderPending, illegal.From)
	assert.Equal(t, model.OrderDelivered, illegal.To)
}

func TestTransitionPaidRejected(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Moqueca", 55.00)
	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), uuid.MustParse(resp.ID), model.OrderPaid, nil)
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "payment")
}

func TestCancelOnlyFromPendingOrPreparing(t *testing.T) {
	f := newOrderFixture(t)
	item := f.seedMenuItem("Moqueca", 55.00)
	resp, err := f.svc.Create(context.Background(), uuid.New(), dto.CreateOrderRequest{
		TableID: f.tableID.String(),
		Items:   []dto.OrderItemRequest{{MenuItemID: item.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	orderID := uuid.MustParse(resp.ID)

	_, err = f.svc.Transition(context.Background(), orderID, model.OrderPreparing, nil)
	require.NoError(t, err)
	note := "customer left"
	resp, err = f.svc.Transition(context.Background(), orderID, model.OrderCancelled, &note)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, resp.Status)

	// cancelled is terminal.
	_, err = f.svc.Transition(context.Background(), orderID, model.OrderPreparing, nil)
	var illegal *apierror.IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)
}
