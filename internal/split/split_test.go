package split

import (
	"testing"

	"recantoverde/internal/apierror"
	"recantoverde/internal/model"
	"recantoverde/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(tableID uuid.UUID, prices ...float64) model.Order {
	o := model.Order{
		ID:      uuid.New(),
		TableID: tableID,
		Status:  model.OrderDelivered,
	}
	var cents int64
	for i, p := range prices {
		item := model.OrderItem{
			OrderID:    o.ID,
			Position:   i,
			MenuItemID: uuid.New(),
			Name:       "item",
			UnitPrice:  decimal.NewFromFloat(p),
			Quantity:   1,
		}
		cents += item.SubtotalCents()
		o.Items = append(o.Items, item)
	}
	o.Total = money.FromCents(cents)
	return o
}

func sumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func TestEqualSplitResidualCent(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 100.00)}

	bill, err := Compute(orders, StrategyEqual, []Payer{
		{Name: "Ana", Method: model.MethodCash},
		{Name: "Bia", Method: model.MethodPix},
		{Name: "Carla", Method: model.MethodCredit},
	})
	require.NoError(t, err)
	require.Len(t, bill.Shares, 3)

	assert.Equal(t, "33.33", bill.Shares[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", bill.Shares[1].Amount.StringFixed(2))
	// Last payer absorbs the residual cent.
	assert.Equal(t, "33.34", bill.Shares[2].Amount.StringFixed(2))
	assert.True(t, sumShares(bill.Shares).Equal(bill.Total))
}

func TestEqualSplitMultipleOrders(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{
		testOrder(tableID, 42.50, 18.00),
		testOrder(tableID, 39.50),
	}

	bill, err := Compute(orders, StrategyEqual, []Payer{
		{Name: "Ana", Method: model.MethodCash},
		{Name: "Bia", Method: model.MethodDebit},
	})
	require.NoError(t, err)
	assert.Equal(t, "100.00", bill.Total.StringFixed(2))
	assert.Equal(t, "50.00", bill.Shares[0].Amount.StringFixed(2))
	assert.Equal(t, "50.00", bill.Shares[1].Amount.StringFixed(2))
}

func TestPercentageSplit(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 200.00)}

	bill, err := Compute(orders, StrategyPercentage, []Payer{
		{Name: "Ana", Method: model.MethodCash, Percent: decimal.NewFromInt(70)},
		{Name: "Bia", Method: model.MethodPix, Percent: decimal.NewFromInt(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, "140.00", bill.Shares[0].Amount.StringFixed(2))
	assert.Equal(t, "60.00", bill.Shares[1].Amount.StringFixed(2))
}

func TestPercentageSplitRoundingResidual(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 100.00)}

	third := decimal.NewFromFloat(33.33)
	rest := decimal.NewFromFloat(33.34)
	bill, err := Compute(orders, StrategyPercentage, []Payer{
		{Name: "Ana", Method: model.MethodCash, Percent: third},
		{Name: "Bia", Method: model.MethodCash, Percent: third},
		{Name: "Carla", Method: model.MethodCash, Percent: rest},
	})
	require.NoError(t, err)
	assert.True(t, sumShares(bill.Shares).Equal(bill.Total))
}

func TestPercentageSplitMustSumHundred(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 100.00)}

	_, err := Compute(orders, StrategyPercentage, []Payer{
		{Name: "Ana", Method: model.MethodCash, Percent: decimal.NewFromInt(60)},
		{Name: "Bia", Method: model.MethodCash, Percent: decimal.NewFromInt(30)},
	})
	var unbalanced *UnbalancedSplitError
	require.ErrorAs(t, err, &unbalanced)
	assert.Equal(t, "90", unbalanced.PercentSum.String())
}

func TestPercentageSplitRejectsNonPositiveShares(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 100.00)}

	// Sums to 100, but a negative slice would push someone else over the
	// total. Both out-of-range payers are named.
	_, err := Compute(orders, StrategyPercentage, []Payer{
		{Name: "Ana", Method: model.MethodCash, Percent: decimal.NewFromInt(-50)},
		{Name: "Bia", Method: model.MethodCash, Percent: decimal.NewFromInt(150)},
	})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "Ana=-50%")
	assert.Contains(t, err.Error(), "Bia=150%")
}

func TestPercentageSplitRejectsZeroShare(t *testing.T) {
	tableID := uuid.New()
	orders := []model.Order{testOrder(tableID, 100.00)}

	_, err := Compute(orders, StrategyPercentage, []Payer{
		{Name: "Ana", Method: model.MethodCash, Percent: decimal.NewFromInt(0)},
		{Name: "Bia", Method: model.MethodCash, Percent: decimal.NewFromInt(100)},
	})
	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "Ana=0%")
}

func TestPerItemSplit(t *testing.T) {
	tableID := uuid.New()
	order := testOrder(tableID, 30.00, 20.00, 50.00)
	orders := []model.Order{order}

	bill, err := Compute(orders, StrategyPerItem, []Payer{
		{Name: "Ana", Method: model.MethodCash, Items: []ItemRef{
			{OrderID: order.ID, ItemIndex: 0},
			{OrderID: order.ID, ItemIndex: 1},
		}},
		{Name: "Bia", Method: model.MethodPix, Items: []ItemRef{
			{OrderID: order.ID, ItemIndex: 2},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", bill.Shares[0].Amount.StringFixed(2))
	assert.Equal(t, "50.00", bill.Shares[1].Amount.StringFixed(2))
}

func TestPerItemSplitUnassignedItem(t *testing.T) {
	tableID := uuid.New()
	order := testOrder(tableID, 30.00, 20.00)
	orders := []model.Order{order}

	_, err := Compute(orders, StrategyPerItem, []Payer{
		{Name: "Ana", Method: model.MethodCash, Items: []ItemRef{
			{OrderID: order.ID, ItemIndex: 0},
		}},
	})
	var assignment *ItemAssignmentError
	require.ErrorAs(t, err, &assignment)
	assert.Len(t, assignment.Unassigned, 1)
	assert.Empty(t, assignment.Duplicated)
}

func TestPerItemSplitDuplicatedItem(t *testing.T) {
	tableID := uuid.New()
	order := testOrder(tableID, 30.00)
	orders := []model.Order{order}

	_, err := Compute(orders, StrategyPerItem, []Payer{
		{Name: "Ana", Method: model.MethodCash, Items: []ItemRef{{OrderID: order.ID, ItemIndex: 0}}},
		{Name: "Bia", Method: model.MethodPix, Items: []ItemRef{{OrderID: order.ID, ItemIndex: 0}}},
	})
	var assignment *ItemAssignmentError
	require.ErrorAs(t, err, &assignment)
	assert.Len(t, assignment.Duplicated, 1)
}

func TestPerItemSplitUnknownItem(t *testing.T) {
	tableID := uuid.New()
	order := testOrder(tableID, 30.00)

	_, err := Compute([]model.Order{order}, StrategyPerItem, []Payer{
		{Name: "Ana", Method: model.MethodCash, Items: []ItemRef{{OrderID: order.ID, ItemIndex: 5}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not part of the selection")
}

func TestEmptySelection(t *testing.T) {
	_, err := Compute(nil, StrategyEqual, []Payer{{Name: "Ana", Method: model.MethodCash}})
	var empty *EmptySelectionError
	assert.ErrorAs(t, err, &empty)
}

func TestMixedTablesRejected(t *testing.T) {
	orders := []model.Order{
		testOrder(uuid.New(), 10.00),
		testOrder(uuid.New(), 20.00),
	}
	_, err := Compute(orders, StrategyEqual, []Payer{{Name: "Ana", Method: model.MethodCash}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different table")
}

func TestNonPayableOrderRejected(t *testing.T) {
	tableID := uuid.New()
	order := testOrder(tableID, 10.00)
	order.Status = model.OrderCancelled

	_, err := Compute([]model.Order{order}, StrategyEqual, []Payer{{Name: "Ana", Method: model.MethodCash}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be paid")
}
