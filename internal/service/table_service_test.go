package service

import (
	"context"
	"testing"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTable(repo *fakeTableRepo, number, capacity int) uuid.UUID {
	t := &model.Table{
		ID:       uuid.New(),
		Number:   number,
		Capacity: capacity,
		Area:     model.AreaInternal,
		Status:   model.TableAvailable,
	}
	repo.tables[t.ID] = t
	return t.ID
}

func TestOccupyTable(t *testing.T) {
	tables := newFakeTableRepo()
	orders := newFakeOrderRepo()
	svc := NewTableService(tables, orders, nil)
	tableID := seedTable(tables, 1, 4)
	serverID := uuid.New()

	resp, err := svc.Occupy(context.Background(), tableID, 3, serverID)
	require.NoError(t, err)
	assert.Equal(t, model.TableOccupied, resp.Status)
	require.NotNil(t, resp.Occupancy)
	assert.Equal(t, 3, resp.Occupancy.ClientCount)
	assert.Equal(t, serverID.String(), resp.Occupancy.ServerID)
}

func TestOccupyTableOverCapacity(t *testing.T) {
	tables := newFakeTableRepo()
	svc := NewTableService(tables, newFakeOrderRepo(), nil)
	tableID := seedTable(tables, 1, 4)

	_, err := svc.Occupy(context.Background(), tableID, 5, uuid.New())
	var capacity *apierror.CapacityExceededError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 4, capacity.Capacity)
	assert.Equal(t, 5, capacity.Requested)
}

func TestOccupyTableNotAvailable(t *testing.T) {
	tables := newFakeTableRepo()
	svc := NewTableService(tables, newFakeOrderRepo(), nil)
	tableID := seedTable(tables, 1, 4)

	_, err := svc.Occupy(context.Background(), tableID, 2, uuid.New())
	require.NoError(t, err)

	// Second occupy loses the conditional update.
	_, err = svc.Occupy(context.Background(), tableID, 2, uuid.New())
	var state *apierror.InvalidStateError
	assert.ErrorAs(t, err, &state)
}

func TestAddClientsWithinCapacity(t *testing.T) {
	tables := newFakeTableRepo()
	svc := NewTableService(tables, newFakeOrderRepo(), nil)
	tableID := seedTable(tables, 1, 6)

	_, err := svc.Occupy(context.Background(), tableID, 3, uuid.New())
	require.NoError(t, err)

	resp, err := svc.AddClients(context.Background(), tableID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Occupancy.ClientCount)

	_, err = svc.AddClients(context.Background(), tableID, 2)
	var capacity *apierror.CapacityExceededError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 5, capacity.Seated)
}

func TestAddClientsRequiresOccupied(t *testing.T) {
	tables := newFakeTableRepo()
	svc := NewTableService(tables, newFakeOrderRepo(), nil)
	tableID := seedTable(tables, 1, 6)

	_, err := svc.AddClients(context.Background(), tableID, 1)
	var state *apierror.InvalidStateError
	assert.ErrorAs(t, err, &state)
}

func TestReleaseBlockedByOpenOrders(t *testing.T) {
	tables := newFakeTableRepo()
	orders := newFakeOrderRepo()
	svc := NewTableService(tables, orders, nil)
	tableID := seedTable(tables, 1, 4)

	_, err := svc.Occupy(context.Background(), tableID, 2, uuid.New())
	require.NoError(t, err)

	order := &model.Order{TableID: tableID, ServerID: uuid.New(), Status: model.OrderDelivered}
	require.NoError(t, orders.Create(context.Background(), order))

	_, err = svc.Release(context.Background(), tableID)
	var blocked *apierror.OpenOrdersExistError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []uuid.UUID{order.ID}, blocked.OrderIDs)

	// Paid and cancelled orders do not block.
	order.Status = model.OrderPaid
	resp, err := svc.Release(context.Background(), tableID)
	require.NoError(t, err)
	assert.Equal(t, model.TableAvailable, resp.Status)
	assert.Nil(t, resp.Occupancy)
}

func TestReleaseUnknownTable(t *testing.T) {
	svc := NewTableService(newFakeTableRepo(), newFakeOrderRepo(), nil)

	_, err := svc.Release(context.Background(), uuid.New())
	var notFound *apierror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateAndListTables(t *testing.T) {
	svc := NewTableService(newFakeTableRepo(), newFakeOrderRepo(), nil)

	_, err := svc.Create(context.Background(), dto.CreateTableRequest{Number: 2, Capacity: 4, Area: model.AreaExternal})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), dto.CreateTableRequest{Number: 1, Capacity: 2, Area: model.AreaBalcony})
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Number)
	assert.Equal(t, model.TableAvailable, list[0].Status)
}
