package service

import (
	"context"
	"errors"
	"time"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"
	"recantoverde/internal/repository"
	"recantoverde/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableService owns the table occupancy lifecycle. It is the single console
// for "can this table be freed": Release re-checks open orders every time it
// is called and fails loudly instead of partially freeing a table.
type TableService interface {
	Create(ctx context.Context, req dto.CreateTableRequest) (*dto.TableResponse, error)
	List(ctx context.Context) ([]dto.TableResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error)
	Occupy(ctx context.Context, tableID uuid.UUID, clientCount int, serverID uuid.UUID) (*dto.TableResponse, error)
	AddClients(ctx context.Context, tableID uuid.UUID, count int) (*dto.TableResponse, error)
	OpenOrders(ctx context.Context, tableID uuid.UUID) ([]model.Order, error)
	Release(ctx context.Context, tableID uuid.UUID) (*dto.TableResponse, error)
}

type tableService struct {
	repo       repository.TableRepository
	orders     repository.OrderRepository
	dispatcher worker.Broadcaster
}

func NewTableService(repo repository.TableRepository, orders repository.OrderRepository, dispatcher worker.Broadcaster) TableService {
	if dispatcher == nil {
		dispatcher = worker.NopBroadcaster{}
	}
	return &tableService{repo: repo, orders: orders, dispatcher: dispatcher}
}

func (s *tableService) Create(ctx context.Context, req dto.CreateTableRequest) (*dto.TableResponse, error) {
	t := &model.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Area:     req.Area,
		Status:   model.TableAvailable,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return tableToResponse(t), nil
}

func (s *tableService) List(ctx context.Context) ([]dto.TableResponse, error) {
	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TableResponse, len(tables))
	for i := range tables {
		resp[i] = *tableToResponse(&tables[i])
	}
	return resp, nil
}

func (s *tableService) Get(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.findTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return tableToResponse(t), nil
}

// Occupy seats clients at an available table. The status flip is a single
// conditional update: two concurrent calls produce exactly one success and
// one InvalidStateError.
func (s *tableService) Occupy(ctx context.Context, tableID uuid.UUID, clientCount int, serverID uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.findTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if clientCount > t.Capacity {
		return nil, &apierror.CapacityExceededError{
			TableID: tableID, Capacity: t.Capacity, Seated: 0, Requested: clientCount,
		}
	}

	ok, err := s.repo.Occupy(ctx, tableID, clientCount, serverID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apierror.InvalidStateError{
			Entity: "table", ID: tableID, Current: t.Status, Wanted: model.TableAvailable,
		}
	}
	return s.reloadAndBroadcast(ctx, tableID)
}

func (s *tableService) AddClients(ctx context.Context, tableID uuid.UUID, count int) (*dto.TableResponse, error) {
	t, err := s.findTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TableOccupied || t.ClientCount == nil {
		return nil, &apierror.InvalidStateError{
			Entity: "table", ID: tableID, Current: t.Status, Wanted: model.TableOccupied,
		}
	}
	seated := *t.ClientCount
	if seated+count > t.Capacity {
		return nil, &apierror.CapacityExceededError{
			TableID: tableID, Capacity: t.Capacity, Seated: seated, Requested: count,
		}
	}

	// Guarded by the previous count so concurrent seat changes cannot lose
	// an update; the loser gets a state conflict and may retry.
	ok, err := s.repo.SetClientCount(ctx, tableID, seated, seated+count)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apierror.InvalidStateError{
			Entity: "table", ID: tableID, Current: t.Status, Wanted: model.TableOccupied,
		}
	}
	return s.reloadAndBroadcast(ctx, tableID)
}

// OpenOrders returns every order on the table that is neither paid nor
// cancelled.
func (s *tableService) OpenOrders(ctx context.Context, tableID uuid.UUID) ([]model.Order, error) {
	if _, err := s.findTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.orders.ListByTable(ctx, tableID, model.PayableStatuses)
}

// Release frees the table. It never succeeds while open orders exist; the
// error names every blocking order so the caller can settle them first.
func (s *tableService) Release(ctx context.Context, tableID uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.findTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	open, err := s.orders.ListByTable(ctx, tableID, model.PayableStatuses)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		ids := make([]uuid.UUID, len(open))
		for i := range open {
			ids[i] = open[i].ID
		}
		return nil, &apierror.OpenOrdersExistError{TableID: tableID, OrderIDs: ids}
	}

	ok, err := s.repo.Release(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apierror.InvalidStateError{
			Entity: "table", ID: tableID, Current: t.Status, Wanted: model.TableOccupied,
		}
	}
	return s.reloadAndBroadcast(ctx, tableID)
}

func (s *tableService) findTable(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "table", ID: id}
		}
		return nil, err
	}
	return t, nil
}

// reloadAndBroadcast re-reads the committed row and emits table.updated.
// Broadcast happens strictly after the state change is visible.
func (s *tableService) reloadAndBroadcast(ctx context.Context, id uuid.UUID) (*dto.TableResponse, error) {
	t, err := s.findTable(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := tableToResponse(t)
	s.dispatcher.Broadcast(ctx, worker.ChannelTableUpdated, resp)
	return resp, nil
}

func tableToResponse(t *model.Table) *dto.TableResponse {
	resp := &dto.TableResponse{
		ID:       t.ID.String(),
		Number:   t.Number,
		Capacity: t.Capacity,
		Area:     t.Area,
		Status:   t.Status,
	}
	if t.Status == model.TableOccupied && t.ClientCount != nil && t.OccupiedAt != nil && t.ServerID != nil {
		resp.Occupancy = &dto.OccupancyResponse{
			ClientCount: *t.ClientCount,
			StartedAt:   t.OccupiedAt.Format(time.RFC3339),
			ServerID:    t.ServerID.String(),
		}
	}
	return resp
}
