package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"recantoverde/internal/model"
	"recantoverde/internal/repository"
	"recantoverde/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Recording Broadcaster ────────────────────────────────────────────────────

type broadcastEvent struct {
	channel string
	entity  interface{}
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, channel string, entity interface{}) {
	b.events = append(b.events, broadcastEvent{channel: channel, entity: entity})
}

func (b *fakeBroadcaster) byChannel(channel string) []interface{} {
	var out []interface{}
	for _, e := range b.events {
		if e.channel == channel {
			out = append(out, e.entity)
		}
	}
	return out
}

var _ worker.Broadcaster = (*fakeBroadcaster)(nil)

// ── In-memory TableRepository ────────────────────────────────────────────────

type fakeTableRepo struct {
	tables map[uuid.UUID]*model.Table
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]*model.Table)}
}

func (r *fakeTableRepo) Create(_ context.Context, t *model.Table) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tables[t.ID] = t
	return nil
}

func (r *fakeTableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Table, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTableRepo) List(_ context.Context) ([]model.Table, error) {
	out := make([]model.Table, 0, len(r.tables))
	for _, t := range r.tables {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeTableRepo) Occupy(_ context.Context, id uuid.UUID, clientCount int, serverID uuid.UUID, at time.Time) (bool, error) {
	t, ok := r.tables[id]
	if !ok || t.Status != model.TableAvailable {
		return false, nil
	}
	t.Status = model.TableOccupied
	t.ClientCount = &clientCount
	t.OccupiedAt = &at
	t.ServerID = &serverID
	return true, nil
}

func (r *fakeTableRepo) SetClientCount(_ context.Context, id uuid.UUID, from, to int) (bool, error) {
	t, ok := r.tables[id]
	if !ok || t.Status != model.TableOccupied || t.ClientCount == nil || *t.ClientCount != from {
		return false, nil
	}
	t.ClientCount = &to
	return true, nil
}

func (r *fakeTableRepo) Release(_ context.Context, id uuid.UUID) (bool, error) {
	t, ok := r.tables[id]
	if !ok || t.Status != model.TableOccupied {
		return false, nil
	}
	t.Status = model.TableAvailable
	t.ClientCount = nil
	t.OccupiedAt = nil
	t.ServerID = nil
	return true, nil
}

var _ repository.TableRepository = (*fakeTableRepo)(nil)

// ── In-memory OrderRepository ────────────────────────────────────────────────

type fakeOrderRepo struct {
	orders        map[uuid.UUID]*model.Order
	statusChanges []model.OrderStatusChange

	// markPaidFails rejects MarkPaidIf for the listed orders, simulating a
	// concurrent writer winning the conditional update.
	markPaidFails map[uuid.UUID]bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:        make(map[uuid.UUID]*model.Order),
		markPaidFails: make(map[uuid.UUID]bool),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	for _, c := range r.statusChanges {
		if c.OrderID == id {
			cp.StatusHistory = append(cp.StatusHistory, c)
		}
	}
	return &cp, nil
}

func (r *fakeOrderRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByTable(_ context.Context, tableID uuid.UUID, statuses []string) ([]model.Order, error) {
	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []model.Order
	for _, o := range r.orders {
		if o.TableID != tableID {
			continue
		}
		if len(statuses) > 0 && !allowed[o.Status] {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOrderRepo) List(_ context.Context, status string, page, limit int) ([]model.Order, int64, error) {
	var all []model.Order
	for _, o := range r.orders {
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		all = append(all, *o)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeOrderRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeOrderRepo) MarkPaidIf(_ context.Context, id uuid.UUID, from string, stamp repository.PaymentStamp) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != from || r.markPaidFails[id] {
		return false, nil
	}
	o.Status = model.OrderPaid
	o.PaymentMethod = &stamp.Method
	o.AmountCharged = &stamp.AmountCharged
	o.PayerName = stamp.PayerName
	paidAt := stamp.PaidAt
	o.PaidAt = &paidAt
	recordedBy := stamp.RecordedBy
	o.RecordedBy = &recordedBy
	return true, nil
}

func (r *fakeOrderRepo) RevertPaid(_ context.Context, id uuid.UUID, to string) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderPaid {
		return false, nil
	}
	o.Status = to
	o.PaymentMethod = nil
	o.AmountCharged = nil
	o.PayerName = nil
	o.PaidAt = nil
	o.RecordedBy = nil
	return true, nil
}

func (r *fakeOrderRepo) AppendStatusChange(_ context.Context, c *model.OrderStatusChange) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.statusChanges = append(r.statusChanges, *c)
	return nil
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

// ── In-memory CaixaRepository ────────────────────────────────────────────────

type fakeCaixaRepo struct {
	sessions  map[uuid.UUID]*model.CaixaSession
	movements []model.CaixaMovement

	// failAttempt makes the Nth CreateMovement call fail (1-based); later
	// calls succeed again so compensating entries can still land. 0 disables.
	failAttempt     int
	attempts        int
	movementFailErr error
}

func newFakeCaixaRepo() *fakeCaixaRepo {
	return &fakeCaixaRepo{sessions: make(map[uuid.UUID]*model.CaixaSession)}
}

func (r *fakeCaixaRepo) CreateSession(_ context.Context, s *model.CaixaSession) error {
	for _, existing := range r.sessions {
		if existing.Status == model.CaixaOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeCaixaRepo) FindOpenSession(_ context.Context) (*model.CaixaSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.CaixaOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCaixaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CaixaSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Movements = nil
	for _, m := range r.movements {
		if m.SessionID == id {
			cp.Movements = append(cp.Movements, m)
		}
	}
	return &cp, nil
}

func (r *fakeCaixaRepo) CloseSession(_ context.Context, s *model.CaixaSession) (bool, error) {
	existing, ok := r.sessions[s.ID]
	if !ok || existing.Status != model.CaixaOpen {
		return false, nil
	}
	existing.Status = model.CaixaClosed
	existing.ClosedBy = s.ClosedBy
	existing.ClosedAt = s.ClosedAt
	existing.CountedBalance = s.CountedBalance
	existing.ExpectedBalance = s.ExpectedBalance
	existing.Discrepancy = s.Discrepancy
	return true, nil
}

func (r *fakeCaixaRepo) CreateMovement(_ context.Context, m *model.CaixaMovement) error {
	r.attempts++
	if r.failAttempt > 0 && r.attempts == r.failAttempt {
		if r.movementFailErr != nil {
			return r.movementFailErr
		}
		return errors.New("movement append failed")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeCaixaRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CaixaMovement, error) {
	var out []model.CaixaMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeCaixaRepo) ListClosed(_ context.Context, page, limit int) ([]model.CaixaSession, int64, error) {
	var all []model.CaixaSession
	for _, s := range r.sessions {
		if s.Status == model.CaixaClosed {
			all = append(all, *s)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeCaixaRepo) ListClosedBetween(_ context.Context, from, to time.Time) ([]model.CaixaSession, error) {
	var out []model.CaixaSession
	for _, s := range r.sessions {
		if s.Status == model.CaixaClosed && s.ClosedAt != nil &&
			!s.ClosedAt.Before(from) && s.ClosedAt.Before(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

var _ repository.CaixaRepository = (*fakeCaixaRepo)(nil)

// ── In-memory MenuRepository ─────────────────────────────────────────────────

type fakeMenuRepo struct {
	items map[uuid.UUID]*model.MenuItem
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{items: make(map[uuid.UUID]*model.MenuItem)}
}

func (r *fakeMenuRepo) Create(_ context.Context, m *model.MenuItem) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.items[m.ID] = m
	return nil
}

func (r *fakeMenuRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MenuItem, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMenuRepo) List(_ context.Context, includeInactive bool) ([]model.MenuItem, error) {
	var out []model.MenuItem
	for _, m := range r.items {
		if includeInactive || m.Active {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) Update(_ context.Context, m *model.MenuItem) error {
	r.items[m.ID] = m
	return nil
}

func (r *fakeMenuRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	if m, ok := r.items[id]; ok {
		m.Active = active
	}
	return nil
}

var _ repository.MenuRepository = (*fakeMenuRepo)(nil)
