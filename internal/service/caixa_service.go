package service

import (
	"context"
	"errors"
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

// ─── Commands ────────────────────────────────────────────────────────────────
//
// Every drawer mutation goes through Apply with a tagged command, keeping
// validation in one place instead of duplicated per endpoint.

type Command interface{ isCommand() }

type OpenCommand struct {
	OpeningBalance decimal.Decimal
	OpenedBy       uuid.UUID
}

type CloseCommand struct {
	CountedBalance decimal.Decimal
	ClosedBy       uuid.UUID
}

type SangriaCommand struct {
	Amount decimal.Decimal
	Reason string
}

type ReforcoCommand struct {
	Amount decimal.Decimal
	Reason string
}

func (OpenCommand) isCommand()    {}
func (CloseCommand) isCommand()   {}
func (SangriaCommand) isCommand() {}
func (ReforcoCommand) isCommand() {}

// SaleEntry is the internal hook payload the payment recorder feeds into the
// ledger for each settled charge.
type SaleEntry struct {
	Method  string
	Amount  decimal.Decimal
	Reason  string
	OrderID *uuid.UUID
}

// CaixaService owns drawer sessions. There is no process-global "current
// session": the open session is always resolved through the repository,
// backed by a partial unique index that admits at most one open row.
type CaixaService interface {
	Apply(ctx context.Context, cmd Command) (*dto.CaixaSessionResponse, error)
	Current(ctx context.Context) (*dto.CaixaSessionResponse, error)
	Report(ctx context.Context, id uuid.UUID) (*dto.CaixaSessionResponse, error)
	History(ctx context.Context, page, limit int) (*dto.CaixaHistoryResponse, error)
	RangeSummary(ctx context.Context, from, to time.Time) (*dto.CaixaRangeSummary, error)

	// RequireOpen returns the open session or NoActiveCaixaError.
	RequireOpen(ctx context.Context) (*model.CaixaSession, error)
	// RecordSale appends one sale movement for an applied payment charge.
	RecordSale(ctx context.Context, e SaleEntry) error
	// ReverseSale appends the compensating inverse entry. The ledger is
	// append-only: a botched batch is undone by new entries, never by
	// deleting old ones.
	ReverseSale(ctx context.Context, e SaleEntry) error
}

type caixaService struct {
	repo       repository.CaixaRepository
	dispatcher worker.Broadcaster
}

func NewCaixaService(repo repository.CaixaRepository, dispatcher worker.Broadcaster) CaixaService {
	if dispatcher == nil {
		dispatcher = worker.NopBroadcaster{}
	}
	return &caixaService{repo: repo, dispatcher: dispatcher}
}

func (s *caixaService) Apply(ctx context.Context, cmd Command) (*dto.CaixaSessionResponse, error) {
	switch c := cmd.(type) {
	case OpenCommand:
		return s.open(ctx, c)
	case CloseCommand:
		return s.close(ctx, c)
	case SangriaCommand:
		return s.movement(ctx, model.MovementSangria, c.Amount, c.Reason)
	case ReforcoCommand:
		return s.movement(ctx, model.MovementReforco, c.Amount, c.Reason)
	default:
		return nil, apierror.Validation("unknown caixa command %T", cmd)
	}
}

func (s *caixaService) open(ctx context.Context, cmd OpenCommand) (*dto.CaixaSessionResponse, error) {
	if cmd.OpeningBalance.IsNegative() {
		return nil, apierror.Validation("opening balance cannot be negative")
	}
	if existing, err := s.repo.FindOpenSession(ctx); err == nil && existing != nil {
		return nil, &apierror.SessionAlreadyOpenError{SessionID: existing.ID}
	}

	session := &model.CaixaSession{
		Status:         model.CaixaOpen,
		OpenedBy:       cmd.OpenedBy,
		OpenedAt:       time.Now(),
		OpeningBalance: money.Round2(cmd.OpeningBalance),
	}
	// The partial unique index on status backs this up: of two racing opens
	// the second insert fails here.
	if err := s.repo.CreateSession(ctx, session); err != nil {
		if open, ferr := s.repo.FindOpenSession(ctx); ferr == nil && open != nil {
			return nil, &apierror.SessionAlreadyOpenError{SessionID: open.ID}
		}
		return nil, err
	}
	return s.buildReport(ctx, session.ID, true)
}

func (s *caixaService) close(ctx context.Context, cmd CloseCommand) (*dto.CaixaSessionResponse, error) {
	if cmd.CountedBalance.IsNegative() {
		return nil, apierror.Validation("counted balance cannot be negative")
	}
	session, err := s.RequireOpen(ctx)
	if err != nil {
		return nil, err
	}

	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	expected := expectedBalance(session.OpeningBalance, movements)
	counted := money.Round2(cmd.CountedBalance)
	discrepancy := counted.Sub(expected)

	now := time.Now()
	session.ClosedBy = &cmd.ClosedBy
	session.ClosedAt = &now
	session.CountedBalance = &counted
	session.ExpectedBalance = &expected
	session.Discrepancy = &discrepancy

	ok, err := s.repo.CloseSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apierror.InvalidStateError{
			Entity: "caixa session", ID: session.ID, Current: model.CaixaClosed, Wanted: model.CaixaOpen,
		}
	}
	return s.buildReport(ctx, session.ID, true)
}

func (s *caixaService) movement(ctx context.Context, typ string, amount decimal.Decimal, reason string) (*dto.CaixaSessionResponse, error) {
	if !amount.IsPositive() {
		return nil, apierror.Validation("amount must be positive")
	}
	if reason == "" {
		return nil, apierror.Validation("reason is mandatory")
	}
	session, err := s.RequireOpen(ctx)
	if err != nil {
		return nil, err
	}

	signed := money.Round2(amount)
	if typ == model.MovementSangria {
		signed = signed.Neg()
	}
	mov := &model.CaixaMovement{
		SessionID: session.ID,
		Type:      typ,
		Amount:    signed,
		Reason:    reason,
	}
	if err := s.repo.CreateMovement(ctx, mov); err != nil {
		return nil, err
	}
	return s.buildReport(ctx, session.ID, true)
}

func (s *caixaService) Current(ctx context.Context) (*dto.CaixaSessionResponse, error) {
	session, err := s.RequireOpen(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildReport(ctx, session.ID, false)
}

func (s *caixaService) Report(ctx context.Context, id uuid.UUID) (*dto.CaixaSessionResponse, error) {
	return s.buildReport(ctx, id, false)
}

func (s *caixaService) History(ctx context.Context, page, limit int) (*dto.CaixaHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.repo.ListClosed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CaixaSessionResponse, 0, len(sessions))
	for i := range sessions {
		report, err := s.buildReport(ctx, sessions[i].ID, false)
		if err != nil {
			return nil, err
		}
		data = append(data, *report)
	}
	return &dto.CaixaHistoryResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// RangeSummary aggregates closed sessions over [from, to). Read-only; every
// figure is derived from frozen session rows.
func (s *caixaService) RangeSummary(ctx context.Context, from, to time.Time) (*dto.CaixaRangeSummary, error) {
	sessions, err := s.repo.ListClosedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary := &dto.CaixaRangeSummary{
		From:             from.Format(time.RFC3339),
		To:               to.Format(time.RFC3339),
		Sessions:         len(sessions),
		OpeningBalances:  decimal.Zero,
		CountedBalances:  decimal.Zero,
		ExpectedBalances: decimal.Zero,
		TotalDiscrepancy: decimal.Zero,
	}
	for i := range sessions {
		sess := &sessions[i]
		summary.OpeningBalances = summary.OpeningBalances.Add(sess.OpeningBalance)
		if sess.CountedBalance != nil {
			summary.CountedBalances = summary.CountedBalances.Add(*sess.CountedBalance)
		}
		if sess.ExpectedBalance != nil {
			summary.ExpectedBalances = summary.ExpectedBalances.Add(*sess.ExpectedBalance)
		}
		if sess.Discrepancy != nil {
			summary.TotalDiscrepancy = summary.TotalDiscrepancy.Add(*sess.Discrepancy)
		}
	}
	return summary, nil
}

func (s *caixaService) RequireOpen(ctx context.Context) (*model.CaixaSession, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NoActiveCaixaError{}
		}
		return nil, err
	}
	return session, nil
}

func (s *caixaService) RecordSale(ctx context.Context, e SaleEntry) error {
	session, err := s.RequireOpen(ctx)
	if err != nil {
		return err
	}
	return s.repo.CreateMovement(ctx, &model.CaixaMovement{
		SessionID: session.ID,
		Type:      model.MovementSale,
		Method:    &e.Method,
		Amount:    money.Round2(e.Amount),
		Reason:    e.Reason,
		OrderID:   e.OrderID,
	})
}

func (s *caixaService) ReverseSale(ctx context.Context, e SaleEntry) error {
	session, err := s.RequireOpen(ctx)
	if err != nil {
		return err
	}
	return s.repo.CreateMovement(ctx, &model.CaixaMovement{
		SessionID: session.ID,
		Type:      model.MovementSale,
		Method:    &e.Method,
		Amount:    money.Round2(e.Amount).Neg(),
		Reason:    "reversal: " + e.Reason,
		OrderID:   e.OrderID,
	})
}

// ─── Aggregation by replay ───────────────────────────────────────────────────
//
// Aggregates are always recomputed from the movement ledger, never cached on
// the session row while it is open. Amounts are signed, so the expected
// balance is opening + Σ(amounts) — insensitive to entry order.

func expectedBalance(opening decimal.Decimal, movements []model.CaixaMovement) decimal.Decimal {
	var cents int64
	for _, m := range movements {
		cents += money.Cents(m.Amount)
	}
	return opening.Add(money.FromCents(cents))
}

func salesSummary(movements []model.CaixaMovement) dto.SalesSummary {
	byMethod := make(map[string]decimal.Decimal)
	totalCents := int64(0)
	orders := make(map[uuid.UUID]bool)
	saleEntries := 0
	for _, m := range movements {
		if m.Type != model.MovementSale {
			continue
		}
		saleEntries++
		cents := money.Cents(m.Amount)
		totalCents += cents
		if m.Method != nil {
			byMethod[*m.Method] = byMethod[*m.Method].Add(m.Amount)
		}
		if m.OrderID != nil {
			orders[*m.OrderID] = true
		}
	}
	count := len(orders)
	if count == 0 && saleEntries > 0 {
		count = saleEntries
	}
	return dto.SalesSummary{
		Total:       money.FromCents(totalCents),
		CountOrders: count,
		ByMethod:    byMethod,
	}
}

func (s *caixaService) buildReport(ctx context.Context, id uuid.UUID, broadcast bool) (*dto.CaixaSessionResponse, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "caixa session", ID: id}
		}
		return nil, err
	}

	var sangriaCents, reforcoCents int64
	for _, m := range session.Movements {
		switch m.Type {
		case model.MovementSangria:
			sangriaCents += -money.Cents(m.Amount)
		case model.MovementReforco:
			reforcoCents += money.Cents(m.Amount)
		}
	}

	resp := &dto.CaixaSessionResponse{
		ID:              session.ID.String(),
		Status:          session.Status,
		OpenedBy:        session.OpenedBy.String(),
		OpenedAt:        session.OpenedAt.Format(time.RFC3339),
		OpeningBalance:  session.OpeningBalance,
		Sales:           salesSummary(session.Movements),
		Sangrias:        money.FromCents(sangriaCents),
		Reforcos:        money.FromCents(reforcoCents),
		ExpectedBalance: expectedBalance(session.OpeningBalance, session.Movements),
	}

	movs := make([]dto.MovementResponse, len(session.Movements))
	for i, m := range session.Movements {
		movs[i] = dto.MovementResponse{
			Type:   m.Type,
			Method: m.Method,
			Amount: m.Amount,
			Reason: m.Reason,
			At:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.OrderID != nil {
			id := m.OrderID.String()
			movs[i].OrderID = &id
		}
	}
	resp.Movements = movs

	if session.ClosedBy != nil {
		by := session.ClosedBy.String()
		resp.ClosedBy = &by
	}
	if session.ClosedAt != nil {
		at := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &at
	}
	resp.CountedBalance = session.CountedBalance
	resp.Discrepancy = session.Discrepancy
	// A frozen session reports its stored expected balance so the historical
	// reconciliation always matches what was computed at close.
	if session.ExpectedBalance != nil {
		resp.ExpectedBalance = *session.ExpectedBalance
	}

	if broadcast {
		s.dispatcher.Broadcast(ctx, worker.ChannelCaixaUpdated, resp)
	}
	return resp, nil
}
