package service

import (
	"context"
	"time"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"
	"recantoverde/internal/money"
	"recantoverde/internal/repository"
	"recantoverde/internal/split"
	"recantoverde/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PaymentService settles orders. Payment is the only door into the paid
// status, and every applied charge leaves a sale movement on the open caixa
// ledger. A multi-order settlement either applies to all selected orders or
// to none: failures are compensated, not half-committed.
type PaymentService interface {
	PayFull(ctx context.Context, req *dto.PayFullRequest, recordedBy uuid.UUID) (*dto.PaymentResult, error)
	PaySplit(ctx context.Context, req *dto.PaySplitRequest, recordedBy uuid.UUID) (*dto.PaymentResult, error)
	// PreviewSplit validates and computes a split without touching any state.
	PreviewSplit(ctx context.Context, req *dto.PaySplitRequest) (*dto.BillSplitResponse, error)
}

type paymentService struct {
	orders     repository.OrderRepository
	tables     repository.TableRepository
	caixa      CaixaService
	dispatcher worker.Broadcaster
}

func NewPaymentService(
	orders repository.OrderRepository,
	tables repository.TableRepository,
	caixa CaixaService,
	dispatcher worker.Broadcaster,
) PaymentService {
	if dispatcher == nil {
		dispatcher = worker.NopBroadcaster{}
	}
	return &paymentService{orders: orders, tables: tables, caixa: caixa, dispatcher: dispatcher}
}

// charge is one ledger-bound slice of a settlement: a payer's method hitting
// one order for some amount. Full payments produce one charge per order;
// splits apportion each share greedily across the selection.
type charge struct {
	orderID   uuid.UUID
	method    string
	payerName *string
	cents     int64
}

func (s *paymentService) PayFull(ctx context.Context, req *dto.PayFullRequest, recordedBy uuid.UUID) (*dto.PaymentResult, error) {
	orders, err := s.loadSelection(ctx, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	charges := make([]charge, len(orders))
	for i := range orders {
		charges[i] = charge{
			orderID: orders[i].ID,
			method:  req.Method,
			cents:   money.Cents(orders[i].Total),
		}
	}
	return s.settle(ctx, orders, charges, recordedBy, nil)
}

func (s *paymentService) PaySplit(ctx context.Context, req *dto.PaySplitRequest, recordedBy uuid.UUID) (*dto.PaymentResult, error) {
	orders, err := s.loadSelection(ctx, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	bill, err := computeBill(orders, req)
	if err != nil {
		return nil, err
	}
	return s.settle(ctx, orders, apportion(orders, bill.Shares), recordedBy, bill)
}

func (s *paymentService) PreviewSplit(ctx context.Context, req *dto.PaySplitRequest) (*dto.BillSplitResponse, error) {
	orders, err := s.loadSelection(ctx, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	bill, err := computeBill(orders, req)
	if err != nil {
		return nil, err
	}
	return billToResponse(bill), nil
}

// loadSelection resolves and validates the selected orders: all must exist,
// belong to the same table, and be payable. Duplicated ids are rejected.
func (s *paymentService) loadSelection(ctx context.Context, rawIDs []string) ([]model.Order, error) {
	seen := make(map[uuid.UUID]bool, len(rawIDs))
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apierror.Validation("invalid order id %q", raw)
		}
		if seen[id] {
			return nil, apierror.Validation("order %s selected more than once", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}

	orders, err := s.orders.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		byID[orders[i].ID] = i
	}
	// Preserve the caller's selection order; FindByIDs gives no guarantee.
	ordered := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			return nil, &apierror.NotFoundError{Entity: "order", ID: id}
		}
		ordered = append(ordered, orders[i])
	}

	tableID := ordered[0].TableID
	for i := range ordered {
		o := &ordered[i]
		if o.TableID != tableID {
			return nil, apierror.Validation("order %s belongs to a different table", o.ID)
		}
		if !o.Payable() {
			return nil, apierror.Validation("order %s is %s and cannot be paid", o.ID, o.Status)
		}
	}
	return ordered, nil
}

func computeBill(orders []model.Order, req *dto.PaySplitRequest) (*split.Bill, error) {
	payers := make([]split.Payer, len(req.Payers))
	for i, p := range req.Payers {
		payer := split.Payer{Name: p.Name, Method: p.Method}
		if p.Percent != nil {
			payer.Percent = *p.Percent
		}
		for _, ref := range p.Items {
			orderID, err := uuid.Parse(ref.OrderID)
			if err != nil {
				return nil, apierror.Validation("invalid order id %q in item assignment", ref.OrderID)
			}
			payer.Items = append(payer.Items, split.ItemRef{OrderID: orderID, ItemIndex: ref.ItemIndex})
		}
		payers[i] = payer
	}
	return split.Compute(orders, split.Strategy(req.Strategy), payers)
}

// apportion slices each payer's share across the selection greedily, in
// selection order. Each resulting charge carries one order id, so the ledger
// can count settled orders and reconcile per method at the same time.
func apportion(orders []model.Order, shares []split.Share) []charge {
	remaining := make([]int64, len(orders))
	for i := range orders {
		remaining[i] = money.Cents(orders[i].Total)
	}

	var charges []charge
	oi := 0
	for si := range shares {
		left := money.Cents(shares[si].Amount)
		name := shares[si].Name
		for left > 0 && oi < len(orders) {
			take := left
			if remaining[oi] < take {
				take = remaining[oi]
			}
			if take > 0 {
				charges = append(charges, charge{
					orderID:   orders[oi].ID,
					method:    shares[si].Method,
					payerName: &name,
					cents:     take,
				})
				remaining[oi] -= take
				left -= take
			}
			if remaining[oi] == 0 {
				oi++
			}
		}
	}
	return charges
}

// settle is the common application path: mark every order paid, then append
// the ledger movements, then try to release the table. The first two steps
// are compensated on failure; release is best-effort and never fails the
// payment.
func (s *paymentService) settle(
	ctx context.Context,
	orders []model.Order,
	charges []charge,
	recordedBy uuid.UUID,
	bill *split.Bill,
) (*dto.PaymentResult, error) {
	session, err := s.caixa.RequireOpen(ctx)
	if err != nil {
		return nil, err
	}

	// Per-order stamp: amount is the order's own total; method and payer come
	// from the charge that covers the largest part of the order.
	stamps := make(map[uuid.UUID]repository.PaymentStamp, len(orders))
	dominant := make(map[uuid.UUID]int64, len(orders))
	now := time.Now()
	for i := range orders {
		stamps[orders[i].ID] = repository.PaymentStamp{
			AmountCharged: orders[i].Total,
			PaidAt:        now,
			RecordedBy:    recordedBy,
		}
	}
	for _, c := range charges {
		if c.cents > dominant[c.orderID] {
			dominant[c.orderID] = c.cents
			st := stamps[c.orderID]
			st.Method = c.method
			st.PayerName = c.payerName
			stamps[c.orderID] = st
		}
	}
	// A zero-total order attracts no cents, so no charge wins its stamp.
	// It is still marked paid; give it the settlement's leading method.
	fallbackMethod := ""
	if len(charges) > 0 {
		fallbackMethod = charges[0].method
	} else if bill != nil && len(bill.Shares) > 0 {
		fallbackMethod = bill.Shares[0].Method
	}
	for id, st := range stamps {
		if st.Method == "" && fallbackMethod != "" {
			st.Method = fallbackMethod
			stamps[id] = st
		}
	}

	// Phase 1: conditional transitions to paid. A single loser aborts the
	// whole batch and the winners are reverted.
	applied := make([]int, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		ok, err := s.orders.MarkPaidIf(ctx, o.ID, o.Status, stamps[o.ID])
		if err == nil && !ok {
			err = &apierror.InvalidStateError{Entity: "order", ID: o.ID, Current: "changed", Wanted: o.Status}
		}
		if err != nil {
			s.revert(ctx, orders, applied)
			return nil, err
		}
		applied = append(applied, i)
	}

	// Phase 2: ledger movements, one per charge. The ledger is append-only,
	// so a failure here is compensated with inverse entries before the
	// transitions are reverted.
	recorded := make([]charge, 0, len(charges))
	for _, c := range charges {
		entry := SaleEntry{
			Method:  c.method,
			Amount:  money.FromCents(c.cents),
			Reason:  describeCharge(c, orders),
			OrderID: chargeOrderID(c),
		}
		if err := s.caixa.RecordSale(ctx, entry); err != nil {
			s.reverseRecorded(ctx, recorded, orders)
			s.revert(ctx, orders, applied)
			return nil, err
		}
		recorded = append(recorded, c)
	}

	note := "payment recorded"
	for i := range orders {
		o := &orders[i]
		change := &model.OrderStatusChange{OrderID: o.ID, Status: model.OrderPaid, Note: &note}
		if err := s.orders.AppendStatusChange(ctx, change); err != nil {
			log.Warn().Err(err).Str("order_id", o.ID.String()).Msg("could not append paid status change")
		}
	}

	result := &dto.PaymentResult{
		CaixaSessionID: session.ID.String(),
		TableID:        orders[0].TableID.String(),
	}
	if bill != nil {
		result.Split = billToResponse(bill)
	}

	for i := range orders {
		fresh, err := s.orders.FindByID(ctx, orders[i].ID)
		if err != nil {
			log.Warn().Err(err).Str("order_id", orders[i].ID.String()).Msg("could not reload paid order")
			fresh = &orders[i]
		}
		resp := orderToResponse(fresh)
		result.Orders = append(result.Orders, *resp)
		s.dispatcher.Broadcast(ctx, worker.ChannelOrderUpdated, resp)
	}

	s.tryRelease(ctx, orders[0].TableID, result)
	if report, rerr := s.caixa.Report(ctx, session.ID); rerr == nil {
		s.dispatcher.Broadcast(ctx, worker.ChannelCaixaUpdated, report)
	} else {
		log.Warn().Err(rerr).Str("caixa_session_id", session.ID.String()).Msg("could not build caixa report for broadcast")
	}
	return result, nil
}

func (s *paymentService) revert(ctx context.Context, orders []model.Order, applied []int) {
	// Compensate in reverse application order.
	for j := len(applied) - 1; j >= 0; j-- {
		o := &orders[applied[j]]
		if ok, err := s.orders.RevertPaid(ctx, o.ID, o.Status); err != nil || !ok {
			log.Error().Err(err).Str("order_id", o.ID.String()).Msg("could not revert paid order during compensation")
		}
	}
}

func (s *paymentService) reverseRecorded(ctx context.Context, recorded []charge, orders []model.Order) {
	for j := len(recorded) - 1; j >= 0; j-- {
		c := recorded[j]
		entry := SaleEntry{
			Method:  c.method,
			Amount:  money.FromCents(c.cents),
			Reason:  describeCharge(c, orders),
			OrderID: chargeOrderID(c),
		}
		if err := s.caixa.ReverseSale(ctx, entry); err != nil {
			log.Error().Err(err).Str("order_id", c.orderID.String()).Msg("could not reverse sale movement during compensation")
		}
	}
}

// tryRelease frees the table when the settlement left it with no open
// orders. Orders created concurrently with the payment block the release;
// the payment itself still stands.
func (s *paymentService) tryRelease(ctx context.Context, tableID uuid.UUID, result *dto.PaymentResult) {
	open, err := s.orders.ListByTable(ctx, tableID, model.PayableStatuses)
	if err != nil {
		log.Warn().Err(err).Str("table_id", tableID.String()).Msg("could not check open orders after payment")
		return
	}
	if len(open) > 0 {
		for i := range open {
			result.ReleaseBlockedBy = append(result.ReleaseBlockedBy, open[i].ID.String())
		}
		return
	}
	released, err := s.tables.Release(ctx, tableID)
	if err != nil {
		log.Warn().Err(err).Str("table_id", tableID.String()).Msg("could not release table after payment")
		return
	}
	result.Released = released
	if released {
		if table, ferr := s.tables.FindByID(ctx, tableID); ferr == nil {
			s.dispatcher.Broadcast(ctx, worker.ChannelTableUpdated, tableToResponse(table))
		}
	}
}

func describeCharge(c charge, orders []model.Order) string {
	for i := range orders {
		if orders[i].ID == c.orderID {
			return describeOrder(&orders[i])
		}
	}
	return "order " + c.orderID.String()
}

func chargeOrderID(c charge) *uuid.UUID {
	id := c.orderID
	return &id
}

func billToResponse(b *split.Bill) *dto.BillSplitResponse {
	ids := make([]string, len(b.OrderIDs))
	for i, id := range b.OrderIDs {
		ids[i] = id.String()
	}
	shares := make([]dto.ShareResponse, len(b.Shares))
	for i, sh := range b.Shares {
		shares[i] = dto.ShareResponse{Name: sh.Name, Method: sh.Method, Amount: sh.Amount}
	}
	return &dto.BillSplitResponse{
		Strategy: string(b.Strategy),
		OrderIDs: ids,
		Total:    b.Total,
		Shares:   shares,
	}
}
