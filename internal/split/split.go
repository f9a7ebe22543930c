// Package split partitions the total of one or more orders among named
// payers. It is a pure validator/calculator: no I/O, no mutation of order
// state. All arithmetic is integer cents — a rejected split is never
// silently rounded into balance.
package split

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"recantoverde/internal/apierror"
	"recantoverde/internal/model"
	"recantoverde/internal/money"
)

type Strategy string

const (
	StrategyEqual      Strategy = "equal"
	StrategyPercentage Strategy = "percentage"
	StrategyPerItem    Strategy = "per_item"
)

// ItemRef identifies one line item inside the selection.
type ItemRef struct {
	OrderID   uuid.UUID `json:"order_id"`
	ItemIndex int       `json:"item_index"`
}

// Payer is the caller-supplied definition of one participant.
// Percent is read for the percentage strategy, Items for per_item.
type Payer struct {
	Name    string
	Method  string
	Percent decimal.Decimal
	Items   []ItemRef
}

// Share is the computed amount one payer owes.
type Share struct {
	Name   string
	Method string
	Amount decimal.Decimal
}

// Bill is a validated split: Σ(Shares.Amount) == Total to the cent.
type Bill struct {
	Strategy Strategy
	Total    decimal.Decimal
	Shares   []Share
	OrderIDs []uuid.UUID
}

// Compute validates the selection and produces the partition for the given
// strategy. All orders must belong to the same table and be in a payable
// status.
func Compute(orders []model.Order, strategy Strategy, payers []Payer) (*Bill, error) {
	if len(orders) == 0 {
		return nil, &EmptySelectionError{}
	}
	if len(payers) == 0 {
		return nil, apierror.Validation("a split requires at least one payer")
	}

	tableID := orders[0].TableID
	orderIDs := make([]uuid.UUID, len(orders))
	var totalCents int64
	for i := range orders {
		o := &orders[i]
		if o.TableID != tableID {
			return nil, apierror.Validation("order %s belongs to a different table", o.ID)
		}
		if !o.Payable() {
			return nil, apierror.Validation("order %s is %s and cannot be paid", o.ID, o.Status)
		}
		orderIDs[i] = o.ID
		totalCents += money.Cents(o.Total)
	}

	var shares []Share
	var err error
	switch strategy {
	case StrategyEqual:
		shares = equalShares(totalCents, payers)
	case StrategyPercentage:
		shares, err = percentageShares(totalCents, payers)
	case StrategyPerItem:
		shares, err = perItemShares(orders, payers)
	default:
		return nil, apierror.Validation("unknown split strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	var sum int64
	for _, s := range shares {
		sum += money.Cents(s.Amount)
	}
	// Belt and braces: a partition that does not sum back to the selection
	// total cannot leave this package.
	if sum != totalCents {
		return nil, &UnbalancedSplitError{
			Expected: money.FromCents(totalCents),
			Got:      money.FromCents(sum),
		}
	}

	return &Bill{
		Strategy: strategy,
		Total:    money.FromCents(totalCents),
		Shares:   shares,
		OrderIDs: orderIDs,
	}, nil
}

func equalShares(totalCents int64, payers []Payer) []Share {
	parts := money.SplitEqual(totalCents, len(payers))
	shares := make([]Share, len(payers))
	for i, p := range payers {
		shares[i] = Share{Name: p.Name, Method: p.Method, Amount: money.FromCents(parts[i])}
	}
	return shares
}

func percentageShares(totalCents int64, payers []Payer) ([]Share, error) {
	hundred := decimal.NewFromInt(100)
	var offending []string
	sum := decimal.Zero
	pcts := make(map[string]decimal.Decimal, len(payers))
	for _, p := range payers {
		// Each payer owes a real slice: a non-positive or >100 percentage is
		// rejected even when the set happens to sum to 100.
		if !p.Percent.IsPositive() || p.Percent.GreaterThan(hundred) {
			offending = append(offending, fmt.Sprintf("%s=%s%%", p.Name, p.Percent))
		}
		sum = sum.Add(p.Percent)
		pcts[p.Name] = p.Percent
	}
	if len(offending) > 0 {
		sort.Strings(offending)
		return nil, apierror.Validation(
			"each percentage must be greater than 0 and at most 100, got %s",
			strings.Join(offending, ", "))
	}
	// Percentages must be exact — no tolerance.
	if !sum.Equal(decimal.NewFromInt(100)) {
		return nil, &UnbalancedSplitError{
			Percentages: pcts,
			PercentSum:  sum,
		}
	}

	shares := make([]Share, len(payers))
	var distributed int64
	for i, p := range payers {
		cents := money.Percent(totalCents, p.Percent)
		// The last payer absorbs the rounding residual so the shares sum
		// back to the total exactly.
		if i == len(payers)-1 {
			cents = totalCents - distributed
		}
		distributed += cents
		shares[i] = Share{Name: p.Name, Method: p.Method, Amount: money.FromCents(cents)}
	}
	return shares, nil
}

func perItemShares(orders []model.Order, payers []Payer) ([]Share, error) {
	// Every line item of the selection must be assigned to exactly one payer.
	assignments := make(map[ItemRef]int)
	subtotals := make(map[ItemRef]int64)
	for i := range orders {
		for idx := range orders[i].Items {
			ref := ItemRef{OrderID: orders[i].ID, ItemIndex: idx}
			assignments[ref] = 0
			subtotals[ref] = orders[i].Items[idx].SubtotalCents()
		}
	}

	shareCents := make([]int64, len(payers))
	for i, p := range payers {
		for _, ref := range p.Items {
			if _, known := assignments[ref]; !known {
				return nil, apierror.Validation(
					"item %d of order %s is not part of the selection", ref.ItemIndex, ref.OrderID)
			}
			assignments[ref]++
			shareCents[i] += subtotals[ref]
		}
	}

	var unassigned, duplicated []ItemRef
	for ref, n := range assignments {
		switch {
		case n == 0:
			unassigned = append(unassigned, ref)
		case n > 1:
			duplicated = append(duplicated, ref)
		}
	}
	if len(unassigned) > 0 || len(duplicated) > 0 {
		return nil, &ItemAssignmentError{Unassigned: unassigned, Duplicated: duplicated}
	}

	shares := make([]Share, len(payers))
	for i, p := range payers {
		shares[i] = Share{Name: p.Name, Method: p.Method, Amount: money.FromCents(shareCents[i])}
	}
	return shares, nil
}
