package split

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// EmptySelectionError rejects a split over zero orders.
type EmptySelectionError struct{}

func (e *EmptySelectionError) Error() string {
	return "no orders selected for payment"
}

// UnbalancedSplitError rejects a percentage split whose percentages do not
// sum to exactly 100, or (defensively) any partition that fails to sum back
// to the selection total.
type UnbalancedSplitError struct {
	Percentages map[string]decimal.Decimal
	PercentSum  decimal.Decimal
	Expected    decimal.Decimal
	Got         decimal.Decimal
}

func (e *UnbalancedSplitError) Error() string {
	if e.Percentages != nil {
		names := make([]string, 0, len(e.Percentages))
		for n := range e.Percentages {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s=%s%%", n, e.Percentages[n])
		}
		return fmt.Sprintf("percentages must sum to exactly 100, got %s (%s)",
			e.PercentSum, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("split amounts sum to %s, selection total is %s", e.Got, e.Expected)
}

// ItemAssignmentError rejects a per-item split whose line items are not each
// assigned to exactly one payer. It lists every offending item.
type ItemAssignmentError struct {
	Unassigned []ItemRef
	Duplicated []ItemRef
}

func (e *ItemAssignmentError) Error() string {
	var parts []string
	if len(e.Unassigned) > 0 {
		parts = append(parts, "unassigned items: "+formatRefs(e.Unassigned))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, "items assigned more than once: "+formatRefs(e.Duplicated))
	}
	return strings.Join(parts, "; ")
}

func formatRefs(refs []ItemRef) string {
	sorted := make([]ItemRef, len(refs))
	copy(sorted, refs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OrderID != sorted[j].OrderID {
			return sorted[i].OrderID.String() < sorted[j].OrderID.String()
		}
		return sorted[i].ItemIndex < sorted[j].ItemIndex
	})
	out := make([]string, len(sorted))
	for i, r := range sorted {
		out[i] = fmt.Sprintf("%s#%d", r.OrderID, r.ItemIndex)
	}
	return strings.Join(out, ", ")
}
