// Package billsplit proposes how an outstanding balance can be divided
// between payers. Shares are advisory values: nothing here is persisted and
// the same inputs always produce the same shares.
package billsplit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
	"github.com/sangkips/tabsettle-api/pkg/money"
)

// Kind selects the split algorithm
type Kind string

const (
	KindEqually  Kind = "equally"
	KindByAmount Kind = "by_amount"
	KindByItems  Kind = "by_items"
)

// ParseKind validates a split kind from a request
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEqually, KindByAmount, KindByItems:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown split type %q", s)
}

// Request describes one split preview. Only the fields for Kind are read.
type Request struct {
	Kind    Kind
	Parts   int
	Amounts []int64
	Items   [][]uuid.UUID
}

// Item is the splitter's view of one non-void order item
type Item struct {
	ID             uuid.UUID
	LineTotalCents int64
}

// Bill is the order state a split is computed against
type Bill struct {
	Items         []Item
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
	TipCents      int64
	CapturedCents int64
}

// OutstandingCents is total plus tips minus what has already been captured
func (b Bill) OutstandingCents() int64 {
	return b.TotalCents + b.TipCents - b.CapturedCents
}

// Share is one proposed portion of the bill
type Share struct {
	Index         int         `json:"index"`
	Label         string      `json:"label"`
	AmountCents   int64       `json:"amount_cents"`
	ItemIDs       []uuid.UUID `json:"item_ids,omitempty"`
	ItemsCents    int64       `json:"items_cents,omitempty"`
	DiscountCents int64       `json:"discount_cents,omitempty"`
	TaxCents      int64       `json:"tax_cents,omitempty"`
	TipCents      int64       `json:"tip_cents,omitempty"`
	IsPaid        bool        `json:"is_paid"`
}

// Compute dispatches to the algorithm named by req.Kind
func Compute(bill Bill, req Request) ([]Share, error) {
	outstanding := bill.OutstandingCents()
	if outstanding <= 0 {
		return nil, apperror.NewConflictError("Order is already fully paid")
	}

	switch req.Kind {
	case KindEqually:
		return Equally(outstanding, req.Parts)
	case KindByAmount:
		return ByAmount(outstanding, req.Amounts)
	case KindByItems:
		return ByItems(bill, req.Items)
	}
	return nil, apperror.NewFieldError("type", "split type must be one of equally, by_amount, by_items")
}

// Equally divides outstanding into n shares with floor division. The
// remainder goes entirely to the first share, so with more parts than cents
// the first share carries everything and the rest are zero.
func Equally(outstanding int64, n int) ([]Share, error) {
	if n < 1 {
		return nil, apperror.NewFieldError("parts", "must be at least 1")
	}

	parts, err := money.Split(outstanding, n)
	if err != nil {
		return nil, apperror.NewFieldError("parts", err.Error())
	}

	shares := make([]Share, n)
	for i, amount := range parts {
		shares[i] = newShare(i, amount)
	}
	return shares, nil
}

// ByAmount accepts caller-chosen amounts. Their sum may exceed outstanding but
// never fall short of it.
func ByAmount(outstanding int64, amounts []int64) ([]Share, error) {
	if len(amounts) == 0 {
		return nil, apperror.NewFieldError("amounts", "at least one amount is required")
	}

	var fieldErrors []apperror.FieldError
	for i, a := range amounts {
		if a <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("amounts[%d]", i),
				Message: "must be greater than zero",
			})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	if sum := money.Sum(amounts...); sum < outstanding {
		return nil, apperror.NewFieldError("amounts", fmt.Sprintf("amounts sum to %d, outstanding is %d", sum, outstanding))
	}

	shares := make([]Share, len(amounts))
	for i, amount := range amounts {
		shares[i] = newShare(i, amount)
	}
	return shares, nil
}

// ByItems builds one share per group of item IDs. Each share carries its
// items, a proportional part of the order discount and tax (weighted by the
// order subtotal) and a proportional part of the tips (weighted by the order
// total). All allocations round half up.
func ByItems(bill Bill, groups [][]uuid.UUID) ([]Share, error) {
	if len(groups) == 0 {
		return nil, apperror.NewFieldError("items", "at least one item group is required")
	}

	lineTotals := make(map[uuid.UUID]int64, len(bill.Items))
	for _, it := range bill.Items {
		lineTotals[it.ID] = it.LineTotalCents
	}

	seen := make(map[uuid.UUID]int, len(bill.Items))
	var fieldErrors []apperror.FieldError
	for i, group := range groups {
		field := fmt.Sprintf("items[%d]", i)
		if len(group) == 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: "share has no items"})
			continue
		}
		for _, id := range group {
			if _, ok := lineTotals[id]; !ok {
				fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: fmt.Sprintf("item %s does not belong to this order", id)})
				continue
			}
			if prev, dup := seen[id]; dup {
				fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: fmt.Sprintf("item %s is already assigned to share %d", id, prev)})
				continue
			}
			seen[id] = i
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	shares := make([]Share, len(groups))
	for i, group := range groups {
		var items int64
		for _, id := range group {
			items += lineTotals[id]
		}

		s := newShare(i, 0)
		s.ItemIDs = append([]uuid.UUID(nil), group...)
		s.ItemsCents = items
		s.DiscountCents = money.MulDivRound(items, bill.DiscountCents, bill.SubtotalCents)
		s.TaxCents = money.MulDivRound(items, bill.TaxCents, bill.SubtotalCents)
		s.TipCents = money.MulDivRound(items, bill.TipCents, bill.TotalCents)
		s.AmountCents = items - s.DiscountCents + s.TaxCents + s.TipCents
		shares[i] = s
	}
	return shares, nil
}

func newShare(i int, amount int64) Share {
	return Share{
		Index:       i,
		Label:       fmt.Sprintf("Share %d", i+1),
		AmountCents: amount,
	}
}
