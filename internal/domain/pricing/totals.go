// Package pricing derives order totals from line items. It performs no I/O and
// every figure it returns can be recomputed from the same inputs.
package pricing

import (
	"github.com/sangkips/tabsettle-api/internal/domain/enum"
	"github.com/sangkips/tabsettle-api/pkg/money"
)

// Line is the pricing view of one non-void order item
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Total returns unit price times quantity
func (l Line) Total() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Discount is an order-level reduction applied before tax
type Discount struct {
	Type  enum.DiscountType
	Value int64
}

// TaxPolicy is the tenant's tax configuration. Tax is added on top of the
// discounted subtotal.
type TaxPolicy struct {
	RateBasisPoints int64
}

// Totals is the derived money summary of an order
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Calculate computes subtotal, discount, tax and total.
// The result always satisfies Total = Subtotal - Discount + Tax.
func Calculate(lines []Line, discount Discount, policy TaxPolicy) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.Total()
	}

	disc := discountAmount(subtotal, discount)
	tax := money.ApplyRate(subtotal-disc, money.Max(policy.RateBasisPoints, 0))

	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: disc,
		TaxCents:      tax,
		TotalCents:    subtotal - disc + tax,
	}
}

func discountAmount(subtotal int64, d Discount) int64 {
	switch d.Type {
	case enum.DiscountTypeFixed:
		return money.Min(money.Max(d.Value, 0), subtotal)
	case enum.DiscountTypePercent:
		bps := money.Min(money.Max(d.Value, 0), money.BasisPoints)
		return money.ApplyRate(subtotal, bps)
	case enum.DiscountTypeNone:
		return 0
	}
	return 0
}
