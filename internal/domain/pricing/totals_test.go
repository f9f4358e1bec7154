package pricing

import (
	"testing"

	"github.com/sangkips/tabsettle-api/internal/domain/enum"
)

func TestCalculate(t *testing.T) {
	lines := []Line{
		{UnitPriceCents: 1250, Quantity: 2},
		{UnitPriceCents: 500, Quantity: 1},
	}

	tests := []struct {
		name     string
		discount Discount
		policy   TaxPolicy
		want     Totals
	}{
		{
			name: "no discount no tax",
			want: Totals{SubtotalCents: 3000, TotalCents: 3000},
		},
		{
			name:   "sixteen percent tax",
			policy: TaxPolicy{RateBasisPoints: 1600},
			want:   Totals{SubtotalCents: 3000, TaxCents: 480, TotalCents: 3480},
		},
		{
			name:     "fixed discount before tax",
			discount: Discount{Type: enum.DiscountTypeFixed, Value: 1000},
			policy:   TaxPolicy{RateBasisPoints: 1000},
			want:     Totals{SubtotalCents: 3000, DiscountCents: 1000, TaxCents: 200, TotalCents: 2200},
		},
		{
			name:     "fixed discount clamped to subtotal",
			discount: Discount{Type: enum.DiscountTypeFixed, Value: 9999},
			policy:   TaxPolicy{RateBasisPoints: 1600},
			want:     Totals{SubtotalCents: 3000, DiscountCents: 3000, TotalCents: 0},
		},
		{
			name:     "percent discount rounds half up",
			discount: Discount{Type: enum.DiscountTypePercent, Value: 1250},
			want:     Totals{SubtotalCents: 3000, DiscountCents: 375, TotalCents: 2625},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(lines, tt.discount, tt.policy)
			if got != tt.want {
				t.Fatalf("Calculate = %+v, want %+v", got, tt.want)
			}
			if got.TotalCents != got.SubtotalCents-got.DiscountCents+got.TaxCents {
				t.Fatalf("total invariant broken: %+v", got)
			}
		})
	}
}

func TestCalculateEmpty(t *testing.T) {
	got := Calculate(nil, Discount{}, TaxPolicy{RateBasisPoints: 1600})
	if got != (Totals{}) {
		t.Fatalf("Calculate(nil) = %+v", got)
	}
}
