package billsplit

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

func amounts(shares []Share) []int64 {
	out := make([]int64, len(shares))
	for i, s := range shares {
		out[i] = s.AmountCents
	}
	return out
}

func TestEquallyRemainderGoesToFirstShare(t *testing.T) {
	shares, err := Equally(1000, 3)
	if err != nil {
		t.Fatalf("Equally: %v", err)
	}
	got := amounts(shares)
	want := []int64{334, 333, 333}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("shares = %v, want %v", got, want)
		}
	}
	for _, s := range shares {
		if s.IsPaid {
			t.Fatalf("share %d marked paid", s.Index)
		}
	}
}

func TestEquallySumsToOutstanding(t *testing.T) {
	for outstanding := int64(1); outstanding <= 250; outstanding += 7 {
		for n := 1; n <= 12; n++ {
			shares, err := Equally(outstanding, n)
			if err != nil {
				t.Fatalf("Equally(%d, %d): %v", outstanding, n, err)
			}
			var sum int64
			for _, s := range shares {
				sum += s.AmountCents
			}
			if sum != outstanding {
				t.Fatalf("Equally(%d, %d) sums to %d", outstanding, n, sum)
			}
		}
	}
}

func TestEquallyRejectsBadParts(t *testing.T) {
	if _, err := Equally(1000, 0); !apperror.IsCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("zero parts: err = %v", err)
	}
}

func TestEquallyMorePartsThanCents(t *testing.T) {
	shares, err := Equally(2, 3)
	if err != nil {
		t.Fatalf("Equally(2, 3): %v", err)
	}
	got := amounts(shares)
	if len(got) != 3 || got[0] != 2 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("shares = %v, want [2 0 0]", got)
	}
}

func TestByAmount(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int64
		wantErr bool
	}{
		{"short of outstanding", []int64{400, 500}, true},
		{"exact", []int64{400, 600}, false},
		{"over is accepted", []int64{500, 600}, false},
		{"non-positive amount", []int64{1000, 0}, true},
		{"empty", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ByAmount(1000, tt.amounts)
			if tt.wantErr {
				if !apperror.IsCode(err, http.StatusUnprocessableEntity) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ByAmount: %v", err)
			}
			if len(shares) != len(tt.amounts) {
				t.Fatalf("got %d shares", len(shares))
			}
		})
	}
}

func TestByItemsProportionalTip(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	bill := Bill{
		Items: []Item{
			{ID: a, LineTotalCents: 2500},
			{ID: b, LineTotalCents: 1500},
			{ID: c, LineTotalCents: 6000},
		},
		SubtotalCents: 10000,
		TotalCents:    10000,
		TipCents:      1000,
	}

	shares, err := ByItems(bill, [][]uuid.UUID{{a, b}, {c}})
	if err != nil {
		t.Fatalf("ByItems: %v", err)
	}
	if shares[0].ItemsCents != 4000 || shares[0].TipCents != 400 {
		t.Fatalf("share 0 = %+v, want items 4000 tip 400", shares[0])
	}
	if shares[0].AmountCents != 4400 {
		t.Fatalf("share 0 amount = %d, want 4400", shares[0].AmountCents)
	}
	if shares[1].TipCents != 600 || shares[1].AmountCents != 6600 {
		t.Fatalf("share 1 = %+v", shares[1])
	}
}

func TestByItemsAllocatesDiscountAndTax(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	bill := Bill{
		Items:         []Item{{ID: a, LineTotalCents: 1000}, {ID: b, LineTotalCents: 3000}},
		SubtotalCents: 4000,
		DiscountCents: 400,
		TaxCents:      576,
		TotalCents:    4176,
	}

	shares, err := ByItems(bill, [][]uuid.UUID{{a}, {b}})
	if err != nil {
		t.Fatalf("ByItems: %v", err)
	}
	if shares[0].DiscountCents != 100 || shares[0].TaxCents != 144 {
		t.Fatalf("share 0 = %+v", shares[0])
	}
	if got := shares[0].AmountCents + shares[1].AmountCents; got != bill.TotalCents {
		t.Fatalf("shares sum to %d, want %d", got, bill.TotalCents)
	}
}

func TestByItemsRejectsUnknownAndDuplicateItems(t *testing.T) {
	a := uuid.New()
	bill := Bill{Items: []Item{{ID: a, LineTotalCents: 500}}, SubtotalCents: 500, TotalCents: 500}

	if _, err := ByItems(bill, [][]uuid.UUID{{uuid.New()}}); !apperror.IsCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("unknown item: err = %v", err)
	}
	if _, err := ByItems(bill, [][]uuid.UUID{{a}, {a}}); !apperror.IsCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("duplicate item: err = %v", err)
	}
	if _, err := ByItems(bill, [][]uuid.UUID{{}}); !apperror.IsCode(err, http.StatusUnprocessableEntity) {
		t.Fatalf("empty group: err = %v", err)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	bill := Bill{TotalCents: 1000, TipCents: 100, CapturedCents: 300}
	req := Request{Kind: KindEqually, Parts: 3}

	first, err := Compute(bill, req)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, _ := Compute(bill, req)
	for i := range first {
		if first[i].AmountCents != second[i].AmountCents {
			t.Fatalf("run 1 %v != run 2 %v", amounts(first), amounts(second))
		}
	}
	if first[0].AmountCents != 268 {
		t.Fatalf("first share = %d, want 268", first[0].AmountCents)
	}
}

func TestComputeRejectsSettledBill(t *testing.T) {
	bill := Bill{TotalCents: 1000, CapturedCents: 1000}
	if _, err := Compute(bill, Request{Kind: KindEqually, Parts: 2}); !apperror.IsCode(err, http.StatusConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}
