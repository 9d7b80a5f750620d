package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func TestLineTotal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		price    int64
		discount string
		qty      int
		want     int64
	}{
		{"no discount", 2500, "0", 3, 7500},
		{"ten percent", 10000, "10", 2, 18000},
		{"half cent rounds up", 5, "10", 1, 5},
		{"fractional percent", 999, "12.5", 1, 874},
		{"full discount", 1000, "100", 4, 0},
		{"zero qty", 1000, "0", 0, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := LineTotal(tc.price, decimal.RequireFromString(tc.discount), tc.qty)
			if got != tc.want {
				t.Fatalf("LineTotal(%d, %s, %d) = %d, want %d", tc.price, tc.discount, tc.qty, got, tc.want)
			}
		})
	}
}

func TestValidDiscount(t *testing.T) {
	t.Parallel()

	if !ValidDiscount(decimal.Zero) || !ValidDiscount(decimal.NewFromInt(100)) {
		t.Fatal("bounds should be valid")
	}
	if ValidDiscount(decimal.NewFromInt(-1)) || ValidDiscount(decimal.NewFromInt(101)) {
		t.Fatal("out of range discount accepted")
	}
}

func TestSubtotalAndCount(t *testing.T) {
	t.Parallel()

	lines := []models.CartLine{
		{Quantity: 2, LineTotalCents: 18000},
		{Quantity: 1, LineTotalCents: 500},
	}
	if Subtotal(lines) != 18500 {
		t.Fatalf("unexpected subtotal %d", Subtotal(lines))
	}
	if ItemCount(lines) != 3 {
		t.Fatalf("unexpected count %d", ItemCount(lines))
	}
}
