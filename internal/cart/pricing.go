package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// LineTotal prices qty units at unitPriceCents less discountPercent, rounded
// half away from zero to whole cents.
func LineTotal(unitPriceCents int64, discountPercent decimal.Decimal, qty int) int64 {
	if qty <= 0 {
		return 0
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	return decimal.NewFromInt(unitPriceCents).
		Mul(factor).
		Mul(decimal.NewFromInt(int64(qty))).
		Round(0).
		IntPart()
}

// ValidDiscount reports whether d is a usable percentage.
func ValidDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// Subtotal sums the stored line totals.
func Subtotal(lines []models.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineTotalCents
	}
	return total
}

// ItemCount sums line quantities.
func ItemCount(lines []models.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
