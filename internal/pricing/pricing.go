// Package pricing derives quote line items from catalog products: sell price
// from cost plus utility margin, package-multiple rounding of quantities, and
// percentage or fixed discounts on the line subtotal.
package pricing

import (
	"math"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"github.com/shopspring/decimal"
)

// SellPrice returns the per-unit sell price: cost plus the utility margin
// percent. Not rounded; rounding happens on package and subtotal amounts.
func SellPrice(price, utility float64) float64 {
	return price * (1 + utility/100)
}

// Compute fills the quantity and pre-discount amounts of a line item.
//
// When the product is sold in packages (PackageUnit > 1) the delivered
// quantity is rounded up to whole packages; otherwise packages and total
// quantity both equal the required quantity. A requiredQty <= 0 is not
// rejected here; the calling form layer validates it.
func Compute(p *entity.Product, requiredQty float64) entity.QuoteItem {
	sellPrice := SellPrice(p.Price, p.Utility)

	item := entity.QuoteItem{
		ProductID:        p.ID,
		RequiredQuantity: requiredQty,
	}

	if p.PackageUnit > 1 {
		item.PackagesRequired = math.Ceil(requiredQty / p.PackageUnit)
		item.TotalQuantity = round2(item.PackagesRequired * p.PackageUnit)
	} else {
		item.PackagesRequired = requiredQty
		item.TotalQuantity = requiredQty
	}

	item.PricePerPackage = round2(sellPrice * p.PackageUnit)
	item.OriginalSubtotal = round2(item.PricePerPackage * item.PackagesRequired)
	item.Subtotal = item.OriginalSubtotal

	return item
}

// ApplyDiscount returns the post-discount subtotal. Percentage discounts over
// 100 and fixed discounts larger than the subtotal are not clamped here; the
// form layer validates ranges, so calling this directly with an oversized
// fixed discount yields a negative subtotal.
func ApplyDiscount(originalSubtotal, discount float64, discountType string) float64 {
	switch discountType {
	case entity.DiscountTypePercentage:
		return round2(originalSubtotal * (1 - discount/100))
	case entity.DiscountTypeFixed:
		return round2(originalSubtotal - discount)
	}
	return originalSubtotal
}

// BuildItem is the single derivation used everywhere a line item is created
// or re-derived after a quantity edit: Compute, then ApplyDiscount when a
// discount is present. Pure; identical inputs produce identical output.
func BuildItem(p *entity.Product, requiredQty, discount float64, discountType string) entity.QuoteItem {
	item := Compute(p, requiredQty)
	item.Discount = discount
	item.DiscountType = discountType
	if discount > 0 {
		item.Subtotal = ApplyDiscount(item.OriginalSubtotal, discount, discountType)
	}
	return item
}

// Total sums line subtotals rounded to 2 decimals.
func Total(items []entity.QuoteItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Subtotal))
	}
	return sum.Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
