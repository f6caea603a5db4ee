package storefront

import "github.com/shopspring/decimal"

type CartType string

const (
	CartTypeEmpty        CartType = "empty"
	CartTypeEbookOnly    CartType = "ebook-only"
	CartTypePhysicalOnly CartType = "physical-only"
	CartTypeMixed        CartType = "mixed"
)

// Analytics is derived from the current items on every read and never
// cached, so it cannot drift from the cart.
type Analytics struct {
	TotalItems    int
	TotalValue    decimal.Decimal
	TotalSavings  decimal.Decimal
	EbookCount    int
	PhysicalCount int
	CartType      CartType
}

// Analyze classifies a cart and computes its monetary aggregates. An
// item whose format is "both" counts toward the ebook and the physical
// tallies.
func Analyze(items []CartItem) Analytics {
	a := Analytics{
		TotalValue:   decimal.Zero,
		TotalSavings: decimal.Zero,
		CartType:     CartTypeEmpty,
	}

	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		a.TotalItems += item.Quantity
		a.TotalValue = a.TotalValue.Add(item.UnitPrice.Mul(qty))
		if item.OriginalPrice.GreaterThan(item.UnitPrice) {
			a.TotalSavings = a.TotalSavings.Add(item.OriginalPrice.Sub(item.UnitPrice).Mul(qty))
		}
		if item.Format.IsEbook() {
			a.EbookCount += item.Quantity
		}
		if item.Format.IsPhysical() {
			a.PhysicalCount += item.Quantity
		}
	}

	switch {
	case len(items) == 0:
		a.CartType = CartTypeEmpty
	case a.EbookCount > 0 && a.PhysicalCount > 0:
		a.CartType = CartTypeMixed
	case a.EbookCount > 0:
		a.CartType = CartTypeEbookOnly
	default:
		a.CartType = CartTypePhysicalOnly
	}

	return a
}
