package storefront

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bookshop-commerce/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ebookItem(id uint, qty int, price string) CartItem {
	return CartItem{
		BookID: id, Title: "ebook", Quantity: qty,
		UnitPrice: dec(price), OriginalPrice: dec(price),
		Format: model.FormatEbook, IsActive: true,
	}
}

func physicalItem(id uint, qty int, price string) CartItem {
	return CartItem{
		BookID: id, Title: "physical", Quantity: qty,
		UnitPrice: dec(price), OriginalPrice: dec(price),
		Format: model.FormatPhysical, IsActive: true,
		StockQuantity: 100, InventoryEnabled: true,
	}
}

func TestAnalyzeEmptyCart(t *testing.T) {
	a := Analyze(nil)

	assert.Equal(t, CartTypeEmpty, a.CartType)
	assert.Equal(t, 0, a.TotalItems)
	assert.True(t, a.TotalValue.IsZero())
	assert.True(t, a.TotalSavings.IsZero())
}

func TestAnalyzeClassification(t *testing.T) {
	t.Run("ebook only", func(t *testing.T) {
		a := Analyze([]CartItem{ebookItem(1, 2, "10.00")})
		assert.Equal(t, CartTypeEbookOnly, a.CartType)
		assert.Equal(t, 2, a.EbookCount)
		assert.Equal(t, 0, a.PhysicalCount)
	})

	t.Run("physical only", func(t *testing.T) {
		a := Analyze([]CartItem{physicalItem(1, 3, "20.00")})
		assert.Equal(t, CartTypePhysicalOnly, a.CartType)
		assert.Equal(t, 0, a.EbookCount)
		assert.Equal(t, 3, a.PhysicalCount)
	})

	t.Run("mixed", func(t *testing.T) {
		a := Analyze([]CartItem{ebookItem(1, 1, "10.00"), physicalItem(2, 1, "20.00")})
		assert.Equal(t, CartTypeMixed, a.CartType)
	})

	t.Run("single both-format item is mixed", func(t *testing.T) {
		item := ebookItem(1, 2, "15.00")
		item.Format = model.FormatBoth
		a := Analyze([]CartItem{item})

		assert.Equal(t, CartTypeMixed, a.CartType)
		assert.Equal(t, 2, a.EbookCount)
		assert.Equal(t, 2, a.PhysicalCount)
	})
}

func TestAnalyzeTotals(t *testing.T) {
	a := Analyze([]CartItem{
		ebookItem(1, 2, "10.50"),
		physicalItem(2, 1, "24.00"),
	})

	assert.Equal(t, 3, a.TotalItems)
	assert.True(t, a.TotalValue.Equal(dec("45.00")), "got %s", a.TotalValue)
}

func TestAnalyzeSavings(t *testing.T) {
	t.Run("discounted item accrues per unit", func(t *testing.T) {
		item := ebookItem(1, 3, "8.00")
		item.OriginalPrice = dec("10.00")
		a := Analyze([]CartItem{item})

		assert.True(t, a.TotalSavings.Equal(dec("6.00")), "got %s", a.TotalSavings)
	})

	t.Run("no savings when original equals price", func(t *testing.T) {
		a := Analyze([]CartItem{ebookItem(1, 2, "10.00")})
		assert.True(t, a.TotalSavings.IsZero())
	})

	t.Run("original below price never yields negative savings", func(t *testing.T) {
		item := ebookItem(1, 1, "12.00")
		item.OriginalPrice = dec("10.00")
		a := Analyze([]CartItem{item})

		assert.True(t, a.TotalSavings.IsZero())
	})
}
