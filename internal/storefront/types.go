package storefront

import (
	"github.com/shopspring/decimal"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/model"
)

// CartItem is the one strict line shape the storefront works with.
// Wire payloads are flattened into it at the API edge and nowhere else.
type CartItem struct {
	BookID           uint
	Title            string
	Quantity         int
	UnitPrice        decimal.Decimal
	OriginalPrice    decimal.Decimal
	Format           model.BookFormat
	StockQuantity    int
	InventoryEnabled bool
	IsActive         bool
}

func fromLine(line dto.CartLine) CartItem {
	return CartItem{
		BookID:           line.BookID,
		Title:            line.Title,
		Quantity:         line.Quantity,
		UnitPrice:        line.UnitPrice,
		OriginalPrice:    line.OriginalPrice,
		Format:           line.Format,
		StockQuantity:    line.StockQuantity,
		InventoryEnabled: line.InventoryEnabled,
		IsActive:         line.IsActive,
	}
}

func fromLines(lines []dto.CartLine) []CartItem {
	items := make([]CartItem, len(lines))
	for i, line := range lines {
		items[i] = fromLine(line)
	}
	return items
}

func toGuestItems(items []CartItem) []dto.GuestItem {
	out := make([]dto.GuestItem, len(items))
	for i, item := range items {
		out[i] = dto.GuestItem{BookID: item.BookID, Quantity: item.Quantity}
	}
	return out
}
