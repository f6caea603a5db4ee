package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookFormat string

const (
	FormatEbook    BookFormat = "ebook"
	FormatPhysical BookFormat = "physical"
	FormatBoth     BookFormat = "both"
)

// IsEbook reports whether the format grants digital content.
func (f BookFormat) IsEbook() bool {
	return f == FormatEbook || f == FormatBoth
}

// IsPhysical reports whether the format requires shipping.
func (f BookFormat) IsPhysical() bool {
	return f == FormatPhysical || f == FormatBoth
}

type Book struct {
	ID               uint            `gorm:"primaryKey"`
	Title            string          `gorm:"size:255;not null"`
	Author           string          `gorm:"size:255"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OriginalPrice    decimal.Decimal `gorm:"type:decimal(12,2)"` // pre-discount price, zero when never discounted
	Format           BookFormat      `gorm:"size:16;index;not null"`
	StockQuantity    int             `gorm:"not null;default:0"`
	InventoryEnabled bool            `gorm:"not null;default:false"`
	IsActive         bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LibraryEntry is a digital copy unlocked for a user after a confirmed
// payment. One row per user/book regardless of how often it was bought.
type LibraryEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;uniqueIndex:idx_library_user_book;not null"`
	BookID    uint   `gorm:"uniqueIndex:idx_library_user_book;not null"`
	OrderID   uint   `gorm:"index;not null"`
	CreatedAt time.Time
}
