package model

import "time"

type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    string     `gorm:"size:64;uniqueIndex;not null"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem holds only the book reference and quantity. Price, stock and
// activity are read from the book at serve time so the cart reflects
// catalogue changes made elsewhere.
type CartItem struct {
	ID        uint `gorm:"primaryKey"`
	CartID    uint `gorm:"uniqueIndex:idx_cart_book;not null"`
	BookID    uint `gorm:"uniqueIndex:idx_cart_book;not null"` // a book appears at most once per cart
	Quantity  int  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
