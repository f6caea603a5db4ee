package client

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookshop-commerce/internal/model"
)

// InitDB opens MySQL when a DSN is configured and falls back to an
// in-memory SQLite database for development and tests.
func InitDB(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = mysql.Open(databaseURL)
	} else {
		dialector = sqlite.Open("file::memory:?cache=shared")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// Connection pool (important for payment callbacks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Book{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.GatewayPayment{},
		&model.BankTransferPayment{},
		&model.ProofOfPayment{},
		&model.LibraryEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
