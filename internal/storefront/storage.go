package storefront

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"bookshop-commerce/internal/model"
)

// SnapshotStorage persists a guest cart between sessions. The snapshot
// is a plain JSON document so any client-local store (file, browser
// storage behind a bridge, key-value cache) can hold it.
type SnapshotStorage interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Clear() error
}

type snapshotLine struct {
	BookID           uint             `json:"book_id"`
	Title            string           `json:"title"`
	Quantity         int              `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	OriginalPrice    decimal.Decimal  `json:"original_price"`
	Format           model.BookFormat `json:"format"`
	StockQuantity    int              `json:"stock_quantity"`
	InventoryEnabled bool             `json:"inventory_enabled"`
	IsActive         bool             `json:"is_active"`
}

type snapshot struct {
	Items []snapshotLine `json:"items"`
}

func encodeSnapshot(items []CartItem) ([]byte, error) {
	snap := snapshot{Items: make([]snapshotLine, len(items))}
	for i, item := range items {
		snap.Items[i] = snapshotLine(item)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]CartItem, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	items := make([]CartItem, len(snap.Items))
	for i, line := range snap.Items {
		items[i] = CartItem(line)
	}
	return items, nil
}

// MemoryStorage keeps the snapshot in memory. It stands in for a real
// client-local store in tests and embedded use.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
