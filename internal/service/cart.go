package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
	"bookshop-commerce/internal/repository"
)

type CartService interface {
	List(ctx context.Context, userID string) ([]dto.CartLine, error)
	Add(ctx context.Context, userID string, bookID uint, quantity int) ([]dto.CartLine, error)
	SetQuantity(ctx context.Context, userID string, bookID uint, quantity int) ([]dto.CartLine, error)
	Remove(ctx context.Context, userID string, bookID uint) ([]dto.CartLine, error)
	Clear(ctx context.Context, userID string) error
	TransferGuest(ctx context.Context, userID string, items []dto.GuestItem) ([]dto.CartLine, error)
}

type cartServiceImpl struct {
	db       *gorm.DB
	cartRepo repository.CartRepository
	bookRepo repository.BookRepository
}

func NewCartService(
	db *gorm.DB,
	cartRepo repository.CartRepository,
	bookRepo repository.BookRepository,
) CartService {
	return &cartServiceImpl{
		db:       db,
		cartRepo: cartRepo,
		bookRepo: bookRepo,
	}
}

func (s *cartServiceImpl) List(ctx context.Context, userID string) ([]dto.CartLine, error) {
	cart, err := s.cartRepo.GetWithItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	return s.toLines(ctx, cart.Items)
}

// checkBook validates a requested line against the live catalogue.
// `have` is the quantity already in the cart for that book.
func (s *cartServiceImpl) checkBook(ctx context.Context, bookID uint, have, add int) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("book_id", "book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	if !book.IsActive {
		return nil, errs.Validation("book_id", "book is no longer available")
	}
	if book.Format.IsPhysical() && book.InventoryEnabled && have+add > book.StockQuantity {
		return nil, errs.Validation("quantity", "requested quantity exceeds stock")
	}

	return book, nil
}

func (s *cartServiceImpl) Add(ctx context.Context, userID string, bookID uint, quantity int) ([]dto.CartLine, error) {
	if quantity < 1 {
		return nil, errs.Validation("quantity", "quantity must be at least 1")
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	have := 0
	if item, err := s.cartRepo.FindItem(ctx, cart.ID, bookID); err == nil {
		have = item.Quantity
	}

	if _, err := s.checkBook(ctx, bookID, have, quantity); err != nil {
		return nil, err
	}

	if err := s.cartRepo.IncrementItem(ctx, cart.ID, bookID, quantity); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return s.List(ctx, userID)
}

func (s *cartServiceImpl) SetQuantity(ctx context.Context, userID string, bookID uint, quantity int) ([]dto.CartLine, error) {
	if quantity == 0 {
		return s.Remove(ctx, userID, bookID)
	}
	if quantity < 0 {
		return nil, errs.Validation("quantity", "quantity must not be negative")
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if _, err := s.checkBook(ctx, bookID, 0, quantity); err != nil {
		return nil, err
	}

	err = s.cartRepo.SetItemQuantity(ctx, cart.ID, bookID, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("book_id", "item not in cart")
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return s.List(ctx, userID)
}

func (s *cartServiceImpl) Remove(ctx context.Context, userID string, bookID uint) ([]dto.CartLine, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	err = s.cartRepo.RemoveItem(ctx, cart.ID, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("book_id", "item not in cart")
	}
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	return s.List(ctx, userID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID string) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	if err := s.cartRepo.ClearItems(ctx, s.db, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}

// TransferGuest merges a guest cart into the user's server cart.
// Quantities for books already in the cart are summed, not overwritten.
// Inactive or unknown guest lines are skipped rather than failing the
// whole merge.
func (s *cartServiceImpl) TransferGuest(ctx context.Context, userID string, items []dto.GuestItem) ([]dto.CartLine, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if item.Quantity < 1 {
				continue
			}
			book, err := s.bookRepo.FindByID(ctx, item.BookID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("find book %d: %w", item.BookID, err)
			}
			if !book.IsActive {
				continue
			}
			if err := s.cartRepo.IncrementItem(ctx, cart.ID, item.BookID, item.Quantity); err != nil {
				return fmt.Errorf("merge cart item %d: %w", item.BookID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.List(ctx, userID)
}

func (s *cartServiceImpl) toLines(ctx context.Context, items []model.CartItem) ([]dto.CartLine, error) {
	lines := make([]dto.CartLine, 0, len(items))
	if len(items) == 0 {
		return lines, nil
	}

	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.BookID
	}
	books, err := s.bookRepo.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	byID := make(map[uint]*model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	for _, item := range items {
		book, ok := byID[item.BookID]
		if !ok {
			// book deleted since it was added; keep the line visible so
			// the client can surface it and remove it
			lines = append(lines, dto.CartLine{
				BookID:   item.BookID,
				Quantity: item.Quantity,
				IsActive: false,
			})
			continue
		}
		lines = append(lines, dto.CartLine{
			BookID:           book.ID,
			Title:            book.Title,
			Quantity:         item.Quantity,
			UnitPrice:        book.Price,
			OriginalPrice:    book.OriginalPrice,
			Format:           book.Format,
			StockQuantity:    book.StockQuantity,
			InventoryEnabled: book.InventoryEnabled,
			IsActive:         book.IsActive,
		})
	}

	return lines, nil
}
