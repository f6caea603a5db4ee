package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookshop-commerce/internal/model"
)

type LibraryRepository interface {
	Grant(ctx context.Context, tx *gorm.DB, entry *model.LibraryEntry) error
	ListByUser(ctx context.Context, userID string) ([]*model.LibraryEntry, error)
}

type libraryRepoImpl struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepoImpl{
		db: db,
	}
}

// Grant unlocks a digital copy. Buying the same ebook twice leaves a
// single library row.
func (r *libraryRepoImpl) Grant(ctx context.Context, tx *gorm.DB, entry *model.LibraryEntry) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoNothing: true,
	}).Create(entry).Error
}

func (r *libraryRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.LibraryEntry, error) {
	var entries []*model.LibraryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
