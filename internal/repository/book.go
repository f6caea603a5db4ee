package repository

import (
	"context"

	"gorm.io/gorm"

	"bookshop-commerce/internal/model"
)

type BookRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.Book, error)
}

type bookRepoImpl struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepoImpl{
		db: db,
	}
}

func (r *bookRepoImpl) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookRepoImpl) FindMany(ctx context.Context, ids []uint) ([]*model.Book, error) {
	var books []*model.Book
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error
	if err != nil {
		return nil, err
	}

	return books, nil
}
