package database

import (
	"context"
	"errors"
	"time"

	"github.com/rpupo63/fadarc-site-backend/models"
	"gorm.io/gorm"
)

type QuoteRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQuoteRepo(db *gorm.DB, now func() time.Time) *QuoteRepo {
	return &QuoteRepo{db: db, now: now}
}

func (r *QuoteRepo) FindAll(ctx context.Context) ([]models.Quote, error) {
	quotes := make([]models.Quote, 0)
	err := r.db.WithContext(ctx).Order("id").Find(&quotes).Error
	return quotes, err
}

func (r *QuoteRepo) FindByID(ctx context.Context, id int64) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).First(&quote, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("quote", id)
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepo) Create(ctx context.Context, quote *models.Quote) error {
	quote.ID = 0
	quote.CreatedAt = timestamp(r.now)
	return r.db.WithContext(ctx).Create(quote).Error
}
