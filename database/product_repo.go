package database

import (
	"context"
	"errors"

	"github.com/rpupo63/fadarc-site-backend/models"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db}
}

func (r *ProductRepo) FindAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (r *ProductRepo) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepo) FindByCategory(ctx context.Context, category string) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("id").Find(&products).Error
	return products, err
}

func (r *ProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.ID = 0
	return r.db.WithContext(ctx).Create(product).Error
}
