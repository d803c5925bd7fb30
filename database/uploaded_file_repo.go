package database

import (
	"context"
	"errors"
	"time"

	"github.com/rpupo63/fadarc-site-backend/models"
	"gorm.io/gorm"
)

type UploadedFileRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUploadedFileRepo(db *gorm.DB, now func() time.Time) *UploadedFileRepo {
	return &UploadedFileRepo{db: db, now: now}
}

// FindAll returns every uploaded file record, oldest first
func (r *UploadedFileRepo) FindAll(ctx context.Context) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0)
	err := r.db.WithContext(ctx).Order("id").Find(&files).Error
	return files, err
}

func (r *UploadedFileRepo) FindByID(ctx context.Context, id int64) (*models.UploadedFile, error) {
	var file models.UploadedFile
	err := r.db.WithContext(ctx).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("uploaded file", id)
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Create records upload metadata, assigning id and uploadedAt
func (r *UploadedFileRepo) Create(ctx context.Context, file *models.UploadedFile) error {
	file.ID = 0
	file.UploadedAt = timestamp(r.now)
	return r.db.WithContext(ctx).Create(file).Error
}
