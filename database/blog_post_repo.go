package database

import (
	"context"
	"errors"
	"time"

	"github.com/rpupo63/fadarc-site-backend/models"
	"gorm.io/gorm"
)

type BlogPostRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBlogPostRepo(db *gorm.DB, now func() time.Time) *BlogPostRepo {
	return &BlogPostRepo{db: db, now: now}
}

// FindPublished returns published posts ordered by id
func (r *BlogPostRepo) FindPublished(ctx context.Context) ([]models.BlogPost, error) {
	blogPosts := make([]models.BlogPost, 0)
	err := r.db.WithContext(ctx).Where("published = ?", true).Order("id").Find(&blogPosts).Error
	return blogPosts, err
}

// FindByID returns a blog post by its ID, drafts included
func (r *BlogPostRepo) FindByID(ctx context.Context, id int64) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).First(&blogPost, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("blog post", id)
	}
	if err != nil {
		return nil, err
	}
	return &blogPost, nil
}

// Create inserts a new blog post, assigning its id and timestamps
func (r *BlogPostRepo) Create(ctx context.Context, blogPost *models.BlogPost) error {
	now := timestamp(r.now)
	blogPost.ID = 0
	blogPost.CreatedAt = now
	blogPost.UpdatedAt = now
	return r.db.WithContext(ctx).Create(blogPost).Error
}

// Update merges patch onto the stored post inside one transaction
func (r *BlogPostRepo) Update(ctx context.Context, id int64, patch models.BlogPostPatch) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&blogPost, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("blog post", id)
			}
			return err
		}

		patch.Apply(&blogPost)
		blogPost.UpdatedAt = nextUpdatedAt(timestamp(r.now), blogPost.UpdatedAt)
		return tx.Save(&blogPost).Error
	})
	if err != nil {
		return nil, err
	}
	return &blogPost, nil
}

// Delete removes a blog post by id and reports whether a row was removed
func (r *BlogPostRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
