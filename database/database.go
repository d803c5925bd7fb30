package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
)

// Backend names accepted by STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type QuoteRepository interface {
	FindAll(ctx context.Context) ([]models.Quote, error)
	FindByID(ctx context.Context, id int64) (*models.Quote, error)
	Create(ctx context.Context, quote *models.Quote) error
}

type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByCategory(ctx context.Context, category string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

// BlogPostRepository is the blog contract shared by every backend.
// FindPublished filters drafts; FindByID does not.
type BlogPostRepository interface {
	FindPublished(ctx context.Context) ([]models.BlogPost, error)
	FindByID(ctx context.Context, id int64) (*models.BlogPost, error)
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, id int64, patch models.BlogPostPatch) (*models.BlogPost, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type UploadedFileRepository interface {
	FindAll(ctx context.Context) ([]models.UploadedFile, error)
	FindByID(ctx context.Context, id int64) (*models.UploadedFile, error)
	Create(ctx context.Context, file *models.UploadedFile) error
}

// Storage owns every entity. Reads hand out copies; callers never alias stored records.
type Storage interface {
	Users() UserRepository
	Quotes() QuoteRepository
	Products() ProductRepository
	BlogPosts() BlogPostRepository
	UploadedFiles() UploadedFileRepository

	// Backend names the active implementation, for logging only.
	Backend() string
	Close() error
}

type options struct {
	now  func() time.Time
	seed bool
}

// Option configures a storage backend at construction.
type Option func(*options)

// WithClock replaces the wall clock used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSeedData fills an empty store with the sample catalogue and a welcome post.
func WithSeedData() Option {
	return func(o *options) {
		o.seed = true
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timestamp normalises to UTC microseconds, the precision postgres keeps.
func timestamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt keeps updatedAt strictly increasing across updates.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

func notFound(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, errs.ErrNotFound)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
