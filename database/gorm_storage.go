package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rpupo63/fadarc-site-backend/errs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

type gormStorage struct {
	db            *gorm.DB
	backend       string
	users         *UserRepo
	quotes        *QuoteRepo
	products      *ProductRepo
	blogPosts     *BlogPostRepo
	uploadedFiles *UploadedFileRepo
}

// NewGorm wraps an open gorm connection. The schema must already exist.
func NewGorm(db *gorm.DB, opts ...Option) (Storage, error) {
	o := buildOptions(opts)
	s := &gormStorage{
		db:            db,
		backend:       db.Dialector.Name(),
		users:         NewUserRepo(db),
		quotes:        NewQuoteRepo(db, o.now),
		products:      NewProductRepo(db),
		blogPosts:     NewBlogPostRepo(db, o.now),
		uploadedFiles: NewUploadedFileRepo(db, o.now),
	}

	if o.seed {
		if err := seed(context.Background(), s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenPostgres connects to dsn, attaches an optional read replica and checks the connection.
func OpenPostgres(dsn, replicaDSN string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errs.NewConfigMissingError("postgres storage", "DATABASE_URL")
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, errs.NewDatabaseError("connect", "postgres", fmt.Errorf("%w: %w", errs.ErrDatabaseConnection, err))
	}

	if replicaDSN != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  replicaDSN,
				PreferSimpleProtocol: true,
			})},
			Policy: dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("error registering read replica: %w", err)
		}
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, errs.NewDatabaseError("ping", "postgres", fmt.Errorf("%w: %w", errs.ErrDatabaseConnection, err))
	}

	return db, nil
}

// DB exposes the gorm handle for migrations and code generation.
func (s *gormStorage) DB() *gorm.DB { return s.db }

func (s *gormStorage) Users() UserRepository                 { return s.users }
func (s *gormStorage) Quotes() QuoteRepository               { return s.quotes }
func (s *gormStorage) Products() ProductRepository           { return s.products }
func (s *gormStorage) BlogPosts() BlogPostRepository         { return s.blogPosts }
func (s *gormStorage) UploadedFiles() UploadedFileRepository { return s.uploadedFiles }
func (s *gormStorage) Backend() string                       { return s.backend }

func (s *gormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
