package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog/log"
)

// MemStorage keeps every entity in process memory. Contents are lost on exit.
type MemStorage struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[int64]models.User
	quotes        map[int64]models.Quote
	products      map[int64]models.Product
	blogPosts     map[int64]models.BlogPost
	uploadedFiles map[int64]models.UploadedFile

	nextUserID    int64
	nextQuoteID   int64
	nextProductID int64
	nextPostID    int64
	lastFileID    int64
}

func NewMemory(opts ...Option) *MemStorage {
	o := buildOptions(opts)
	s := &MemStorage{
		now:           o.now,
		users:         make(map[int64]models.User),
		quotes:        make(map[int64]models.Quote),
		products:      make(map[int64]models.Product),
		blogPosts:     make(map[int64]models.BlogPost),
		uploadedFiles: make(map[int64]models.UploadedFile),
	}

	if o.seed {
		if err := seed(context.Background(), s); err != nil {
			log.Error().Err(err).Msg("error seeding memory storage")
		}
	}
	return s
}

func (s *MemStorage) Users() UserRepository                 { return memUsers{s} }
func (s *MemStorage) Quotes() QuoteRepository               { return memQuotes{s} }
func (s *MemStorage) Products() ProductRepository           { return memProducts{s} }
func (s *MemStorage) BlogPosts() BlogPostRepository         { return memBlogPosts{s} }
func (s *MemStorage) UploadedFiles() UploadedFileRepository { return memUploadedFiles{s} }
func (s *MemStorage) Backend() string                       { return BackendMemory }
func (s *MemStorage) Close() error                          { return nil }

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type memUsers struct{ s *MemStorage }

func (r memUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &user, nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, id := range sortedKeys(r.s.users) {
		if user := r.s.users[id]; user.Username == username {
			return &user, nil
		}
	}
	return nil, notFound("user", username)
}

func (r memUsers) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return errs.NewAlreadyExists("user " + user.Username)
		}
	}

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	r.s.users[user.ID] = *user
	return nil
}

type memQuotes struct{ s *MemStorage }

func (r memQuotes) FindAll(_ context.Context) ([]models.Quote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	quotes := make([]models.Quote, 0, len(r.s.quotes))
	for _, id := range sortedKeys(r.s.quotes) {
		quotes = append(quotes, r.s.quotes[id])
	}
	return quotes, nil
}

func (r memQuotes) FindByID(_ context.Context, id int64) (*models.Quote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	quote, ok := r.s.quotes[id]
	if !ok {
		return nil, notFound("quote", id)
	}
	return &quote, nil
}

func (r memQuotes) Create(_ context.Context, quote *models.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextQuoteID++
	quote.ID = r.s.nextQuoteID
	quote.CreatedAt = timestamp(r.s.now)
	r.s.quotes[quote.ID] = *quote
	return nil
}

type memProducts struct{ s *MemStorage }

func copyProduct(p models.Product) models.Product {
	p.ImageURL = cloneString(p.ImageURL)
	return p
}

func (r memProducts) FindAll(_ context.Context) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]models.Product, 0, len(r.s.products))
	for _, id := range sortedKeys(r.s.products) {
		products = append(products, copyProduct(r.s.products[id]))
	}
	return products, nil
}

func (r memProducts) FindByID(_ context.Context, id int64) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	product = copyProduct(product)
	return &product, nil
}

func (r memProducts) FindByCategory(_ context.Context, category string) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]models.Product, 0)
	for _, id := range sortedKeys(r.s.products) {
		if p := r.s.products[id]; p.Category == category {
			products = append(products, copyProduct(p))
		}
	}
	return products, nil
}

func (r memProducts) Create(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextProductID++
	product.ID = r.s.nextProductID
	r.s.products[product.ID] = copyProduct(*product)
	return nil
}

type memBlogPosts struct{ s *MemStorage }

func copyPost(p models.BlogPost) models.BlogPost {
	p.ImageURL = cloneString(p.ImageURL)
	return p
}

func (r memBlogPosts) FindPublished(_ context.Context) ([]models.BlogPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]models.BlogPost, 0, len(r.s.blogPosts))
	for _, id := range sortedKeys(r.s.blogPosts) {
		if p := r.s.blogPosts[id]; p.Published {
			posts = append(posts, copyPost(p))
		}
	}
	return posts, nil
}

func (r memBlogPosts) FindByID(_ context.Context, id int64) (*models.BlogPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	post, ok := r.s.blogPosts[id]
	if !ok {
		return nil, notFound("blog post", id)
	}
	post = copyPost(post)
	return &post, nil
}

func (r memBlogPosts) Create(_ context.Context, post *models.BlogPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := timestamp(r.s.now)
	r.s.nextPostID++
	post.ID = r.s.nextPostID
	post.CreatedAt = now
	post.UpdatedAt = now
	r.s.blogPosts[post.ID] = copyPost(*post)
	return nil
}

func (r memBlogPosts) Update(_ context.Context, id int64, patch models.BlogPostPatch) (*models.BlogPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	post, ok := r.s.blogPosts[id]
	if !ok {
		return nil, notFound("blog post", id)
	}

	patch.Apply(&post)
	post.ImageURL = cloneString(post.ImageURL)
	post.UpdatedAt = nextUpdatedAt(timestamp(r.s.now), post.UpdatedAt)
	r.s.blogPosts[id] = post

	out := copyPost(post)
	return &out, nil
}

func (r memBlogPosts) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.blogPosts[id]; !ok {
		return false, nil
	}
	delete(r.s.blogPosts, id)
	return true, nil
}

type memUploadedFiles struct{ s *MemStorage }

func copyFile(f models.UploadedFile) models.UploadedFile {
	f.CloudURL = cloneString(f.CloudURL)
	return f
}

func (r memUploadedFiles) FindAll(_ context.Context) ([]models.UploadedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	files := make([]models.UploadedFile, 0, len(r.s.uploadedFiles))
	for _, id := range sortedKeys(r.s.uploadedFiles) {
		files = append(files, copyFile(r.s.uploadedFiles[id]))
	}
	return files, nil
}

func (r memUploadedFiles) FindByID(_ context.Context, id int64) (*models.UploadedFile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	file, ok := r.s.uploadedFiles[id]
	if !ok {
		return nil, notFound("uploaded file", id)
	}
	file = copyFile(file)
	return &file, nil
}

// Create derives the id from the upload time in milliseconds, bumping past the last id on collision.
func (r memUploadedFiles) Create(_ context.Context, file *models.UploadedFile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := timestamp(r.s.now)
	id := now.UnixMilli()
	if id <= r.s.lastFileID {
		id = r.s.lastFileID + 1
	}
	r.s.lastFileID = id

	file.ID = id
	file.UploadedAt = now
	r.s.uploadedFiles[id] = copyFile(*file)
	return nil
}
