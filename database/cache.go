package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog/log"
)

const (
	publishedPostsKey    = "blog:published"
	listingGenerationKey = "blog:published:gen"
)

var errStaleListing = errors.New("blog listing generation moved")

// CachedBlogPostRepo serves the published listing from redis and drops the entry after any write.
// Redis failures degrade to the wrapped repository.
type CachedBlogPostRepo struct {
	BlogPostRepository
	cli *redis.Client
	ttl time.Duration
}

func NewCachedBlogPostRepo(inner BlogPostRepository, cli *redis.Client, ttl time.Duration) *CachedBlogPostRepo {
	return &CachedBlogPostRepo{BlogPostRepository: inner, cli: cli, ttl: ttl}
}

func (r *CachedBlogPostRepo) FindPublished(ctx context.Context) ([]models.BlogPost, error) {
	raw, err := r.cli.Get(ctx, publishedPostsKey).Bytes()
	if err == nil {
		var posts []models.BlogPost
		decodeErr := json.Unmarshal(raw, &posts)
		if decodeErr == nil {
			return posts, nil
		}
		log.Warn().Err(decodeErr).Msg("discarding unreadable cached blog listing")
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Msg("blog listing cache unavailable")
	}

	// read before the query so a write that lands during it is detected
	gen, genErr := r.generation(ctx)

	posts, err := r.BlogPostRepository.FindPublished(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		r.store(ctx, gen, posts)
	}
	return posts, nil
}

func (r *CachedBlogPostRepo) generation(ctx context.Context) (int64, error) {
	gen, err := r.cli.Get(ctx, listingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// store caches posts only while the generation still equals gen.
func (r *CachedBlogPostRepo) store(ctx context.Context, gen int64, posts []models.BlogPost) {
	raw, err := json.Marshal(posts)
	if err != nil {
		return
	}

	err = r.cli.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, listingGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleListing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, publishedPostsKey, raw, r.ttl)
			return nil
		})
		return err
	}, listingGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleListing), errors.Is(err, redis.TxFailedErr):
		log.Debug().Int64("generation", gen).Msg("blog listing changed while loading, not caching")
	default:
		log.Warn().Err(err).Msg("error caching blog listing")
	}
}

func (r *CachedBlogPostRepo) Create(ctx context.Context, post *models.BlogPost) error {
	if err := r.BlogPostRepository.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedBlogPostRepo) Update(ctx context.Context, id int64, patch models.BlogPostPatch) (*models.BlogPost, error) {
	post, err := r.BlogPostRepository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return post, nil
}

func (r *CachedBlogPostRepo) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := r.BlogPostRepository.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		r.invalidate(ctx)
	}
	return removed, nil
}

func (r *CachedBlogPostRepo) invalidate(ctx context.Context) {
	_, err := r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, listingGenerationKey)
		pipe.Del(ctx, publishedPostsKey)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("key", publishedPostsKey).Msg("error invalidating blog listing cache")
	}
}

type cachedStorage struct {
	Storage
	blogPosts *CachedBlogPostRepo
	cli       *redis.Client
}

// WithListingCache puts a redis read-through cache in front of the published blog listing.
func WithListingCache(s Storage, cli *redis.Client, ttl time.Duration) Storage {
	return &cachedStorage{
		Storage:   s,
		blogPosts: NewCachedBlogPostRepo(s.BlogPosts(), cli, ttl),
		cli:       cli,
	}
}

func (s *cachedStorage) BlogPosts() BlogPostRepository { return s.blogPosts }

func (s *cachedStorage) Close() error {
	return errors.Join(s.cli.Close(), s.Storage.Close())
}
