package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rpupo63/fadarc-site-backend/config"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rs/zerolog/log"
)

// Options select and configure the storage backend.
type Options struct {
	Backend     string
	DatabaseURL string
	ReplicaURL  string
	RedisURL    string
	CacheTTL    time.Duration
	Migrate     bool
	Seed        bool
}

func OptionsFromConfig(cfg map[string]string) Options {
	o := Options{
		Backend:     strings.ToLower(config.GetString(cfg, "STORAGE_BACKEND", "")),
		DatabaseURL: config.GetString(cfg, "DATABASE_URL", ""),
		ReplicaURL:  config.GetString(cfg, "DATABASE_REPLICA_URL", ""),
		RedisURL:    config.GetString(cfg, "REDIS_URL", ""),
		CacheTTL:    config.GetDuration(cfg, "BLOG_CACHE_TTL", 5*time.Minute),
		Migrate:     config.GetBool(cfg, "RUN_MIGRATIONS", true),
	}
	o.Backend = o.resolveBackend()
	o.Seed = config.GetBool(cfg, "SEED_DATA", o.Backend == BackendMemory)
	return o
}

// resolveBackend falls back to postgres when a DATABASE_URL is present.
func (o Options) resolveBackend() string {
	if o.Backend != "" {
		return o.Backend
	}
	if o.DatabaseURL != "" {
		return BackendPostgres
	}
	return BackendMemory
}

// Open builds the storage backend once. Callers never branch on the result's backend.
func Open(ctx context.Context, o Options, opts ...Option) (Storage, error) {
	if o.Seed {
		opts = append(opts, WithSeedData())
	}

	var (
		storage Storage
		err     error
	)

	switch backend := o.resolveBackend(); backend {
	case BackendPostgres:
		db, dbErr := OpenPostgres(o.DatabaseURL, o.ReplicaURL)
		if dbErr != nil {
			return nil, dbErr
		}
		if o.Migrate {
			if err := RunMigrations(db); err != nil {
				return nil, err
			}
		}
		storage, err = NewGorm(db, opts...)
		if err != nil {
			return nil, err
		}
	case BackendMemory:
		storage = NewMemory(opts...)
	default:
		return nil, errs.NewConfigError("STORAGE_BACKEND", fmt.Errorf("unknown backend %q", backend))
	}

	if o.RedisURL == "" {
		return storage, nil
	}

	redisOpts, err := redis.ParseURL(o.RedisURL)
	if err != nil {
		return nil, errs.NewConfigError("REDIS_URL", err)
	}
	cli := redis.NewClient(redisOpts)
	if err := cli.Ping(ctx).Err(); err != nil {
		// the listing cache is optional; serve straight from storage
		log.Warn().Err(err).Msg("redis unreachable, blog listing cache disabled")
		_ = cli.Close()
		return storage, nil
	}

	log.Info().Dur("ttl", o.CacheTTL).Msg("blog listing cache enabled")
	return WithListingCache(storage, cli, o.CacheTTL), nil
}
