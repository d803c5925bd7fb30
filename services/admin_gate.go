package services

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminUsername        = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminTokenTTL = 24 * time.Hour
)

// AdminGate checks the admin password against its stored bcrypt hash and issues
// HS256 tokens that expire after ttl.
type AdminGate struct {
	users  database.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAdminGate builds a gate signing with secret. An empty secret is replaced by a
// random one, so tokens stop verifying after a restart.
func NewAdminGate(users database.UserRepository, secret string, ttl time.Duration) *AdminGate {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(err)
		}
		log.Warn().Msg("ADMIN_TOKEN_SECRET not set, admin sessions will not survive a restart")
	}
	if ttl <= 0 {
		ttl = DefaultAdminTokenTTL
	}
	return &AdminGate{users: users, secret: key, ttl: ttl, now: time.Now}
}

// EnsureAdmin creates the admin user with a hash of password unless it already exists.
// An existing hash is left untouched.
func (g *AdminGate) EnsureAdmin(ctx context.Context, password string) error {
	_, err := g.users.FindByUsername(ctx, AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return errs.NewDatabaseError("find", "admin user", err)
	}

	if password == "" {
		password = DefaultAdminPassword
		log.Warn().Msg("ADMIN_PASSWORD not set, using the default admin password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errs.NewInternalErrorWithCause("error hashing admin password", err)
	}

	if err := g.users.Create(ctx, &models.User{Username: AdminUsername, Password: string(hash)}); err != nil {
		return errs.NewDatabaseError("create", "admin user", err)
	}
	log.Info().Str("username", AdminUsername).Msg("admin user created")
	return nil
}

// Login returns a signed session token when password matches the admin hash.
func (g *AdminGate) Login(ctx context.Context, password string) (string, error) {
	user, err := g.users.FindByUsername(ctx, AdminUsername)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.NewInvalidCredentialsError()
		}
		return "", errs.NewDatabaseError("find", "admin user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", errs.NewInvalidCredentialsError()
	}

	now := g.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   AdminUsername,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", errs.NewInternalErrorWithCause("error signing admin token", err)
	}
	return token, nil
}

// Verify checks signature, expiry and subject of an admin token.
func (g *AdminGate) Verify(token string) error {
	if token == "" {
		return errs.NewMissingTokenError()
	}

	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(AdminUsername),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return errs.NewExpiredTokenError()
	default:
		return errs.NewInvalidTokenError()
	}
}
