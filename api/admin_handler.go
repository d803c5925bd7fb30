package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rpupo63/fadarc-site-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultLoginRatePerMinute = 10
	limiterIdleTTL            = 10 * time.Minute
	limiterSweepSize          = 1024
)

// loginLimiter throttles login attempts per client IP
type loginLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*ipLimiter
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = DefaultLoginRatePerMinute
	}
	return &loginLimiter{
		perMin:   perMinute,
		limiters: make(map[string]*ipLimiter),
		now:      time.Now,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.limiters) >= limiterSweepSize {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(l.limiters, key)
			}
		}
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *loginLimiter) retryAfter() time.Duration {
	return time.Minute / time.Duration(l.perMin)
}

type adminHandler struct {
	responder Responder
	logger    zerolog.Logger
	gate      *services.AdminGate
	limiter   *loginLimiter
}

func newAdminHandler(gate *services.AdminGate, loginRatePerMinute int) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder: NewResponder(logger),
		logger:    logger,
		gate:      gate,
		limiter:   newLoginLimiter(loginRatePerMinute),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h adminHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !h.limiter.allow(ip) {
			h.logger.Warn().Str("ip", ip).Msg("login rate limit hit")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(h.limiter.retryAfter().Seconds()))))
			h.responder.WriteError(w, errs.NewTooManyAttemptsError(h.limiter.retryAfter()))
			return
		}

		var req loginRequest
		if err := decodeJSON(r, "login", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		token, err := h.gate.Login(r.Context(), req.Password)
		if err != nil {
			if errs.IsInvalidCredentialsError(err) {
				h.logger.Warn().Str("ip", ip).Msg("admin login rejected")
			}
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("ip", ip).Msg("admin logged in")
		h.responder.WriteJSON(w, LoginResponse{Token: token})
	}
}

// verify runs behind authMiddleware, so reaching it means the token is valid
func (h adminHandler) verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, ok := ctxGetAdmin(r.Context())
		if !ok {
			h.responder.WriteError(w, errs.NewInvalidTokenError())
			return
		}
		h.responder.WriteJSON(w, VerifyResponse{Valid: true, Username: username})
	}
}
