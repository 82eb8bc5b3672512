// Package credit caches the signed-in user's credit balance. The balance is
// only ever replaced by a value read from the API.
package credit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/retry"
)

// API is the slice of the gateway the ledger needs.
type API interface {
	Get(ctx context.Context, path string) (*gateway.Response, error)
}

// Config controls the refresh schedule.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// LegacyPath reads the balance from /auth/{id} instead of /auth/me.
	LegacyPath bool
}

// DefaultConfig is three attempts waiting 1s then 2s.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second}
}

// Ledger holds the cached balance.
type Ledger struct {
	api    API
	store  store.Store
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	balance int
	closed  bool

	refreshing atomic.Int32
}

// NewLedger creates a ledger with a zero balance.
func NewLedger(api API, s store.Store, cfg Config, log *slog.Logger) *Ledger {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Ledger{
		api:    api,
		store:  s,
		cfg:    cfg,
		logger: log.With(slog.String("component", "credit")),
	}
}

// Init refreshes the balance when an identity is mirrored. Failures are
// logged and leave the balance at 0.
func (l *Ledger) Init(ctx context.Context) error {
	_, ok, err := l.store.Get(ctx, store.KeyUser)
	if err != nil || !ok {
		l.set(0)
		return nil
	}
	if err := l.Refresh(ctx); err != nil {
		logger.WithContext(ctx, l.logger).WarnContext(ctx, "initial credit fetch failed",
			slog.String("error", err.Error()))
		l.set(0)
	}
	return nil
}

// Refresh re-reads the balance, retrying failed reads with exponential
// backoff. After the last failed attempt the previous balance is kept and
// BalanceReadExhausted is returned.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.refreshing.Add(1)
	defer l.refreshing.Add(-1)

	log := logger.WithContext(ctx, l.logger)
	balance, err := retry.WithBackoff(ctx, l.read, l.cfg.MaxAttempts, l.cfg.BaseDelay,
		func(attempt int, err error, wait time.Duration) {
			log.WarnContext(ctx, "credit refresh attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", l.cfg.MaxAttempts),
				slog.Duration("retry_in", wait),
				slog.String("error", err.Error()),
			)
		})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("refresh credits: %w", err)
		}
		return apperrors.BalanceReadExhausted(l.cfg.MaxAttempts, err)
	}

	l.set(balance)
	return nil
}

// read is one attempt. Without a mirrored user id the balance is 0 and no
// request is made.
func (l *Ledger) read(ctx context.Context) (int, error) {
	u, err := store.LoadIdentity(ctx, l.store)
	if err != nil {
		return 0, err
	}
	if u == nil || u.ID == "" {
		l.logger.DebugContext(ctx, "no signed-in user, balance is 0")
		return 0, nil
	}

	path := "/auth/me"
	if l.cfg.LegacyPath {
		path = "/auth/" + url.PathEscape(u.ID)
	}
	resp, err := l.api.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	return ExtractBalance(resp.Body)
}

// Balance is the last balance read from the API.
func (l *Ledger) Balance() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// IsRefreshing reports whether a refresh is in flight. Purchase flows check
// it to avoid starting a second payment.
func (l *Ledger) IsRefreshing() bool {
	return l.refreshing.Load() > 0
}

// Reset drops the balance to 0.
func (l *Ledger) Reset() {
	l.set(0)
}

// HandleAuthExpired resets the balance once the session is gone. It matches
// gateway.AuthExpiredFunc.
func (l *Ledger) HandleAuthExpired(context.Context, string) {
	l.Reset()
}

// Teardown stops the ledger from accepting late results.
func (l *Ledger) Teardown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *Ledger) set(balance int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.balance = balance
}
