package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lashkaryadi/get-me-a-tutor/internal/callback"
	"github.com/lashkaryadi/get-me-a-tutor/internal/config"
	"github.com/lashkaryadi/get-me-a-tutor/internal/credit"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	"github.com/lashkaryadi/get-me-a-tutor/internal/marketplace"
	"github.com/lashkaryadi/get-me-a-tutor/internal/session"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/health"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/httpclient"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/tracing"
)

// Version is stamped at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "0.1.0"

// App wires together the store, the gateway and the state caches shared by
// every command.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          store.Store
	closeStore     func() error
	gateway        *gateway.Gateway
	session        *session.Manager
	ledger         *credit.Ledger
	marketplace    *marketplace.Client
	health         *health.Handler
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, opening the configured store and
// building the API gateway around it.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, err
	}

	// Outbound transport, optionally behind the circuit breaker.
	var doer httpclient.Doer = httpclient.New(cfg.HTTPClient())
	if cfg.BreakerEnabled {
		doer = httpclient.NewCircuitBreakerClient(doer, cfg.Breaker(), logger)
	}

	gw := gateway.New(doer, s, gateway.Config{
		BaseURL:     cfg.APIBaseURL,
		RefreshPath: cfg.RefreshPath,
		LoginPath:   cfg.LoginPath,
	}, logger)

	sess := session.NewManager(gw, s, logger)
	ledger := credit.NewLedger(gw, s, credit.Config{
		MaxAttempts: cfg.CreditMaxAttempts,
		BaseDelay:   cfg.CreditBaseDelay,
		LegacyPath:  cfg.CreditLegacyPath,
	}, logger)
	gw.OnAuthExpired(sess.HandleAuthExpired)
	gw.OnAuthExpired(ledger.HandleAuthExpired)

	healthHandler := health.NewHandler(5 * time.Second)
	healthHandler.Register("store", s.Ping)
	healthHandler.Register("api", func(ctx context.Context) error {
		return dialAPI(ctx, cfg.APIBaseURL)
	})

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          s,
		closeStore:     closeStore,
		gateway:        gw,
		session:        sess,
		ledger:         ledger,
		marketplace:    marketplace.NewClient(gw, s, sess, ledger, logger),
		health:         healthHandler,
		tracerShutdown: tracerShutdown,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := store.NewRedisClient(ctx, store.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		rs := store.NewRedisStore(client, cfg.RedisKeyPrefix)
		return rs, rs.Close, nil
	case config.StoreMemory:
		return store.NewMemoryStore(), func() error { return nil }, nil
	default:
		return store.NewFileStore(cfg.StorePath), func() error { return nil }, nil
	}
}

// dialAPI checks the API host accepts TCP connections.
func dialAPI(ctx context.Context, baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse API base URL: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	d := net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("API unreachable: %w", err)
	}
	_ = conn.Close()
	return nil
}

// Init resolves the identity and the credit balance from whatever the store
// holds. Both run concurrently; only the identity outcome is reported.
func (a *App) Init(ctx context.Context) error {
	var sessionErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessionErr = a.session.Init(gctx)
		return nil
	})
	g.Go(func() error {
		return a.ledger.Init(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return sessionErr
}

// Serve runs the payment callback listener until ctx is canceled, or until
// the first purchase completes when exitAfterPurchase is set.
func (a *App) Serve(ctx context.Context, exitAfterPurchase bool) error {
	srv := callback.NewServer(callback.Config{
		Port:              a.cfg.CallbackHTTPPort,
		AllowedOrigins:    a.cfg.CallbackAllowedOrigins,
		DedupeTTL:         a.cfg.CallbackDedupeTTL,
		ExitAfterPurchase: exitAfterPurchase,
	}, a.marketplace, a.ledger, a.health, a.currentUserID, a.logger)
	return srv.Run(ctx)
}

func (a *App) currentUserID(context.Context) string {
	if u := a.session.Identity(); u != nil {
		return u.ID
	}
	return ""
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Store returns the client store.
func (a *App) Store() store.Store { return a.store }

// Session returns the identity cache.
func (a *App) Session() *session.Manager { return a.session }

// Ledger returns the credit balance cache.
func (a *App) Ledger() *credit.Ledger { return a.ledger }

// Marketplace returns the typed API calls.
func (a *App) Marketplace() *marketplace.Client { return a.marketplace }

// Health returns the readiness checks.
func (a *App) Health() *health.Handler { return a.health }

// Close tears down the caches, then releases the store and flushes spans.
func (a *App) Close() error {
	a.session.Teardown()
	a.ledger.Teardown()

	var errs []error
	if err := a.closeStore(); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
