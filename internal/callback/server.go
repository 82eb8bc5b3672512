// Package callback runs the local listener the hosted checkout posts back to
// once a credit purchase is paid.
package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/health"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/middleware"
)

// Config holds the listener settings.
type Config struct {
	Port int
	// AllowedOrigins may call the listener from a browser.
	AllowedOrigins []string
	// DedupeTTL is how long a completed order is remembered.
	DedupeTTL time.Duration
	// ExitAfterPurchase stops Run after the first completed purchase.
	ExitAfterPurchase bool
}

// Server is the callback HTTP server.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	purchases  chan domain.PurchaseResult
}

// NewServer wires the callback routes onto an HTTP server.
func NewServer(cfg Config, purchaser Purchaser, ledger Ledger, healthHandler *health.Handler, userID middleware.UserIDFunc, log *slog.Logger) *Server {
	log = log.With(slog.String("component", component))
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = time.Hour
	}
	payments := NewPaymentHandler(purchaser, ledger, cfg.DedupeTTL, log)
	purchases := make(chan domain.PurchaseResult, 1)
	payments.done = purchases

	return &Server{
		cfg:       cfg,
		logger:    log,
		purchases: purchases,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(payments, healthHandler, cfg.AllowedOrigins, userID, log),
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured port and blocks until ctx is canceled, or
// until the first purchase completes when ExitAfterPurchase is set.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting callback server", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var purchases <-chan domain.PurchaseResult
	if s.cfg.ExitAfterPurchase {
		purchases = s.purchases
	}

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case res := <-purchases:
		s.logger.Info("purchase received, stopping", slog.Int("balance", res.Balance))
	case err := <-errCh:
		return err
	}
	return s.Shutdown()
}

// Shutdown drains in-flight requests within five seconds.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("callback server shutdown error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
