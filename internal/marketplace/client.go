// Package marketplace holds the typed API calls behind every CLI command.
// All calls go through the gateway, so they share its credential handling.
package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
)

// API is the slice of the gateway the marketplace calls use.
type API interface {
	Do(ctx context.Context, req *gateway.Request) (*gateway.Response, error)
	Get(ctx context.Context, path string) (*gateway.Response, error)
	Delete(ctx context.Context, path string) (*gateway.Response, error)
	PostJSON(ctx context.Context, path string, v any) (*gateway.Response, error)
	PatchJSON(ctx context.Context, path string, v any) (*gateway.Response, error)
}

// Session is the identity side of the client.
type Session interface {
	SetIdentity(ctx context.Context, u *domain.User) error
}

// Ledger is the credit side of the client.
type Ledger interface {
	Refresh(ctx context.Context) error
	Reset()
	Balance() int
	IsRefreshing() bool
}

// Client groups the marketplace calls.
type Client struct {
	api     API
	store   store.Store
	session Session
	ledger  Ledger
	logger  *slog.Logger
}

// NewClient wires the marketplace calls to the shared gateway, store,
// session and ledger.
func NewClient(api API, s store.Store, sess Session, ledger Ledger, log *slog.Logger) *Client {
	return &Client{
		api:     api,
		store:   s,
		session: sess,
		ledger:  ledger,
		logger:  log.With(slog.String("component", "marketplace")),
	}
}

// envelope is the {success, message} frame around every API payload.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e envelope) check(what string) error {
	if e.Success {
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = what + " failed"
	}
	return apperrors.InvalidInput(msg)
}

func decode[T any](resp *gateway.Response, what string) (T, error) {
	var out T
	if err := resp.Decode(&out); err != nil {
		return out, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}

// refreshAfterWrite re-reads the balance after a call the server charges
// credits for. Failure only costs a stale number, so it is logged.
func (c *Client) refreshAfterWrite(ctx context.Context, what string) {
	if err := c.ledger.Refresh(ctx); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "credit refresh after write failed",
			slog.String("operation", what),
			slog.String("error", err.Error()))
	}
}
