// Package session owns the identity of the signed-in user. It reads through
// to GET /auth/me, mirrors the result into the client store and publishes it
// to subscribers. Any failure leaves no identity behind.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/gateway"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

// MePath is the canonical identity endpoint.
const MePath = "/auth/me"

// API is the slice of the gateway the manager needs.
type API interface {
	Get(ctx context.Context, path string) (*gateway.Response, error)
}

// Listener receives every published identity; nil means signed out.
type Listener func(u *domain.User)

// Manager holds the current identity. Overlapping fetches are not merged:
// whichever finishes last is published.
type Manager struct {
	api    API
	store  store.Store
	logger *slog.Logger

	mu        sync.RWMutex
	identity  *domain.User
	loading   int
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// NewManager creates a manager with no identity.
func NewManager(api API, s store.Store, log *slog.Logger) *Manager {
	return &Manager{
		api:       api,
		store:     s,
		logger:    log.With(slog.String("component", "session")),
		listeners: make(map[int]Listener),
	}
}

// Init fetches the identity when a credential is stored and otherwise
// publishes no identity without touching the network.
func (m *Manager) Init(ctx context.Context) error {
	has, err := store.HasSessionToken(ctx, m.store)
	if err != nil {
		m.publish(ctx, nil)
		return fmt.Errorf("read session token: %w", err)
	}
	if !has {
		m.publish(ctx, nil)
		return nil
	}
	return m.FetchIdentity(ctx)
}

type meResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// FetchIdentity reads the identity from the API and publishes it. On any
// failure the identity and its mirror are dropped; the returned error only
// reports what went wrong.
func (m *Manager) FetchIdentity(ctx context.Context) error {
	m.setLoading(1)
	defer m.setLoading(-1)

	u, err := m.fetch(ctx)
	if err != nil {
		logger.WithContext(ctx, m.logger).WarnContext(ctx, "identity fetch failed",
			slog.String("error", err.Error()))
		m.publish(ctx, nil)
		return apperrors.IdentityFetchFailed(err)
	}
	m.publish(ctx, u)
	return nil
}

func (m *Manager) fetch(ctx context.Context) (*domain.User, error) {
	resp, err := m.api.Get(ctx, MePath)
	if err != nil {
		return nil, err
	}
	var body meResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success || body.User == nil {
		return nil, errors.New("malformed identity payload")
	}
	if err := validator.Validate(body.User); err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}
	return body.User, nil
}

// SetIdentity publishes u without a round trip, e.g. right after login.
// A nil u signs out.
func (m *Manager) SetIdentity(ctx context.Context, u *domain.User) error {
	if u != nil {
		if err := validator.Validate(u); err != nil {
			return fmt.Errorf("set identity: %w", err)
		}
	}
	return m.publish(ctx, u)
}

// HandleAuthExpired drops the identity once the gateway gave up on the
// credential. It matches gateway.AuthExpiredFunc.
func (m *Manager) HandleAuthExpired(ctx context.Context, loginPath string) {
	m.logger.InfoContext(ctx, "session expired", slog.String("redirect", loginPath))
	m.publish(ctx, nil)
}

// Identity returns a copy of the current identity, or nil.
func (m *Manager) Identity() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	u := *m.identity
	return &u
}

// Loading reports whether a fetch is in flight.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

// Subscribe registers fn for every later publish and returns a function
// that removes it.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Teardown drops all listeners. Results arriving afterwards are discarded.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[int]Listener)
}

func (m *Manager) setLoading(delta int) {
	m.mu.Lock()
	m.loading += delta
	m.mu.Unlock()
}

// publish stores u as the current identity, mirrors it and notifies listeners.
func (m *Manager) publish(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.identity = u
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	var err error
	if u != nil {
		err = store.SaveIdentity(ctx, m.store, *u)
	} else {
		err = store.RemoveIdentity(ctx, m.store)
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to mirror identity", slog.String("error", err.Error()))
		err = fmt.Errorf("mirror identity: %w", err)
	}

	for _, fn := range listeners {
		if u == nil {
			fn(nil)
			continue
		}
		c := *u
		fn(&c)
	}
	return err
}
