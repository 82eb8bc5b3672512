// Package gateway is the single outbound path to the marketplace API. It
// attaches the bearer credential and recovers from one expired access token
// per request by refreshing it.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/httpclient"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
)

const tracerName = "github.com/lashkaryadi/get-me-a-tutor/internal/gateway"

// Config holds the gateway settings.
type Config struct {
	BaseURL     string
	RefreshPath string
	// LoginPath is handed to auth-expired subscribers as the redirect target.
	LoginPath string
}

// AuthExpiredFunc is notified after the session was dropped because the
// credential could not be refreshed.
type AuthExpiredFunc func(ctx context.Context, loginPath string)

// Gateway sends API requests on behalf of the signed-in user.
type Gateway struct {
	doer   httpclient.Doer
	store  store.Store
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer

	mu        sync.RWMutex
	onExpired []AuthExpiredFunc
}

// New creates a gateway sending through doer and reading the credential from s.
func New(doer httpclient.Doer, s store.Store, cfg Config, log *slog.Logger) *Gateway {
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/auth/refresh"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = domain.RouteLogin
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{
		doer:   doer,
		store:  s,
		cfg:    cfg,
		logger: log.With(slog.String("component", "gateway")),
		tracer: otel.Tracer(tracerName),
	}
}

// OnAuthExpired registers fn to be called whenever the session is dropped.
func (g *Gateway) OnAuthExpired(fn AuthExpiredFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onExpired = append(g.onExpired, fn)
}

// Do sends req. A 401 on a request not yet retried triggers one credential
// refresh and one resend; every other failure is returned as is.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := g.send(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if httpclient.IsSuccess(resp.Status) {
		return resp, nil
	}

	statusErr := httpclient.StatusError(resp.Status, resp.Body)
	if resp.Status == http.StatusUnauthorized && !req.attempted {
		return g.recoverUnauthorized(ctx, req, statusErr)
	}
	return nil, statusErr
}

// Get sends a GET for path.
func (g *Gateway) Get(ctx context.Context, path string) (*Response, error) {
	return g.Do(ctx, NewRequest(http.MethodGet, path))
}

// Delete sends a DELETE for path.
func (g *Gateway) Delete(ctx context.Context, path string) (*Response, error) {
	return g.Do(ctx, NewRequest(http.MethodDelete, path))
}

// PostJSON sends v as a JSON POST body.
func (g *Gateway) PostJSON(ctx context.Context, path string, v any) (*Response, error) {
	return g.sendJSON(ctx, http.MethodPost, path, v)
}

// PutJSON sends v as a JSON PUT body.
func (g *Gateway) PutJSON(ctx context.Context, path string, v any) (*Response, error) {
	return g.sendJSON(ctx, http.MethodPut, path, v)
}

// PatchJSON sends v as a JSON PATCH body.
func (g *Gateway) PatchJSON(ctx context.Context, path string, v any) (*Response, error) {
	return g.sendJSON(ctx, http.MethodPatch, path, v)
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, v any) (*Response, error) {
	req, err := NewJSONRequest(method, path, v)
	if err != nil {
		return nil, err
	}
	return g.Do(ctx, req)
}

func (g *Gateway) recoverUnauthorized(ctx context.Context, req *Request, original error) (*Response, error) {
	log := logger.WithContext(ctx, g.logger)

	refreshToken, _, err := g.store.Get(ctx, store.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		log.InfoContext(ctx, "access token rejected and no refresh token stored",
			slog.String("path", req.Path))
		g.expire(ctx)
		return nil, apperrors.AuthExpired(original)
	}

	accessToken, err := g.refresh(ctx, refreshToken)
	if err != nil && refreshInterrupted(ctx, err) {
		tokenRefreshTotal.WithLabelValues("interrupted").Inc()
		log.WarnContext(ctx, "credential refresh interrupted, session kept",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("refresh credential: %w", err)
	}
	if err != nil {
		tokenRefreshTotal.WithLabelValues("failure").Inc()
		log.WarnContext(ctx, "credential refresh failed",
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		g.expire(ctx)
		return nil, apperrors.AuthExpired(err)
	}
	tokenRefreshTotal.WithLabelValues("success").Inc()

	if err := store.SaveAccessToken(ctx, g.store, accessToken); err != nil {
		return nil, fmt.Errorf("persist refreshed access token: %w", err)
	}
	log.DebugContext(ctx, "credential refreshed, resending", slog.String("path", req.Path))

	return g.Do(ctx, req.retry())
}

// refreshInterrupted reports whether the refresh never got an answer from
// the API: the caller gave up or the breaker refused to send it. Neither
// says anything about the refresh token, so the session is kept.
func refreshInterrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, httpclient.ErrCircuitOpen)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// refresh exchanges the refresh token for a new access token. It is sent
// without a bearer header and its own 401 is never recovered.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := NewJSONRequest(http.MethodPost, g.cfg.RefreshPath, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}
	resp, err := g.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	if !httpclient.IsSuccess(resp.Status) {
		return "", httpclient.StatusError(resp.Status, resp.Body)
	}

	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("refresh response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}
	return out.AccessToken, nil
}

// expire drops the session and tells every subscriber.
func (g *Gateway) expire(ctx context.Context) {
	authExpiredTotal.Inc()
	if err := store.ClearSession(ctx, g.store); err != nil {
		g.logger.ErrorContext(ctx, "failed to clear session", slog.String("error", err.Error()))
	}

	g.mu.RLock()
	subscribers := make([]AuthExpiredFunc, len(g.onExpired))
	copy(subscribers, g.onExpired)
	g.mu.RUnlock()

	for _, fn := range subscribers {
		fn(ctx, g.cfg.LoginPath)
	}
}

// send performs exactly one round trip and reads the whole body.
func (g *Gateway) send(ctx context.Context, req *Request, withBearer bool) (*Response, error) {
	ctx, span := g.tracer.Start(ctx, req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.Bool("tutor.retry", req.attempted),
		),
	)
	defer span.End()

	target := g.cfg.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	httpReq.Header.Set("X-Correlation-ID", correlationID)

	if withBearer {
		token, _, err := g.store.Get(ctx, store.KeyAccessToken)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := g.doer.Do(ctx, httpReq)
	apiRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestsTotal.WithLabelValues(req.Method, statusClass(0)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response %s %s: %w", req.Method, req.Path, err)
	}

	apiRequestsTotal.WithLabelValues(req.Method, statusClass(httpResp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(httpResp.StatusCode))
	}

	g.logger.DebugContext(ctx, "api call",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", httpResp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("correlation_id", correlationID),
	)

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: raw}, nil
}
