package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/httputil"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

// maxCallbackBody caps the checkout payload.
const maxCallbackBody = 1 << 20

// Purchaser completes a checkout and reports the credit balance.
type Purchaser interface {
	CompletePurchase(ctx context.Context, p domain.PaymentConfirmation) (*domain.PurchaseResult, error)
}

// Ledger reports the cached credit balance.
type Ledger interface {
	Balance() int
	IsRefreshing() bool
}

// PaymentHandler serves the hosted checkout's completion callback.
type PaymentHandler struct {
	purchaser Purchaser
	ledger    Ledger
	completed *completedOrders
	inflight  singleflight.Group
	logger    *slog.Logger

	// done, when set, receives every completed purchase.
	done chan<- domain.PurchaseResult
}

// NewPaymentHandler creates the callback handler. Repeated callbacks for an
// order completed within dedupeTTL are answered from memory.
func NewPaymentHandler(purchaser Purchaser, ledger Ledger, dedupeTTL time.Duration, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		purchaser: purchaser,
		ledger:    ledger,
		completed: newCompletedOrders(dedupeTTL),
		logger:    log,
	}
}

// creditsResponse is the body of GET /credits.
type creditsResponse struct {
	Balance    int  `json:"balance"`
	Refreshing bool `json:"refreshing"`
}

// Callback handles POST /payments/callback. The checkout posts a form; JSON
// is accepted for scripted use.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBody)

	conf, err := decodeConfirmation(r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	ctx := r.Context()
	v, err, _ := h.inflight.Do(conf.OrderID, func() (any, error) {
		return h.complete(context.WithoutCancel(ctx), conf)
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v.(domain.PurchaseResult))
}

// complete runs at most once at a time per order. An order completed within
// the TTL is answered from memory with the current balance.
func (h *PaymentHandler) complete(ctx context.Context, conf domain.PaymentConfirmation) (domain.PurchaseResult, error) {
	log := logger.FromContext(ctx)
	if prev, ok := h.completed.Get(conf.OrderID); ok {
		log.InfoContext(ctx, "duplicate payment callback", slog.String("order_id", conf.OrderID))
		prev.Balance = h.ledger.Balance()
		return prev, nil
	}

	result, err := h.purchaser.CompletePurchase(ctx, conf)
	if err != nil {
		return domain.PurchaseResult{}, err
	}
	h.completed.Add(conf.OrderID, *result)

	log.InfoContext(ctx, "purchase completed",
		slog.String("order_id", conf.OrderID),
		slog.Int("balance", result.Balance),
		slog.String("redirect", result.Redirect),
	)
	if h.done != nil {
		select {
		case h.done <- *result:
		default:
		}
	}
	return *result, nil
}

// Credits handles GET /credits.
func (h *PaymentHandler) Credits(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, creditsResponse{
		Balance:    h.ledger.Balance(),
		Refreshing: h.ledger.IsRefreshing(),
	})
}

func decodeConfirmation(r *http.Request) (domain.PaymentConfirmation, error) {
	var conf domain.PaymentConfirmation
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxCallbackBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return conf, fmt.Errorf("parse form: %w", err)
		}
		conf = domain.PaymentConfirmation{
			OrderID:   r.PostFormValue("razorpay_order_id"),
			PaymentID: r.PostFormValue("razorpay_payment_id"),
			Signature: r.PostFormValue("razorpay_signature"),
		}
		return conf, validator.Validate(conf)
	default:
		err := validator.DecodeAndValidate(r, &conf)
		return conf, err
	}
}
