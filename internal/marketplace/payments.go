package marketplace

import (
	"context"
	"log/slog"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

// Payment endpoints sit outside the /api prefix on the original backend,
// hence the doubled segment once joined to the base URL.
const (
	createOrderPath   = "/api/payments/create-order"
	verifyPaymentPath = "/api/payments/verify-payment"
)

type createOrderRequest struct {
	Amount  int         `json:"amount"`
	Credits int         `json:"credits"`
	Role    domain.Role `json:"role"`
}

type orderResponse struct {
	envelope
	Order *domain.Order `json:"order"`
}

// CreateOrder opens a payment-gateway order for plan on behalf of the
// mirrored user.
func (c *Client) CreateOrder(ctx context.Context, plan domain.Plan) (*domain.Order, error) {
	if c.ledger.IsRefreshing() {
		return nil, apperrors.Conflict("credit balance is refreshing, try again in a moment")
	}
	u, err := store.LoadIdentity(ctx, c.store)
	if err != nil || u == nil || u.Role == "" {
		return nil, apperrors.Unauthorized("sign in before buying credits")
	}

	resp, err := c.api.PostJSON(ctx, createOrderPath, createOrderRequest{Amount: plan.Price, Credits: plan.Credits, Role: u.Role})
	if err != nil {
		return nil, err
	}
	out, err := decode[orderResponse](resp, "create order")
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Order == nil {
		return nil, apperrors.PaymentFailed(orDefault(out.Message, "Failed to create order"))
	}
	return out.Order, nil
}

// VerifyPayment confirms a completed checkout with the server.
func (c *Client) VerifyPayment(ctx context.Context, p domain.PaymentConfirmation) error {
	if err := validator.Validate(p); err != nil {
		return err
	}
	resp, err := c.api.PostJSON(ctx, verifyPaymentPath, p)
	if err != nil {
		return err
	}
	out, err := decode[envelope](resp, "verify payment")
	if err != nil {
		return err
	}
	if !out.Success {
		return apperrors.PaymentFailed(orDefault(out.Message, "Payment verification failed"))
	}
	return nil
}

// CompletePurchase verifies the payment and re-reads the balance. Once the
// payment is verified a failed balance read is only reported as a warning.
func (c *Client) CompletePurchase(ctx context.Context, p domain.PaymentConfirmation) (*domain.PurchaseResult, error) {
	if err := c.VerifyPayment(ctx, p); err != nil {
		return nil, err
	}

	var role domain.Role
	if u, err := store.LoadIdentity(ctx, c.store); err == nil && u != nil {
		role = u.Role
	}
	result := &domain.PurchaseResult{Redirect: domain.PostPurchaseRoute(role)}

	if err := c.ledger.Refresh(ctx); err != nil {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "credit refresh failed after verified payment",
			slog.String("order_id", p.OrderID),
			slog.String("error", err.Error()))
		result.Warning = "Payment succeeded but the new balance could not be loaded yet"
	}
	result.Balance = c.ledger.Balance()
	return result, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
