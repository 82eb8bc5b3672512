package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
)

// DeniedError is returned by Authorize with the route the caller should be
// sent to instead.
type DeniedError struct {
	Redirect string
	Err      *apperrors.AppError
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s (redirect to %s)", e.Err.Error(), e.Redirect)
}

func (e *DeniedError) Unwrap() error { return e.Err }

// Authorize checks the mirrored identity against the roles allowed on a
// route. No identity sends the caller to the login page, a role outside
// allowed sends it home.
func Authorize(ctx context.Context, s store.Store, allowed ...domain.Role) (*domain.User, error) {
	u, err := store.LoadIdentity(ctx, s)
	if err != nil || u == nil {
		return nil, &DeniedError{Redirect: domain.RouteLogin, Err: apperrors.Unauthorized("sign in to continue")}
	}
	if !slices.Contains(allowed, u.Role) {
		return nil, &DeniedError{
			Redirect: domain.RouteHome,
			Err:      apperrors.Forbidden(fmt.Sprintf("role %q may not open this page", u.Role)),
		}
	}
	return u, nil
}
