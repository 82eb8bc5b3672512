package marketplace

import (
	"context"
	"fmt"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/validator"
)

// Login credentials.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	envelope
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Token        string       `json:"token"`
	User         *domain.User `json:"user"`
}

// Login exchanges credentials for a token pair, stores it and seeds the
// session with the returned user.
func (c *Client) Login(ctx context.Context, in Login) (*domain.User, error) {
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	resp, err := c.api.PostJSON(ctx, "/auth/login", in)
	if err != nil {
		return nil, err
	}
	out, err := decode[loginResponse](resp, "login")
	if err != nil {
		return nil, err
	}
	access := out.AccessToken
	if access == "" {
		access = out.Token
	}
	if access == "" || out.User == nil {
		if err := out.check("login"); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("login: response carried no credential")
	}

	if err := store.SaveCredential(ctx, c.store, domain.Credential{AccessToken: access, RefreshToken: out.RefreshToken}); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	if err := c.session.SetIdentity(ctx, out.User); err != nil {
		return nil, err
	}
	c.refreshAfterWrite(ctx, "login")
	return out.User, nil
}

// Logout forgets the credential and the identity locally.
func (c *Client) Logout(ctx context.Context) error {
	if err := store.ClearSession(ctx, c.store); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.ledger.Reset()
	return c.session.SetIdentity(ctx, nil)
}

// VerifyEmail submits the 6-digit code mailed at signup. An empty email
// falls back to the address stored during signup.
func (c *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	if email == "" {
		stored, _, err := c.store.Get(ctx, store.KeyTempEmail)
		if err != nil {
			return err
		}
		email = stored
	}
	if err := validator.Var("email", email, "required,email"); err != nil {
		return err
	}
	if err := validator.Var("otp", otp, "len=6,numeric"); err != nil {
		return err
	}

	if _, err := c.api.PostJSON(ctx, "/auth/verify-email", map[string]string{"email": email, "otp": otp}); err != nil {
		return err
	}
	for _, key := range []string{store.KeyTempEmail, store.KeyTempUserID} {
		if err := c.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// ResendEmailOTP asks for a fresh code for the user stored during signup.
func (c *Client) ResendEmailOTP(ctx context.Context) error {
	userID, _, err := c.store.Get(ctx, store.KeyTempUserID)
	if err != nil {
		return err
	}
	if userID == "" {
		return apperrors.InvalidInput("no pending signup to resend a code for")
	}
	_, err = c.api.PostJSON(ctx, "/auth/resend-email-otp", map[string]string{"userId": userID})
	return err
}

// BeginVerification remembers the signup a code was mailed for. The email
// is optional; a later VerifyEmail without one falls back to it.
func (c *Client) BeginVerification(ctx context.Context, email, userID string) error {
	if err := validator.Var("userId", userID, "required"); err != nil {
		return err
	}
	if email != "" {
		if err := validator.Var("email", email, "email"); err != nil {
			return err
		}
		if err := c.store.Set(ctx, store.KeyTempEmail, email); err != nil {
			return err
		}
	}
	return c.store.Set(ctx, store.KeyTempUserID, userID)
}
