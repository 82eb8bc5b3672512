package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

// LoadCredential reads the token pair. Missing keys come back empty.
func LoadCredential(ctx context.Context, s Store) (domain.Credential, error) {
	access, _, err := s.Get(ctx, KeyAccessToken)
	if err != nil {
		return domain.Credential{}, err
	}
	refresh, _, err := s.Get(ctx, KeyRefreshToken)
	if err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveCredential stores both tokens. An empty refresh token removes any
// stale one.
func SaveCredential(ctx context.Context, s Store, c domain.Credential) error {
	if err := s.Set(ctx, KeyAccessToken, c.AccessToken); err != nil {
		return err
	}
	if c.RefreshToken == "" {
		return s.Remove(ctx, KeyRefreshToken)
	}
	return s.Set(ctx, KeyRefreshToken, c.RefreshToken)
}

// SaveAccessToken replaces the access token after a refresh.
func SaveAccessToken(ctx context.Context, s Store, token string) error {
	return s.Set(ctx, KeyAccessToken, token)
}

// HasSessionToken reports whether an access token, or the legacy token
// alias, is present.
func HasSessionToken(ctx context.Context, s Store) (bool, error) {
	for _, key := range []string{KeyAccessToken, KeyLegacyToken} {
		v, ok, err := s.Get(ctx, key)
		if err != nil {
			return false, err
		}
		if ok && v != "" {
			return true, nil
		}
	}
	return false, nil
}

// LoadIdentity reads the mirrored user. It returns nil when no mirror exists
// and an error when the mirror cannot be decoded.
func LoadIdentity(ctx context.Context, s Store) (*domain.User, error) {
	raw, ok, err := s.Get(ctx, KeyUser)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode mirrored user: %w", err)
	}
	return &u, nil
}

// SaveIdentity mirrors u as JSON.
func SaveIdentity(ctx context.Context, s Store, u domain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Set(ctx, KeyUser, string(raw))
}

// RemoveIdentity drops the mirrored user.
func RemoveIdentity(ctx context.Context, s Store) error {
	return s.Remove(ctx, KeyUser)
}

// ClearSession removes the credential, its legacy alias and the mirrored
// user. Every key is attempted even if an earlier removal fails.
func ClearSession(ctx context.Context, s Store) error {
	var firstErr error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyLegacyToken, KeyUser} {
		if err := s.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return firstErr
}
