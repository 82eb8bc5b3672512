// Package store is the client-side key-value store holding the credential and
// the mirrored identity. Every write replaces a whole key; nothing expires.
package store

import "context"

// Keys shared by every process pointed at the same store.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyLegacyToken  = "token"
	KeyUser         = "user"
	KeyTempEmail    = "tempEmail"
	KeyTempUserID   = "tempUserId"
)

// Store is a string key-value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}
