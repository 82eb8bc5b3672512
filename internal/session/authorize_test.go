package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
)

func TestAuthorize_NoIdentity(t *testing.T) {
	_, err := Authorize(context.Background(), store.NewMemoryStore(), domain.RoleTutor)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "/login", denied.Redirect)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthorize_CorruptMirrorTreatedAsSignedOut(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), store.KeyUser, "{"))

	_, err := Authorize(context.Background(), s, domain.RoleTutor)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "/login", denied.Redirect)
}

func TestAuthorize_RoleNotAllowed(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, store.SaveIdentity(context.Background(), s, domain.User{ID: "u1", Role: domain.RoleStudent}))

	_, err := Authorize(context.Background(), s, domain.RoleInstitute, domain.RoleParent)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "/", denied.Redirect)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "Access denied - insufficient permissions", apperrors.UserMessage(err))
}

func TestAuthorize_Allowed(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, store.SaveIdentity(context.Background(), s, domain.User{ID: "u1", Role: domain.RoleInstitute}))

	u, err := Authorize(context.Background(), s, domain.RoleInstitute, domain.RoleParent)

	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}
