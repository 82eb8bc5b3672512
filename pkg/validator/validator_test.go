package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	ID      string `json:"id" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Role    string `json:"role" validate:"required,oneof=student tutor"`
	Credits int    `json:"credits" validate:"gte=0"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(testUser{ID: "u1", Email: "a@x.com", Role: "tutor", Credits: 5})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(testUser{Role: "tutor"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["id"])
	assert.Contains(t, err.Error(), "field 'id' is required")
}

func TestValidate_OneOfAndRange(t *testing.T) {
	err := Validate(testUser{ID: "u1", Role: "janitor", Credits: -1})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be one of: student tutor", fields["role"])
	assert.Equal(t, "must be greater than or equal to 0", fields["credits"])
}

func TestValidate_OptionalEmail(t *testing.T) {
	assert.NoError(t, Validate(testUser{ID: "u1", Role: "student"}))

	err := Validate(testUser{ID: "u1", Role: "student", Email: "nope"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["email"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("otp", "123456", "len=6,numeric"))

	err := Var("otp", "12a456", "len=6,numeric")
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must contain only digits", valErr.Fields()["otp"])

	err = Var("otp", "123", "len=6,numeric")
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be exactly 6 characters", valErr.Fields()["otp"])
}

func TestDecodeAndValidate(t *testing.T) {
	body := bytes.NewBufferString(`{"id":"u1","role":"student","credits":0}`)
	req := httptest.NewRequest(http.MethodPost, "/", body)

	var u testUser
	require.NoError(t, DecodeAndValidate(req, &u))
	assert.Equal(t, "u1", u.ID)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))

	var u testUser
	err := DecodeAndValidate(req, &u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
