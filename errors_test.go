package authclient_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authclient "github.com/goliatone/go-auth-client"
)

func TestRequestError(t *testing.T) {
	cause := errors.New("connection refused")

	err := &authclient.RequestError{Op: "login", StatusCode: 401, Message: "Invalid email or password", Err: cause}
	assert.Equal(t, "login: auth request failed (status 401): Invalid email or password: connection refused", err.Error())
	assert.ErrorIs(t, err, authclient.ErrAuthRequestFailed)
	assert.ErrorIs(t, err, cause)

	bare := &authclient.RequestError{Op: "logout"}
	assert.Equal(t, "logout: auth request failed", bare.Error())
}

func TestRequestError_Classify(t *testing.T) {
	cause := errors.New("connection refused")

	cases := []struct {
		status   int
		category goerrors.Category
	}{
		{0, goerrors.CategoryExternal},
		{401, goerrors.CategoryAuth},
		{403, goerrors.CategoryAuthz},
		{422, goerrors.CategoryValidation},
		{409, goerrors.CategoryConflict},
		{429, goerrors.CategoryRateLimit},
		{500, goerrors.CategoryExternal},
	}
	for _, tc := range cases {
		err := fmt.Errorf("wrapped: %w", &authclient.RequestError{Op: "login", StatusCode: tc.status, Err: cause})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich), "status %d", tc.status)
		assert.Equal(t, tc.category, rich.Category, "status %d", tc.status)
		assert.Equal(t, tc.status, rich.Code)
		assert.Equal(t, authclient.TextCodeAuthRequestFailed, rich.TextCode)
		assert.Equal(t, "login", rich.Metadata["op"])
		assert.Equal(t, "auth request failed", rich.Message)
		assert.ErrorIs(t, rich, cause)
	}

	rich := (&authclient.RequestError{Op: "register", StatusCode: 409, Message: "Email taken"}).Classify()
	assert.Equal(t, "Email taken", rich.Message)
	assert.True(t, goerrors.IsCategory(rich, goerrors.CategoryConflict))
}

func TestSentinelClassification(t *testing.T) {
	assert.True(t, goerrors.IsValidation(authclient.ErrInvalidCredentials))
	assert.Equal(t, goerrors.CodeBadRequest, authclient.ErrInvalidCredentials.Code)

	assert.True(t, goerrors.IsAuth(authclient.ErrInvalidLoginResponse))
	assert.Equal(t, authclient.TextCodeInvalidLoginResponse, authclient.ErrInvalidLoginResponse.TextCode)

	assert.True(t, goerrors.IsCategory(authclient.ErrSessionSuperseded, goerrors.CategoryConflict))
	assert.False(t, authclient.IsUnauthorized(authclient.ErrInvalidLoginResponse))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, authclient.IsMalformedError(nil))
	assert.False(t, authclient.IsMalformedError(errors.New("x")))
	assert.True(t, authclient.IsMalformedError(fmt.Errorf("hydrate: %w", authclient.ErrMalformedCredential)))
}

func TestIsStorageError(t *testing.T) {
	assert.False(t, authclient.IsStorageError(nil))
	assert.True(t, authclient.IsStorageError(fmt.Errorf("%w: disk full", authclient.ErrStorageUnavailable)))
}

func TestIsUnauthorized(t *testing.T) {
	assert.False(t, authclient.IsUnauthorized(nil))
	assert.False(t, authclient.IsUnauthorized(errors.New("x")))
	assert.True(t, authclient.IsUnauthorized(&authclient.RequestError{StatusCode: 401}))
	assert.True(t, authclient.IsUnauthorized(fmt.Errorf("wrapped: %w", &authclient.RequestError{StatusCode: 403})))
	assert.False(t, authclient.IsUnauthorized(&authclient.RequestError{StatusCode: 500}))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "fallback", authclient.ErrorMessage(nil, "fallback"))
	assert.Equal(t, "fallback", authclient.ErrorMessage(errors.New("internal detail"), "fallback"))
	assert.Equal(t, "fallback", authclient.ErrorMessage(&authclient.RequestError{StatusCode: 500}, "fallback"))
	assert.Equal(t, "Email taken", authclient.ErrorMessage(&authclient.RequestError{Message: "Email taken"}, "fallback"))
	assert.Equal(t, "email: Email is required", authclient.ErrorMessage(authclient.ValidateLogin("", "secret"), "fallback"))
}

func TestFieldErrors(t *testing.T) {
	assert.Empty(t, authclient.FieldErrors(nil))
	assert.Empty(t, authclient.FieldErrors(&authclient.RequestError{StatusCode: 422}))
	assert.Equal(t, map[string]string{"password": "Password is required"},
		authclient.FieldErrors(authclient.ValidateLogin("a@x.com", "")))
}
