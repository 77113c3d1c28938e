package authclient

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAuthRequestFailed    = "AUTH_REQUEST_FAILED"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeInvalidLoginResponse = "INVALID_LOGIN_RESPONSE"
	TextCodeSessionSuperseded    = "SESSION_SUPERSEDED"
)

// ErrStorageUnavailable is logged when durable storage cannot be read or written.
// The cache keeps working from memory when it happens.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrMalformedCredential is returned when a credential cannot be decoded
var ErrMalformedCredential = errors.New("malformed credential")

// ErrLogoutRequestFailed is logged when the logout request fails. It never
// reaches callers.
var ErrLogoutRequestFailed = errors.New("logout request failed")

// ErrAuthRequestFailed marks failures of login and register requests
var ErrAuthRequestFailed = goerrors.New("auth request failed", goerrors.CategoryExternal).
	WithTextCode(TextCodeAuthRequestFailed)

// ErrInvalidLoginResponse login response is missing the token or the user
var ErrInvalidLoginResponse = goerrors.New("invalid login response", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidLoginResponse).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionSuperseded is returned by Login when a later session operation
// started before the login response arrived.
var ErrSessionSuperseded = goerrors.New("session superseded", goerrors.CategoryConflict).
	WithTextCode(TextCodeSessionSuperseded).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials login input did not pass validation. Validation
// failures wrap it and carry one field error per rejected field.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeBadRequest)

// RequestError describes a failed call to the auth service.
type RequestError struct {
	Op         string
	StatusCode int
	// Message is the "message" field of the response body, when present.
	Message string
	Body    string
	Err     error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, ErrAuthRequestFailed.Message)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is makes every RequestError match ErrAuthRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrAuthRequestFailed
}

// As exposes the classified form of e to goerrors.As.
func (e *RequestError) As(target any) bool {
	rich, ok := target.(**goerrors.Error)
	if !ok {
		return false
	}
	*rich = e.Classify()
	return true
}

// Classify returns e as a rich error. The category follows the response
// status and the code is the status itself.
func (e *RequestError) Classify() *goerrors.Error {
	message := e.Message
	if message == "" {
		message = ErrAuthRequestFailed.Message
	}

	rich := goerrors.New(message, requestCategory(e.StatusCode)).
		WithTextCode(TextCodeAuthRequestFailed).
		WithMetadata(map[string]any{"op": e.Op})
	if e.StatusCode > 0 {
		rich = rich.WithCode(e.StatusCode)
	}
	rich.Source = e.Err
	return rich
}

func requestCategory(status int) goerrors.Category {
	switch status {
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	default:
		return goerrors.CategoryExternal
	}
}

// IsMalformedError will check for malformed credential errors
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMalformedCredential)
}

// IsStorageError reports whether err came from the durable storage layer
func IsStorageError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrStorageUnavailable)
}

// IsUnauthorized reports whether the auth service rejected the credentials.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	code := reqErr.Classify().Code
	return code == goerrors.CodeUnauthorized || code == goerrors.CodeForbidden
}

// FieldErrors returns the per field messages of a validation failure.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return out
	}
	for _, fe := range rich.ValidationErrors {
		out[fe.Field] = fe.Message
	}
	return out
}

func invalidCredentials(errs validation.Errors) error {
	fields := make(goerrors.ValidationErrors, 0, len(errs))
	for field, err := range errs {
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: field, Message: err.Error()})
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	rich := goerrors.Wrap(ErrInvalidCredentials, goerrors.CategoryValidation, ErrInvalidCredentials.Message).
		WithTextCode(TextCodeInvalidCredentials).
		WithCode(goerrors.CodeBadRequest)
	rich.ValidationErrors = fields
	return rich
}

func malformed(reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedCredential, reason, err)
	}
	return fmt.Errorf("%w: %s", ErrMalformedCredential, reason)
}

// ErrorMessage returns a message suitable for a notification. Field
// validation messages and messages sent by the auth service win over
// fallback.
func ErrorMessage(err error, fallback string) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && len(rich.ValidationErrors) > 0 {
		return rich.ValidationErrors.Error()
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
