package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authclient "github.com/goliatone/go-auth-client"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Config{
		SigningKey: []byte(testKey),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return s
}

func postJSON(t *testing.T, app *fiber.App, path, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestNew_RequiresSigningKey(t *testing.T) {
	_, err := New(Config{SigningKey: []byte("short")})
	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestLogin_IssuesDecodableCredential(t *testing.T) {
	s := newTestServer(t)
	app := s.App()

	resp, body := postJSON(t, app, "/auth/login", `{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	claims, err := authclient.DecodeCredential(token)
	require.NoError(t, err)
	assert.Equal(t, authclient.RoleAdmin, claims.RoleID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "1", claims.UID.String())
	assert.NotEmpty(t, claims.ID)

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), user["role_id"])
	assert.Equal(t, "Admin User", user["name"])
}

func TestLogin_Rejections(t *testing.T) {
	app := newTestServer(t).App()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"email":"admin@example.com","password":"wrong-password"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"nobody@example.com","password":"password123"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":""}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, app, "/auth/login", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["message"])
			assert.Nil(t, body["token"])
		})
	}
}

func TestRegister(t *testing.T) {
	app := newTestServer(t).App()

	resp, body := postJSON(t, app, "/auth/register", `{"name":"Grace","email":"grace@example.com","password":"hopper123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Registration successful", body["message"])

	resp, body = postJSON(t, app, "/auth/register", `{"name":"Grace","email":"GRACE@example.com","password":"hopper123"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already registered", body["message"])

	resp, _ = postJSON(t, app, "/auth/register", `{"name":"","email":"x","password":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = postJSON(t, app, "/auth/login", `{"email":"grace@example.com","password":"hopper123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(authclient.RoleStudent), user["role_id"])
}

func TestLogout_RevokesCredential(t *testing.T) {
	s := newTestServer(t)
	app := s.App()

	_, body := postJSON(t, app, "/auth/login", `{"email":"student@example.com","password":"password123"}`)
	token := body["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, app, "/auth/logout", ``, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_WithoutCredentialSucceeds(t *testing.T) {
	app := newTestServer(t).App()
	resp, _ := postJSON(t, app, "/auth/logout", ``)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := New(Config{
		SigningKey: []byte(testKey),
		BcryptCost: bcrypt.MinCost,
		TokenTTL:   time.Minute,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	u, err := s.Authenticate(DemoStudentEmail, DemoPassword)
	require.NoError(t, err)
	token, err := s.Mint(u)
	require.NoError(t, err)

	_, err = s.Verify(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongKey(t *testing.T) {
	s := newTestServer(t)
	other, err := New(Config{SigningKey: []byte("another-key-of-32-bytes-length!!"), BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	u, err := other.Authenticate(DemoAdminEmail, DemoPassword)
	require.NoError(t, err)
	token, err := other.Mint(u)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.Error(t, err)
}
