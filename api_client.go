package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-print"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost/SkillSphere/api"

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	logoutPath   = "/auth/logout"
)

// TokenSource returns the credential to attach to outgoing requests, empty
// when there is none.
type TokenSource func() string

// HTTPAuthAPIConfig configures HTTPAuthAPI.
type HTTPAuthAPIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// TokenSource is usually SessionStore.Credential. It is read per request.
	TokenSource TokenSource
	Logger      Logger
}

// HTTPAuthAPI talks JSON to the SkillSphere auth endpoints.
type HTTPAuthAPI struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     Logger
}

var _ AuthAPI = (*HTTPAuthAPI)(nil)

// NewHTTPAuthAPI creates a new auth client.
func NewHTTPAuthAPI(cfg HTTPAuthAPIConfig) *HTTPAuthAPI {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPAuthAPI{
		baseURL:    baseURL,
		httpClient: client,
		token:      cfg.TokenSource,
		logger:     normalizeLogger(cfg.Logger),
	}
}

// SetTokenSource replaces the credential source. The store and the client
// depend on each other, so the source is usually wired after both exist.
func (a *HTTPAuthAPI) SetTokenSource(src TokenSource) {
	a.token = src
}

// Login implements AuthAPI.
func (a *HTTPAuthAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := a.post(ctx, "login", loginPath, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	resp := &LoginResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, &RequestError{Op: "login", Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp, nil
}

// Register implements AuthAPI. The response body is returned verbatim.
func (a *HTTPAuthAPI) Register(ctx context.Context, payload map[string]any) (map[string]any, error) {
	body, err := a.post(ctx, "register", registerPath, payload)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &RequestError{Op: "register", Body: string(body), Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

// Logout implements AuthAPI. The response body is ignored.
func (a *HTTPAuthAPI) Logout(ctx context.Context) error {
	_, err := a.post(ctx, "logout", logoutPath, nil)
	return err
}

func (a *HTTPAuthAPI) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &RequestError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, reader)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.token != nil {
		if token := a.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Debug("auth %s responded %d: %s", op, resp.StatusCode, print.MaybePrettyJSON(json.RawMessage(body)))
		return nil, &RequestError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    apiErrorMessage(body),
			Body:       string(body),
		}
	}

	return body, nil
}

func apiErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
