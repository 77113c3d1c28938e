// Package devserver is a demo SkillSphere auth service. It issues real
// signed credentials for a small in memory user table so the client can be
// exercised without the production backend.
package devserver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authclient "github.com/goliatone/go-auth-client"
)

const (
	// DemoAdminEmail and DemoPassword are the credentials shown on the login page
	DemoAdminEmail   = "admin@example.com"
	DemoStudentEmail = "student@example.com"
	DemoPassword     = "password123"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrSigningKeyTooShort  = errors.New("signing key must be at least 16 bytes")
	ErrUnexpectedSignature = errors.New("unexpected signing method")
)

type User struct {
	ID           int64
	Name         string
	Email        string
	RoleID       authclient.RoleID
	PasswordHash string
}

// View returns the user as sent to clients
func (u *User) View() *authclient.UserView {
	return &authclient.UserView{
		ID:     authclient.UserID(strconv.FormatInt(u.ID, 10)),
		Name:   u.Name,
		Email:  u.Email,
		RoleID: u.RoleID,
	}
}

type Config struct {
	SigningKey []byte
	TokenTTL   time.Duration
	Issuer     string
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
	// SkipDemoUsers leaves the user table empty
	SkipDemoUsers bool
	Logger        authclient.Logger
	Now           func() time.Time
}

type Server struct {
	cfg    Config
	logger authclient.Logger

	mu      sync.RWMutex
	users   map[string]*User
	nextID  int64
	revoked map[string]time.Time
}

// New returns a server seeded with the demo users.
func New(cfg Config) (*Server, error) {
	if len(cfg.SigningKey) < 16 {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "skillsphere-dev"
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		users:   map[string]*User{},
		revoked: map[string]time.Time{},
	}

	if !cfg.SkipDemoUsers {
		if _, err := s.AddUser("Admin User", DemoAdminEmail, DemoPassword, authclient.RoleAdmin); err != nil {
			return nil, err
		}
		if _, err := s.AddUser("Student User", DemoStudentEmail, DemoPassword, authclient.RoleStudent); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddUser stores a user with a bcrypt hashed password.
func (s *Server) AddUser(name, email, password string, role authclient.RoleID) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[key]; ok {
		return nil, ErrEmailTaken
	}
	s.nextID++
	u := &User{
		ID:           s.nextID,
		Name:         name,
		Email:        key,
		RoleID:       role,
		PasswordHash: string(hash),
	}
	s.users[key] = u
	return u, nil
}

// Authenticate returns the user when password matches.
func (s *Server) Authenticate(email, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.users[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

// Mint signs a HS256 credential carrying the user claims.
func (s *Server) Mint(u *User) (string, error) {
	now := s.cfg.Now()
	view := u.View()
	claims := &authclient.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   view.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		UID:    view.ID,
		Name:   view.Name,
		Email:  view.Email,
		RoleID: view.RoleID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
}

// Verify checks the signature, expiry and revocation of token.
func (s *Server) Verify(token string) (*authclient.Claims, error) {
	claims := &authclient.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSignature, t.Header["alg"])
		}
		return s.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token id until it would have expired anyway.
func (s *Server) Revoke(claims *authclient.Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.Expires()
}

// App returns a fiber app serving the auth routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.Mount(app)
	return app
}

// Mount registers the /auth routes on r.
func (s *Server) Mount(r fiber.Router) {
	g := r.Group("/auth")
	g.Post("/login", s.handleLogin)
	g.Post("/register", s.handleRegister)
	g.Post("/logout", s.handleLogout)
	g.Get("/me", s.handleMe)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
