package devserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	authclient "github.com/goliatone/go-auth-client"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := authclient.ValidateLogin(req.Email, req.Password); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Email and password are required")
	}

	u, err := s.Authenticate(req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		s.logger.Info("rejected login for %s", req.Email)
		return sendMessage(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		s.logger.Error("login for %s: %v", req.Email, err)
		return sendMessage(c, fiber.StatusInternalServerError, "Login failed")
	}

	token, err := s.Mint(u)
	if err != nil {
		s.logger.Error("mint token for %s: %v", u.Email, err)
		return sendMessage(c, fiber.StatusInternalServerError, "Login failed")
	}

	s.logger.Info("issued credential for %s", u.Email)
	return c.JSON(authclient.LoginResponse{Token: token, User: u.View()})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return sendMessage(c, fiber.StatusBadRequest, "Invalid request body")
	}

	form := authclient.RegistrationForm{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.Password,
	}
	if err := form.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Registration failed",
			"errors":  authclient.FieldErrors(err),
		})
	}

	u, err := s.AddUser(req.Name, req.Email, req.Password, authclient.RoleStudent)
	if errors.Is(err, ErrEmailTaken) {
		return sendMessage(c, fiber.StatusConflict, "Email already registered")
	}
	if err != nil {
		s.logger.Error("register %s: %v", req.Email, err)
		return sendMessage(c, fiber.StatusInternalServerError, "Registration failed")
	}

	s.logger.Info("registered %s", u.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    u.View(),
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if token := bearer(c); token != "" {
		if claims, err := s.Verify(token); err == nil {
			s.Revoke(claims)
			s.logger.Info("revoked credential %s", claims.ID)
		}
	}
	return sendMessage(c, fiber.StatusOK, "Logged out")
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	token := bearer(c)
	if token == "" {
		return sendMessage(c, fiber.StatusUnauthorized, "Missing credential")
	}
	claims, err := s.Verify(token)
	if err != nil {
		return sendMessage(c, fiber.StatusUnauthorized, "Invalid credential")
	}
	return c.JSON(fiber.Map{"user": claims.User()})
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func sendMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}
