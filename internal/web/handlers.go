package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/middleware/guardware"
)

func (s *Server) render(c *fiber.Ctx, name string, data map[string]any) error {
	bind := authclient.TemplateHelpers(s.deps.Store.Session())
	bind["theme"] = string(s.deps.Theme.Get())
	bind["notifications"] = s.deps.Bus.Active()
	if u, ok := authclient.UserFromContext(c.UserContext()); ok {
		bind[authclient.TemplateUserKey] = u
	}
	for k, v := range data {
		bind[k] = v
	}
	return c.Render(name, bind, layout)
}

func (s *Server) page(name, title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.render(c, name, map[string]any{"title": title})
	}
}

func (s *Server) home(c *fiber.Ctx) error {
	return s.render(c, "home", map[string]any{"title": "Home"})
}

func (s *Server) loginForm(c *fiber.Ctx) error {
	if s.deps.Store.Session().IsAuthenticated() {
		return c.Redirect(guardware.GetRedirect(c, s.deps.Config.AfterLoginPath, s.deps.Config.RejectedRouteKey), fiber.StatusSeeOther)
	}
	return s.render(c, "login", map[string]any{
		"title": "Sign in",
		"from":  c.Query("from"),
		"demo":  s.deps.Demo,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	from := c.FormValue("from")

	data := map[string]any{
		"title": "Sign in",
		"email": email,
		"from":  from,
		"demo":  s.deps.Demo,
	}

	if err := authclient.ValidateLogin(email, password); err != nil {
		data["errors"] = authclient.FieldErrors(err)
		c.Status(fiber.StatusUnprocessableEntity)
		return s.render(c, "login", data)
	}

	user, err := s.deps.Store.Login(c.UserContext(), email, password)
	if err != nil {
		s.logger.Info("login failed for %s: %v", email, err)
		data["form_error"] = "Invalid email or password"
		s.deps.Bus.Error(authclient.ErrorMessage(err, "Invalid email or password"))
		c.Status(fiber.StatusUnauthorized)
		return s.render(c, "login", data)
	}

	s.deps.Bus.Success("Welcome back, " + user.Name + "!")

	next := guardware.GetRedirect(c, s.deps.Config.AfterLoginPath, s.deps.Config.RejectedRouteKey)
	if guardware.IsLocalPath(from) {
		next = from
	}
	return c.Redirect(next, fiber.StatusSeeOther)
}

func (s *Server) registerForm(c *fiber.Ctx) error {
	return s.render(c, "register", map[string]any{"title": "Register"})
}

func (s *Server) register(c *fiber.Ctx) error {
	form := authclient.RegistrationForm{
		Name:            strings.TrimSpace(c.FormValue("name")),
		Email:           strings.TrimSpace(c.FormValue("email")),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
	}

	data := map[string]any{
		"title": "Register",
		"name":  form.Name,
		"email": form.Email,
	}

	if err := form.Validate(); err != nil {
		data["errors"] = authclient.FieldErrors(err)
		c.Status(fiber.StatusUnprocessableEntity)
		return s.render(c, "register", data)
	}

	if _, err := s.deps.Store.Register(c.UserContext(), form.Payload()); err != nil {
		s.logger.Info("registration failed for %s: %v", form.Email, err)
		data["form_error"] = authclient.ErrorMessage(err, "Registration failed")
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "register", data)
	}

	s.deps.Bus.Success("Registration successful, please sign in")
	return c.Redirect(s.deps.Config.LoginPath, fiber.StatusSeeOther)
}

func (s *Server) logout(c *fiber.Ctx) error {
	s.deps.Store.Logout(c.UserContext())
	s.deps.Bus.Success("You have been logged out")
	return c.Redirect(s.deps.Config.LoginPath, fiber.StatusSeeOther)
}

func (s *Server) toggleTheme(c *fiber.Ctx) error {
	theme := s.deps.Theme.Toggle()
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(fiber.Map{"theme": theme})
	}
	back := c.Get(fiber.HeaderReferer)
	if back == "" {
		back = "/"
	}
	return c.Redirect(back, fiber.StatusSeeOther)
}

func (s *Server) session(c *fiber.Ctx) error {
	session := s.deps.Store.Session()
	out := fiber.Map{
		"status":        session.Status,
		"authenticated": session.IsAuthenticated(),
		"user":          session.User,
	}
	if session.Err != nil {
		out["error"] = authclient.ErrorMessage(session.Err, session.Err.Error())
	}
	return c.JSON(out)
}

func (s *Server) notifications(c *fiber.Ctx) error {
	return c.JSON(s.deps.Bus.Active())
}

func (s *Server) dismissNotification(c *fiber.Ctx) error {
	removed := s.deps.Bus.Remove(c.Params("id"))
	if c.Method() == fiber.MethodDelete {
		if !removed {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	back := c.Get(fiber.HeaderReferer)
	if back == "" {
		back = "/"
	}
	return c.Redirect(back, fiber.StatusSeeOther)
}

