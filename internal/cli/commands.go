package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/config"
	"github.com/goliatone/go-auth-client/internal/devserver"
	"github.com/goliatone/go-auth-client/internal/logging"
	"github.com/goliatone/go-auth-client/internal/web"
)

const usage = `usage: skillsphere <command> [flags]

commands:
  serve    run the web shell (and the demo auth service with -dev)
  login    sign in and persist the credential
  logout   end the session
  whoami   show the persisted session
  theme    show or toggle the theme preference
`

// IO groups the streams used by commands
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the subcommand in args and returns the exit code.
func Run(ctx context.Context, args []string, stdio IO) int {
	if len(args) < 1 {
		fmt.Fprint(stdio.Err, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stdio.Err)
	flags := config.BindFlags(fs)
	email := fs.String("email", "", "login email")

	var run func(ctx context.Context, app *App, stdio IO, args []string) error
	switch cmd {
	case "serve":
		run = serve
	case "login":
		run = func(ctx context.Context, app *App, stdio IO, _ []string) error {
			return login(ctx, app, stdio, *email)
		}
	case "logout":
		run = logout
	case "whoami":
		run = whoami
	case "theme":
		run = theme
	case "help", "-h", "--help":
		fmt.Fprint(stdio.Out, usage)
		return 0
	default:
		fmt.Fprintf(stdio.Err, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(stdio.Err, "config: %v\n", err)
		return 1
	}

	if cmd == "serve" && cfg.Dev.Enabled {
		cfg.API.BaseURL = "http://localhost" + cfg.Dev.Address
	}

	app, err := NewApp(ctx, cfg, logging.New(cfg.Logging))
	if err != nil {
		fmt.Fprintf(stdio.Err, "%v\n", err)
		return 1
	}
	defer app.Close()

	ctx = authclient.WithSessionStore(ctx, app.Store)
	if err := run(ctx, app, stdio, fs.Args()); err != nil {
		fmt.Fprintf(stdio.Err, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, app *App, stdio IO, _ []string) error {
	cfg := app.Config

	if cfg.Dev.Enabled {
		dev, err := devserver.New(devserver.Config{
			SigningKey: []byte(cfg.Dev.SigningKey),
			TokenTTL:   cfg.Dev.TokenTTL,
			Logger:     logging.NewAdapter(app.Logger, "devserver"),
		})
		if err != nil {
			return fmt.Errorf("dev auth service: %w", err)
		}
		devApp := dev.App()
		go func() {
			if err := devApp.Listen(cfg.Dev.Address); err != nil {
				app.Logger.Error("dev auth service stopped", "err", err)
			}
		}()
		defer devApp.Shutdown()
		fmt.Fprintf(stdio.Out, "demo auth service on %s (%s / %s)\n", cfg.Dev.Address, devserver.DemoAdminEmail, devserver.DemoPassword)
	}

	shell, err := web.New(web.Deps{
		Store:  app.Store,
		Bus:    app.Bus,
		Theme:  app.Theme,
		Config: cfg.Web,
		Logger: logging.NewAdapter(app.Logger, "web"),
		Demo:   cfg.Dev.Enabled,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdio.Out, "skillsphere listening on %s\n", cfg.Web.Address)
	return shell.Run(ctx)
}

func login(ctx context.Context, app *App, stdio IO, email string) error {
	reader := bufio.NewReader(stdio.In)

	var err error
	if email == "" {
		if email, err = prompt(reader, "Email", stdio.Out); err != nil {
			return err
		}
	}
	password, err := promptPassword(stdio.Out)
	if err != nil {
		return err
	}

	if err := authclient.ValidateLogin(email, password); err != nil {
		return errors.New(authclient.ErrorMessage(err, "Invalid email or password"))
	}

	user, err := app.Store.Login(ctx, email, password)
	if err != nil {
		return errors.New(authclient.ErrorMessage(err, "Invalid email or password"))
	}

	fmt.Fprintf(stdio.Out, "logged in as %s <%s> (%s)\n", user.Name, user.Email, user.RoleID)
	return nil
}

func logout(ctx context.Context, app *App, stdio IO, _ []string) error {
	app.Store.Hydrate(ctx)
	if !app.Store.Session().IsAuthenticated() {
		fmt.Fprintln(stdio.Out, "not logged in")
		return nil
	}
	app.Store.Logout(ctx)
	fmt.Fprintln(stdio.Out, "logged out")
	return nil
}

func whoami(ctx context.Context, app *App, stdio IO, _ []string) error {
	app.Store.Hydrate(ctx)
	u, ok := authclient.CurrentUser(ctx)
	if !ok {
		fmt.Fprintln(stdio.Out, "not logged in")
		return nil
	}

	fmt.Fprintf(stdio.Out, "%s <%s>\nid: %s\nrole: %s\n", u.Name, u.Email, u.ID, u.RoleID)
	if claims, err := authclient.DecodeCredential(app.Store.Credential()); err == nil && !claims.Expires().IsZero() {
		fmt.Fprintf(stdio.Out, "expires: %s\n", claims.Expires().Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func theme(_ context.Context, app *App, stdio IO, args []string) error {
	var arg string
	if len(args) > 0 {
		arg = strings.ToLower(args[0])
	}
	switch arg {
	case "":
	case "toggle":
		app.Theme.Toggle()
	case string(authclient.ThemeDark), string(authclient.ThemeLight):
		app.Theme.Set(authclient.Theme(arg))
	default:
		return fmt.Errorf("unknown theme %q", arg)
	}
	fmt.Fprintln(stdio.Out, app.Theme.Get())
	return nil
}
