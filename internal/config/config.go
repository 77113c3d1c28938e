// Package config loads the skillsphere client configuration.
//
// Values are layered: defaults, then the YAML file, then SKILLSPHERE_*
// environment variables, then command-line flags that were explicitly set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SKILLSPHERE_"

type Config struct {
	API           APIConfig           `yaml:"api"`
	Storage       StorageConfig       `yaml:"storage"`
	Web           WebConfig           `yaml:"web"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Dev           DevConfig           `yaml:"dev"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	// Driver is one of bolt, sqlite or memory
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type WebConfig struct {
	Address          string `yaml:"address"`
	LoginPath        string `yaml:"login_path"`
	DefaultPath      string `yaml:"default_path"`
	AfterLoginPath   string `yaml:"after_login_path"`
	RejectedRouteKey string `yaml:"rejected_route_key"`
}

type NotificationsConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	MaxActive int           `yaml:"max_active"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DevConfig controls the bundled demo auth service.
type DevConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Address    string        `yaml:"address"`
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost/SkillSphere/api",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "bolt",
			Path:   "skillsphere.db",
		},
		Web: WebConfig{
			Address:          ":3000",
			LoginPath:        "/login",
			DefaultPath:      "/",
			AfterLoginPath:   "/dashboard/home",
			RejectedRouteKey: "rejected_route",
		},
		Notifications: NotificationsConfig{
			TTL:       2000 * time.Millisecond,
			MaxActive: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Dev: DevConfig{
			Address:  ":3001",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load reads path when it is not empty, applies environment overrides and
// validates the result. A missing file is an error only when path was set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.ensureDevSigningKey()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ensureDevSigningKey generates a key for the demo auth service when none is
// configured. Tokens signed with it do not survive a restart.
func (c *Config) ensureDevSigningKey() {
	if c.Dev.Enabled && c.Dev.SigningKey == "" {
		c.Dev.SigningKey = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("API_BASE_URL", &cfg.API.BaseURL)
	dur("API_TIMEOUT", &cfg.API.Timeout)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("STORAGE_PATH", &cfg.Storage.Path)
	str("WEB_ADDRESS", &cfg.Web.Address)
	dur("NOTIFICATIONS_TTL", &cfg.Notifications.TTL)
	str("LOGGING_LEVEL", &cfg.Logging.Level)
	str("LOGGING_FORMAT", &cfg.Logging.Format)
	str("LOGGING_OUTPUT", &cfg.Logging.Output)
	str("DEV_ADDRESS", &cfg.Dev.Address)
	str("DEV_SIGNING_KEY", &cfg.Dev.SigningKey)

	if v, ok := lookup(EnvPrefix + "NOTIFICATIONS_MAX_ACTIVE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sNOTIFICATIONS_MAX_ACTIVE: %w", EnvPrefix, err))
		} else {
			cfg.Notifications.MaxActive = n
		}
	}
	if v, ok := lookup(EnvPrefix + "DEV_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDEV_ENABLED: %w", EnvPrefix, err))
		} else {
			cfg.Dev.Enabled = b
		}
	}

	return errors.Join(errs...)
}

// Validate checks every section
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.API),
		validation.Field(&c.Storage),
		validation.Field(&c.Web),
		validation.Field(&c.Notifications),
		validation.Field(&c.Logging),
		validation.Field(&c.Dev),
	)
}

func (a APIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.URL),
		validation.Field(&a.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In("bolt", "sqlite", "memory")),
		validation.Field(&s.Path, requiredIf(s.Driver != "memory")...),
	)
}

func (w WebConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Address, validation.Required),
		validation.Field(&w.LoginPath, validation.Required, validation.By(localPath)),
		validation.Field(&w.DefaultPath, validation.Required, validation.By(localPath)),
		validation.Field(&w.AfterLoginPath, validation.Required, validation.By(localPath)),
		validation.Field(&w.RejectedRouteKey, validation.Required),
	)
}

func (n NotificationsConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&n.MaxActive, validation.Min(0)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
		validation.Field(&l.Output, validation.In("stdout", "stderr")),
	)
}

func (d DevConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Address, requiredIf(d.Enabled)...),
		validation.Field(&d.SigningKey, requiredIf(d.Enabled, validation.Length(16, 0))...),
		validation.Field(&d.TokenTTL, requiredIf(d.Enabled)...),
	)
}

func requiredIf(cond bool, rules ...validation.Rule) []validation.Rule {
	if !cond {
		return nil
	}
	return append([]validation.Rule{validation.Required}, rules...)
}

func localPath(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return errors.New("must be a local path starting with /")
	}
	return nil
}
