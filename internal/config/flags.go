package config

import (
	"flag"
	"time"
)

// Flags holds the command-line overrides bound to a FlagSet.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath    string
	baseURL       string
	timeout       time.Duration
	storageDriver string
	storagePath   string
	address       string
	logLevel      string
	dev           bool
}

// BindFlags registers the override flags on fs. Only flags that are set on
// the command line override file and environment values.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to the YAML config file")
	fs.StringVar(&f.baseURL, "api", "", "auth service base URL")
	fs.DurationVar(&f.timeout, "timeout", 0, "auth request timeout")
	fs.StringVar(&f.storageDriver, "storage", "", "storage driver: bolt, sqlite or memory")
	fs.StringVar(&f.storagePath, "db", "", "storage file path")
	fs.StringVar(&f.address, "addr", "", "web shell listen address")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&f.dev, "dev", false, "serve the demo auth service")
	return f
}

// Apply copies explicitly set flags into cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "api":
			cfg.API.BaseURL = f.baseURL
		case "timeout":
			cfg.API.Timeout = f.timeout
		case "storage":
			cfg.Storage.Driver = f.storageDriver
		case "db":
			cfg.Storage.Path = f.storagePath
		case "addr":
			cfg.Web.Address = f.address
		case "log-level":
			cfg.Logging.Level = f.logLevel
		case "dev":
			cfg.Dev.Enabled = f.dev
		}
	})
}

// LoadWithFlags loads the file named by -config, then applies the flags and
// validates again.
func LoadWithFlags(f *Flags) (*Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	cfg.ensureDevSigningKey()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
