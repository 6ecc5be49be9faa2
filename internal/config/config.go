// Package config loads wvbridge settings from a YAML file, WVBRIDGE_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cryguy/webview/internal/core"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment override, e.g. WVBRIDGE_PAGE_MINIFY.
const EnvPrefix = "WVBRIDGE"

// Config is the complete wvbridge configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Page    PageConfig    `mapstructure:"page" yaml:"page"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Chrome  ChromeConfig  `mapstructure:"chrome" yaml:"chrome"`
	Window  WindowConfig  `mapstructure:"window" yaml:"window"`
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// PageConfig configures pages and the bridge.
type PageConfig struct {
	MemoryLimitMB int  `mapstructure:"memory_limit_mb" yaml:"memory_limit_mb"`
	Minify        bool `mapstructure:"minify" yaml:"minify"`
	MaxQueued     int  `mapstructure:"max_queued" yaml:"max_queued"`
	Debug         bool `mapstructure:"debug" yaml:"debug"`
}

// JournalConfig configures the call journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig configures the remote browser host.
type ServerConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	Root        string `mapstructure:"root" yaml:"root"` // empty serves the built-in demo
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	OpenBrowser bool   `mapstructure:"open_browser" yaml:"open_browser"`
}

// ChromeConfig configures the DevTools host.
type ChromeConfig struct {
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
	Width    int    `mapstructure:"width" yaml:"width"`
	Height   int    `mapstructure:"height" yaml:"height"`
}

// WindowConfig configures the native window host.
type WindowConfig struct {
	Title  string `mapstructure:"title" yaml:"title"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wvbridge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)

	v.SetDefault("page.memory_limit_mb", 64)
	v.SetDefault("page.minify", false)
	v.SetDefault("page.max_queued", 1024)
	v.SetDefault("page.debug", false)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "data/journal.db")

	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.root", "")
	v.SetDefault("server.compress", true)
	v.SetDefault("server.open_browser", false)

	v.SetDefault("chrome.headless", true)
	v.SetDefault("chrome.exec_path", "")
	v.SetDefault("chrome.width", 1280)
	v.SetDefault("chrome.height", 800)

	v.SetDefault("window.title", "wvbridge")
	v.SetDefault("window.width", 1024)
	v.SetDefault("window.height", 768)
}

// NewViper returns a viper instance with defaults and environment
// overrides wired up.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (or ./wvbridge.yaml when file is empty and it exists)
// into v and returns the validated configuration.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("wvbridge")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks for values no component can work with.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Page.MemoryLimitMB < 0 {
		return fmt.Errorf("page.memory_limit_mb must not be negative")
	}
	if c.Page.MaxQueued < 0 {
		return fmt.Errorf("page.max_queued must not be negative")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Chrome.Width <= 0 || c.Chrome.Height <= 0 {
		return fmt.Errorf("chrome.width and chrome.height must be positive")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window.width and window.height must be positive")
	}
	return nil
}

// Bridge returns the library configuration for a WebView.
func (c *Config) Bridge(log *zap.Logger, journal core.Journal) core.Config {
	return core.Config{
		MemoryLimitMB: c.Page.MemoryLimitMB,
		MinifyScripts: c.Page.Minify,
		Debug:         c.Page.Debug,
		MaxQueued:     c.Page.MaxQueued,
		Logger:        log,
		Journal:       journal,
	}
}
