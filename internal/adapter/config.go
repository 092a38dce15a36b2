package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Search  SearchConfig  `mapstructure:"search"`
	UI      UIConfig      `mapstructure:"ui"`
	Browser BrowserConfig `mapstructure:"browser"`
	Player  PlayerConfig  `mapstructure:"player"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds the remote catalog API settings
type CatalogConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Language  string        `mapstructure:"language"`   // BCP 47, e.g. "ru-RU"
	Timeout   time.Duration `mapstructure:"timeout"`    // Per request
	RateLimit float64       `mapstructure:"rate_limit"` // Requests per second, 0 = unlimited
	RailLimit int           `mapstructure:"rail_limit"`
	ListLimit int           `mapstructure:"list_limit"` // My List; also seeds membership
}

// SearchConfig holds incremental search settings
type SearchConfig struct {
	Debounce    time.Duration `mapstructure:"debounce"`
	MinLength   int           `mapstructure:"min_length"`
	RankResults bool          `mapstructure:"rank_results"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView string `mapstructure:"default_view"` // home, series, movies, my_list, random
	ShowSidebar bool   `mapstructure:"show_sidebar"`
}

// BrowserConfig holds the command used to open watch pages
type BrowserConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// PlayerConfig holds the command used to stream trailers
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// CacheConfig holds the rail cache location; empty keeps rails in memory
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Language:  "ru-RU",
			Timeout:   15 * time.Second,
			RailLimit: 20,
			ListLimit: 60,
		},
		Search: SearchConfig{
			Debounce:    250 * time.Millisecond,
			MinLength:   2,
			RankResults: true,
		},
		UI: UIConfig{
			DefaultView: "home",
			ShowSidebar: true,
		},
		Browser: BrowserConfig{Args: []string{}},
		Player:  PlayerConfig{Args: []string{}},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel", "reel.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "reel.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reel", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "cache")
	}
}

// DefaultConfigFile returns where SaveConfig writes when no path is given
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setValues(v.SetDefault, cfg)
	return v
}

// setValues walks every key so that environment overrides and writes use
// snake_case names
func setValues(set func(string, any), cfg *Config) {
	set("catalog.base_url", cfg.Catalog.BaseURL)
	set("catalog.language", cfg.Catalog.Language)
	set("catalog.timeout", cfg.Catalog.Timeout.String())
	set("catalog.rate_limit", cfg.Catalog.RateLimit)
	set("catalog.rail_limit", cfg.Catalog.RailLimit)
	set("catalog.list_limit", cfg.Catalog.ListLimit)

	set("search.debounce", cfg.Search.Debounce.String())
	set("search.min_length", cfg.Search.MinLength)
	set("search.rank_results", cfg.Search.RankResults)

	set("ui.default_view", cfg.UI.DefaultView)
	set("ui.show_sidebar", cfg.UI.ShowSidebar)

	set("browser.command", cfg.Browser.Command)
	set("browser.args", cfg.Browser.Args)
	set("player.command", cfg.Player.Command)
	set("player.args", cfg.Player.Args)

	set("cache.dir", cfg.Cache.Dir)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
	set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	set("logging.max_backups", cfg.Logging.MaxBackups)
}

// Each calls fn for every setting in file order
func (c *Config) Each(fn func(key string, value any)) {
	setValues(fn, c)
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML. An empty path writes DefaultConfigFile().
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setValues(v.Set, cfg)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the catalog URL is set
func (c *Config) IsConfigured() bool {
	return c.Catalog.BaseURL != ""
}

// Validate reports settings the controller cannot run with
func (c *Config) Validate() error {
	if !c.IsConfigured() {
		return errors.New("catalog.base_url is not set (config file or REEL_CATALOG_BASE_URL)")
	}
	if !strings.HasPrefix(c.Catalog.BaseURL, "http://") && !strings.HasPrefix(c.Catalog.BaseURL, "https://") {
		return fmt.Errorf("catalog.base_url must be an http(s) URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.RateLimit < 0 {
		return errors.New("catalog.rate_limit must not be negative")
	}
	if c.Catalog.ListLimit < 0 {
		return errors.New("catalog.list_limit must not be negative")
	}
	switch c.UI.DefaultView {
	case "home", "series", "movies", "my_list", "random":
	default:
		return fmt.Errorf("ui.default_view %q is not one of home, series, movies, my_list, random", c.UI.DefaultView)
	}
	return nil
}

// ClearCache removes all cached data
func ClearCache(dir string) error {
	if dir == "" {
		dir = defaultCachePath()
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
