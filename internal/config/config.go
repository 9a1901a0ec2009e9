// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Browser() BrowserConfig
	Automation() AutomationConfig
	Extraction() ExtractionConfig
	Server() ServerConfig
	Batch() BatchConfig

	// Browser Setters
	SetBrowserHeadless(bool)

	// Server Setters
	SetServerMock(bool)
	SetServerListenAddr(addr string)
}

// Config holds the entire application configuration. Fields are exported so
// viper can unmarshal into them; callers go through the Interface getters.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	AutomationCfg AutomationConfig `mapstructure:"automation" yaml:"automation"`
	ExtractionCfg ExtractionConfig `mapstructure:"extraction" yaml:"extraction"`
	ServerCfg     ServerConfig     `mapstructure:"server" yaml:"server"`
	BatchCfg      BatchConfig      `mapstructure:"batch" yaml:"batch"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig     { return c.DatabaseCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Automation() AutomationConfig { return c.AutomationCfg }
func (c *Config) Extraction() ExtractionConfig { return c.ExtractionCfg }
func (c *Config) Server() ServerConfig         { return c.ServerCfg }
func (c *Config) Batch() BatchConfig           { return c.BatchCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetServerMock(b bool)             { c.ServerCfg.Mock = b }
func (c *Config) SetServerListenAddr(addr string) { c.ServerCfg.ListenAddr = addr }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	// Color tints the console level names. The file sink is never coloured.
	Color bool `mapstructure:"color" yaml:"color"`
}

// DatabaseConfig holds the database connection details. An empty URL
// disables search history.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless    bool     `mapstructure:"headless" yaml:"headless"`
	UserAgent   string   `mapstructure:"user_agent" yaml:"user_agent"`
	Locale      string   `mapstructure:"locale" yaml:"locale"`
	Timezone    string   `mapstructure:"timezone" yaml:"timezone"`
	Width       int      `mapstructure:"width" yaml:"width"`
	Height      int      `mapstructure:"height" yaml:"height"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	Args        []string `mapstructure:"args" yaml:"args"`
	Debug       bool     `mapstructure:"debug" yaml:"debug"`
}

// AutomationConfig holds the remote page contract and the per-step timing
// budget of a search session.
type AutomationConfig struct {
	TargetURL          string        `mapstructure:"target_url" yaml:"target_url"`
	ReadyMarker        string        `mapstructure:"ready_marker" yaml:"ready_marker"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ReadyTimeout       time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout"`
	PostNavigationWait time.Duration `mapstructure:"post_navigation_wait" yaml:"post_navigation_wait"`
	LocatorTimeout     time.Duration `mapstructure:"locator_timeout" yaml:"locator_timeout"`
	PickerTimeout      time.Duration `mapstructure:"picker_timeout" yaml:"picker_timeout"`
	// ActionTimeout bounds each click, fill, key press and page read.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	FieldSettle        time.Duration `mapstructure:"field_settle" yaml:"field_settle"`
	ResultsSettle      time.Duration `mapstructure:"results_settle" yaml:"results_settle"`
}

// ExtractionConfig tunes the result-card heuristics.
type ExtractionConfig struct {
	MinCardWidth  float64 `mapstructure:"min_card_width" yaml:"min_card_width"`
	MinCardHeight float64 `mapstructure:"min_card_height" yaml:"min_card_height"`
	MaxTextLength int     `mapstructure:"max_text_length" yaml:"max_text_length"`
	MinNameLength int     `mapstructure:"min_name_length" yaml:"min_name_length"`
}

// ServerConfig configures the HTTP command server.
type ServerConfig struct {
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// Mock serves canned listings instead of driving a browser.
	Mock bool `mapstructure:"mock" yaml:"mock"`
}

// BatchConfig limits multi-departure comparisons.
type BatchConfig struct {
	Concurrency       int     `mapstructure:"concurrency" yaml:"concurrency"`
	SearchesPerMinute float64 `mapstructure:"searches_per_minute" yaml:"searches_per_minute"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tourscout")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.color", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36")
	v.SetDefault("browser.locale", "ru-RU")
	v.SetDefault("browser.timezone", "Europe/Moscow")
	v.SetDefault("browser.width", 1440)
	v.SetDefault("browser.height", 900)
	v.SetDefault("browser.concurrency", 2)
	v.SetDefault("browser.debug", false)

	// -- Automation --
	v.SetDefault("automation.target_url", "https://eto.travel/search/")
	v.SetDefault("automation.ready_marker", ".tv-search-form.tv-loaded")
	v.SetDefault("automation.navigation_timeout", "90s")
	v.SetDefault("automation.ready_timeout", "30s")
	v.SetDefault("automation.post_navigation_wait", "8s")
	v.SetDefault("automation.locator_timeout", "3s")
	v.SetDefault("automation.picker_timeout", "2s")
	v.SetDefault("automation.action_timeout", "30s")
	v.SetDefault("automation.field_settle", "3s")
	v.SetDefault("automation.results_settle", "20s")

	// -- Extraction --
	v.SetDefault("extraction.min_card_width", 150)
	v.SetDefault("extraction.min_card_height", 50)
	v.SetDefault("extraction.max_text_length", 3000)
	v.SetDefault("extraction.min_name_length", 3)

	// -- Server --
	v.SetDefault("server.listen_addr", "127.0.0.1:8080")
	v.SetDefault("server.request_timeout", "5m")
	v.SetDefault("server.mock", false)

	// -- Batch --
	v.SetDefault("batch.concurrency", 2)
	v.SetDefault("batch.searches_per_minute", 6.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password, keep it out of files.
	_ = v.BindEnv("database.url", "TOURSCOUT_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.DatabaseCfg.URL == "" {
		cfg.DatabaseCfg.URL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.BrowserCfg.Width <= 0 || c.BrowserCfg.Height <= 0 {
		return fmt.Errorf("browser.width and browser.height must be positive")
	}
	if err := c.AutomationCfg.Validate(); err != nil {
		return fmt.Errorf("automation configuration invalid: %w", err)
	}
	if c.ExtractionCfg.MinNameLength < 0 {
		return fmt.Errorf("extraction.min_name_length must not be negative")
	}
	if c.ExtractionCfg.MaxTextLength <= 0 {
		return fmt.Errorf("extraction.max_text_length must be a positive integer")
	}
	if c.BatchCfg.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be a positive integer")
	}
	if c.BatchCfg.SearchesPerMinute <= 0 {
		return fmt.Errorf("batch.searches_per_minute must be positive")
	}
	return nil
}

// Validate checks the AutomationConfig settings. Settle waits may be zero,
// timeouts may not.
func (a *AutomationConfig) Validate() error {
	if a.TargetURL == "" {
		return fmt.Errorf("target_url is required")
	}
	if a.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be a positive duration")
	}
	if a.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be a positive duration")
	}
	if a.LocatorTimeout <= 0 || a.PickerTimeout <= 0 {
		return fmt.Errorf("locator_timeout and picker_timeout must be positive durations")
	}
	if a.ActionTimeout <= 0 {
		return fmt.Errorf("action_timeout must be a positive duration")
	}
	if a.FieldSettle < 0 || a.ResultsSettle < 0 || a.PostNavigationWait < 0 {
		return fmt.Errorf("settle waits must not be negative")
	}
	return nil
}
