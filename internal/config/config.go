// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for a smoke test run.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Target  TargetConfig  `mapstructure:"target" yaml:"target"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TargetConfig describes the site under test.
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// SuccessMarker is the URL substring whose absence after submit counts as
	// a successful registration or login.
	SuccessMarker string `mapstructure:"success_marker" yaml:"success_marker"`
	// ResultXPath selects the node holding a translation.
	ResultXPath string `mapstructure:"result_xpath" yaml:"result_xpath"`
}

// BrowserConfig holds settings for the headless browser.
type BrowserConfig struct {
	// Driver is one of "chromedp", "playwright" or "static".
	Driver    string         `mapstructure:"driver" yaml:"driver"`
	Headless  bool           `mapstructure:"headless" yaml:"headless"`
	UserAgent string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args      []string       `mapstructure:"args" yaml:"args"`
	Viewport  map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// NetworkConfig tunes the network behavior of the application.
type NetworkConfig struct {
	CheckTimeout      time.Duration `mapstructure:"check_timeout" yaml:"check_timeout"`
	CheckRetries      int           `mapstructure:"check_retries" yaml:"check_retries"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ActionTimeout bounds a single element interaction such as a click.
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// PostLoadWait is the settle time after every navigation.
	PostLoadWait time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// RunConfig controls the account batch and pacing.
type RunConfig struct {
	Accounts        int           `mapstructure:"accounts" yaml:"accounts"`
	Scheme          string        `mapstructure:"scheme" yaml:"scheme"`
	Seed            int64         `mapstructure:"seed" yaml:"seed"`
	TermsPerAccount int           `mapstructure:"terms_per_account" yaml:"terms_per_account"`
	Terms           []string      `mapstructure:"terms" yaml:"terms"`
	LookupTimeout   time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	OutcomeTimeout  time.Duration `mapstructure:"outcome_timeout" yaml:"outcome_timeout"`
	AccountDelay    time.Duration `mapstructure:"account_delay" yaml:"account_delay"`
	SearchDelay     time.Duration `mapstructure:"search_delay" yaml:"search_delay"`
	// Deadline bounds the whole run. Zero means no deadline.
	Deadline             time.Duration `mapstructure:"deadline" yaml:"deadline"`
	CapturePageStructure bool          `mapstructure:"capture_page_structure" yaml:"capture_page_structure"`
}

// ReportConfig controls where artifacts land.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// DefaultTerms is the built-in medical term catalogue.
var DefaultTerms = []string{
	"hypertension", "diabetes", "pneumonia", "asthma", "arthritis",
	"bronchitis", "myocardial infarction", "cerebrovascular accident",
	"gastroenteritis", "dermatitis", "nephritis", "hepatitis",
	"osteoporosis", "fibromyalgia", "tachycardia", "bradycardia",
	"hypoglycemia", "hyperglycemia", "anemia", "leukemia",
	"diabetes mellitus", "osteoarthritis", "rhinitis", "pharyngitis",
	"laryngitis", "conjunctivitis", "sinusitis", "appendicitis",
}

// DefaultUserAgent is a stable desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Supported browser drivers.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
	DriverStatic     = "static"
)

// Supported account schemes.
const (
	SchemeSequential = "sequential"
	SchemeRandom     = "random"
)

// NewDefaultConfig builds a Config populated only by SetDefaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
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
	v.SetDefault("logger.service_name", "termcheck")
	v.SetDefault("logger.log_file", "termcheck.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Target --
	v.SetDefault("target.base_url", "https://medicalterms.vercel.app")
	v.SetDefault("target.success_marker", "sign")
	v.SetDefault("target.result_xpath", "//div[contains(@class,'result') or contains(@class,'translation') or contains(@class,'definition')]")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})

	// -- Network --
	v.SetDefault("network.check_timeout", "10s")
	v.SetDefault("network.check_retries", 3)
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.action_timeout", "10s")
	v.SetDefault("network.post_load_wait", "1s")

	// -- Run --
	v.SetDefault("run.accounts", 10)
	v.SetDefault("run.scheme", SchemeSequential)
	v.SetDefault("run.seed", 0)
	v.SetDefault("run.terms_per_account", 2)
	v.SetDefault("run.terms", DefaultTerms)
	v.SetDefault("run.lookup_timeout", "2s")
	v.SetDefault("run.poll_interval", "250ms")
	v.SetDefault("run.outcome_timeout", "5s")
	v.SetDefault("run.account_delay", "2s")
	v.SetDefault("run.search_delay", "2s")
	v.SetDefault("run.deadline", "30m")
	v.SetDefault("run.capture_page_structure", true)

	// -- Report --
	v.SetDefault("report.output_dir", ".")
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target.base_url must be an absolute URL, got %q", c.Target.BaseURL)
	}
	if c.Target.ResultXPath == "" {
		return fmt.Errorf("target.result_xpath is a required configuration field")
	}
	switch c.Browser.Driver {
	case DriverChromedp, DriverPlaywright, DriverStatic:
	default:
		return fmt.Errorf("browser.driver must be one of chromedp, playwright, static; got %q", c.Browser.Driver)
	}
	switch c.Run.Scheme {
	case SchemeSequential, SchemeRandom:
	default:
		return fmt.Errorf("run.scheme must be sequential or random; got %q", c.Run.Scheme)
	}
	if c.Run.Accounts <= 0 {
		return fmt.Errorf("run.accounts must be a positive integer")
	}
	if c.Run.TermsPerAccount < 0 {
		return fmt.Errorf("run.terms_per_account must not be negative")
	}
	if c.Run.TermsPerAccount > len(c.Run.Terms) {
		return fmt.Errorf("run.terms_per_account (%d) exceeds the term catalogue size (%d)", c.Run.TermsPerAccount, len(c.Run.Terms))
	}
	if c.Run.LookupTimeout <= 0 || c.Run.PollInterval <= 0 {
		return fmt.Errorf("run.lookup_timeout and run.poll_interval must be positive")
	}
	if c.Network.ActionTimeout <= 0 {
		return fmt.Errorf("network.action_timeout must be positive")
	}
	if c.Network.CheckRetries < 0 {
		return fmt.Errorf("network.check_retries must not be negative")
	}
	return nil
}

// ViewportSize returns the configured viewport, falling back to 1920x1080.
func (b BrowserConfig) ViewportSize() (width, height int) {
	width, height = 1920, 1080
	if w, ok := b.Viewport["width"]; ok && w > 0 {
		width = w
	}
	if h, ok := b.Viewport["height"]; ok && h > 0 {
		height = h
	}
	return width, height
}
