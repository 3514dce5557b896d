// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// MUUK_DATABASE_URL for database.url.
const EnvPrefix = "MUUK"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Report() ReportConfig
	Engine() EngineConfig
	Database() DatabaseConfig
	Fetch() FetchConfig

	// Setters used by CLI flag overrides.
	SetReportBrowser(string)
	SetEngineWorkerConcurrency(int)
	SetEngineAttributeFallback(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	ReportCfg   ReportConfig   `mapstructure:"report" yaml:"report"`
	EngineCfg   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	FetchCfg    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Report() ReportConfig     { return c.ReportCfg }
func (c *Config) Engine() EngineConfig     { return c.EngineCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Fetch() FetchConfig       { return c.FetchCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetReportBrowser(b string)         { c.ReportCfg.Browser = b }
func (c *Config) SetEngineWorkerConcurrency(w int)  { c.EngineCfg.WorkerConcurrency = w }
func (c *Config) SetEngineAttributeFallback(b bool) { c.EngineCfg.AttributeFallback = b }

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

type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ReportConfig locates the recorder output of a test run.
type ReportConfig struct {
	// Dir holds one <className>.json report per test class.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// DOMDir holds the per-step DOM snapshots.
	DOMDir string `mapstructure:"dom_dir" yaml:"dom_dir"`
	// Browser is the default browser name used in snapshot file names.
	Browser string `mapstructure:"browser" yaml:"browser"`
	// TraceMarker is a file name; when it exists in the working directory the
	// assembled steps are dumped to stderr.
	TraceMarker string `mapstructure:"trace_marker" yaml:"trace_marker"`
}

// EngineConfig tunes the selector analysis.
type EngineConfig struct {
	WorkerConcurrency int `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
	// StepTimeout bounds the analysis of a single step. Zero disables it.
	StepTimeout       time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	AttributeFallback bool          `mapstructure:"attribute_fallback" yaml:"attribute_fallback"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// FetchConfig configures the test bundle download.
type FetchConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	KeyFile     string        `mapstructure:"key_file" yaml:"key_file"`
	TestRoute   string        `mapstructure:"test_route" yaml:"test_route"`
	ArchivePath string        `mapstructure:"archive_path" yaml:"archive_path"`
	TestCommand []string      `mapstructure:"test_command" yaml:"test_command"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
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
	v.SetDefault("logger.service_name", "muuk")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Report --
	v.SetDefault("report.dir", "build/reports")
	v.SetDefault("report.dom_dir", "build/reports/dom")
	v.SetDefault("report.browser", "chrome")
	v.SetDefault("report.trace_marker", "TOUCH_TRACE_REPORT")

	// -- Engine --
	v.SetDefault("engine.worker_concurrency", 4)
	v.SetDefault("engine.step_timeout", "0s")
	v.SetDefault("engine.attribute_fallback", false)

	// -- Database --
	v.SetDefault("database.url", "")

	// -- Fetch --
	v.SetDefault("fetch.base_url", "http://localhost:8081")
	v.SetDefault("fetch.key_file", "key.pub")
	v.SetDefault("fetch.test_route", "src/test/groovy")
	v.SetDefault("fetch.archive_path", "test.zip")
	v.SetDefault("fetch.test_command", []string{"./gradlew", "clean", "test"})
	v.SetDefault("fetch.timeout", "60s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if c.EngineCfg.WorkerConcurrency <= 0 {
		return fmt.Errorf("engine.worker_concurrency must be a positive integer")
	}
	if c.EngineCfg.StepTimeout < 0 {
		return fmt.Errorf("engine.step_timeout must not be negative")
	}
	if strings.TrimSpace(c.ReportCfg.Dir) == "" {
		return fmt.Errorf("report.dir is a required configuration field")
	}
	if err := c.FetchCfg.Validate(); err != nil {
		return fmt.Errorf("fetch configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the fetch configuration.
func (f *FetchConfig) Validate() error {
	if f.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if f.TestRoute == "" || f.ArchivePath == "" {
		return fmt.Errorf("test_route and archive_path are required")
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	return nil
}
