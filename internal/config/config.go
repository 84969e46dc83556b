// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Network    NetworkConfig    `mapstructure:"network" yaml:"network"`
	Automation AutomationConfig `mapstructure:"automation" yaml:"automation"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	NLP        NLPConfig        `mapstructure:"nlp" yaml:"nlp"`
}

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
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	Args           []string `mapstructure:"args" yaml:"args"`
}

// NetworkConfig tunes navigation and action timeouts.
type NetworkConfig struct {
	ActionTimeout   time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	SelectorTimeout time.Duration `mapstructure:"selector_timeout" yaml:"selector_timeout"`
	QuietPeriod     time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
}

// AutomationConfig tunes command execution pacing and artifact storage.
type AutomationConfig struct {
	// InterCommandDelay is the pacing guard between consecutive commands.
	InterCommandDelay time.Duration `mapstructure:"inter_command_delay" yaml:"inter_command_delay"`
	// SettleDelay is the short pause before clicks and after scrolls.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// InitSettleDelay is the pause after browser launch before readiness.
	InitSettleDelay time.Duration `mapstructure:"init_settle_delay" yaml:"init_settle_delay"`
	// TypingDelay is the per-keystroke delay emulating human input pacing.
	TypingDelay time.Duration `mapstructure:"typing_delay" yaml:"typing_delay"`
	// ScreenshotDir is where screenshot captures are stored.
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	// MaxBatchSize caps the number of commands accepted per execution.
	MaxBatchSize int `mapstructure:"max_batch_size" yaml:"max_batch_size"`
}

// LLMProvider names a supported completion-service backend.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
)

// LLMConfig defines the completion-service client configuration.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestsPerSecond rate-limits outbound completion calls.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// NLPConfig tunes the command interpretation pipeline.
type NLPConfig struct {
	// MaxTextLength is the hard upper bound on input text (precondition).
	MaxTextLength int `mapstructure:"max_text_length" yaml:"max_text_length"`
	// DefaultContext and DefaultDomain fill the prompt when the caller
	// provides none.
	DefaultContext string `mapstructure:"default_context" yaml:"default_context"`
	DefaultDomain  string `mapstructure:"default_domain" yaml:"default_domain"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "voicepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 720)

	// -- Network --
	v.SetDefault("network.action_timeout", "30s")
	v.SetDefault("network.selector_timeout", "10s")
	v.SetDefault("network.quiet_period", "500ms")

	// -- Automation --
	v.SetDefault("automation.inter_command_delay", "500ms")
	v.SetDefault("automation.settle_delay", "500ms")
	v.SetDefault("automation.init_settle_delay", "1s")
	v.SetDefault("automation.typing_delay", "50ms")
	v.SetDefault("automation.screenshot_dir", "screenshots")
	v.SetDefault("automation.max_batch_size", 20)

	// -- LLM --
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.endpoint", "https://api.openai.com/v1")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1500)
	v.SetDefault("llm.requests_per_second", 2.0)

	// -- NLP --
	v.SetDefault("nlp.max_text_length", 1000)
	v.SetDefault("nlp.default_context", "general web automation")
	v.SetDefault("nlp.default_domain", "any site")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failure here is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("llm.api_key", "VOICEPILOT_LLM_API_KEY", "OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if dir, err := homedir.Expand(cfg.Automation.ScreenshotDir); err == nil {
		cfg.Automation.ScreenshotDir = dir
	}
	if cfg.Logger.LogFile != "" {
		if path, err := homedir.Expand(cfg.Logger.LogFile); err == nil {
			cfg.Logger.LogFile = path
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser.viewport_width and browser.viewport_height must be positive")
	}
	if c.Network.ActionTimeout <= 0 {
		return fmt.Errorf("network.action_timeout must be a positive duration")
	}
	if c.Network.SelectorTimeout <= 0 {
		return fmt.Errorf("network.selector_timeout must be a positive duration")
	}
	if c.Automation.MaxBatchSize <= 0 {
		return fmt.Errorf("automation.max_batch_size must be a positive integer")
	}
	if c.NLP.MaxTextLength <= 0 {
		return fmt.Errorf("nlp.max_text_length must be a positive integer")
	}
	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("llm.requests_per_second must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0.0 and 2.0")
	}
	return nil
}
