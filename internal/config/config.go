// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete runtime configuration.
// Values are layered defaults → optional config file → environment variables.
type Config struct {
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`

	LLM       LLMConfig       `mapstructure:"llm"`
	Deepgram  DeepgramConfig  `mapstructure:"deepgram"`
	Bland     BlandConfig     `mapstructure:"bland"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Interview InterviewConfig `mapstructure:"interview"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LLMConfig selects the generative-text provider and its credentials.
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	if strings.EqualFold(c.Provider, "openai") {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// DeepgramConfig configures the speech-to-text service.
type DeepgramConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// BlandConfig configures the outbound-calling service.
type BlandConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// TwilioConfig configures candidate notifications. Notifications are disabled when AccountSID is empty.
type TwilioConfig struct {
	AccountSID     string `mapstructure:"account_sid"`
	AuthToken      string `mapstructure:"auth_token"`
	FromNumber     string `mapstructure:"from_number"`
	WhatsAppNumber string `mapstructure:"whatsapp_number"`
	ContentSID     string `mapstructure:"content_sid"`
	Channel        string `mapstructure:"channel"`
}

// Enabled reports whether enough credentials are present to send messages.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// StorageConfig holds local filesystem locations.
type StorageConfig struct {
	RecordingsDir    string `mapstructure:"recordings_dir"`
	InterviewLogPath string `mapstructure:"interview_log_path"`
}

// DocumentsConfig configures resume extraction.
type DocumentsConfig struct {
	PDFLicenseKey string `mapstructure:"pdf_license_key"`
}

// InterviewConfig holds the fixed parts of the call script.
type InterviewConfig struct {
	Company   string `mapstructure:"company"`
	AgentName string `mapstructure:"agent_name"`
	SalaryCap string `mapstructure:"salary_cap"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// RateLimitConfig holds the global rate limiter settings.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       string        `mapstructure:"whitelist"`
	Blacklist       string        `mapstructure:"blacklist"`
}

// envBindings maps config keys to the environment variables that may set them.
// Earlier names take precedence.
var envBindings = map[string][]string{
	"port":                        {"PORT"},
	"database_url":                {"DATABASE_URL"},
	"llm.provider":                {"LLM_PROVIDER"},
	"llm.gemini_api_key":          {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"llm.openai_api_key":          {"OPENAI_API_KEY"},
	"deepgram.api_key":            {"DEEPGRAM_API_KEY"},
	"deepgram.base_url":           {"DEEPGRAM_BASE_URL"},
	"bland.api_key":               {"BLAND_API_KEY", "BLAND_AI_API_KEY"},
	"bland.base_url":              {"BLAND_BASE_URL"},
	"twilio.account_sid":          {"TWILIO_ACCOUNT_SID"},
	"twilio.auth_token":           {"TWILIO_AUTH_TOKEN"},
	"twilio.from_number":          {"TWILIO_FROM_NUMBER", "TWILIO_PHONE_NUMBER"},
	"twilio.whatsapp_number":      {"TWILIO_WHATSAPP_NUMBER"},
	"twilio.content_sid":          {"TWILIO_CONTENT_SID"},
	"twilio.channel":              {"NOTIFY_CHANNEL"},
	"storage.recordings_dir":      {"RECORDINGS_DIR"},
	"storage.interview_log_path":  {"INTERVIEW_LOG_PATH"},
	"documents.pdf_license_key":   {"UNIDOC_LICENSE_API_KEY"},
	"interview.company":           {"INTERVIEW_COMPANY"},
	"interview.agent_name":        {"INTERVIEW_AGENT_NAME"},
	"interview.salary_cap":        {"INTERVIEW_SALARY_CAP"},
	"jwt.secret":                  {"JWT_SECRET"},
	"jwt.expiration_hours":        {"JWT_EXPIRATION_HOURS"},
	"log.json":                    {"LOG_JSON"},
	"log.debug":                   {"LOG_DEBUG"},
	"rate_limit.enabled":          {"RATE_LIMIT_ENABLED"},
	"rate_limit.default_limit":    {"RATE_LIMIT_DEFAULT_LIMIT"},
	"rate_limit.default_window":   {"RATE_LIMIT_DEFAULT_WINDOW"},
	"rate_limit.cleanup_interval": {"RATE_LIMIT_CLEANUP_INTERVAL"},
	"rate_limit.whitelist":        {"RATE_LIMIT_WHITELIST"},
	"rate_limit.blacklist":        {"RATE_LIMIT_BLACKLIST"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("deepgram.base_url", "https://api.deepgram.com")
	v.SetDefault("bland.base_url", "https://api.bland.ai")
	v.SetDefault("twilio.channel", "whatsapp")
	v.SetDefault("storage.recordings_dir", "recordings")
	v.SetDefault("storage.interview_log_path", "data/interviews.jsonl")
	v.SetDefault("interview.company", "Proton2364")
	v.SetDefault("interview.agent_name", "Neo")
	v.SetDefault("interview.salary_cap", "₹25,000 per month")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)
}

// Load reads the configuration. cfgFile is optional; when set it must exist and parse.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Twilio.Channel = strings.ToLower(strings.TrimSpace(c.Twilio.Channel))
	c.Bland.BaseURL = strings.TrimRight(c.Bland.BaseURL, "/")
	c.Deepgram.BaseURL = strings.TrimRight(c.Deepgram.BaseURL, "/")
}

// Validate checks the settings every server start needs.
// The server refuses to start without a generative-text key or a database URL.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("config error: unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.APIKey() == "" {
		errs = append(errs, fmt.Errorf("config error: API key for llm provider %q is not set", c.LLM.Provider))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("config error: DATABASE_URL is not set"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config error: invalid port %d", c.Port))
	}
	switch c.Twilio.Channel {
	case "sms", "whatsapp":
	default:
		errs = append(errs, fmt.Errorf("config error: unknown notify channel %q", c.Twilio.Channel))
	}
	if c.JWT.Enabled() {
		if err := c.JWT.normalize(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ParseIPList parses a comma-separated list of IP addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
