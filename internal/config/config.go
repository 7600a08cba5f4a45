package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	MarketCheck MarketCheckConfig `yaml:"marketcheck"`
	NHTSA       NHTSAConfig       `yaml:"nhtsa"`
	Generative  GenerativeConfig  `yaml:"generative"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Report      ReportConfig      `yaml:"report"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"LOG_FILE"`
	JSON  bool   `yaml:"json" env:"LOG_JSON"`
}

type MarketCheckConfig struct {
	BaseURL      string        `yaml:"base_url" env:"MARKETCHECK_BASE_URL"`
	TokenURL     string        `yaml:"token_url" env:"MARKETCHECK_TOKEN_URL"`
	APIKey       string        `yaml:"api_key" env:"MARKETCHECK_API_KEY"`
	ClientID     string        `yaml:"client_id" env:"MARKETCHECK_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"MARKETCHECK_CLIENT_SECRET"`
	Radius       int           `yaml:"radius" env:"MARKETCHECK_RADIUS"`
	RPS          float64       `yaml:"rps" env:"MARKETCHECK_RPS"`
	Timeout      time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT"`
	CacheSize    int           `yaml:"decode_cache_size" env:"DECODE_CACHE_SIZE"`
	CacheTTL     time.Duration `yaml:"decode_cache_ttl" env:"DECODE_CACHE_TTL"`
}

type NHTSAConfig struct {
	BaseURL string        `yaml:"base_url" env:"NHTSA_BASE_URL"`
	RPS     float64       `yaml:"rps" env:"NHTSA_RPS"`
	Timeout time.Duration `yaml:"timeout" env:"NHTSA_TIMEOUT"`
}

type GenerativeConfig struct {
	Provider        string        `yaml:"provider" env:"GENERATIVE_PROVIDER"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `yaml:"anthropic_model" env:"ANTHROPIC_MODEL"`
	OpenAIBaseURL   string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	OpenAIAPIKey    string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel     string        `yaml:"openai_model" env:"OPENAI_MODEL"`
	RPM             int           `yaml:"rpm" env:"GENERATIVE_RPM"`
	Timeout         time.Duration `yaml:"timeout" env:"GENERATIVE_TIMEOUT"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

type ReportConfig struct {
	ChromePath string        `yaml:"chrome_path" env:"CHROME_PATH"`
	PDFTimeout time.Duration `yaml:"pdf_timeout" env:"REPORT_PDF_TIMEOUT"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		MarketCheck: MarketCheckConfig{
			BaseURL:   "https://mc-api.marketcheck.com/v2",
			TokenURL:  "https://mc-api.marketcheck.com/oauth2/token",
			Radius:    100,
			RPS:       5,
			Timeout:   15 * time.Second,
			CacheSize: 512,
			CacheTTL:  24 * time.Hour,
		},
		NHTSA: NHTSAConfig{
			BaseURL: "https://api.nhtsa.gov",
			RPS:     10,
			Timeout: 15 * time.Second,
		},
		Generative: GenerativeConfig{
			Provider:       ProviderAnthropic,
			AnthropicModel: "claude-sonnet-4-20250514",
			OpenAIModel:    "gpt-4o-mini",
			RPM:            30,
			Timeout:        60 * time.Second,
		},
		Telemetry: TelemetryConfig{ServiceName: "vehicle-advisor"},
		Report:    ReportConfig{PDFTimeout: 30 * time.Second},
	}
}

// Load layers defaults, an optional YAML file, a .env file and the process
// environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if strings.TrimSpace(c.MarketCheck.BaseURL) == "" {
		errs = append(errs, errors.New("marketcheck base url is required"))
	}
	if c.MarketCheck.Radius <= 0 {
		errs = append(errs, fmt.Errorf("marketcheck radius must be positive, got %d", c.MarketCheck.Radius))
	}
	if strings.TrimSpace(c.NHTSA.BaseURL) == "" {
		errs = append(errs, errors.New("nhtsa base url is required"))
	}
	switch c.Generative.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unknown generative provider %q", c.Generative.Provider))
	}
	return errors.Join(errs...)
}

// MarketCheckCredentials reports whether any MarketCheck auth is configured.
func (c *Config) MarketCheckCredentials() bool {
	m := c.MarketCheck
	return (m.ClientID != "" && m.ClientSecret != "") || m.APIKey != ""
}
