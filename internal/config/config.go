package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env. Immutable
// after Load; injected into components at startup and never read as ambient
// state inside request handling.
type Config struct {
	TestingMode bool

	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	GeminiAPIKey          string
	GeminiAPIURL          string
	GeminiModel           string
	GeminiTemperature     float64
	GeminiMaxOutputTokens int
	GeminiTimeout         time.Duration

	// AdvisoryToken is the bearer secret for /get-farmer-advice. May be empty
	// at load time; the auth guard reports that as a server fault per request.
	AdvisoryToken string

	RequestTimeout time.Duration
	ParamMaxLength int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	TrackedCrops []string
}

type fileConfig struct {
	TestingMode *bool `yaml:"testing_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	GeminiAPI struct {
		URL             string   `yaml:"url"`
		Model           string   `yaml:"model"`
		Temperature     *float64 `yaml:"temperature"`
		MaxOutputTokens int      `yaml:"max_output_tokens"`
		Timeout         string   `yaml:"timeout"`
	} `yaml:"gemini_api"`

	Request struct {
		Timeout        string `yaml:"timeout"`
		ParamMaxLength int    `yaml:"param_max_length"`
	} `yaml:"request"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Metrics struct {
		TrackedCrops []string `yaml:"tracked_crops"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	AdvisoryToken string `yaml:"advisory_token"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. Secrets come from WEATHER_API_KEY / GEMINI_API_KEY /
// ADVISORY_TOKEN env or the secrets file, env taking precedence. Call from
// project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var sec secretsFile
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	secretsData, err := os.ReadFile(secretsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(secretsData, &sec); err != nil {
			return nil, fmt.Errorf("parse secrets file: %w", err)
		}
	}

	cfg := &Config{}
	if fc.TestingMode != nil {
		cfg.TestingMode = *fc.TestingMode
	}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey = firstNonEmpty(os.Getenv("WEATHER_API_KEY"), sec.WeatherAPIKey)
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}
	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 5*time.Second)

	cfg.GeminiAPIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), sec.GeminiAPIKey)
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY required (set env or config/secrets.yaml gemini_api_key)")
	}
	cfg.GeminiAPIURL = fc.GeminiAPI.URL
	if cfg.GeminiAPIURL == "" {
		cfg.GeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	cfg.GeminiModel = fc.GeminiAPI.Model
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash"
	}
	cfg.GeminiTemperature = 0.7
	if fc.GeminiAPI.Temperature != nil {
		cfg.GeminiTemperature = *fc.GeminiAPI.Temperature
	}
	cfg.GeminiMaxOutputTokens = fc.GeminiAPI.MaxOutputTokens
	if cfg.GeminiMaxOutputTokens <= 0 {
		cfg.GeminiMaxOutputTokens = 512
	}
	cfg.GeminiTimeout = parseDuration(fc.GeminiAPI.Timeout, 30*time.Second)

	cfg.AdvisoryToken = firstNonEmpty(os.Getenv("ADVISORY_TOKEN"), sec.AdvisoryToken)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 45*time.Second)
	cfg.ParamMaxLength = fc.Request.ParamMaxLength
	if cfg.ParamMaxLength <= 0 {
		cfg.ParamMaxLength = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.TrackedCrops = fc.Metrics.TrackedCrops

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal on empty
// string, parse error, or non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// The advisory pipeline runs the two upstream calls in sequence, so the
// request timeout must cover both; auto-adjusts RequestTimeout if needed.
func validate(cfg *Config) error {
	if cfg.GeminiTemperature < 0 || cfg.GeminiTemperature > 2 {
		return fmt.Errorf("gemini_api.temperature must be in [0, 2], got %v", cfg.GeminiTemperature)
	}
	pipeline := cfg.WeatherAPITimeout + cfg.GeminiTimeout
	if cfg.RequestTimeout <= pipeline {
		cfg.RequestTimeout = pipeline + time.Second
	}
	return nil
}
