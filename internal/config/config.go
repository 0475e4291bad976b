// Package config loads and validates environment-driven configuration for
// the SocialPulse server and orchestrator processes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds all configuration for the API server process.
type ServerConfig struct {
	Server   HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// OrchestratorConfig holds all configuration for the batch orchestrator process.
type OrchestratorConfig struct {
	ClientID      string
	SpreadsheetID string
	OutputsDir    string
	DatasetPath   string
	Sink          string // "file" or "api"
	API           APIClientConfig
	LLM           LLMConfig
}

type HTTPConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration
}

// APIClientConfig configures the orchestrator's HTTP client for the API server.
type APIClientConfig struct {
	BaseURL        string
	Username       string
	Password       string
	Timeout        time.Duration
	TriggerTimeout time.Duration
}

type LLMConfig struct {
	Provider          string // "gemini" or "mock"
	Model             string
	APIKey            string
	InferenceTimeout  time.Duration
	RequestsPerMinute int
	RequestsPerDay    int
}

var validSinks = map[string]bool{
	"file": true,
	"api":  true,
}

var validLLMProviders = map[string]bool{
	"gemini": true,
	"mock":   true,
}

// LoadServer reads server configuration from environment variables and
// returns a validated ServerConfig. Returns a descriptive error if any
// required value is missing or invalid.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Server: HTTPConfig{
			Port: envInt("SOCIALPULSE_PORT", 8080),
			Env:  envString("SOCIALPULSE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			JWTIssuer: envString("JWT_ISSUER", "socialpulse"),
			JWTTTL:    envDuration("JWT_TTL", 24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// LoadOrchestrator reads orchestrator configuration from environment
// variables and returns a validated OrchestratorConfig.
func LoadOrchestrator() (*OrchestratorConfig, error) {
	cfg := &OrchestratorConfig{
		ClientID:      os.Getenv("CLIENT_ID"),
		SpreadsheetID: os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
		OutputsDir:    envString("OUTPUTS_DIR", "outputs"),
		DatasetPath:   envString("DATASET_PATH", "ingested_data.json"),
		Sink:          envString("PERSISTENCE_SINK", "file"),
		API: APIClientConfig{
			BaseURL:        os.Getenv("API_BASE_URL"),
			Username:       os.Getenv("API_USERNAME"),
			Password:       os.Getenv("API_PASSWORD"),
			Timeout:        envDuration("API_TIMEOUT", 30*time.Second),
			TriggerTimeout: envDuration("API_TRIGGER_TIMEOUT", 120*time.Second),
		},
		LLM: LLMConfig{
			Provider:          envString("LLM_PROVIDER", "gemini"),
			Model:             envString("LLM_MODEL", "gemini-2.5-flash"),
			APIKey:            os.Getenv("GEMINI_API_KEY"),
			InferenceTimeout:  envDurationSecs("LLM_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			RequestsPerMinute: envInt("LLM_REQUESTS_PER_MINUTE", 0),
			RequestsPerDay:    envInt("LLM_REQUESTS_PER_DAY", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *OrchestratorConfig) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	if !validSinks[c.Sink] {
		return fmt.Errorf("PERSISTENCE_SINK must be one of file, api; got %q", c.Sink)
	}
	if !validLLMProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of gemini, mock; got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER is gemini")
	}
	if c.Sink == "api" {
		if c.API.BaseURL == "" {
			return fmt.Errorf("API_BASE_URL is required when PERSISTENCE_SINK is api")
		}
		if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
			return fmt.Errorf("API_BASE_URL must start with http:// or https://, got %q", c.API.BaseURL)
		}
		if c.API.Username == "" || c.API.Password == "" {
			return fmt.Errorf("API_USERNAME and API_PASSWORD are required when PERSISTENCE_SINK is api")
		}
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
