package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML, with environment
// overrides applied on top. The Gemini key, database URL and Redis address
// are all optional: a missing credential degrades the matching feature
// instead of failing startup.
type FileConfig struct {
	Port            string `yaml:"port"`
	LogLevel        string `yaml:"logLevel"`
	GeminiAPIKey    string `yaml:"geminiAPIKey"`
	GenerationModel string `yaml:"generationModel"`
	DatabaseURL     string `yaml:"databaseURL"`
	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	ChatRateLimit   int    `yaml:"chatRateLimit"`   // requests per window per client IP
	ChatRateWindowS int    `yaml:"chatRateWindowS"` // window length in seconds
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error; the service can run on environment variables alone.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// env-only run
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CHAT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parse CHAT_RATE_LIMIT: %w", err)
		}
		cfg.ChatRateLimit = n
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RedisAddr != "" {
		if cfg.ChatRateLimit <= 0 {
			cfg.ChatRateLimit = 20
		}
		if cfg.ChatRateWindowS <= 0 {
			cfg.ChatRateWindowS = 60
		}
	}
}

func validateConfig(cfg FileConfig) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return fmt.Errorf("config: port must be numeric, got %q", cfg.Port)
	}
	if port < 1 || port > 65535 {
		return errors.New("config: port must be between 1 and 65535")
	}
	return nil
}
