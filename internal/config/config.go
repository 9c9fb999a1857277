package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Retry  RetryConfig  `mapstructure:"retry"`
	Prompt PromptConfig `mapstructure:"prompt"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	APIEndpoint    string        `mapstructure:"endpoint"`
	Model          string        `mapstructure:"model"`
	DeploymentName string        `mapstructure:"deployment"`
	APIVersion     string        `mapstructure:"api_version"`
	Temperature    float64       `mapstructure:"temperature"`
	TopP           float64       `mapstructure:"top_p"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// RetryConfig controls the rate limit backoff around completion calls.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
}

type PromptConfig struct {
	File     string `mapstructure:"file"`
	Required bool   `mapstructure:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// maxRetryAttempts keeps the exponential backoff within sane bounds.
const maxRetryAttempts = 20

var defaults = map[string]any{
	"server.port":            "8000",
	"server.host":            "0.0.0.0",
	"server.read_timeout":    "30s",
	"server.write_timeout":   "10m",
	"server.allowed_origins": []string{"http://localhost:3000"},

	"llm.provider":        "openai",
	"llm.api_key":         "",
	"llm.endpoint":        "https://api.groq.com/openai/v1",
	"llm.model":           "llama-3.1-70b-versatile",
	"llm.deployment":      "",
	"llm.api_version":     "2024-06-01",
	"llm.temperature":     0.7,
	"llm.top_p":           0.9,
	"llm.max_tokens":      4000,
	"llm.attempt_timeout": "0s",

	"retry.max_attempts": 3,
	"retry.initial_wait": "60s",

	"prompt.file":     "prompt.txt",
	"prompt.required": false,

	"log.level":  "info",
	"log.format": "text",
}

// LoadConfig reads configuration from the environment, an optional config
// file and any dotenv files. Missing dotenv files are ignored.
func LoadConfig(configFile string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded successfully", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, errors.New("llm api key is required (LLM_API_KEY, GROQ_API_KEY or OPENAI_API_KEY)"))
	}
	switch c.LLM.Provider {
	case "openai", "azure":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm max tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > maxRetryAttempts {
		errs = append(errs, fmt.Errorf("retry max attempts must be between 1 and %d, got %d", maxRetryAttempts, c.Retry.MaxAttempts))
	}
	if c.Retry.InitialWait < 0 {
		errs = append(errs, fmt.Errorf("retry initial wait must not be negative, got %s", c.Retry.InitialWait))
	}
	return errors.Join(errs...)
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}
