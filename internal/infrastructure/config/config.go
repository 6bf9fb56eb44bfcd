// Package config loads runtime settings from defaults, an optional config
// file, FAQBOT_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "FAQBOT"

// Config is the complete runtime configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Knowledge   KnowledgeConfig   `mapstructure:"knowledge"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Chatlog     ChatlogConfig     `mapstructure:"chatlog"`
	Institution InstitutionConfig `mapstructure:"institution"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig controls the HTTP listener and its request limits.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests/sec, 0 disables
	RateBurst    int           `mapstructure:"rate_burst"`
}

// KnowledgeConfig locates the knowledge base and enables hot reload.
type KnowledgeConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// RetrievalConfig tunes the ranker and the relevance gate.
type RetrievalConfig struct {
	TopK      int     `mapstructure:"top_k"`
	Threshold float64 `mapstructure:"threshold"`
}

// LLMConfig selects the completion backend. An empty Model resolves to
// the provider's default, see ResolvedModel.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ChatlogConfig selects where interactions are recorded. An empty Path
// resolves to the driver's default, see ResolvedPath.
type ChatlogConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// InstitutionConfig names the institution the assistant speaks for.
type InstitutionConfig struct {
	Name      string `mapstructure:"name"`
	ShortName string `mapstructure:"short_name"`
	Website   string `mapstructure:"website"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Supported backends.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// Per-backend defaults applied when no model or path is configured.
const (
	DefaultGroqModel   = "llama-3.1-8b-instant"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "llama3.2"

	DefaultJSONLogPath   = "logs/chat_logs.json"
	DefaultSQLiteLogPath = "logs/chat_logs.db"
)

// ResolvedModel returns Model, or the provider's default when it is empty.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderGroq:
		return DefaultGroqModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderOllama:
		return DefaultOllamaModel
	}
	return ""
}

// ResolvedPath returns Path, or the driver's default when it is empty.
func (c ChatlogConfig) ResolvedPath() string {
	if c.Path != "" {
		return c.Path
	}
	switch c.Driver {
	case DriverJSON:
		return DefaultJSONLogPath
	case DriverSQLite:
		return DefaultSQLiteLogPath
	}
	return ""
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 10)

	v.SetDefault("knowledge.path", "data/faqs_final.json")
	v.SetDefault("knowledge.watch", false)

	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.threshold", 0.25)

	v.SetDefault("llm.provider", ProviderGroq)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("chatlog.driver", DriverJSON)
	v.SetDefault("chatlog.path", "")

	v.SetDefault("institution.name", "GM University (GMU)")
	v.SetDefault("institution.short_name", "GMU")
	v.SetDefault("institution.website", "the official GMU website")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// RegisterFlags adds the flag overrides the CLI exposes.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("server.addr", ":5000", "HTTP listen address")
	fs.String("knowledge.path", "data/faqs_final.json", "knowledge base JSON file")
	fs.Bool("knowledge.watch", false, "rebuild the index when the knowledge file changes")
	fs.String("llm.provider", ProviderGroq, "completion backend: groq, openai or ollama")
	fs.String("llm.model", "", "completion model (default depends on provider)")
	fs.String("chatlog.driver", DriverJSON, "interaction log: json, sqlite or none")
	fs.String("log.level", "info", "log level: debug, info, warn or error")
}

// Load resolves the configuration. configFile may be empty; flags may be nil.
// Only flags the user actually set override lower layers. Empty model and
// chatlog path are filled in per provider and driver. The result is not
// validated; commands call Validate or ValidateRetrieval for what they use.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.LLM.Model = cfg.LLM.ResolvedModel()
	cfg.Chatlog.Path = cfg.Chatlog.ResolvedPath()
	return &cfg, nil
}

// ValidateRetrieval checks the settings needed to build and query the index.
func (c *Config) ValidateRetrieval() error {
	return errors.Join(c.retrievalErrors()...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	errs := c.retrievalErrors()

	if c.LLM.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be >= 1, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}

	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q (set GROQ_API_KEY)", c.LLM.Provider))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	switch c.Chatlog.Driver {
	case DriverJSON, DriverSQLite, DriverNone:
	default:
		errs = append(errs, fmt.Errorf("unknown chatlog.driver %q", c.Chatlog.Driver))
	}

	return errors.Join(errs...)
}

func (c *Config) retrievalErrors() []error {
	var errs []error
	if c.Knowledge.Path == "" {
		errs = append(errs, errors.New("knowledge.path is required"))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be >= 1, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		errs = append(errs, fmt.Errorf("retrieval.threshold must be in [0,1], got %g", c.Retrieval.Threshold))
	}
	return errs
}
