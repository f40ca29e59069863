package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// MaxContentLength caps request bodies and uploaded PDFs.
	MaxContentLength int64 = 16 << 20
	// MaxTextChars is the largest extracted document accepted into a session.
	MaxTextChars = 10000
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `mapstructure:"basic_config"`
	Provider    string                    `mapstructure:"provider"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Session     SessionConfig             `mapstructure:"session"`
	Redis       RedisConfig               `mapstructure:"redis"`
	Databases   map[string]DatabaseConfig `mapstructure:"databases"`
	Log         LogConfig                 `mapstructure:"log"`
}

type BasicConfig struct {
	Port            int           `mapstructure:"port"`
	UploadDir       string        `mapstructure:"upload_dir"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

type SessionConfig struct {
	// Backend is one of memory, redis or sql.
	Backend      string        `mapstructure:"backend"`
	Database     string        `mapstructure:"database"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DBName   string `mapstructure:"db_name"`
	Params   string `mapstructure:"params"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// providerKeyEnv maps a provider to the environment variable holding its API key.
var providerKeyEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
}

// ErrMissingAPIKey is returned when the selected provider has no API key.
var ErrMissingAPIKey = errors.New("api key not configured")

// Address returns the listen address derived from the port.
func (c *Config) Address() string {
	return fmt.Sprintf("0.0.0.0:%d", c.BasicConfig.Port)
}

// ActiveProvider returns the configuration of the selected provider.
func (c *Config) ActiveProvider() ProviderConfig {
	return c.Providers[c.Provider]
}

// Load reads configuration from the optional file at path, the process
// environment and a .env file in the working directory. The API key of the
// selected provider must be present.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadLocal is Load for commands that never call the model provider; a
// missing API key is not an error.
func LoadLocal(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, requireKey bool) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PDFQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("basic_config.port", "PORT", "PDFQUERY_BASIC_CONFIG_PORT")

	if path == "" {
		path = os.Getenv("PDFQUERY_CONFIG")
	}
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		v.SetConfigFile(absPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", absPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(requireKey); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("basic_config.port", 5000)
	v.SetDefault("basic_config.upload_dir", "uploads")
	v.SetDefault("basic_config.janitor_interval", time.Duration(0))
	v.SetDefault("provider", "gemini")
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.claude.model", "claude-3-5-haiku-latest")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.database", "sqlite3")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("databases.sqlite3.dsn", "file:sessions.db?cache=shared")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (c *Config) normalize(requireKey bool) error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	envName, ok := providerKeyEnv[c.Provider]
	if !ok {
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	provCfg := c.Providers[c.Provider]
	if provCfg.APIKey == "" {
		provCfg.APIKey = strings.TrimSpace(os.Getenv(envName))
	}
	if provCfg.APIKey == "" && requireKey {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, envName)
	}
	c.Providers[c.Provider] = provCfg

	if c.BasicConfig.Port <= 0 {
		c.BasicConfig.Port = 5000
	}
	if c.BasicConfig.UploadDir == "" {
		c.BasicConfig.UploadDir = "uploads"
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 30 * time.Minute
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "session"
	}
	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	return nil
}
