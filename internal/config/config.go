package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	API    APIConfig    `mapstructure:"api"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Log    LogConfig    `mapstructure:"log"`
	Health HealthConfig `mapstructure:"health"`
	Notify NotifyConfig `mapstructure:"notify"`
	UI     UIConfig     `mapstructure:"ui"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// APIConfig points at the external assistant API.
type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserID     string        `mapstructure:"user_id"`
	Platform   string        `mapstructure:"platform"`
	MaxResults int           `mapstructure:"max_results"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HealthConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NotifyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type UIConfig struct {
	Title          string   `mapstructure:"title"`
	QuickQuestions []string `mapstructure:"quick_questions"`
	HistoryFile    string   `mapstructure:"history_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_id", "frontend_user")
	v.SetDefault("api.platform", "web")
	v.SetDefault("api.max_results", 5)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("health.cache_ttl", 15*time.Second)
	v.SetDefault("notify.ttl", 5*time.Second)

	v.SetDefault("ui.title", "HLAS Insurance Assistant")
	v.SetDefault("ui.quick_questions", []string{
		"What does travel insurance cover?",
		"How do I make a claim?",
		"What is the waiting period for critical illness cover?",
	})
	v.SetDefault("ui.history_file", "")
}

// Load reads configPath when it is non-empty and layers ASSISTANT_* env vars
// on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	return c, nil
}
