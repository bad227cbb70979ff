package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "CONDUIT"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "conduit.db"
	defaultLogLevel      = "info"
	defaultTokenTTLMins  = 60
	defaultTokenIssuer   = "conduit-auth"
	defaultTokenAudience = "conduit-api"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	TokenTTL      time.Duration
	TokenIssuer   string
	TokenAudience string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMins)
	configViper.SetDefault("token.issuer", defaultTokenIssuer)
	configViper.SetDefault("token.audience", defaultTokenAudience)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		TokenIssuer:   configViper.GetString("token.issuer"),
		TokenAudience: configViper.GetString("token.audience"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}
