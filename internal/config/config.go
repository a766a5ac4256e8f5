package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	OIDCIssuerURL    string   `mapstructure:"OIDC_ISSUER_URL"`
	OIDCClientID     string   `mapstructure:"OIDC_CLIENT_ID"`
	OIDCClientSecret string   `mapstructure:"OIDC_CLIENT_SECRET"`
	SessionSecret    string   `mapstructure:"SESSION_SECRET"`
	SessionTTLHours  int      `mapstructure:"SESSION_TTL_HOURS"`
	AppDomains       []string `mapstructure:"APP_DOMAINS"`
	AuthBypass       bool     `mapstructure:"AUTH_BYPASS"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_HOURS", 168)
	v.SetDefault("APP_DOMAINS", "localhost:8000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("OIDC_ISSUER_URL")
	v.BindEnv("OIDC_CLIENT_ID")
	v.BindEnv("OIDC_CLIENT_SECRET")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_HOURS")
	v.BindEnv("APP_DOMAINS")
	v.BindEnv("AUTH_BYPASS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.AppDomains == nil {
		if domains := v.GetString("APP_DOMAINS"); domains != "" {
			cfg.AppDomains = strings.Split(domains, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.AuthBypass {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: AUTH_BYPASS is enabled. Every request is treated as a")
		log.Println("WARNING: fixed development identity. This only works with")
		log.Println("WARNING: ENV=development and must NEVER ship to production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the OIDC settings and a real session secret are mandatory, and the auth
// bypass must be off. The bypass has its own flag on purpose: it can never be
// reached by flipping the same ENV toggle that selects production behaviour.
func (c *Config) Validate() error {
	if c.AuthBypass && !c.IsDev() {
		return fmt.Errorf(
			"AUTH_BYPASS is only permitted with ENV=development (current ENV=%q). "+
				"Refusing to start with authentication disabled", c.Env)
	}

	if !c.IsDev() {
		if c.OIDCIssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when ENV=%q", c.Env)
		}
		if c.OIDCClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when ENV=%q", c.Env)
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
		}
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(c.SessionSecret))
	}

	if len(c.AppDomains) == 0 {
		return fmt.Errorf("APP_DOMAINS must list at least one application domain")
	}

	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}

	return nil
}
