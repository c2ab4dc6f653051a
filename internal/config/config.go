package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketPortfolio string
	BucketDocuments string
	UseSSL          bool
	Region          string
}

// IdentityConfig points at the external identity provider and fixes the two
// poll periods the session and onboarding layers run on.
type IdentityConfig struct {
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	VerifyPollInterval time.Duration
	StatusPollInterval time.Duration
}

type SecurityConfig struct {
	CookieDomain   string
	CookieSecure   bool
	TokenCookieTTL time.Duration
	AdminCookieTTL time.Duration
}

type OnboardingConfig struct {
	StatusCacheTTL time.Duration
	EventStream    string
	ReminderAge    time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Identity         IdentityConfig
	Security         SecurityConfig
	Onboarding       OnboardingConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SHUTTERHUB")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketportfolio", "shutterhub-portfolio")
	v.SetDefault("storage.bucketdocuments", "shutterhub-documents")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("identity.timeout", "10s")
	v.SetDefault("identity.verifypollinterval", "3s")
	v.SetDefault("identity.statuspollinterval", "30s")

	v.SetDefault("security.tokencookiettl", "24h")
	v.SetDefault("security.admincookiettl", "12h")

	v.SetDefault("onboarding.statuscachettl", "1m")
	v.SetDefault("onboarding.eventstream", "onboarding:events")
	v.SetDefault("onboarding.reminderage", "48h")
}
