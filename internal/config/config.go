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
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	AvatarFolder string
	UseSSL       bool
	Region       string
}

// TierTokenConfig is one token namespace's signing key and lifetime.
type TierTokenConfig struct {
	Secret string
	TTL    time.Duration
}

type SecurityConfig struct {
	AccountToken    TierTokenConfig
	AdminToken      TierTokenConfig
	SuperAdminToken TierTokenConfig

	// InitialAdminPassword is the fixed admin password assigned when a
	// superadmin elevates a target account to ADMIN.
	InitialAdminPassword string

	MaxLoginAttempts   int
	LoginAttemptWindow time.Duration

	SecureCookies bool
}

type JobsConfig struct {
	IntegritySweep bool
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ONEACCOUNT")
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

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	for name, tier := range map[string]TierTokenConfig{
		"accounttoken":    cfg.Security.AccountToken,
		"admintoken":      cfg.Security.AdminToken,
		"superadmintoken": cfg.Security.SuperAdminToken,
	} {
		if tier.Secret == "" {
			return fmt.Errorf("security.%s.secret is required", name)
		}
	}
	if cfg.Security.InitialAdminPassword == "" {
		return fmt.Errorf("security.initialadminpassword is required")
	}
	return nil
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

	v.SetDefault("storage.bucket", "oneaccount-avatars")
	v.SetDefault("storage.avatarfolder", "account_avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.accounttoken.ttl", "24h")
	v.SetDefault("security.admintoken.ttl", "12h")
	v.SetDefault("security.superadmintoken.ttl", "6h")
	v.SetDefault("security.maxloginattempts", 10)
	v.SetDefault("security.loginattemptwindow", "15m")
	v.SetDefault("security.securecookies", false)

	v.SetDefault("jobs.integritysweep", true)
}
