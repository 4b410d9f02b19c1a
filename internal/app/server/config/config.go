package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath   = ".env"
	SecretKey = "SecRetKey"
	EnvLocal  = "local"
	EnvDev    = "dev"
	EnvProd   = "prod"

	defaultRunAddress  = ":8080"
	defaultMigrations  = "migrations"
	defaultTokenTTL    = 24
	defaultPageLimit   = 200
	MaxPageLimit       = 500
	defaultWaitTimeout = 10
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	Auth   auth
	Sync   sync
}

type db struct {
	DatabaseURI string `mapstructure:"database_uri"`
	Migrations  string `mapstructure:"migrations_path"`
}

type server struct {
	RunAddress      string        `mapstructure:"run_address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type logger struct {
	LogLevel string `mapstructure:"log_level"`
}

type auth struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type sync struct {
	PageLimit int `mapstructure:"sync_page_limit"`
}

// MustLoad читает .env (если есть) и переменные окружения.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Ошибка загрузки .env файла: %v", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("RUN_ADDRESS", defaultRunAddress)
	v.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SECRET", SecretKey)
	v.SetDefault("TOKEN_TTL_HOURS", defaultTokenTTL)
	v.SetDefault("SYNC_PAGE_LIMIT", defaultPageLimit)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", defaultWaitTimeout)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		DB: db{
			DatabaseURI: v.GetString("DATABASE_URI"),
			Migrations:  v.GetString("MIGRATIONS_PATH"),
		},
		Server: server{
			RunAddress:      v.GetString("RUN_ADDRESS"),
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Logger: logger{LogLevel: v.GetString("LOG_LEVEL")},
		Auth: auth{
			Secret:   v.GetString("SECRET"),
			TokenTTL: time.Duration(v.GetInt("TOKEN_TTL_HOURS")) * time.Hour,
		},
		Sync: sync{PageLimit: v.GetInt("SYNC_PAGE_LIMIT")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI не может быть пустым")
	}
	if c.Server.RunAddress == "" {
		return fmt.Errorf("RUN_ADDRESS не может быть пустым")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS должен быть положительным")
	}
	if c.Sync.PageLimit <= 0 || c.Sync.PageLimit > MaxPageLimit {
		return fmt.Errorf("SYNC_PAGE_LIMIT должен быть в диапазоне 1..%d", MaxPageLimit)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}
