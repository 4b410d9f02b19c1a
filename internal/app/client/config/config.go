package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath = ".env"

	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultServerAddress   = "localhost:8080"
	defaultLogLevel        = "info"
	defaultConfigDir       = ".wordsync"
	defaultSyncInterval    = 30
	defaultOfflineInterval = 300
	defaultOnlineCheck     = 3
	defaultBatchSize       = 200
	maxBatchSize           = 500
	defaultRequestTimeout  = 15
)

type Config struct {
	Env           string
	ServerAddress string
	LogLevel      string
	EnableTLS     bool

	ConfigDir string
	DBPath    string
	TokenPath string

	SyncInterval        time.Duration
	OfflineInterval     time.Duration
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	BatchSize           int
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл
// (если указан), затем .env и переменные окружения.
func Load(configFile string) (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Ошибка загрузки .env файла: %v", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("CONFIG_DIR", "")
	v.SetDefault("SYNC_INTERVAL_SECONDS", defaultSyncInterval)
	v.SetDefault("OFFLINE_INTERVAL_SECONDS", defaultOfflineInterval)
	v.SetDefault("ONLINE_CHECK_SECONDS", defaultOnlineCheck)
	v.SetDefault("SYNC_BATCH_SIZE", defaultBatchSize)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", defaultRequestTimeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, defaultConfigDir)
	}

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		ServerAddress:       v.GetString("SERVER_ADDRESS"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		EnableTLS:           v.GetBool("ENABLE_TLS"),
		ConfigDir:           configDir,
		DBPath:              filepath.Join(configDir, "words.db"),
		TokenPath:           filepath.Join(configDir, "token"),
		SyncInterval:        seconds(v, "SYNC_INTERVAL_SECONDS"),
		OfflineInterval:     seconds(v, "OFFLINE_INTERVAL_SECONDS"),
		OnlineCheckInterval: seconds(v, "ONLINE_CHECK_SECONDS"),
		RequestTimeout:      seconds(v, "REQUEST_TIMEOUT_SECONDS"),
		BatchSize:           v.GetInt("SYNC_BATCH_SIZE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return fmt.Errorf("SERVER_ADDRESS не может быть пустым")
	}
	if c.SyncInterval <= 0 || c.OfflineInterval <= 0 || c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("интервалы синхронизации должны быть положительными")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS должен быть положительным")
	}
	if c.BatchSize <= 0 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("SYNC_BATCH_SIZE должен быть в диапазоне 1..%d", maxBatchSize)
	}
	return nil
}

// BaseURL - адрес сервера со схемой.
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

// EnsureDir создает каталог данных клиента.
func (c *Config) EnsureDir() error {
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}
