package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bassista/go_ratebadge/internal/logger"
)

const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Bridge  BridgeConfig
	Ratings RatingsConfig
	Misc    MiscConfig
}

type ServerConfig struct {
	Port               int           `validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `validate:"gt=0"`
	WriteTimeout       time.Duration `validate:"gt=0"`
	IdleTimeout        time.Duration `validate:"gt=0"`
	ShutDownTimeout    time.Duration `validate:"gt=0"`
	RequestTimeout     time.Duration `validate:"gt=0"`
	CORSAllowedOrigins string
}

type DataConfig struct {
	SettingsDir  string `validate:"required"`
	SettingsFile string `validate:"required"`
	CacheDir     string `validate:"required"`
	CacheBackend string `validate:"oneof=file redis"`
	RedisURL     string
	RedisPrefix  string
	LogFile      string
}

type BridgeConfig struct {
	DebuggerURL string        `validate:"required,url"`
	TabName     string        `validate:"required"`
	CallTimeout time.Duration `validate:"gt=0"`
}

type RatingsConfig struct {
	BaseURL     string        `validate:"required,url"`
	HTTPTimeout time.Duration `validate:"gt=0"`
}

type MiscConfig struct {
	PollInterval time.Duration `validate:"gt=0"`
	TickTimeout  time.Duration `validate:"gt=0"`
	MarkerFirst  bool
	LogLevel     string
	GinMode      string
}

// LoadConfig reads config.yaml (optional), .env (optional) and RATEBADGE_* env vars,
// validates the result and makes sure the settings and cache directories exist.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault("RATEBADGE_CONFIG_PATH", "./config"))

	setDefaults(v)

	v.SetEnvPrefix("RATEBADGE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	settingsDir := v.GetString("data.settings_dir")
	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
		},
		Data: DataConfig{
			SettingsDir:  settingsDir,
			SettingsFile: orJoin(v.GetString("data.settings_file"), settingsDir, "config.json"),
			CacheDir:     orJoin(v.GetString("data.cache_dir"), settingsDir, "cache"),
			CacheBackend: v.GetString("data.cache_backend"),
			RedisURL:     v.GetString("data.redis_url"),
			RedisPrefix:  v.GetString("data.redis_prefix"),
			LogFile:      v.GetString("data.log_file"),
		},
		Bridge: BridgeConfig{
			DebuggerURL: v.GetString("bridge.debugger_url"),
			TabName:     v.GetString("bridge.tab_name"),
			CallTimeout: v.GetDuration("bridge.call_timeout"),
		},
		Ratings: RatingsConfig{
			BaseURL:     v.GetString("ratings.base_url"),
			HTTPTimeout: v.GetDuration("ratings.http_timeout"),
		},
		Misc: MiscConfig{
			PollInterval: v.GetDuration("misc.poll_interval"),
			TickTimeout:  v.GetDuration("misc.tick_timeout"),
			MarkerFirst:  v.GetBool("misc.marker_first"),
			LogLevel:     v.GetString("misc.log_level"),
			GinMode:      v.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.Data.SettingsDir); err != nil {
		return nil, err
	}
	if cfg.Data.CacheBackend == CacheBackendFile {
		if err := ensureDir(cfg.Data.CacheDir); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}

	v.SetDefault("server.port", 8085)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("data.settings_dir", filepath.Join(home, ".config", "pdbp"))
	v.SetDefault("data.settings_file", "")
	v.SetDefault("data.cache_dir", "")
	v.SetDefault("data.cache_backend", CacheBackendFile)
	v.SetDefault("data.redis_url", "redis://localhost:6379/0")
	v.SetDefault("data.redis_prefix", "ratebadge:")
	v.SetDefault("data.log_file", filepath.Join(home, "pdb.log"))

	v.SetDefault("bridge.debugger_url", "http://localhost:8080")
	v.SetDefault("bridge.tab_name", "SP")
	v.SetDefault("bridge.call_timeout", 5*time.Second)

	v.SetDefault("ratings.base_url", "https://www.protondb.com")
	v.SetDefault("ratings.http_timeout", 10*time.Second)

	v.SetDefault("misc.poll_interval", 2*time.Second)
	v.SetDefault("misc.tick_timeout", 30*time.Second)
	v.SetDefault("misc.marker_first", true)
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Data.CacheBackend == CacheBackendRedis {
		if c.Data.RedisURL == "" {
			return errors.New("invalid configuration: data.redis_url is required for the redis cache backend")
		}
		if u, err := url.Parse(c.Data.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("invalid configuration: data.redis_url %q must use redis or rediss scheme", c.Data.RedisURL)
		}
	}
	if c.Misc.TickTimeout < c.Bridge.CallTimeout {
		return fmt.Errorf("invalid configuration: misc.tick_timeout (%v) must not be shorter than bridge.call_timeout (%v)", c.Misc.TickTimeout, c.Bridge.CallTimeout)
	}
	return nil
}

var (
	validate       = validator.New()
	envKeyReplacer = strings.NewReplacer(".", "_")
)

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if raw := os.Getenv(envKey); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", envKey, raw, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}

func orJoin(value, dir, name string) string {
	if value != "" {
		return value
	}
	return filepath.Join(dir, name)
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	logger.WithComponent("config").Infof("%s is not a directory, attempting to create it", path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}
