package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8085,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        120 * time.Second,
			ShutDownTimeout:    5 * time.Second,
			RequestTimeout:     15 * time.Second,
			CORSAllowedOrigins: "*",
		},
		Data: DataConfig{
			SettingsDir:  "/tmp/pdbp",
			SettingsFile: "/tmp/pdbp/config.json",
			CacheDir:     "/tmp/pdbp/cache",
			CacheBackend: CacheBackendFile,
			LogFile:      "/tmp/pdb.log",
		},
		Bridge: BridgeConfig{
			DebuggerURL: "http://localhost:8080",
			TabName:     "SP",
			CallTimeout: 5 * time.Second,
		},
		Ratings: RatingsConfig{
			BaseURL:     "https://www.protondb.com",
			HTTPTimeout: 10 * time.Second,
		},
		Misc: MiscConfig{
			PollInterval: 2 * time.Second,
			TickTimeout:  30 * time.Second,
			MarkerFirst:  true,
			LogLevel:     "info",
			GinMode:      "release",
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero port", 0},
		{"negative port", -1},
		{"too high port", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_InvalidDurations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"zero poll interval", func(c *Config) { c.Misc.PollInterval = 0 }},
		{"negative poll interval", func(c *Config) { c.Misc.PollInterval = -time.Second }},
		{"zero tick timeout", func(c *Config) { c.Misc.TickTimeout = 0 }},
		{"zero bridge call timeout", func(c *Config) { c.Bridge.CallTimeout = 0 }},
		{"zero http timeout", func(c *Config) { c.Ratings.HTTPTimeout = 0 }},
		{"tick shorter than bridge call", func(c *Config) { c.Misc.TickTimeout = time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := cfg.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_Validate_RequiredPaths(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty settings dir", func(c *Config) { c.Data.SettingsDir = "" }},
		{"empty settings file", func(c *Config) { c.Data.SettingsFile = "" }},
		{"empty cache dir", func(c *Config) { c.Data.CacheDir = "" }},
		{"empty tab name", func(c *Config) { c.Bridge.TabName = "" }},
		{"invalid debugger url", func(c *Config) { c.Bridge.DebuggerURL = "not a url" }},
		{"invalid ratings url", func(c *Config) { c.Ratings.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			if err := cfg.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_Validate_CacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Data.CacheBackend = "memcached"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for unknown cache backend")
	}

	cfg = validConfig()
	cfg.Data.CacheBackend = CacheBackendRedis
	cfg.Data.RedisURL = "http://localhost:6379"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for non-redis url scheme")
	}

	cfg.Data.RedisURL = "redis://localhost:6379/0"
	if err := cfg.validate(); err != nil {
		t.Errorf("expected redis backend to be valid, got: %v", err)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	_ = os.Setenv("TEST_ENV_VAR", "custom_value")
	defer func() { _ = os.Unsetenv("TEST_ENV_VAR") }()

	if got := getEnvOrDefault("TEST_ENV_VAR", "default"); got != "custom_value" {
		t.Errorf("expected 'custom_value', got '%s'", got)
	}
	if got := getEnvOrDefault("NONEXISTENT_VAR_12345", "default"); got != "default" {
		t.Errorf("expected 'default', got '%s'", got)
	}
}

func TestGetEnvOrDefault_EmptyValue(t *testing.T) {
	_ = os.Setenv("TEST_EMPTY_VAR", "")
	defer func() { _ = os.Unsetenv("TEST_EMPTY_VAR") }()

	if got := getEnvOrDefault("TEST_EMPTY_VAR", "default_value"); got != "default_value" {
		t.Errorf("expected 'default_value' for empty env, got '%s'", got)
	}
}

func TestGetEnvOrViperPort(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 7000)

	port, err := getEnvOrViperPort(v, "NONEXISTENT_PORT_VAR_12345", "server.port")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 7000 {
		t.Errorf("expected viper port 7000, got %d", port)
	}

	_ = os.Setenv("TEST_PORT", "9090")
	defer func() { _ = os.Unsetenv("TEST_PORT") }()

	port, err = getEnvOrViperPort(v, "TEST_PORT", "server.port")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 9090 {
		t.Errorf("expected env port 9090, got %d", port)
	}
}

func TestGetEnvOrViperPort_InvalidEnv(t *testing.T) {
	_ = os.Setenv("TEST_PORT_INVALID", "not_a_number")
	defer func() { _ = os.Unsetenv("TEST_PORT_INVALID") }()

	if _, err := getEnvOrViperPort(viper.New(), "TEST_PORT_INVALID", "server.port"); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadConfig_WithValidDefaults(t *testing.T) {
	tempDir := t.TempDir()
	settingsDir := filepath.Join(tempDir, "pdbp")

	t.Setenv("RATEBADGE_CONFIG_PATH", tempDir)
	t.Setenv("RATEBADGE_DATA_SETTINGS_DIR", settingsDir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Misc.PollInterval != 2*time.Second {
		t.Errorf("expected default poll interval 2s, got %v", cfg.Misc.PollInterval)
	}
	if !cfg.Misc.MarkerFirst {
		t.Error("expected marker_first to default to true")
	}
	if cfg.Bridge.TabName != "SP" {
		t.Errorf("expected default tab name SP, got %q", cfg.Bridge.TabName)
	}
	if cfg.Data.SettingsFile != filepath.Join(settingsDir, "config.json") {
		t.Errorf("unexpected settings file %q", cfg.Data.SettingsFile)
	}
	if cfg.Data.CacheDir != filepath.Join(settingsDir, "cache") {
		t.Errorf("unexpected cache dir %q", cfg.Data.CacheDir)
	}

	for _, dir := range []string{settingsDir, cfg.Data.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to be created: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestLoadConfig_WithCustomPort(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("RATEBADGE_CONFIG_PATH", tempDir)
	t.Setenv("RATEBADGE_DATA_SETTINGS_DIR", filepath.Join(tempDir, "pdbp"))
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
}

func TestLoadConfig_WithInvalidPort(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("RATEBADGE_CONFIG_PATH", tempDir)
	t.Setenv("RATEBADGE_DATA_SETTINGS_DIR", filepath.Join(tempDir, "pdbp"))
	t.Setenv("PORT", "not_a_port")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	tempDir := t.TempDir()
	settingsDir := filepath.Join(tempDir, "settings")
	yaml := "misc:\n  poll_interval: 5s\n  marker_first: false\nbridge:\n  tab_name: Store\ndata:\n  settings_dir: " + settingsDir + "\n"
	if err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("RATEBADGE_CONFIG_PATH", tempDir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Misc.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", cfg.Misc.PollInterval)
	}
	if cfg.Misc.MarkerFirst {
		t.Error("expected marker_first false from file")
	}
	if cfg.Bridge.TabName != "Store" {
		t.Errorf("expected tab name Store, got %q", cfg.Bridge.TabName)
	}
}

func TestLoadConfig_SettingsDirIsFile(t *testing.T) {
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	t.Setenv("RATEBADGE_CONFIG_PATH", tempDir)
	t.Setenv("RATEBADGE_DATA_SETTINGS_DIR", blocker)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when settings dir is a regular file")
	}
}
