// Package config loads the tool configuration from the XDG config file and
// IGF_* environment variables, with working defaults for a fresh install.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/dmarceau/instagram-follower-cli/internal/application"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "IGF"
	appDir     = "igf"

	sessionsFile  = "sessions.enc"
	keyFile       = "sessions.key"
	whitelistFile = "whitelist.txt"
	ledgerFile    = "actions.db"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	DataDir       string
	SessionsPath  string
	KeyPath       string
	WhitelistPath string
	LedgerPath    string
	ExportDir     string

	LogLevel   zerolog.Level
	APIBaseURL string

	Unfollow application.UnfollowConfig
}

// Load reads the config file (if any), applies environment overrides and
// resolves all derived paths. A missing config file is not an error.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(xdg.ConfigHome, appDir))

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	defaults := application.DefaultUnfollowConfig()
	cfg.SetDefault("data.dir", filepath.Join(xdg.DataHome, appDir))
	cfg.SetDefault("export.dir", "")
	cfg.SetDefault("log.level", "info")
	cfg.SetDefault("api.base_url", "")
	cfg.SetDefault("unfollow.daily_cap", defaults.DailyCap)
	cfg.SetDefault("unfollow.retry_budget", defaults.RetryBudget)
	cfg.SetDefault("unfollow.delay_min", defaults.DelayMin)
	cfg.SetDefault("unfollow.delay_max", defaults.DelayMax)
	cfg.SetDefault("unfollow.transient_cooldown", defaults.TransientCooldown)
	cfg.SetDefault("unfollow.generic_cooldown", defaults.GenericCooldown)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dataDir := cfg.GetString("data.dir")
	if dataDir == "" {
		return Config{}, errors.New("data dir is empty")
	}

	level, err := zerolog.ParseLevel(cfg.GetString("log.level"))
	if err != nil {
		return Config{}, fmt.Errorf("parse log level: %w", err)
	}

	exportDir := cfg.GetString("export.dir")
	if exportDir == "" {
		exportDir = dataDir
	}

	return Config{
		DataDir:       dataDir,
		SessionsPath:  filepath.Join(dataDir, sessionsFile),
		KeyPath:       filepath.Join(dataDir, keyFile),
		WhitelistPath: filepath.Join(dataDir, whitelistFile),
		LedgerPath:    filepath.Join(dataDir, ledgerFile),
		ExportDir:     exportDir,
		LogLevel:      level,
		APIBaseURL:    cfg.GetString("api.base_url"),
		Unfollow: application.UnfollowConfig{
			DailyCap:          cfg.GetInt("unfollow.daily_cap"),
			RetryBudget:       cfg.GetInt("unfollow.retry_budget"),
			DelayMin:          duration(cfg, "unfollow.delay_min", defaults.DelayMin),
			DelayMax:          duration(cfg, "unfollow.delay_max", defaults.DelayMax),
			TransientCooldown: duration(cfg, "unfollow.transient_cooldown", defaults.TransientCooldown),
			GenericCooldown:   duration(cfg, "unfollow.generic_cooldown", defaults.GenericCooldown),
		},
	}, nil
}

func duration(cfg *viper.Viper, key string, fallback time.Duration) time.Duration {
	if d := cfg.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}
