package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pkt.systems/montage/schema"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. Missing files fall back to defaults; present files must
// carry the current config_version.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("media_root", cfg.MediaRoot)
	v.SetDefault("frame_rate", cfg.FrameRate)
	v.SetDefault("autosave", cfg.Autosave)
	v.SetDefault("snap.tolerance_px", cfg.Snap.TolerancePx)
	v.SetDefault("seek.debounce_ms", cfg.Seek.DebounceMs)
	v.SetDefault("seek.settle_ms", cfg.Seek.SettleMs)
	v.SetDefault("history.max_entries", cfg.History.MaxEntries)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.MediaRoot = expandEnv(cfg.MediaRoot)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.FrameRate < 1 || cfg.FrameRate > schema.MaxFrameRate {
		return fmt.Errorf("frame_rate %d out of range [1, %d]", cfg.FrameRate, schema.MaxFrameRate)
	}
	if cfg.Snap.TolerancePx < 0 {
		return fmt.Errorf("snap.tolerance_px must not be negative")
	}
	if cfg.Seek.DebounceMs < 0 || cfg.Seek.SettleMs < 0 {
		return fmt.Errorf("seek timings must not be negative")
	}
	if cfg.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be at least 1")
	}
	return nil
}

// SessionConfig maps the app config onto a session config for a project.
func (c Config) SessionConfig(projectID schema.ProjectID) schema.SessionConfig {
	return schema.SessionConfig{
		ProjectID:       projectID,
		FrameRate:       c.FrameRate,
		StateDir:        c.StateDir,
		Autosave:        c.Autosave,
		SnapTolerancePx: c.Snap.TolerancePx,
		SeekDebounce:    time.Duration(c.Seek.DebounceMs) * time.Millisecond,
		SeekSettle:      time.Duration(c.Seek.SettleMs) * time.Millisecond,
		HistoryMax:      c.History.MaxEntries,
	}
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
