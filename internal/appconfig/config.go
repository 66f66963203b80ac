package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/montage/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	MediaRoot     string        `mapstructure:"media_root" yaml:"media_root"`
	FrameRate     int           `mapstructure:"frame_rate" yaml:"frame_rate"`
	Autosave      bool          `mapstructure:"autosave" yaml:"autosave"`
	Snap          SnapConfig    `mapstructure:"snap" yaml:"snap"`
	Seek          SeekConfig    `mapstructure:"seek" yaml:"seek"`
	History       HistoryConfig `mapstructure:"history" yaml:"history"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// SnapConfig controls magnetic snapping.
type SnapConfig struct {
	TolerancePx float64 `mapstructure:"tolerance_px" yaml:"tolerance_px"`
}

// SeekConfig controls seek coalescing and settling.
type SeekConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	SettleMs   int `mapstructure:"settle_ms" yaml:"settle_ms"`
}

// HistoryConfig controls undo depth.
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".montage", "state"),
		MediaRoot:     filepath.Join(home, ".montage", "media"),
		FrameRate:     schema.DefaultFrameRate,
		Autosave:      true,
		Snap: SnapConfig{
			TolerancePx: schema.DefaultSnapTolerancePx,
		},
		Seek: SeekConfig{
			DebounceMs: int(schema.DefaultSeekDebounce.Milliseconds()),
			SettleMs:   int(schema.DefaultSeekSettle.Milliseconds()),
		},
		History: HistoryConfig{
			MaxEntries: schema.DefaultHistoryMax,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".montage", "config.yaml"), nil
}
