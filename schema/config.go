package schema

import (
	"errors"
	"time"
)

// SessionConfig defines rates and limits for an editing session.
type SessionConfig struct {
	ProjectID       ProjectID
	FrameRate       int
	StateDir        string
	Autosave        bool
	SnapTolerancePx float64
	SeekDebounce    time.Duration
	SeekSettle      time.Duration
	HistoryMax      int
}

const (
	// DefaultFrameRate is the fixed timeline rate when none is configured.
	DefaultFrameRate = 30
	// MaxFrameRate bounds configurable rates.
	MaxFrameRate = 240
	// DefaultSnapTolerancePx is the magnetic snap window in pixels.
	DefaultSnapTolerancePx = 8.0
	// DefaultSeekDebounce coalesces continuous-drag seeks.
	DefaultSeekDebounce = 50 * time.Millisecond
	// DefaultSeekSettle is how long the seeking state lasts before resting.
	DefaultSeekSettle = 100 * time.Millisecond
	// DefaultHistoryMax is the undo depth limit.
	DefaultHistoryMax = 100
)

// NormalizeSessionConfig applies defaults and validates the config.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = "untitled"
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	if cfg.FrameRate < 1 || cfg.FrameRate > MaxFrameRate {
		return SessionConfig{}, errors.New("frame rate out of range")
	}
	if cfg.SnapTolerancePx < 0 {
		return SessionConfig{}, errors.New("snap tolerance must not be negative")
	}
	if cfg.SnapTolerancePx == 0 {
		cfg.SnapTolerancePx = DefaultSnapTolerancePx
	}
	if cfg.SeekDebounce <= 0 {
		cfg.SeekDebounce = DefaultSeekDebounce
	}
	if cfg.SeekSettle <= 0 {
		cfg.SeekSettle = DefaultSeekSettle
	}
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = DefaultHistoryMax
	}
	return cfg, nil
}
