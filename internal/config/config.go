// Package config loads settings from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/keydrill/keydrill/internal/keybind"
)

// Config holds application configuration.
type Config struct {
	Study     StudyConfig
	Scheduler SchedulerConfig
	Keys      KeysConfig
	Paths     PathsConfig
}

// StudyConfig controls the drill loop.
type StudyConfig struct {
	TimeoutSecs        int  `mapstructure:"timeout_secs"`
	MaxAttempts        int  `mapstructure:"max_attempts"`
	EasyThresholdMS    int  `mapstructure:"easy_threshold_ms"`
	HardThresholdMS    int  `mapstructure:"hard_threshold_ms"`
	SuccessDelayMS     int  `mapstructure:"success_delay_ms"`
	FailedFlashDelayMS int  `mapstructure:"failed_flash_delay_ms"`
	ShuffleCards       bool `mapstructure:"shuffle_cards"`
}

// SchedulerConfig tunes the memory model.
type SchedulerConfig struct {
	DesiredRetention float64 `mapstructure:"desired_retention"`
	IntervalModifier float64 `mapstructure:"interval_modifier"`
	MaxIntervalDays  int     `mapstructure:"max_interval_days"`
}

// KeysConfig holds global keybinds, in display form.
type KeysConfig struct {
	Pause string `mapstructure:"pause"`
	Quit  string `mapstructure:"quit"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	DecksDir string `mapstructure:"decks_dir"`
	DBPath   string `mapstructure:"db_path"`
}

// Load reads configuration from file and env. Env var overrides use prefix KEYDRILL_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "keydrill")

	// default values
	v.SetDefault("study.timeout_secs", 5)
	v.SetDefault("study.max_attempts", 3)
	v.SetDefault("study.easy_threshold_ms", 2000)
	v.SetDefault("study.hard_threshold_ms", 5000)
	v.SetDefault("study.success_delay_ms", 600)
	v.SetDefault("study.failed_flash_delay_ms", 800)
	v.SetDefault("study.shuffle_cards", true)
	v.SetDefault("scheduler.desired_retention", 0.9)
	v.SetDefault("scheduler.interval_modifier", 1.0)
	v.SetDefault("scheduler.max_interval_days", 365)
	v.SetDefault("keys.pause", "F9")
	v.SetDefault("keys.quit", "Ctrl+Q")
	v.SetDefault("paths.decks_dir", filepath.Join(dataDir, "decks"))
	v.SetDefault("paths.db_path", filepath.Join(dataDir, "keydrill.db"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("KEYDRILL_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "keydrill"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("KEYDRILL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the session loop cannot run with.
func (c Config) Validate() error {
	if c.Study.TimeoutSecs < 1 {
		return fmt.Errorf("study.timeout_secs must be at least 1, got %d", c.Study.TimeoutSecs)
	}
	if c.Study.MaxAttempts < 1 {
		return fmt.Errorf("study.max_attempts must be at least 1, got %d", c.Study.MaxAttempts)
	}
	if c.Study.EasyThresholdMS <= 0 || c.Study.HardThresholdMS <= 0 {
		return fmt.Errorf("study thresholds must be positive")
	}
	if c.Study.EasyThresholdMS >= c.Study.HardThresholdMS {
		return fmt.Errorf("study.easy_threshold_ms (%d) must be below study.hard_threshold_ms (%d)",
			c.Study.EasyThresholdMS, c.Study.HardThresholdMS)
	}
	if c.Scheduler.DesiredRetention <= 0 || c.Scheduler.DesiredRetention > 1 {
		return fmt.Errorf("scheduler.desired_retention must be in (0, 1], got %g", c.Scheduler.DesiredRetention)
	}
	if c.Scheduler.IntervalModifier <= 0 {
		return fmt.Errorf("scheduler.interval_modifier must be positive, got %g", c.Scheduler.IntervalModifier)
	}
	if c.Scheduler.MaxIntervalDays < 1 {
		return fmt.Errorf("scheduler.max_interval_days must be at least 1, got %d", c.Scheduler.MaxIntervalDays)
	}
	if _, err := keybind.ParseChord(c.Keys.Pause); err != nil {
		return fmt.Errorf("keys.pause: %w", err)
	}
	if _, err := keybind.ParseChord(c.Keys.Quit); err != nil {
		return fmt.Errorf("keys.quit: %w", err)
	}
	return nil
}

// PauseChord returns the parsed pause keybind. Call after Validate.
func (c Config) PauseChord() keybind.Chord {
	ch, _ := keybind.ParseChord(c.Keys.Pause)
	return ch
}

// QuitChord returns the parsed quit keybind. Call after Validate.
func (c Config) QuitChord() keybind.Chord {
	ch, _ := keybind.ParseChord(c.Keys.Quit)
	return ch
}
