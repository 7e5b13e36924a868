// Package config provides configuration loading and defaults for richcord.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers the Discord connection, AFK mode, run behavior, terminal
// display, logging and update checks. Command-line flags override every
// value loaded here.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hay-kot/criterio"
	"tools.zach/dev/richcord/internal/atomicfile"
	"tools.zach/dev/richcord/internal/migrate"
	"tools.zach/dev/richcord/internal/paths"
)

// DefaultAFKAppID fills afk.app_id until the operator sets a registered
// application whose Rich Presence assets include the "afk" image. --afk
// refuses to run while it is still in place.
const DefaultAFKAppID = "1094337522335334400"

// appIDRegex matches a Discord snowflake.
var appIDRegex = regexp.MustCompile(`^[0-9]{15,20}$`)

// ValidAppID reports whether id looks like a Discord application ID.
func ValidAppID(id string) bool {
	return appIDRegex.MatchString(id)
}

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Discord holds Discord connection settings.
	Discord DiscordConfig `toml:"discord"`
	// AFK holds idle-detection mode settings.
	AFK AFKConfig `toml:"afk"`
	// Behavior holds run-loop settings shared by all modes.
	Behavior BehaviorConfig `toml:"behavior"`
	// Display holds terminal output settings.
	Display DisplayConfig `toml:"display"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// Update holds release check settings.
	Update UpdateConfig `toml:"update"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	// AppID is the default application ID when --client_id is not given.
	AppID string `toml:"app_id"`
	// ConnectAttempts is how many times to try reaching Discord at startup.
	ConnectAttempts int `toml:"connect_attempts"`
	// RetryIntervalSeconds is the pause between connect attempts.
	RetryIntervalSeconds int `toml:"retry_interval_seconds"`
	// TimeoutSeconds bounds each IPC round-trip.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// AFKConfig holds idle-detection mode settings.
type AFKConfig struct {
	// AppID is the application shown while away.
	AppID string `toml:"app_id"`
	// AfterMinutes is the idle time before switching to away.
	AfterMinutes int `toml:"after_minutes"`
	// UpdateSeconds is the idle probe poll interval.
	UpdateSeconds int `toml:"update_seconds"`
	// Details is the top line of the away card.
	Details string `toml:"details"`
	// State is the bottom line of the away card; %d becomes idle minutes.
	State string `toml:"state"`
	// LargeImage is the asset key of the away image.
	LargeImage string `toml:"large_image"`
	// LargeText is the tooltip of the away image.
	LargeText string `toml:"large_text"`
}

// BehaviorConfig holds run-loop settings.
type BehaviorConfig struct {
	// IntervalSeconds re-publishes one-shot presence on this period (0 = never).
	IntervalSeconds int `toml:"interval_seconds"`
	// ExitAfterSeconds ends one-shot mode after this long (0 = run until interrupted).
	ExitAfterSeconds int `toml:"exit_after_seconds"`
	// TeardownTimeoutSeconds bounds the final clear and close on exit.
	TeardownTimeoutSeconds int `toml:"teardown_timeout_seconds"`
	// StrictParty requires party_id whenever party_size is set.
	StrictParty bool `toml:"strict_party"`
}

// DisplayConfig holds terminal output settings.
type DisplayConfig struct {
	// Color enables ANSI colors on a terminal.
	Color bool `toml:"color"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// UpdateConfig holds release check settings.
type UpdateConfig struct {
	// Check enables the background version check in long-running modes.
	Check bool `toml:"check"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Discord: DiscordConfig{
			AppID:                "",
			ConnectAttempts:      1,
			RetryIntervalSeconds: 5,
			TimeoutSeconds:       5,
		},
		AFK: AFKConfig{
			AppID:         DefaultAFKAppID,
			AfterMinutes:  5,
			UpdateSeconds: 20,
			Details:       "Away from keyboard",
			State:         "Idle for %d minutes",
			LargeImage:    "afk",
			LargeText:     "AFK",
		},
		Behavior: BehaviorConfig{
			IntervalSeconds:        0,
			ExitAfterSeconds:       0,
			TeardownTimeoutSeconds: 3,
			StrictParty:            false,
		},
		Display: DisplayConfig{
			Color: true,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		Update: UpdateConfig{
			Check: true,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Durations
// ///////////////////////////////////////////////

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// RetryInterval returns discord.retry_interval_seconds as a duration.
func (c *Config) RetryInterval() time.Duration { return seconds(c.Discord.RetryIntervalSeconds) }

// Timeout returns discord.timeout_seconds as a duration.
func (c *Config) Timeout() time.Duration { return seconds(c.Discord.TimeoutSeconds) }

// TeardownTimeout returns behavior.teardown_timeout_seconds as a duration.
func (c *Config) TeardownTimeout() time.Duration {
	return seconds(c.Behavior.TeardownTimeoutSeconds)
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)

	shouldMigrate := migrate.Config.Needs(version)
	if shouldMigrate {
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		var migrateErr error
		data, _, migrateErr = migrate.Config.Run(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate config: %w", migrateErr)
		}
	}

	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key ignored", "key", key.String())
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if shouldMigrate {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// WriteDefault writes contents to dataDir/config.toml unless a config file
// already exists. It reports whether the file was created.
func WriteDefault(dataDir string, contents []byte) (bool, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := atomicfile.Write(path, contents, 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable
// ranges. Every problem is reported as a [criterio.FieldErrors] entry keyed
// by its TOML path.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = errs.Append(field, fmt.Errorf(format, args...))
		}
	}

	check(c.Discord.AppID == "" || ValidAppID(c.Discord.AppID),
		"discord.app_id", "%q is not a Discord application ID", c.Discord.AppID)
	check(c.Discord.ConnectAttempts >= 1,
		"discord.connect_attempts", "must be >= 1, got %d", c.Discord.ConnectAttempts)
	check(c.Discord.RetryIntervalSeconds >= 0,
		"discord.retry_interval_seconds", "must be >= 0, got %d", c.Discord.RetryIntervalSeconds)
	check(c.Discord.TimeoutSeconds > 0,
		"discord.timeout_seconds", "must be > 0, got %d", c.Discord.TimeoutSeconds)

	check(ValidAppID(c.AFK.AppID),
		"afk.app_id", "%q is not a Discord application ID", c.AFK.AppID)
	check(c.AFK.AfterMinutes > 0,
		"afk.after_minutes", "must be > 0, got %d", c.AFK.AfterMinutes)
	check(c.AFK.UpdateSeconds > 0,
		"afk.update_seconds", "must be > 0, got %d", c.AFK.UpdateSeconds)
	verbs := strings.Count(c.AFK.State, "%d")
	check(verbs <= 1 && strings.Count(c.AFK.State, "%") == verbs,
		"afk.state", "only a single %%d verb is supported, got %q", c.AFK.State)

	check(c.Behavior.IntervalSeconds >= 0,
		"behavior.interval_seconds", "must be >= 0, got %d", c.Behavior.IntervalSeconds)
	check(c.Behavior.ExitAfterSeconds >= 0,
		"behavior.exit_after_seconds", "must be >= 0, got %d", c.Behavior.ExitAfterSeconds)
	check(c.Behavior.TeardownTimeoutSeconds > 0,
		"behavior.teardown_timeout_seconds", "must be > 0, got %d", c.Behavior.TeardownTimeoutSeconds)

	check(validLogLevels[strings.ToLower(c.Log.Level)],
		"log.level", "invalid level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	check(c.Log.MaxSizeMB > 0,
		"log.max_size_mb", "must be > 0, got %d", c.Log.MaxSizeMB)

	return errs.ToError()
}
