// Package config provides Viper-based configuration loading for Mirefall.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlayerConfig holds character setup.
type PlayerConfig struct {
	// Name is the player character's display name.
	Name string `mapstructure:"name"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File is the log destination. The terminal is owned by the game UI, so
	// logs go to a file rather than stderr.
	File string `mapstructure:"file"`
}

// CombatConfig holds combat pacing settings.
type CombatConfig struct {
	// TickInterval is the scheduler cadence. Zero falls back to the engine's
	// reference tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// TurnDelay is the cosmetic pause between announcing an action and
	// resolving it.
	TurnDelay time.Duration `mapstructure:"turn_delay"`
}

// ContentConfig holds content pack settings.
type ContentConfig struct {
	// Dir is the root directory holding items/, skills/, and monsters/.
	Dir string `mapstructure:"dir"`
}

// ScriptingConfig holds Lua decision script settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua decision scripts. A missing directory
	// disables scripted AI.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per decision; 0 uses the engine
	// default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// DungeonConfig holds floor generation bounds.
type DungeonConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// TelemetryConfig holds trace export settings.
type TelemetryConfig struct {
	// Enabled turns on the OTLP trace exporter.
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Player    PlayerConfig    `mapstructure:"player"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Dungeon   DungeonConfig   `mapstructure:"dungeon"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validatePlayer(c.Player); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDungeon(c.Dungeon); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePlayer(p PlayerConfig) error {
	if p.Name == "" {
		return fmt.Errorf("player.name must not be empty")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File == "" {
		errs = append(errs, "logging.file must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.TickInterval < 0 {
		errs = append(errs, "combat.tick_interval must not be negative")
	}
	if c.TurnDelay < 0 {
		errs = append(errs, "combat.turn_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.Dir == "" {
		return fmt.Errorf("content.dir must not be empty")
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateDungeon(d DungeonConfig) error {
	var errs []string
	if d.Width < 40 {
		errs = append(errs, fmt.Sprintf("dungeon.width must be >= 40, got %d", d.Width))
	}
	if d.Height < 24 {
		errs = append(errs, fmt.Sprintf("dungeon.height must be >= 24, got %d", d.Height))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path loads
// defaults and environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MIREFALL_ prefix
	v.SetEnvPrefix("MIREFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("player.name", "Adventurer")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "mirefall.log")

	v.SetDefault("combat.tick_interval", "16ms")
	v.SetDefault("combat.turn_delay", "400ms")

	v.SetDefault("content.dir", "content")

	v.SetDefault("scripting.dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("dungeon.width", 80)
	v.SetDefault("dungeon.height", 40)

	v.SetDefault("telemetry.enabled", false)
}
