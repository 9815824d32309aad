// Package config provides Viper-based configuration loading for the duel runner.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/search"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// PlayerConfig holds the player's starting stats.
type PlayerConfig struct {
	HitPoints int `mapstructure:"hit_points"`
	Mana      int `mapstructure:"mana"`
}

// BossConfig holds the boss's starting stats. A boss file passed on the
// command line overrides both values.
type BossConfig struct {
	HitPoints int `mapstructure:"hit_points"`
	Damage    int `mapstructure:"damage"`
}

// RulesConfig holds the duel rule variants.
type RulesConfig struct {
	// AllowEffectStacking permits recasting a spell whose effect is still active.
	AllowEffectStacking bool `mapstructure:"allow_effect_stacking"`
	// PlayerAttrition is the hit point loss at the start of each player turn.
	PlayerAttrition int `mapstructure:"player_attrition"`
}

// SearchConfig holds minimal-mana search settings.
type SearchConfig struct {
	// Strategy is "best_first" or "depth_limited".
	Strategy string `mapstructure:"strategy"`
	// MaxDepth is the cast cutoff for the depth-limited strategy.
	MaxDepth int `mapstructure:"max_depth"`
	// NodeBudget caps expanded nodes; 0 means unlimited.
	NodeBudget int `mapstructure:"node_budget"`
	// Timeout bounds the wall-clock time of a search; 0 means none.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScriptingConfig holds Lua autoplay settings.
type ScriptingConfig struct {
	// InstructionLimit caps VM instructions per load and per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Player    PlayerConfig    `mapstructure:"player"`
	Boss      BossConfig      `mapstructure:"boss"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Search    SearchConfig    `mapstructure:"search"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// DuelRules maps the rules section onto duel.Rules.
func (c Config) DuelRules() duel.Rules {
	return duel.Rules{
		AllowStacking:   c.Rules.AllowEffectStacking,
		PlayerAttrition: c.Rules.PlayerAttrition,
	}
}

// SearchOptions maps the search and rules sections onto search.Options.
// Timeout is not part of the options; callers apply it to the context.
func (c Config) SearchOptions() search.Options {
	return search.Options{
		Strategy:   search.Strategy(c.Search.Strategy),
		MaxDepth:   c.Search.MaxDepth,
		NodeBudget: c.Search.NodeBudget,
		Rules:      c.DuelRules(),
	}
}

// PlayerCombatant returns the configured player.
func (c Config) PlayerCombatant() duel.Combatant {
	return duel.NewPlayer(c.Player.HitPoints, c.Player.Mana)
}

// BossCombatant returns the configured boss.
func (c Config) BossCombatant() duel.Combatant {
	return duel.NewBoss(c.Boss.HitPoints, c.Boss.Damage)
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validatePlayer(c.Player),
		validateBoss(c.Boss),
		validateRules(c.Rules),
		validateSearch(c.Search),
		validateScripting(c.Scripting),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validatePlayer(p PlayerConfig) error {
	var errs []string
	if p.HitPoints < 1 {
		errs = append(errs, fmt.Sprintf("player.hit_points must be >= 1, got %d", p.HitPoints))
	}
	if p.Mana < 0 {
		errs = append(errs, fmt.Sprintf("player.mana must be >= 0, got %d", p.Mana))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBoss(b BossConfig) error {
	var errs []string
	if b.HitPoints < 0 {
		errs = append(errs, fmt.Sprintf("boss.hit_points must be >= 0, got %d", b.HitPoints))
	}
	if b.Damage < 0 {
		errs = append(errs, fmt.Sprintf("boss.damage must be >= 0, got %d", b.Damage))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRules(r RulesConfig) error {
	if r.PlayerAttrition < 0 {
		return fmt.Errorf("rules.player_attrition must be >= 0, got %d", r.PlayerAttrition)
	}
	return nil
}

func validateSearch(s SearchConfig) error {
	var errs []string
	validStrategies := map[string]bool{
		string(search.StrategyBestFirst):    true,
		string(search.StrategyDepthLimited): true,
	}
	if !validStrategies[s.Strategy] {
		errs = append(errs, fmt.Sprintf("search.strategy must be one of [best_first, depth_limited], got %q", s.Strategy))
	}
	if s.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("search.max_depth must be >= 1, got %d", s.MaxDepth))
	}
	if s.NodeBudget < 0 {
		errs = append(errs, fmt.Sprintf("search.node_budget must be >= 0, got %d", s.NodeBudget))
	}
	if s.Timeout < 0 {
		errs = append(errs, "search.timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DUEL_ prefix
	v.SetEnvPrefix("DUEL")
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
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("player.hit_points", 50)
	v.SetDefault("player.mana", 500)

	v.SetDefault("boss.hit_points", 55)
	v.SetDefault("boss.damage", 8)

	v.SetDefault("rules.allow_effect_stacking", false)
	v.SetDefault("rules.player_attrition", 0)

	v.SetDefault("search.strategy", string(search.StrategyBestFirst))
	v.SetDefault("search.max_depth", search.DefaultMaxDepth)
	v.SetDefault("search.node_budget", 0)
	v.SetDefault("search.timeout", "1m")

	v.SetDefault("scripting.instruction_limit", 100000)
}
