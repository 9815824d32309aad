package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/search"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Player: PlayerConfig{HitPoints: 50, Mana: 500},
		Boss:   BossConfig{HitPoints: 55, Damage: 8},
		Search: SearchConfig{
			Strategy: "best_first",
			MaxDepth: 10,
			Timeout:  time.Minute,
		},
		Scripting: ScriptingConfig{InstructionLimit: 100000},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
player:
  hit_points: 10
  mana: 250
boss:
  hit_points: 13
  damage: 8
rules:
  allow_effect_stacking: true
  player_attrition: 1
search:
  strategy: depth_limited
  max_depth: 8
  node_budget: 5000
  timeout: 30s
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Player.HitPoints)
	assert.Equal(t, 13, cfg.Boss.HitPoints)
	assert.True(t, cfg.Rules.AllowEffectStacking)
	assert.Equal(t, "depth_limited", cfg.Search.Strategy)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 100000, cfg.Scripting.InstructionLimit, "unset keys keep their defaults")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, duel.NewPlayer(50, 500), cfg.PlayerCombatant())
	assert.Equal(t, duel.NewBoss(55, 8), cfg.BossCombatant())
	assert.Equal(t, search.DefaultMaxDepth, cfg.Search.MaxDepth)
	assert.Equal(t, time.Minute, cfg.Search.Timeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DUEL_BOSS_DAMAGE", "9")
	t.Setenv("DUEL_SEARCH_STRATEGY", "depth_limited")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Boss.Damage)
	assert.Equal(t, "depth_limited", cfg.Search.Strategy)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadFromViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("player.hit_points", 0)
	_, err := LoadFromViper(v)
	assert.ErrorContains(t, err, "player.hit_points")
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Output = ""
	assert.Error(t, cfg.Validate())
}

func TestValidatePlayer(t *testing.T) {
	cfg := validConfig()
	cfg.Player.HitPoints = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Player.Mana = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Player.Mana = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateBoss(t *testing.T) {
	cfg := validConfig()
	cfg.Boss.Damage = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Boss.HitPoints = 0
	assert.NoError(t, cfg.Validate(), "a boss that starts dead is a valid, trivial fight")
}

func TestValidateRules(t *testing.T) {
	cfg := validConfig()
	cfg.Rules.PlayerAttrition = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateSearch(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Strategy = "random"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Search.MaxDepth = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Search.NodeBudget = -5
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Search.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidateScripting(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.InstructionLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateAggregatesViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	cfg.Player.HitPoints = 0
	cfg.Search.MaxDepth = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "player.hit_points")
	assert.Contains(t, err.Error(), "search.max_depth")
}

func TestDomainMapping(t *testing.T) {
	cfg := validConfig()
	cfg.Rules = RulesConfig{AllowEffectStacking: true, PlayerAttrition: 1}
	cfg.Search.NodeBudget = 42

	assert.Equal(t, duel.Rules{AllowStacking: true, PlayerAttrition: 1}, cfg.DuelRules())
	assert.Equal(t, search.Options{
		Strategy:   search.StrategyBestFirst,
		MaxDepth:   10,
		NodeBudget: 42,
		Rules:      duel.Rules{AllowStacking: true, PlayerAttrition: 1},
	}, cfg.SearchOptions())
}

// Property-based tests

func TestPropertyNonNegativeStatsAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Player.HitPoints = rapid.IntRange(1, 10000).Draw(t, "player_hp")
		cfg.Player.Mana = rapid.IntRange(0, 10000).Draw(t, "mana")
		cfg.Boss.HitPoints = rapid.IntRange(0, 10000).Draw(t, "boss_hp")
		cfg.Boss.Damage = rapid.IntRange(0, 100).Draw(t, "boss_dmg")
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid stats rejected: %v", err)
		}
	})
}

func TestPropertyNegativeBudgetRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig()
		cfg.Search.NodeBudget = rapid.IntRange(-100000, -1).Draw(t, "budget")
		if cfg.Validate() == nil {
			t.Fatalf("negative node budget %d accepted", cfg.Search.NodeBudget)
		}
	})
}
