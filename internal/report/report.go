// Package report serializes the outcome of a duel run as YAML.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/search"
	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

// Simulation modes.
const (
	ModeSequence = "sequence"
	ModeAutoplay = "autoplay"
)

// Stats is a combatant's vital numbers.
type Stats struct {
	HitPoints int `yaml:"hit_points"`
	Mana      int `yaml:"mana,omitempty"`
	Armor     int `yaml:"armor,omitempty"`
	Damage    int `yaml:"damage,omitempty"`
}

// Rules mirrors duel.Rules.
type Rules struct {
	AllowEffectStacking bool `yaml:"allow_effect_stacking"`
	PlayerAttrition     int  `yaml:"player_attrition"`
}

// Search records a minimal-mana search.
type Search struct {
	Strategy string        `yaml:"strategy"`
	Status   string        `yaml:"status"`
	Mana     int           `yaml:"mana,omitempty"`
	Spells   []string      `yaml:"spells,omitempty"`
	Proven   bool          `yaml:"proven"`
	Nodes    int           `yaml:"nodes"`
	Pruned   int           `yaml:"pruned"`
	Elapsed  time.Duration `yaml:"elapsed"`
}

// Simulation records one played-out duel.
type Simulation struct {
	Mode      string   `yaml:"mode"`
	Script    string   `yaml:"script,omitempty"`
	Outcome   string   `yaml:"outcome"`
	ManaSpent int      `yaml:"mana_spent"`
	Cast      []string `yaml:"cast"`
	HalfTurns int      `yaml:"half_turns"`
	Player    Stats    `yaml:"player"`
	Boss      Stats    `yaml:"boss"`
	Error     string   `yaml:"error,omitempty"`
	Narrative []string `yaml:"narrative,omitempty"`
}

// Report is the document written for one run.
type Report struct {
	RunID       string      `yaml:"run_id"`
	GeneratedAt time.Time   `yaml:"generated_at"`
	Player      Stats       `yaml:"player"`
	Boss        Stats       `yaml:"boss"`
	Rules       Rules       `yaml:"rules"`
	Search      *Search     `yaml:"search,omitempty"`
	Simulation  *Simulation `yaml:"simulation,omitempty"`
}

// New starts a report for a run with the given starting stats.
//
// Postcondition: RunID is a fresh UUID.
func New(player, boss duel.Combatant, rules duel.Rules) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Player:      stats(player),
		Boss:        stats(boss),
		Rules: Rules{
			AllowEffectStacking: rules.AllowStacking,
			PlayerAttrition:     rules.PlayerAttrition,
		},
	}
}

// SetSearch records a search result.
func (r *Report) SetSearch(strategy search.Strategy, res search.Result, elapsed time.Duration) {
	r.Search = &Search{
		Strategy: string(strategy),
		Status:   res.Status.String(),
		Mana:     res.Mana,
		Spells:   names(res.Spells),
		Proven:   res.Proven,
		Nodes:    res.Nodes,
		Pruned:   res.Pruned,
		Elapsed:  elapsed.Round(time.Millisecond),
	}
}

// SetSimulation records a played duel. runErr is the error that stopped the
// duel early, if any.
func (r *Report) SetSimulation(mode, script string, res duel.Result, runErr error) {
	sim := &Simulation{
		Mode:      mode,
		Script:    script,
		Outcome:   res.Outcome.String(),
		ManaSpent: res.ManaSpent,
		Cast:      names(res.Cast),
		HalfTurns: res.HalfTurns,
		Player:    stats(res.Player),
		Boss:      stats(res.Boss),
	}
	if runErr != nil {
		sim.Error = runErr.Error()
	}
	for _, ev := range res.Events {
		sim.Narrative = append(sim.Narrative, ev.Narrative())
	}
	r.Simulation = sim
}

// Write encodes r as YAML to w.
func Write(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report %s: %w", r.RunID, err)
	}
	return enc.Close()
}

// WriteFile writes r to path, creating parent directories.
//
// Postcondition: the file decodes back into an equivalent Report, or an error is returned.
func WriteFile(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("serialising report %s: %w", r.RunID, err)
	}
	if _, err := Read(data); err != nil {
		return fmt.Errorf("report %s failed validation: %w", r.RunID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report %s to %s: %w", r.RunID, path, err)
	}
	return nil
}

// Read decodes a report and checks that it identifies its run.
func Read(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		return nil, fmt.Errorf("report run_id %q: %w", r.RunID, err)
	}
	return &r, nil
}

func stats(c duel.Combatant) Stats {
	return Stats{HitPoints: c.HP, Mana: c.Mana, Armor: c.Armor, Damage: c.Damage}
}

func names(ns []spell.Name) []string {
	if ns == nil {
		return nil
	}
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n)
	}
	return out
}
