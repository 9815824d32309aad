// Package main provides the duel CLI: it finds the cheapest winning spell
// sequence for a boss, replays a given sequence, or lets a Lua script play.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellduel/internal/config"
	"github.com/cory-johannsen/spellduel/internal/game/autoplay"
	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/search"
	"github.com/cory-johannsen/spellduel/internal/game/spell"
	"github.com/cory-johannsen/spellduel/internal/observability"
	"github.com/cory-johannsen/spellduel/internal/report"
	"github.com/cory-johannsen/spellduel/internal/scripting"
)

// options are the parsed command-line flags.
type options struct {
	input      string
	spells     string
	script     string
	reportPath string
	maxTurns   int
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	input := flag.String("input", "", "boss stats file (\"Hit Points: N\" / \"Damage: N\"); overrides the boss config section")
	spells := flag.String("spells", "", "comma-separated spell sequence to replay instead of searching")
	script := flag.String("script", "", "Lua autoplay script, or a directory of scripts, defining choose_spell(state)")
	reportPath := flag.String("report", "", "write a YAML report of the run to this path")
	maxTurns := flag.Int("max-turns", 100, "player turn limit for -script runs")
	flag.Parse()

	if *spells != "" && *script != "" {
		fmt.Fprintln(os.Stderr, "-spells and -script are mutually exclusive")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		input:      *input,
		spells:     *spells,
		script:     *script,
		reportPath: *reportPath,
		maxTurns:   *maxTurns,
	}
	if err := run(ctx, cfg, opts, os.Stdout, logger); err != nil {
		logger.Error("duel run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run executes one invocation. The mode is chosen by opts: -spells replays,
// -script autoplays, otherwise the minimal-mana search runs.
func run(ctx context.Context, cfg config.Config, opts options, out io.Writer, logger *zap.Logger) error {
	player := cfg.PlayerCombatant()
	boss := cfg.BossCombatant()
	if opts.input != "" {
		b, err := loadBoss(opts.input)
		if err != nil {
			return err
		}
		boss = b
	}
	rules := cfg.DuelRules()
	rep := report.New(player, boss, rules)

	var err error
	switch {
	case opts.spells != "":
		logger = observability.ForRun(logger, rep.RunID, report.ModeSequence)
		err = replay(opts.spells, player, boss, rules, rep, out, logger)
	case opts.script != "":
		logger = observability.ForRun(logger, rep.RunID, report.ModeAutoplay)
		err = autoplayRun(ctx, cfg, opts, player, boss, rep, out, logger)
	default:
		logger = observability.ForRun(logger, rep.RunID, "search")
		err = searchRun(ctx, cfg, player, boss, rep, out, logger)
	}

	if opts.reportPath != "" {
		if werr := report.WriteFile(opts.reportPath, rep); werr != nil {
			return errors.Join(err, werr)
		}
		logger.Info("report written", zap.String("path", opts.reportPath))
	}
	return err
}

func loadBoss(path string) (duel.Combatant, error) {
	f, err := os.Open(path)
	if err != nil {
		return duel.Combatant{}, fmt.Errorf("opening boss file: %w", err)
	}
	defer f.Close()
	boss, err := duel.ParseBoss(f)
	if err != nil {
		return duel.Combatant{}, fmt.Errorf("parsing boss file %s: %w", path, err)
	}
	return boss, nil
}

// searchRun treats search.timeout as a time budget: when it runs out the best
// sequence so far is printed and reported as unproven.
func searchRun(ctx context.Context, cfg config.Config, player, boss duel.Combatant, rep *report.Report, out io.Writer, logger *zap.Logger) error {
	if cfg.Search.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Search.Timeout)
		defer cancel()
	}

	s := search.New(cfg.SearchOptions(), logger)
	start := time.Now()
	res, err := s.MinimalManaToWin(ctx, player, boss)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	rep.SetSearch(s.Options().Strategy, res, elapsed)

	switch res.Status {
	case search.StatusFound:
		proof := "proven minimal"
		if !res.Proven {
			proof = "best found within bounds"
		}
		fmt.Fprintf(out, "minimal mana: %d (%s) [%s, %d nodes, %s]\n",
			res.Mana, joinNames(res.Spells), proof, res.Nodes, elapsed.Round(time.Millisecond))
	case search.StatusUnwinnable:
		fmt.Fprintf(out, "no winning sequence exists [%d nodes, %s]\n", res.Nodes, elapsed.Round(time.Millisecond))
	default:
		fmt.Fprintf(out, "no winning sequence found before the search bound [%d nodes, %s]\n", res.Nodes, elapsed.Round(time.Millisecond))
	}
	return nil
}

func replay(list string, player, boss duel.Combatant, rules duel.Rules, rep *report.Report, out io.Writer, logger *zap.Logger) error {
	seq, err := spell.ParseList(list)
	if err != nil {
		return fmt.Errorf("parsing -spells: %w", err)
	}
	res, simErr := duel.Simulate(player, boss, seq, rules)
	rep.SetSimulation(report.ModeSequence, "", res, simErr)
	printResult(out, res, simErr)
	logger.Info("replay finished",
		zap.String("outcome", res.Outcome.String()),
		zap.Int("mana", res.ManaSpent),
		zap.Int("casts", len(res.Cast)),
	)
	if simErr != nil && !duel.IsRejectedCast(simErr) {
		return fmt.Errorf("replaying: %w", simErr)
	}
	return nil
}

func autoplayRun(ctx context.Context, cfg config.Config, opts options, player, boss duel.Combatant, rep *report.Report, out io.Writer, logger *zap.Logger) error {
	mgr := scripting.NewManager(logger)
	defer mgr.Close()
	mgr.Spells = autoplay.Catalog

	const name = "autoplay"
	if err := loadScript(mgr, name, opts.script, cfg.Scripting.InstructionLimit); err != nil {
		return err
	}
	if !mgr.HasHook(name, autoplay.Hook) {
		return fmt.Errorf("script %s does not define %s", opts.script, autoplay.Hook)
	}

	p := autoplay.NewPlayer(mgr, name, logger)
	res, playErr := p.Play(ctx, player, boss, cfg.DuelRules(), opts.maxTurns)
	rep.SetSimulation(report.ModeAutoplay, opts.script, res, playErr)
	printResult(out, res, playErr)
	if playErr != nil && !duel.IsRejectedCast(playErr) {
		return fmt.Errorf("autoplay: %w", playErr)
	}
	return nil
}

// loadScript loads path into one VM; a directory loads every *.lua file in it.
func loadScript(mgr *scripting.Manager, name, path string, instLimit int) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	if info.IsDir() {
		return mgr.LoadDir(name, path, instLimit)
	}
	return mgr.LoadFile(name, path, instLimit)
}

func printResult(out io.Writer, res duel.Result, runErr error) {
	for _, ev := range res.Events {
		fmt.Fprintln(out, ev.Narrative())
	}
	fmt.Fprintf(out, "%s after %d half-turns, %d mana spent (%s)\n",
		res.Outcome, res.HalfTurns, res.ManaSpent, joinNames(res.Cast))
	if runErr != nil {
		fmt.Fprintf(out, "stopped: %v\n", runErr)
	}
}

func joinNames(ns []spell.Name) string {
	if len(ns) == 0 {
		return "no casts"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
