// Package search finds the cheapest spell sequence that wins a duel.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

// Strategy selects how candidate sequences are explored.
type Strategy string

const (
	// StrategyBestFirst expands the cheapest partial sequence first and prunes
	// any branch that already costs as much as the best win. It needs no depth cutoff.
	StrategyBestFirst Strategy = "best_first"
	// StrategyDepthLimited enumerates sequences depth-first in alphabetical order
	// up to MaxDepth casts. Wins longer than the cutoff are never seen.
	StrategyDepthLimited Strategy = "depth_limited"
)

// DefaultMaxDepth is the cast cutoff used by StrategyDepthLimited.
const DefaultMaxDepth = 10

// Status classifies a search result.
type Status int

const (
	// StatusUnknown is the zero value: the search did not complete and its
	// result carries no verdict.
	StatusUnknown Status = iota
	// StatusFound means a winning sequence was found.
	StatusFound
	// StatusUnwinnable means every sequence was explored and none wins.
	StatusUnwinnable
	// StatusBoundReached means the depth cutoff, node budget or context
	// deadline stopped the search before a win was found; a win may still exist.
	StatusBoundReached
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusFound:
		return "found"
	case StatusUnwinnable:
		return "unwinnable"
	case StatusBoundReached:
		return "bound reached"
	default:
		return "unknown"
	}
}

// Options configure a Searcher.
type Options struct {
	Strategy Strategy
	// MaxDepth is the maximum number of casts explored by StrategyDepthLimited.
	// 0 means DefaultMaxDepth.
	MaxDepth int
	// NodeBudget caps the number of expanded nodes; 0 means unlimited.
	NodeBudget int
	Rules      duel.Rules
}

// Result is the outcome of a search.
type Result struct {
	Status Status
	// Mana is the total cost of Spells; only meaningful when Status is StatusFound.
	Mana   int
	Spells []spell.Name
	// Proven is true when Mana is known to be the minimum over all sequences.
	Proven bool
	Nodes  int
	Pruned int
}

// Found reports whether a winning sequence was found.
func (r Result) Found() bool { return r.Status == StatusFound }

// Searcher runs minimal-mana searches with fixed options.
type Searcher struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Searcher. A nil logger disables logging.
//
// Postcondition: an empty Strategy defaults to StrategyBestFirst and a zero
// MaxDepth to DefaultMaxDepth.
func New(opts Options, logger *zap.Logger) *Searcher {
	if opts.Strategy == "" {
		opts.Strategy = StrategyBestFirst
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{opts: opts, logger: logger}
}

// Options returns the effective options.
func (s *Searcher) Options() Options { return s.opts }

// MinimalManaToWin searches with default options and no logging.
func MinimalManaToWin(ctx context.Context, player, boss duel.Combatant) (Result, error) {
	return New(Options{}, nil).MinimalManaToWin(ctx, player, boss)
}

// MinimalManaToWin finds the least total mana the player can spend and still
// beat the boss.
//
// Precondition: ctx must not be nil.
// Postcondition: a nil error always comes with a Result whose Status says
// whether Mana is meaningful. A passed ctx deadline is a time budget: the
// best result so far comes back with Proven false. Any other cancellation
// returns an error wrapping ctx.Err(); an unknown spell or unknown strategy
// aborts with an error. Results returned with an error have StatusUnknown.
func (s *Searcher) MinimalManaToWin(ctx context.Context, player, boss duel.Combatant) (Result, error) {
	if s.opts.Strategy != StrategyBestFirst && s.opts.Strategy != StrategyDepthLimited {
		return Result{Status: StatusUnknown}, fmt.Errorf("unknown search strategy %q", s.opts.Strategy)
	}
	start := time.Now()
	s.logger.Info("search started",
		zap.String("strategy", string(s.opts.Strategy)),
		zap.Int("player_hp", player.HP),
		zap.Int("player_mana", player.Mana),
		zap.Int("boss_hp", boss.HP),
		zap.Int("boss_damage", boss.Damage),
		zap.Bool("allow_stacking", s.opts.Rules.AllowStacking),
		zap.Int("player_attrition", s.opts.Rules.PlayerAttrition),
	)

	root := duel.New(player, boss, s.opts.Rules)
	var (
		res Result
		err error
	)
	switch {
	case root.State() == duel.PlayerWon:
		res = Result{Status: StatusFound, Proven: true, Spells: []spell.Name{}}
	case root.State() == duel.PlayerLost:
		res = Result{Status: StatusUnwinnable, Proven: true}
	case player.Mana < spell.Cheapest():
		// No first cast is affordable, so no sequence can win.
		res = Result{Status: StatusUnwinnable, Proven: true}
	default:
		if s.opts.Strategy == StrategyDepthLimited {
			res, err = s.depthLimited(ctx, root)
		} else {
			res, err = s.bestFirst(ctx, root)
		}
	}
	if err != nil {
		res.Status = StatusUnknown
		s.logger.Warn("search aborted",
			zap.Int("nodes", res.Nodes),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return res, err
	}

	s.logger.Info("search finished",
		zap.String("status", res.Status.String()),
		zap.Int("mana", res.Mana),
		zap.Int("casts", len(res.Spells)),
		zap.Bool("proven", res.Proven),
		zap.Int("nodes", res.Nodes),
		zap.Int("pruned", res.Pruned),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// step plays one full round from the start of a player half-turn: the cast,
// then the boss's attack if the duel is still on.
func step(parent *duel.Duel, name spell.Name) (*duel.Duel, error) {
	child := parent.Clone()
	if _, err := child.Advance(duel.RolePlayer, duel.Cast(name)); err != nil {
		return nil, err
	}
	if child.State() != duel.InProgress {
		return child, nil
	}
	if _, err := child.Advance(duel.RoleBoss, duel.BasicAttack()); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *Searcher) bestFirst(ctx context.Context, root *duel.Duel) (Result, error) {
	var (
		q       queue
		res     Result
		best    = -1
		bounded bool
	)
	q.push(&node{duel: root})

	for q.len() > 0 {
		if err := ctx.Err(); err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				return res, fmt.Errorf("search cancelled: %w", err)
			}
			s.logger.Info("search deadline reached", zap.Int("nodes", res.Nodes))
			bounded = true
			break
		}
		n := q.pop()
		if best >= 0 && n.spent() >= best {
			break
		}
		if s.opts.NodeBudget > 0 && res.Nodes >= s.opts.NodeBudget {
			bounded = true
			break
		}
		res.Nodes++

		for _, name := range spell.Names() {
			child, err := step(n.duel, name)
			if err != nil {
				if duel.IsRejectedCast(err) {
					res.Pruned++
					continue
				}
				return res, err
			}
			spent := child.ManaSpent()
			if best >= 0 && spent >= best {
				res.Pruned++
				continue
			}
			spells := append(slices.Clone(n.spells), name)
			switch child.State() {
			case duel.PlayerWon:
				best = spent
				res.Spells = spells
				s.logger.Debug("new best sequence",
					zap.Int("mana", spent),
					zap.Any("spells", spells),
				)
			case duel.PlayerLost:
				res.Pruned++
			default:
				q.push(&node{duel: child, spells: spells})
			}
		}
	}
	return conclude(res, best, bounded), nil
}

// conclude sets the verdict once exploration stops. bounded reports whether
// any part of the tree was left unexplored.
func conclude(res Result, best int, bounded bool) Result {
	switch {
	case best >= 0:
		res.Status = StatusFound
		res.Mana = best
		res.Proven = !bounded
	case bounded:
		res.Status = StatusBoundReached
	default:
		res.Status = StatusUnwinnable
		res.Proven = true
	}
	return res
}

var (
	errBudget   = errors.New("node budget exhausted")
	errDeadline = errors.New("search deadline reached")
)

func (s *Searcher) depthLimited(ctx context.Context, root *duel.Duel) (Result, error) {
	var (
		res  Result
		best = -1
		cut  bool
	)

	var walk func(d *duel.Duel, spells []spell.Name) error
	walk = func(d *duel.Duel, spells []spell.Name) error {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return errDeadline
			}
			return fmt.Errorf("search cancelled: %w", err)
		}
		for _, name := range spell.Names() {
			if s.opts.NodeBudget > 0 && res.Nodes >= s.opts.NodeBudget {
				return errBudget
			}
			child, err := step(d, name)
			if err != nil {
				if duel.IsRejectedCast(err) {
					res.Pruned++
					continue
				}
				return err
			}
			res.Nodes++
			next := append(slices.Clone(spells), name)
			switch child.State() {
			case duel.PlayerWon:
				if best < 0 || child.ManaSpent() < best {
					best = child.ManaSpent()
					res.Spells = next
					s.logger.Debug("new best sequence",
						zap.Int("mana", best),
						zap.Any("spells", next),
					)
				}
			case duel.PlayerLost:
				res.Pruned++
			default:
				if len(next) >= s.opts.MaxDepth {
					cut = true
					continue
				}
				if err := walk(child, next); err != nil {
					return err
				}
			}
		}
		return nil
	}

	err := walk(root, nil)
	bounded := cut
	switch {
	case errors.Is(err, errDeadline):
		s.logger.Info("search deadline reached", zap.Int("nodes", res.Nodes))
		bounded = true
	case errors.Is(err, errBudget):
		bounded = true
	case err != nil:
		return res, err
	}
	return conclude(res, best, bounded), nil
}
