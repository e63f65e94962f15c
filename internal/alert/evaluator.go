package alert

import (
	"math"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCooldown is the minimum silence per rule between firings.
	DefaultCooldown = 5 * time.Minute
	// DefaultMinMovePct is the global noise floor: the fractional price
	// move since the last notification below which nothing fires.
	DefaultMinMovePct = 0.005
)

// Fired describes one triggered rule.
type Fired struct {
	RuleID    string
	Direction Direction
	Target    float64
	Price     float64
	At        time.Time
}

// EvaluatorOptions tune the evaluator gates. Zero values take the package
// defaults.
type EvaluatorOptions struct {
	Cooldown   time.Duration
	MinMovePct float64
}

// Evaluator applies every enabled rule to incoming price ticks. It owns the
// shared lastNotified price: the price at which any rule last fired, used
// both for the noise floor and for the edge-triggered crossing test.
type Evaluator struct {
	store  *Store
	logger zerolog.Logger

	cooldown   time.Duration
	minMovePct float64

	// lastNotified is guarded by store.mu. Zero means no rule has fired yet.
	lastNotified float64
}

// NewEvaluator constructs an evaluator over the given store.
func NewEvaluator(store *Store, opts EvaluatorOptions, logger zerolog.Logger) *Evaluator {
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	minMove := opts.MinMovePct
	if minMove <= 0 {
		minMove = DefaultMinMovePct
	}

	return &Evaluator{
		store:      store,
		logger:     logger.With().Str("component", "alert_evaluator").Logger(),
		cooldown:   cooldown,
		minMovePct: minMove,
	}
}

// Evaluate runs one pass over the store in order and returns every rule
// that fired. The pass holds the store lock throughout, so concurrent rule
// mutation waits and a rule added mid-pass is first seen by the next call.
//
// lastNotified is updated inside the loop when a rule fires, so later rules
// in the same pass are gated by the fresh value (循环内更新共享变量, 增量语义).
func (e *Evaluator) Evaluate(price float64, now time.Time) []Fired {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	var fired []Fired
	for i := range e.store.rules {
		rule := &e.store.rules[i]
		if !rule.Enabled {
			continue
		}

		if !rule.LastFiredAt.IsZero() && now.Sub(rule.LastFiredAt) < e.cooldown {
			continue
		}

		if e.lastNotified > 0 {
			move := math.Abs(price-e.lastNotified) / e.lastNotified
			if move < e.minMovePct {
				continue
			}
		}

		if !e.crossed(rule, price) {
			continue
		}

		rule.LastFiredAt = now
		e.lastNotified = price
		fired = append(fired, Fired{
			RuleID:    rule.ID,
			Direction: rule.Direction,
			Target:    rule.Target,
			Price:     price,
			At:        now,
		})

		e.logger.Info().
			Str("rule_id", rule.ID).
			Str("direction", rule.Direction.String()).
			Float64("target", rule.Target).
			Float64("price", price).
			Msg("alert rule fired")
	}

	return fired
}

// crossed applies the edge-triggered test: the price must be past the
// target while the last notified price was still on the other side. A price
// sitting past the target never re-fires until lastNotified crosses back.
func (e *Evaluator) crossed(rule *Rule, price float64) bool {
	switch rule.Direction {
	case Above:
		return price >= rule.Target && e.lastNotified < rule.Target
	case Below:
		return price <= rule.Target && e.lastNotified > rule.Target
	default:
		return false
	}
}

// LastNotified reports the price at which any rule last fired, zero if none
// has.
func (e *Evaluator) LastNotified() float64 {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.lastNotified
}
