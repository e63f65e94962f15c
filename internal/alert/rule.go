package alert

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTarget rejects a rule whose target price is NaN or non-positive.
var ErrInvalidTarget = errors.New("alert: target price must be a positive number")

// ErrRuleNotFound is returned when a rule id is not in the store.
var ErrRuleNotFound = errors.New("alert: rule not found")

// Direction 表示告警触发方向的二元枚举。
type Direction int

const (
	// Above fires when the price crosses up through the target.
	Above Direction = iota
	// Below fires when the price crosses down through the target.
	Below
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts a config/CLI string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", "up":
		return Above, nil
	case "below", "down":
		return Below, nil
	default:
		return Above, fmt.Errorf("alert: unknown direction %q", s)
	}
}

// Rule is one user-defined price threshold. Rules are owned exclusively by
// the Store; List hands out copies.
type Rule struct {
	ID          string
	Target      float64
	Direction   Direction
	Enabled     bool
	LastFiredAt time.Time
}

// Store holds an ordered rule collection. All access is serialised by one
// mutex, which the Evaluator shares so that an evaluation pass is atomic
// with respect to rule mutation.
type Store struct {
	mu    sync.Mutex
	rules []Rule
}

// NewStore constructs an empty rule store.
func NewStore() *Store {
	return &Store{}
}

// Add appends an enabled rule and returns a copy of it. The target must be
// a positive, finite number; anything else leaves the store unchanged.
func (s *Store) Add(target float64, dir Direction) (Rule, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return Rule{}, ErrInvalidTarget
	}

	rule := Rule{
		ID:        uuid.NewString(),
		Target:    target,
		Direction: dir,
		Enabled:   true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule)
	return rule, nil
}

// AddString parses a user-supplied target price and adds the rule. 输入非
// 数字或非正数时返回 ErrInvalidTarget, 不改动 store。
func (s *Store) AddString(target string, dir Direction) (Rule, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(target))
	if err != nil {
		return Rule{}, ErrInvalidTarget
	}
	return s.Add(d.InexactFloat64(), dir)
}

// Remove deletes the rule with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

// Toggle flips the enabled flag of the rule with the given id and reports
// the new state.
func (s *Store) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Enabled = !s.rules[i].Enabled
			return s.rules[i].Enabled, nil
		}
	}
	return false, ErrRuleNotFound
}

// List returns a copy of the rules in store order.
func (s *Store) List() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}
