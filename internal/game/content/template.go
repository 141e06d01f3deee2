package content

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StatRange is a monster stat that is either a constant or a [min, max]
// interval rolled once per spawned instance.
//
// YAML forms: a bare scalar (`atk: 4`) or a two-element sequence
// (`atk: [3, 6]`). A scalar parses as Min == Max.
type StatRange struct {
	Min int
	Max int
}

// UnmarshalYAML accepts either a scalar or a two-element sequence.
func (s *StatRange) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v int
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("stat range scalar: %w", err)
		}
		s.Min, s.Max = v, v
		return nil
	case yaml.SequenceNode:
		var pair []int
		if err := value.Decode(&pair); err != nil {
			return fmt.Errorf("stat range sequence: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("stat range sequence must have exactly 2 elements, got %d", len(pair))
		}
		s.Min, s.Max = pair[0], pair[1]
		return nil
	default:
		return fmt.Errorf("stat range must be a scalar or a [min, max] sequence")
	}
}

// Validate checks that the range is well formed with bounds in [0, limit].
// A limit of 0 disables the upper-bound check.
func (s StatRange) Validate(name string, limit int) error {
	if s.Min < 0 {
		return fmt.Errorf("%s min must be >= 0, got %d", name, s.Min)
	}
	if s.Max < s.Min {
		return fmt.Errorf("%s max must be >= min, got [%d, %d]", name, s.Min, s.Max)
	}
	if limit > 0 && s.Max > limit {
		return fmt.Errorf("%s max must be <= %d, got %d", name, limit, s.Max)
	}
	return nil
}

// MonsterTemplate defines a reusable monster archetype loaded from YAML.
// Ranged stats are rolled independently per spawned instance; constant stats
// pass through unchanged.
type MonsterTemplate struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Trait       string    `yaml:"trait"`
	MaxHP       StatRange `yaml:"max_hp"`
	MaxEP       StatRange `yaml:"max_ep"`
	Atk         StatRange `yaml:"atk"`
	Def         StatRange `yaml:"def"`
	Hit         StatRange `yaml:"hit"`
	Eva         StatRange `yaml:"eva"`
	CritChance  StatRange `yaml:"crit_chance"`
	CritMult    float64   `yaml:"crit_mult"`
	Speed       StatRange `yaml:"speed"`
	XPReward    StatRange `yaml:"xp_reward"`
	SpawnWeight int       `yaml:"spawn_weight"`
	// AIScript is an optional Lua script id deciding this monster's combat
	// actions. Empty means the builtin lowest-HP attack behavior.
	AIScript string `yaml:"ai_script"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP rolls at
// least 1, percentage ranges stay within [0, 100], and CritMult >= 1.
func (t *MonsterTemplate) Validate() error {
	if t.ID == "" {
		return errors.New("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.MaxHP.Min < 1 {
		return fmt.Errorf("monster template %q: max_hp min must be >= 1", t.ID)
	}
	ranges := []struct {
		name  string
		r     StatRange
		limit int
	}{
		{"max_hp", t.MaxHP, 0},
		{"max_ep", t.MaxEP, 0},
		{"atk", t.Atk, 0},
		{"def", t.Def, 0},
		{"hit", t.Hit, 100},
		{"eva", t.Eva, 100},
		{"crit_chance", t.CritChance, 100},
		{"speed", t.Speed, 0},
		{"xp_reward", t.XPReward, 0},
	}
	for _, rr := range ranges {
		if err := rr.r.Validate(rr.name, rr.limit); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	if t.CritMult < 1 {
		return fmt.Errorf("monster template %q: crit_mult must be >= 1, got %v", t.ID, t.CritMult)
	}
	if t.SpawnWeight < 0 {
		return fmt.Errorf("monster template %q: spawn_weight must be >= 0, got %d", t.ID, t.SpawnWeight)
	}
	return nil
}
