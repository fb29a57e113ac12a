package grid

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// RuleSpec is the serializable form of a Rule, used by schema files and
// HTTP responses. Only the fields relevant to Kind are read.
type RuleSpec struct {
	Kind    RuleKind `json:"kind" yaml:"kind"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Values  []string `json:"values,omitempty" yaml:"values,omitempty"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"` // Registered predicate name
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// ErrUnknownRuleKind is returned when a spec names a rule kind that does not exist.
var ErrUnknownRuleKind = errors.New("unknown rule kind")

// Build converts the spec into a Rule.
func (s RuleSpec) Build() (Rule, error) {
	switch s.Kind {
	case KindRange:
		if s.Min == nil && s.Max == nil {
			return nil, fmt.Errorf("range rule needs min or max")
		}
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return nil, fmt.Errorf("range rule min %s > max %s", fmtFloat(*s.Min), fmtFloat(*s.Max))
		}
		return RangeRule{Min: s.Min, Max: s.Max, Message: s.Message}, nil
	case KindPattern:
		return NewPatternRule(s.Pattern, s.Message)
	case KindEnum:
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("enum rule needs values")
		}
		return EnumRule{Values: append([]string(nil), s.Values...), Message: s.Message}, nil
	case KindRequired:
		return RequiredRule{Message: s.Message}, nil
	case KindNumeric:
		return NumericRule{Message: s.Message}, nil
	case KindDate:
		return DateRule{Message: s.Message}, nil
	case KindBool:
		return BoolRule{Message: s.Message}, nil
	case KindPredicate:
		fn, ok := LookupPredicate(s.Name)
		if !ok {
			return nil, fmt.Errorf("predicate not registered: %s", s.Name)
		}
		return PredicateRule{Name: s.Name, Fn: fn, Message: s.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleKind, s.Kind)
	}
}

// BuildRules converts a list of specs, reporting the index of the first failure.
func BuildRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// SpecOf inspects a rule back into its serializable form.
// Predicate rules are serializable only when registered by name.
func SpecOf(rule Rule) (RuleSpec, error) {
	switch r := rule.(type) {
	case RangeRule:
		return RuleSpec{Kind: KindRange, Min: r.Min, Max: r.Max, Message: r.Message}, nil
	case PatternRule:
		return RuleSpec{Kind: KindPattern, Pattern: r.Pattern(), Message: r.Message}, nil
	case EnumRule:
		return RuleSpec{Kind: KindEnum, Values: append([]string(nil), r.Values...), Message: r.Message}, nil
	case RequiredRule:
		return RuleSpec{Kind: KindRequired, Message: r.Message}, nil
	case NumericRule:
		return RuleSpec{Kind: KindNumeric, Message: r.Message}, nil
	case DateRule:
		return RuleSpec{Kind: KindDate, Message: r.Message}, nil
	case BoolRule:
		return RuleSpec{Kind: KindBool, Message: r.Message}, nil
	case PredicateRule:
		if _, ok := LookupPredicate(r.Name); !ok {
			return RuleSpec{}, fmt.Errorf("predicate %q is not registered and cannot be serialized", r.Name)
		}
		return RuleSpec{Kind: KindPredicate, Name: r.Name, Message: r.Message}, nil
	default:
		return RuleSpec{}, fmt.Errorf("%w: %T", ErrUnknownRuleKind, rule)
	}
}

var (
	predicates   = make(map[string]PredicateFunc)
	predicatesMu sync.RWMutex
)

// RegisterPredicate makes a custom predicate available to schema files.
// Panics if a predicate with the same name is already registered.
func RegisterPredicate(name string, fn PredicateFunc) {
	predicatesMu.Lock()
	defer predicatesMu.Unlock()

	if _, exists := predicates[name]; exists {
		panic(fmt.Sprintf("predicate already registered: %s", name))
	}
	predicates[name] = fn
}

// LookupPredicate returns a registered predicate by name.
func LookupPredicate(name string) (PredicateFunc, bool) {
	predicatesMu.RLock()
	defer predicatesMu.RUnlock()

	fn, ok := predicates[name]
	return fn, ok
}

// Predicates returns the registered predicate names, sorted.
func Predicates() []string {
	predicatesMu.RLock()
	defer predicatesMu.RUnlock()

	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearPredicates removes all registered predicates.
// Primarily useful for testing.
func ClearPredicates() {
	predicatesMu.Lock()
	defer predicatesMu.Unlock()
	predicates = make(map[string]PredicateFunc)
}
