package grid

// rules.go defines the inspectable validation rules attached to columns.
//
// A rule is a pure function of a candidate value. Rules encode domain
// quality checks (tolerance bands, allowed codes), so a failing rule never
// blocks an edit: the value is stored and the cell is flagged Invalid.
//
// Empty values pass every rule except RequiredRule, matching how blank CSV
// cells are treated as "not yet measured" rather than malformed.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RuleKind tags the concrete rule type.
type RuleKind string

const (
	KindRange     RuleKind = "range"
	KindPattern   RuleKind = "pattern"
	KindEnum      RuleKind = "enum"
	KindRequired  RuleKind = "required"
	KindNumeric   RuleKind = "numeric"
	KindDate      RuleKind = "date"
	KindBool      RuleKind = "bool"
	KindPredicate RuleKind = "predicate"
)

// Rule validates a single candidate value.
// Check returns ok=false and a message when the value violates the rule.
// Implementations must be deterministic and side-effect free.
type Rule interface {
	Kind() RuleKind
	Check(value string) (message string, ok bool)
}

// cloneRule copies the slices and pointers held by the built-in rules.
// Rule types defined outside this package are returned as is.
func cloneRule(r Rule) Rule {
	switch t := r.(type) {
	case RangeRule:
		if t.Min != nil {
			lo := *t.Min
			t.Min = &lo
		}
		if t.Max != nil {
			hi := *t.Max
			t.Max = &hi
		}
		return t
	case EnumRule:
		t.Values = append([]string(nil), t.Values...)
		return t
	}
	return r
}

// Default messages used when a rule does not set its own.
const (
	msgOutOfRange    = "out of range"
	msgInvalidNumber = "invalid number format"
	msgInvalidDate   = "invalid date format (use YYYY-MM-DD or similar)"
	msgInvalidBool   = "must be yes/no, true/false, or 1/0"
	msgRequired      = "required field is empty"
	msgNoMatch       = "does not match required pattern"
)

func pick(custom, fallback string) string {
	if custom != "" {
		return custom
	}
	return fallback
}

// RangeRule flags numeric values outside [Min, Max]. A nil bound is open.
type RangeRule struct {
	Min     *float64
	Max     *float64
	Message string
}

// Between builds a closed RangeRule.
func Between(min, max float64, message string) RangeRule {
	return RangeRule{Min: &min, Max: &max, Message: message}
}

func (r RangeRule) Kind() RuleKind { return KindRange }

func (r RangeRule) Check(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return "", true
	}
	f, ok := ParseNumeric(value)
	if !ok {
		return msgInvalidNumber, false
	}
	if r.Min != nil && f < *r.Min {
		return pick(r.Message, r.describe()), false
	}
	if r.Max != nil && f > *r.Max {
		return pick(r.Message, r.describe()), false
	}
	return "", true
}

func (r RangeRule) describe() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%s (%s..%s)", msgOutOfRange, fmtFloat(*r.Min), fmtFloat(*r.Max))
	case r.Min != nil:
		return fmt.Sprintf("%s (min %s)", msgOutOfRange, fmtFloat(*r.Min))
	case r.Max != nil:
		return fmt.Sprintf("%s (max %s)", msgOutOfRange, fmtFloat(*r.Max))
	}
	return msgOutOfRange
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PatternRule flags values that do not match a regular expression.
type PatternRule struct {
	re      *regexp.Regexp
	Message string
}

// NewPatternRule compiles pattern into a PatternRule.
func NewPatternRule(pattern, message string) (PatternRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return PatternRule{}, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return PatternRule{re: re, Message: message}, nil
}

// Pattern returns the source expression.
func (r PatternRule) Pattern() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

func (r PatternRule) Kind() RuleKind { return KindPattern }

func (r PatternRule) Check(value string) (string, bool) {
	if value == "" || r.re == nil {
		return "", true
	}
	if !r.re.MatchString(value) {
		return pick(r.Message, msgNoMatch), false
	}
	return "", true
}

// EnumRule flags values outside an allowed set (case-insensitive).
type EnumRule struct {
	Values  []string
	Message string
}

func (r EnumRule) Kind() RuleKind { return KindEnum }

func (r EnumRule) Check(value string) (string, bool) {
	if value == "" || len(r.Values) == 0 {
		return "", true
	}
	for _, v := range r.Values {
		if strings.EqualFold(v, value) {
			return "", true
		}
	}
	return pick(r.Message, "value must be one of: "+strings.Join(r.Values, ", ")), false
}

// RequiredRule flags empty or whitespace-only values.
type RequiredRule struct {
	Message string
}

func (r RequiredRule) Kind() RuleKind { return KindRequired }

func (r RequiredRule) Check(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return pick(r.Message, msgRequired), false
	}
	return "", true
}

// NumericRule flags values that are not numbers.
type NumericRule struct {
	Message string
}

func (r NumericRule) Kind() RuleKind { return KindNumeric }

func (r NumericRule) Check(value string) (string, bool) {
	if value == "" {
		return "", true
	}
	if _, ok := ParseNumeric(value); !ok {
		return pick(r.Message, msgInvalidNumber), false
	}
	return "", true
}

// DateRule flags values that are not recognizable dates.
type DateRule struct {
	Message string
}

func (r DateRule) Kind() RuleKind { return KindDate }

func (r DateRule) Check(value string) (string, bool) {
	if value == "" {
		return "", true
	}
	if _, ok := ParseDate(value); !ok {
		return pick(r.Message, msgInvalidDate), false
	}
	return "", true
}

// BoolRule flags values that are not boolean-like.
type BoolRule struct {
	Message string
}

func (r BoolRule) Kind() RuleKind { return KindBool }

func (r BoolRule) Check(value string) (string, bool) {
	if value == "" {
		return "", true
	}
	if _, ok := ParseBool(value); !ok {
		return pick(r.Message, msgInvalidBool), false
	}
	return "", true
}

// PredicateFunc reports whether value is acceptable.
type PredicateFunc func(value string) bool

// PredicateRule wraps a named custom predicate.
// Name identifies the predicate in the registry so schemas can refer to it.
type PredicateRule struct {
	Name    string
	Fn      PredicateFunc
	Message string
}

func (r PredicateRule) Kind() RuleKind { return KindPredicate }

func (r PredicateRule) Check(value string) (string, bool) {
	if value == "" || r.Fn == nil {
		return "", true
	}
	if !r.Fn(value) {
		return pick(r.Message, fmt.Sprintf("failed check %q", r.Name)), false
	}
	return "", true
}
