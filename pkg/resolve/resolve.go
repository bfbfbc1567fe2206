// Package resolve binds parameters that depend on another parameter's value.
//
// A Table maps values of one selector parameter (typically the model family)
// to a set of overrides. It replaces per-model if/elif chains with a lookup
// that can be checked against a parameter space before anything runs.
package resolve

import (
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/aretw0/sflsweep/pkg/space"
)

// Rule is the set of overrides applied when the selector equals Match.
type Rule struct {
	Match     domain.Value
	Overrides domain.Configuration
}

// Table is an ordered set of rules keyed by the value of Selector.
// When Mandatory is set, every configuration must match a rule.
type Table struct {
	Selector  string
	Mandatory bool

	rules []Rule
	index map[string]int
}

// NewTable creates an empty table for the given selector parameter.
func NewTable(selector string, mandatory bool) *Table {
	return &Table{
		Selector:  selector,
		Mandatory: mandatory,
		index:     make(map[string]int),
	}
}

// Add registers the overrides for one selector value.
// At most one rule may exist per selector value.
func (t *Table) Add(match domain.Value, overrides domain.Configuration) error {
	if !match.IsValid() {
		return &domain.ConfigurationError{Param: t.Selector, Reason: "rule has no match value"}
	}
	if overrides.Has(t.Selector) {
		return &domain.ConfigurationError{Param: t.Selector, Reason: "a rule cannot override its own selector"}
	}
	if _, exists := t.index[match.Key()]; exists {
		return &domain.DuplicateRuleError{Selector: t.Selector, Match: match}
	}
	t.index[match.Key()] = len(t.rules)
	t.rules = append(t.rules, Rule{Match: match, Overrides: overrides})
	return nil
}

// Lookup returns the rule registered for v.
func (t *Table) Lookup(v domain.Value) (Rule, bool) {
	i, ok := t.index[v.Key()]
	if !ok {
		return Rule{}, false
	}
	return t.rules[i], true
}

// Rules returns the registered rules in insertion order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Resolve merges the rule matching cfg's selector on top of cfg.
// Overrides win over any value cfg already binds. With a nil table cfg is
// returned unchanged. When no rule matches, a mandatory table fails with
// *domain.UnresolvedSelectorError and an optional one returns cfg unchanged.
func Resolve(cfg domain.Configuration, t *Table) (domain.Configuration, error) {
	if t == nil {
		return cfg, nil
	}

	sel, present := cfg.Get(t.Selector)
	if !present {
		if t.Mandatory {
			return cfg, &domain.UnresolvedSelectorError{Selector: t.Selector}
		}
		return cfg, nil
	}

	rule, ok := t.Lookup(sel)
	if !ok {
		if t.Mandatory {
			return cfg, &domain.UnresolvedSelectorError{Selector: t.Selector, Value: sel, Present: true}
		}
		return cfg, nil
	}
	return cfg.Merge(rule.Overrides), nil
}

// CheckCoverage verifies, without expanding s, that every value the selector
// can take in s has a rule. All misses are reported together.
// Optional tables always pass.
func CheckCoverage(s *space.Space, t *Table) error {
	if t == nil || !t.Mandatory {
		return nil
	}

	values, declared := s.ValuesOf(t.Selector)
	if !declared {
		return &domain.UnresolvedSelectorError{Selector: t.Selector}
	}

	var errs []error
	for _, v := range values {
		if _, ok := t.Lookup(v); !ok {
			errs = append(errs, &domain.UnresolvedSelectorError{Selector: t.Selector, Value: v, Present: true})
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &schema.AggregateError{Errors: errs}
	}
}
