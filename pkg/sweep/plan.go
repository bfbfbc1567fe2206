package sweep

import (
	"errors"
	"fmt"
	"iter"

	"github.com/aretw0/sflsweep/pkg/casename"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/resolve"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/aretw0/sflsweep/pkg/space"
)

// SelectorPolicy decides what happens to a configuration whose mandatory
// selector has no conditional rule.
type SelectorPolicy string

const (
	SelectorFatal SelectorPolicy = "fatal" // Abort the sweep before any dispatch
	SelectorSkip  SelectorPolicy = "skip"  // Report the configuration as skipped and move on
)

// ParseSelectorPolicy parses a policy name. The empty string means fatal.
func ParseSelectorPolicy(s string) (SelectorPolicy, error) {
	switch SelectorPolicy(s) {
	case "", SelectorFatal:
		return SelectorFatal, nil
	case SelectorSkip:
		return SelectorSkip, nil
	default:
		return "", &domain.ConfigurationError{Param: "selector_policy", Reason: "expected fatal or skip", Value: s}
	}
}

// Plan is everything needed to run one sweep.
type Plan struct {
	Name     string
	Space    *space.Space
	Rules    *resolve.Table    // Optional
	Template casename.Template // Defaults to casename.Default(Name, Space)
	Program  domain.Program
	Types    schema.Schema // Optional
}

// Case is one configuration ready for dispatch.
type Case struct {
	Index  int
	Name   string
	Config domain.Configuration // After conditional overrides

	// Skipped holds the unresolved-selector error of a configuration that
	// the skip policy keeps out of dispatch.
	Skipped error
}

func (p Plan) template() casename.Template {
	if p.Template.IsZero() {
		return casename.Default(p.Name, p.Space)
	}
	return p.Template
}

func (p Plan) check() error {
	if p.Space == nil {
		return &domain.ConfigurationError{Reason: "sweep has no parameter space"}
	}
	if p.Name == "" {
		return &domain.ConfigurationError{Param: "name", Reason: "sweep has no name"}
	}
	return nil
}

// Len returns the number of configurations in the sweep.
func (p Plan) Len() int { return space.Len(p.Space) }

// Prepare resolves, names and type-checks the configuration at index.
// Errors are *domain.RunError values carrying the configuration.
func (p Plan) Prepare(index int, cfg domain.Configuration, policy SelectorPolicy) (Case, error) {
	c := Case{Index: index, Config: cfg}
	tmpl := p.template()

	resolved, err := resolve.Resolve(cfg, p.Rules)
	if err != nil {
		if policy == SelectorSkip && errors.Is(err, domain.ErrUnresolvedSelector) {
			c.Skipped = err
			// Best effort: the template may need an override that never came.
			c.Name, _ = tmpl.Derive(cfg)
			return c, nil
		}
		return c, &domain.RunError{Index: index, Config: cfg, Err: err}
	}
	c.Config = resolved

	name, err := tmpl.Derive(resolved)
	if err != nil {
		return c, &domain.RunError{Index: index, Config: resolved, Err: err}
	}
	c.Name = name

	if err := schema.Validate(p.Types, resolved); err != nil {
		return c, &domain.RunError{Index: index, Case: name, Config: resolved, Err: err}
	}
	return c, nil
}

// Cases prepares every configuration from index start onwards, in sweep
// order. Like space.Expand, the sequence is lazy and restartable.
func (p Plan) Cases(start int, policy SelectorPolicy) iter.Seq2[Case, error] {
	return func(yield func(Case, error) bool) {
		if err := p.check(); err != nil {
			yield(Case{}, err)
			return
		}
		for i, cfg := range space.ExpandFrom(p.Space, start) {
			if !yield(p.Prepare(i, cfg, policy)) {
				return
			}
		}
	}
}

func describe(c Case) string {
	if c.Name != "" {
		return fmt.Sprintf("%d (%s)", c.Index, c.Name)
	}
	return fmt.Sprint(c.Index)
}
