package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/sflsweep/pkg/casename"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/resolve"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/aretw0/sflsweep/pkg/space"
	"github.com/aretw0/sflsweep/pkg/sweep"
	"github.com/mitchellh/mapstructure"
)

// Format identifies a definition file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// ErrUnknownFormat is returned for files whose extension is not recognized.
var ErrUnknownFormat = errors.New("unknown definition format")

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q (want .yaml, .yml, .json or .hcl)", ErrUnknownFormat, filepath.Ext(path))
	}
}

// File is the format-independent shape of a definition document.
type File struct {
	Name           string            `mapstructure:"name"`
	Program        domain.Program    `mapstructure:"program"`
	Template       string            `mapstructure:"template"`
	StopOnFailure  *bool             `mapstructure:"stop_on_failure"`
	SelectorPolicy string            `mapstructure:"selector_policy"`
	Axes           []AxisSpec        `mapstructure:"axes"`
	Fixed          []FixedSpec       `mapstructure:"fixed"`
	Rules          *RulesSpec        `mapstructure:"rules"`
	Types          map[string]string `mapstructure:"types"`
}

type AxisSpec struct {
	Name   string `mapstructure:"name"`
	Values []any  `mapstructure:"values"`
}

type FixedSpec struct {
	Name  string `mapstructure:"name"`
	Value any    `mapstructure:"value"`
}

type RulesSpec struct {
	Selector  string     `mapstructure:"selector"`
	Mandatory *bool      `mapstructure:"mandatory"` // Defaults to true
	Cases     []CaseSpec `mapstructure:"cases"`
}

type CaseSpec struct {
	Match any            `mapstructure:"match"`
	Set   map[string]any `mapstructure:"set"`
}

// Definition is a loaded sweep: the plan plus the policies it asks for.
type Definition struct {
	Path           string
	Plan           sweep.Plan
	StopOnFailure  bool
	SelectorPolicy sweep.SelectorPolicy
}

// Load reads and builds the definition at path.
func Load(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return def, nil
}

// Parse builds a definition from data. The filename is used in error
// messages and, for HCL, in diagnostics.
func Parse(data []byte, format Format, filename string) (*Definition, error) {
	var (
		file *File
		err  error
	)
	switch format {
	case FormatYAML:
		file, err = decodeYAML(data)
	case FormatJSON:
		file, err = decodeJSON(data)
	case FormatHCL:
		file, err = decodeHCL(data, filename)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	def, err := Build(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	def.Path = filename
	return def, nil
}

// decodeMap maps a generic document onto File, rejecting unknown keys.
func decodeMap(raw map[string]any) (*File, error) {
	var file File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &file,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, &domain.ConfigurationError{Reason: err.Error()}
	}
	return &file, nil
}

// Build validates f and turns it into a Definition.
func Build(f *File) (*Definition, error) {
	if strings.TrimSpace(f.Name) == "" {
		return nil, &domain.ConfigurationError{Param: "name", Reason: "sweep name is required"}
	}
	if strings.TrimSpace(f.Program.Command) == "" {
		return nil, &domain.ConfigurationError{Param: "program.command", Reason: "program command is required"}
	}

	s := space.New()
	for i, a := range f.Axes {
		values := make([]domain.Value, 0, len(a.Values))
		for _, raw := range a.Values {
			v, err := domain.ValueOf(raw)
			if err != nil {
				return nil, fmt.Errorf("axis %q: %w", a.Name, err)
			}
			values = append(values, v)
		}
		if a.Name == "" {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("axis #%d has no name", i+1)}
		}
		if err := s.DefineAxis(a.Name, values...); err != nil {
			return nil, err
		}
	}
	for i, fx := range f.Fixed {
		if fx.Name == "" {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("fixed parameter #%d has no name", i+1)}
		}
		v, err := domain.ValueOf(fx.Value)
		if err != nil {
			return nil, fmt.Errorf("fixed %q: %w", fx.Name, err)
		}
		if err := s.DefineFixed(fx.Name, v); err != nil {
			return nil, err
		}
	}

	var tmpl casename.Template
	if f.Template != "" {
		t, err := casename.Parse(f.Template)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}

	rules, err := buildRules(f.Rules)
	if err != nil {
		return nil, err
	}

	types, err := schema.ParseTypeMap(f.Types)
	if err != nil {
		return nil, err
	}

	policy, err := sweep.ParseSelectorPolicy(f.SelectorPolicy)
	if err != nil {
		return nil, err
	}

	stop := true
	if f.StopOnFailure != nil {
		stop = *f.StopOnFailure
	}

	return &Definition{
		Plan: sweep.Plan{
			Name:     f.Name,
			Space:    s,
			Rules:    rules,
			Template: tmpl,
			Program:  f.Program,
			Types:    types,
		},
		StopOnFailure:  stop,
		SelectorPolicy: policy,
	}, nil
}

func buildRules(spec *RulesSpec) (*resolve.Table, error) {
	if spec == nil {
		return nil, nil
	}
	if spec.Selector == "" {
		return nil, &domain.ConfigurationError{Param: "rules.selector", Reason: "selector is required"}
	}
	mandatory := true
	if spec.Mandatory != nil {
		mandatory = *spec.Mandatory
	}

	table := resolve.NewTable(spec.Selector, mandatory)
	for i, c := range spec.Cases {
		match, err := domain.ValueOf(c.Match)
		if err != nil {
			return nil, fmt.Errorf("rule #%d match: %w", i+1, err)
		}

		keys := make([]string, 0, len(c.Set))
		for k := range c.Set {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		fields := make([]domain.Field, 0, len(keys))
		for _, k := range keys {
			v, err := domain.ValueOf(c.Set[k])
			if err != nil {
				return nil, fmt.Errorf("rule %s=%s, override %q: %w", spec.Selector, match, k, err)
			}
			fields = append(fields, domain.Field{Name: k, Value: v})
		}

		if err := table.Add(match, domain.NewConfiguration(fields...)); err != nil {
			return nil, err
		}
	}
	return table, nil
}
