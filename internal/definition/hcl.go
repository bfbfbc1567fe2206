package definition

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclRoot is the HCL shape of a definition:
//
//	name = "sfl-dra"
//	program {
//	  command = "python"
//	  args    = ["sfl_with_attacker.py"]
//	}
//	axis "dataset" { values = ["wikitext", "piqa"] }
//	fixed "sp2" { value = 26 }
//	rules "model_name" {
//	  case {
//	    match = "llama2"
//	    set   = { gma_lr = 0.09, gma_epc = 18 }
//	  }
//	}
type hclRoot struct {
	Name           string            `hcl:"name"`
	Template       *string           `hcl:"template,optional"`
	StopOnFailure  *bool             `hcl:"stop_on_failure,optional"`
	SelectorPolicy *string           `hcl:"selector_policy,optional"`
	Types          map[string]string `hcl:"types,optional"`
	Program        *hclProgram       `hcl:"program,block"`
	Axes           []*hclAxis        `hcl:"axis,block"`
	Fixed          []*hclFixed       `hcl:"fixed,block"`
	Rules          *hclRules         `hcl:"rules,block"`
}

type hclProgram struct {
	Command   string            `hcl:"command"`
	Args      []string          `hcl:"args,optional"`
	Dir       string            `hcl:"dir,optional"`
	Env       map[string]string `hcl:"env,optional"`
	LogDir    string            `hcl:"log_dir,optional"`
	FlagStyle string            `hcl:"flag_style,optional"`
}

type hclAxis struct {
	Name   string         `hcl:"name,label"`
	Values hcl.Expression `hcl:"values"`
}

type hclFixed struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
}

type hclRules struct {
	Selector  string     `hcl:"selector,label"`
	Mandatory *bool      `hcl:"mandatory,optional"`
	Cases     []*hclCase `hcl:"case,block"`
}

type hclCase struct {
	Match hcl.Expression `hcl:"match"`
	Set   hcl.Expression `hcl:"set"`
}

func decodeHCL(data []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse hcl: %w", diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode hcl: %w", diags)
	}
	if root.Program == nil {
		return nil, &domain.ConfigurationError{Param: "program", Reason: "program block is required"}
	}

	f := &File{
		Name:  root.Name,
		Types: root.Types,
		Program: domain.Program{
			Command:   root.Program.Command,
			Args:      root.Program.Args,
			Dir:       root.Program.Dir,
			Env:       root.Program.Env,
			LogDir:    root.Program.LogDir,
			FlagStyle: domain.FlagStyle(root.Program.FlagStyle),
		},
		StopOnFailure: root.StopOnFailure,
	}
	if root.Template != nil {
		f.Template = *root.Template
	}
	if root.SelectorPolicy != nil {
		f.SelectorPolicy = *root.SelectorPolicy
	}

	for _, a := range root.Axes {
		raw, err := evalNative(a.Values, data)
		if err != nil {
			return nil, fmt.Errorf("axis %q: %w", a.Name, err)
		}
		values, ok := raw.([]any)
		if !ok {
			return nil, &domain.ConfigurationError{Param: a.Name, Reason: "axis values must be a list", Value: raw}
		}
		f.Axes = append(f.Axes, AxisSpec{Name: a.Name, Values: values})
	}

	for _, fx := range root.Fixed {
		raw, err := evalNative(fx.Value, data)
		if err != nil {
			return nil, fmt.Errorf("fixed %q: %w", fx.Name, err)
		}
		f.Fixed = append(f.Fixed, FixedSpec{Name: fx.Name, Value: raw})
	}

	if root.Rules != nil {
		rules := &RulesSpec{Selector: root.Rules.Selector, Mandatory: root.Rules.Mandatory}
		for i, c := range root.Rules.Cases {
			match, err := evalNative(c.Match, data)
			if err != nil {
				return nil, fmt.Errorf("rule #%d match: %w", i+1, err)
			}
			raw, err := evalNative(c.Set, data)
			if err != nil {
				return nil, fmt.Errorf("rule #%d set: %w", i+1, err)
			}
			set, ok := raw.(map[string]any)
			if !ok {
				return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("rule #%d: set must be an object", i+1), Value: raw}
			}
			rules.Cases = append(rules.Cases, CaseSpec{Match: match, Set: set})
		}
		f.Rules = rules
	}

	return f, nil
}

// evalNative evaluates a constant expression into plain Go values.
// cty numbers carry no int/float distinction, so a number whose source text
// has a decimal point or exponent stays a float, as it would in YAML or JSON:
// "1.0" is a float and "1" an int.
func evalNative(expr hcl.Expression, src []byte) (any, error) {
	switch e := expr.(type) {
	case *hclsyntax.TupleConsExpr:
		out := make([]any, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			v, err := evalNative(item, src)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *hclsyntax.ObjectConsExpr:
		out := make(map[string]any, len(e.Items))
		for _, item := range e.Items {
			key, diags := item.KeyExpr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			if key.IsNull() || !key.Type().Equals(cty.String) {
				return nil, fmt.Errorf("object keys must be strings, got %s", key.Type().FriendlyName())
			}
			v, err := evalNative(item.ValueExpr, src)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			out[key.AsString()] = v
		}
		return out, nil
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.Type() == cty.Number && v.IsKnown() && !v.IsNull() && decimalText(expr.Range(), src) {
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil
	}
	return ctyToNative(v)
}

func decimalText(r hcl.Range, src []byte) bool {
	if r.Start.Byte < 0 || r.End.Byte > len(src) || r.Start.Byte >= r.End.Byte {
		return false
	}
	return bytes.ContainsAny(src[r.Start.Byte:r.End.Byte], ".eE")
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers become int64; everything else numeric becomes
// float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported value type: %s", ty.FriendlyName())
	}
}
