package space

import (
	"math"
	"slices"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Axis is one dimension of a parameter space.
type Axis struct {
	Name   string
	Values []domain.Value
}

// Space declares the sweep axes and the fixed parameters of a sweep.
// Declaration order is significant: the first axis is the outermost loop.
// A Space is only mutated through DefineAxis and DefineFixed; once handed to
// the expander it is read-only.
type Space struct {
	axes  []Axis
	fixed []domain.Field
	names map[string]struct{}
	size  int
}

// New creates an empty parameter space.
func New() *Space {
	return &Space{
		names: make(map[string]struct{}),
		size:  1,
	}
}

// DefineAxis declares a new axis with its candidate values in order.
func (s *Space) DefineAxis(name string, values ...domain.Value) error {
	if err := s.claim(name); err != nil {
		return err
	}
	if len(values) == 0 {
		return &domain.EmptyAxisError{Name: name}
	}
	for _, v := range values {
		if !v.IsValid() {
			return &domain.ConfigurationError{Param: name, Reason: "invalid value"}
		}
	}
	if s.size > math.MaxInt/len(values) {
		return &domain.ConfigurationError{Param: name, Reason: "parameter space is too large"}
	}

	s.names[name] = struct{}{}
	s.axes = append(s.axes, Axis{Name: name, Values: slices.Clone(values)})
	s.size *= len(values)
	return nil
}

// DefineFixed declares a parameter with a single value shared by every configuration.
func (s *Space) DefineFixed(name string, value domain.Value) error {
	if err := s.claim(name); err != nil {
		return err
	}
	if !value.IsValid() {
		return &domain.ConfigurationError{Param: name, Reason: "invalid value"}
	}
	s.names[name] = struct{}{}
	s.fixed = append(s.fixed, domain.Field{Name: name, Value: value})
	return nil
}

func (s *Space) claim(name string) error {
	if name == "" {
		return &domain.ConfigurationError{Reason: "parameter name is empty"}
	}
	if _, taken := s.names[name]; taken {
		return &domain.DuplicateAxisError{Name: name}
	}
	return nil
}

// Axes returns the declared axes in declaration order.
func (s *Space) Axes() []Axis {
	out := make([]Axis, len(s.axes))
	for i, a := range s.axes {
		out[i] = Axis{Name: a.Name, Values: slices.Clone(a.Values)}
	}
	return out
}

// Fixed returns the fixed parameters in declaration order.
func (s *Space) Fixed() []domain.Field {
	return slices.Clone(s.fixed)
}

// Has reports whether name is declared as an axis or a fixed parameter.
func (s *Space) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// ValuesOf returns every value name can take in the space: all axis
// candidates, or the single fixed value.
func (s *Space) ValuesOf(name string) ([]domain.Value, bool) {
	for _, a := range s.axes {
		if a.Name == name {
			return slices.Clone(a.Values), true
		}
	}
	for _, f := range s.fixed {
		if f.Name == name {
			return []domain.Value{f.Value}, true
		}
	}
	return nil, false
}
