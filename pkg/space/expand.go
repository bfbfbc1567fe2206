package space

import (
	"fmt"
	"iter"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Len returns the number of configurations in the Cartesian product of the
// axes. A space without axes has exactly one configuration.
func Len(s *Space) int {
	return s.size
}

// Expand returns the configurations of s in nested-loop order: the first
// declared axis is the outermost loop and the last declared axis varies
// fastest. Each configuration carries the fixed parameters after the axes.
//
// The sequence is lazy and restartable: every call to the returned iterator
// starts from index 0 and nothing is materialized beyond the current item.
func Expand(s *Space) iter.Seq2[int, domain.Configuration] {
	return ExpandFrom(s, 0)
}

// ExpandFrom is like Expand but starts at index start, keeping the original
// indices. It is how a partially completed sweep is resumed.
// A start at or beyond Len(s) yields nothing.
func ExpandFrom(s *Space, start int) iter.Seq2[int, domain.Configuration] {
	return func(yield func(int, domain.Configuration) bool) {
		total := Len(s)
		if start < 0 {
			start = 0
		}
		if start >= total {
			return
		}

		digits := decode(s, start)
		for i := start; i < total; i++ {
			if !yield(i, build(s, digits)) {
				return
			}
			advance(s, digits)
		}
	}
}

// At returns the configuration at index i without iterating.
func At(s *Space, i int) (domain.Configuration, error) {
	if i < 0 || i >= Len(s) {
		return domain.Configuration{}, fmt.Errorf("configuration %d of %d: %w", i, Len(s), domain.ErrIndexOutOfRange)
	}
	return build(s, decode(s, i)), nil
}

// decode converts a flat index into one position per axis (mixed radix,
// last axis least significant).
func decode(s *Space, index int) []int {
	digits := make([]int, len(s.axes))
	for k := len(s.axes) - 1; k >= 0; k-- {
		n := len(s.axes[k].Values)
		digits[k] = index % n
		index /= n
	}
	return digits
}

// advance increments the odometer by one position.
func advance(s *Space, digits []int) {
	for k := len(digits) - 1; k >= 0; k-- {
		digits[k]++
		if digits[k] < len(s.axes[k].Values) {
			return
		}
		digits[k] = 0
	}
}

func build(s *Space, digits []int) domain.Configuration {
	fields := make([]domain.Field, 0, len(s.axes)+len(s.fixed))
	for k, a := range s.axes {
		fields = append(fields, domain.Field{Name: a.Name, Value: a.Values[digits[k]]})
	}
	fields = append(fields, s.fixed...)
	return domain.NewConfiguration(fields...)
}
