package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf_JSONNumber(t *testing.T) {
	tests := []struct {
		name string
		in   json.Number
		want Value
	}{
		{"Integer", "42", Int(42)},
		{"Negative Integer", "-7", Int(-7)},
		{"Decimal Point", "1.0", Float(1)},
		{"Exponent", "1e3", Float(1000)},
		{"Fraction", "0.09", Float(0.09)},
		{"Overflowing Integer", "92233720368547758070", Float(92233720368547758070)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	_, err := ValueOf(json.Number("1.2.3"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValueOf_Rejects(t *testing.T) {
	for _, in := range []any{nil, []int{1}, map[string]any{}, Value{}, uint64(math.MaxUint64)} {
		_, err := ValueOf(in)
		assert.ErrorIs(t, err, ErrConfiguration, "%#v", in)
	}
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "True", Bool(true).Text())
	assert.Equal(t, "False", Bool(false).Text())
	assert.Equal(t, "-15", Int(-15).Text())
	assert.Equal(t, "0.09", Float(0.09).Text())
	assert.Equal(t, "1", Float(1).Text())
	assert.Equal(t, "wikitext", String("wikitext").Text())
	assert.Equal(t, `"wikitext"`, String("wikitext").String())
}

func TestValue_KeyFollowsEqual(t *testing.T) {
	negZero := Float(math.Copysign(0, -1))

	assert.True(t, negZero.Equal(Float(0)))
	assert.Equal(t, Float(0).Key(), negZero.Key())
	assert.Equal(t, Float(math.NaN()).Key(), Float(math.NaN()).Key())

	assert.NotEqual(t, Int(42).Key(), String("42").Key())
	assert.NotEqual(t, Int(1).Key(), Float(1).Key())
	assert.NotEqual(t, Bool(true).Key(), String("True").Key())
}
