package process_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/aretw0/sflsweep/pkg/adapters/process"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		name  string
		value domain.Value
		want  string
	}{
		{"True", domain.Bool(true), "True"},
		{"False", domain.Bool(false), "False"},
		{"Int", domain.Int(42), "42"},
		{"Negative Int", domain.Int(-7), "-7"},
		{"Float", domain.Float(0.09), "0.09"},
		{"Whole Float", domain.Float(3), "3"},
		{"Small Float", domain.Float(1e-5), "0.00001"},
		{"String", domain.String("wikitext"), "wikitext"},
		{"String With Spaces", domain.String("a b; rm -rf /"), "a b; rm -rf /"},
		{"Empty String", domain.String(""), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := process.Encode(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, f := range []float64{0.1, 0.09, 1e-8, 123456.789, -2.5, math.MaxFloat64} {
		text, err := process.Encode(domain.Float(f))
		require.NoError(t, err)
		back, err := strconv.ParseFloat(text, 64)
		require.NoError(t, err)
		assert.Equal(t, f, back)
	}

	for _, i := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		text, err := process.Encode(domain.Int(i))
		require.NoError(t, err)
		back, err := strconv.ParseInt(text, 10, 64)
		require.NoError(t, err)
		assert.Equal(t, i, back)
	}

	for _, b := range []bool{true, false} {
		text, err := process.Encode(domain.Bool(b))
		require.NoError(t, err)
		assert.Equal(t, b, text == "True")
	}
}

func TestEncode_Unsafe(t *testing.T) {
	for name, v := range map[string]domain.Value{
		"NaN":          domain.Float(math.NaN()),
		"Inf":          domain.Float(math.Inf(1)),
		"Newline":      domain.String("a\nb"),
		"NUL":          domain.String("a\x00b"),
		"Tab":          domain.String("a\tb"),
		"Invalid UTF8": domain.String("\xff"),
		"Unset":        {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := process.Encode(v)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestFlags(t *testing.T) {
	cfg := domain.NewConfiguration(
		domain.Field{Name: "seed", Value: domain.Int(42)},
		domain.Field{Name: "dataset", Value: domain.String("wikitext")},
		domain.Field{Name: "lora_at_top", Value: domain.Bool(true)},
		domain.Field{Name: "gma_lr", Value: domain.Float(0.09)},
	)

	t.Run("Equals", func(t *testing.T) {
		args, err := process.Flags(cfg, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"--seed=42", "--dataset=wikitext", "--lora_at_top=True", "--gma_lr=0.09"}, args)
	})

	t.Run("Separate", func(t *testing.T) {
		args, err := process.Flags(cfg, domain.FlagStyleSeparate)
		require.NoError(t, err)
		assert.Equal(t, []string{"--seed", "42", "--dataset", "wikitext", "--lora_at_top", "True", "--gma_lr", "0.09"}, args)
	})

	t.Run("Unknown Style", func(t *testing.T) {
		_, err := process.Flags(cfg, "posix")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Bad Key", func(t *testing.T) {
		_, err := process.Flags(domain.NewConfiguration(domain.Field{Name: "sp 1", Value: domain.Int(1)}), "")
		var ce *domain.ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "sp 1", ce.Param)
	})

	t.Run("Bad Value Names Param", func(t *testing.T) {
		_, err := process.Flags(domain.NewConfiguration(domain.Field{Name: "exp_name", Value: domain.String("x\ny")}), "")
		var ce *domain.ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "exp_name", ce.Param)
	})

	t.Run("Dash Value Separate", func(t *testing.T) {
		dash := domain.NewConfiguration(domain.Field{Name: "exp_name", Value: domain.String("-x")})
		_, err := process.Flags(dash, domain.FlagStyleSeparate)
		assert.ErrorIs(t, err, domain.ErrConfiguration)

		args, err := process.Flags(dash, domain.FlagStyleEquals)
		require.NoError(t, err)
		assert.Equal(t, []string{"--exp_name=-x"}, args)
	})
}
