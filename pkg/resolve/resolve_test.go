package resolve_test

import (
	"math"
	"testing"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/aretw0/sflsweep/pkg/resolve"
	"github.com/aretw0/sflsweep/pkg/schema"
	"github.com/aretw0/sflsweep/pkg/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gmaTable(t *testing.T, mandatory bool) *resolve.Table {
	t.Helper()
	table := resolve.NewTable("model_name", mandatory)
	require.NoError(t, table.Add(domain.String("llama2"), domain.NewConfiguration(
		domain.Field{Name: "gma_lr", Value: domain.Float(0.09)},
		domain.Field{Name: "gma_epc", Value: domain.Int(18)},
	)))
	require.NoError(t, table.Add(domain.String("gpt2"), domain.NewConfiguration(
		domain.Field{Name: "gma_lr", Value: domain.Float(0.01)},
		domain.Field{Name: "gma_epc", Value: domain.Int(600)},
	)))
	return table
}

func TestResolve_OverrideWins(t *testing.T) {
	table := gmaTable(t, true)

	base := domain.NewConfiguration(
		domain.Field{Name: "seed", Value: domain.Int(42)},
		domain.Field{Name: "model_name", Value: domain.String("llama2")},
		domain.Field{Name: "gma_lr", Value: domain.Float(0.5)},
	)

	got, err := resolve.Resolve(base, table)
	require.NoError(t, err)

	lr, _ := got.Get("gma_lr")
	epc, _ := got.Get("gma_epc")
	assert.True(t, lr.Equal(domain.Float(0.09)), "gma_lr = %s", lr)
	assert.True(t, epc.Equal(domain.Int(18)), "gma_epc = %s", epc)

	// Existing keys keep their position, new ones are appended.
	assert.Equal(t, []string{"seed", "model_name", "gma_lr", "gma_epc"}, got.Keys())

	// The input is untouched.
	old, _ := base.Get("gma_lr")
	assert.True(t, old.Equal(domain.Float(0.5)))
	assert.False(t, base.Has("gma_epc"))
}

func TestResolve_Idempotent(t *testing.T) {
	table := gmaTable(t, true)
	base := domain.NewConfiguration(domain.Field{Name: "model_name", Value: domain.String("gpt2")})

	once, err := resolve.Resolve(base, table)
	require.NoError(t, err)
	twice, err := resolve.Resolve(once, table)
	require.NoError(t, err)

	assert.True(t, once.Equal(twice), "once=%s twice=%s", once, twice)
}

func TestResolve_Unmatched(t *testing.T) {
	base := domain.NewConfiguration(domain.Field{Name: "model_name", Value: domain.String("chatglm3")})

	t.Run("Mandatory", func(t *testing.T) {
		_, err := resolve.Resolve(base, gmaTable(t, true))
		var unresolved *domain.UnresolvedSelectorError
		require.ErrorAs(t, err, &unresolved)
		assert.True(t, unresolved.Present)
		assert.True(t, unresolved.Value.Equal(domain.String("chatglm3")))
		assert.ErrorIs(t, err, domain.ErrUnresolvedSelector)
	})

	t.Run("Optional", func(t *testing.T) {
		got, err := resolve.Resolve(base, gmaTable(t, false))
		require.NoError(t, err)
		assert.True(t, got.Equal(base))
	})

	t.Run("Selector Not Bound", func(t *testing.T) {
		_, err := resolve.Resolve(domain.NewConfiguration(), gmaTable(t, true))
		var unresolved *domain.UnresolvedSelectorError
		require.ErrorAs(t, err, &unresolved)
		assert.False(t, unresolved.Present)
	})

	t.Run("Nil Table", func(t *testing.T) {
		got, err := resolve.Resolve(base, nil)
		require.NoError(t, err)
		assert.True(t, got.Equal(base))
	})
}

func TestResolve_KindsDoNotCollide(t *testing.T) {
	table := resolve.NewTable("sp1", true)
	require.NoError(t, table.Add(domain.Int(6), domain.NewConfiguration(domain.Field{Name: "lr", Value: domain.Float(0.1)})))

	_, err := resolve.Resolve(domain.NewConfiguration(domain.Field{Name: "sp1", Value: domain.String("6")}), table)
	assert.ErrorIs(t, err, domain.ErrUnresolvedSelector)
}

func TestTable_Add(t *testing.T) {
	table := gmaTable(t, true)

	t.Run("Duplicate Rule", func(t *testing.T) {
		err := table.Add(domain.String("llama2"), domain.NewConfiguration())
		var dup *domain.DuplicateRuleError
		require.ErrorAs(t, err, &dup)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Override Of Selector", func(t *testing.T) {
		err := table.Add(domain.String("vicuna"), domain.NewConfiguration(
			domain.Field{Name: "model_name", Value: domain.String("llama2")},
		))
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	assert.Len(t, table.Rules(), 2)
}

func TestCheckCoverage(t *testing.T) {
	s := space.New()
	require.NoError(t, s.DefineAxis("model_name",
		domain.String("gpt2"), domain.String("llama2"), domain.String("chatglm3"), domain.String("vicuna")))

	err := resolve.CheckCoverage(s, gmaTable(t, true))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedSelector)
	assert.Len(t, schema.ValidationErrors(err), 2, "both chatglm3 and vicuna are uncovered")

	assert.NoError(t, resolve.CheckCoverage(s, gmaTable(t, false)))

	covered := space.New()
	require.NoError(t, covered.DefineFixed("model_name", domain.String("llama2")))
	assert.NoError(t, resolve.CheckCoverage(covered, gmaTable(t, true)))

	undeclared := space.New()
	assert.ErrorIs(t, resolve.CheckCoverage(undeclared, gmaTable(t, true)), domain.ErrUnresolvedSelector)
}

func TestLookup_NegativeZero(t *testing.T) {
	table := resolve.NewTable("noise", true)
	require.NoError(t, table.Add(domain.Float(0), domain.NewConfiguration(
		domain.Field{Name: "dp", Value: domain.Bool(false)},
	)))

	_, ok := table.Lookup(domain.Float(math.Copysign(0, -1)))
	assert.True(t, ok, "-0 equals 0")

	err := table.Add(domain.Float(math.Copysign(0, -1)), domain.NewConfiguration())
	assert.ErrorIs(t, err, domain.ErrConfiguration, "-0 duplicates the 0 rule")
}
