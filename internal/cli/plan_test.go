package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFile(t *testing.T) {
	path := writeSweep(t, sweepYAML)

	t.Run("Plain", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, PlanFile(&out, path, PlanOptions{}))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, `2	sfl-gpt2-sp6	{model_name="gpt2", sp1=6, gma_lr=0.01}`, lines[3])
	})

	t.Run("From", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, PlanFile(&out, path, PlanOptions{From: 3}))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[1], "3\tsfl-gpt2-sp15\t"))
	})

	t.Run("Pretty", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, PlanFile(&out, path, PlanOptions{Pretty: true}))
		assert.NotEmpty(t, out.String())
	})
}

func TestPlanMarkdown(t *testing.T) {
	sw, err := Validate(context.Background(), writeSweep(t, sweepYAML))
	require.NoError(t, err)

	md := planMarkdown(sw, PlanOptions{})
	assert.Contains(t, md, "| # | Case | Configuration |")
	assert.Contains(t, md, "| 0 | sfl-llama2-sp6 | `{model_name=\"llama2\", sp1=6, gma_lr=0.09}` |")
}

func TestPlanFile_SkippedCases(t *testing.T) {
	doc := strings.Replace(sweepYAML, "values: [llama2, gpt2]", "values: [llama2, vicuna]", 1)
	doc += "selector_policy: skip\n"

	var out bytes.Buffer
	require.NoError(t, PlanFile(&out, writeSweep(t, doc), PlanOptions{}))
	assert.Contains(t, out.String(), "skipped: ")
}

func TestValidate(t *testing.T) {
	_, err := Validate(context.Background(), writeSweep(t, sweepYAML))
	require.NoError(t, err)

	doc := strings.Replace(sweepYAML, "values: [llama2, gpt2]", "values: [llama2, vicuna]", 1)
	_, err = Validate(context.Background(), writeSweep(t, doc))
	assert.ErrorIs(t, err, domain.ErrUnresolvedSelector)
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "python train.py --sp1=6", shellJoin([]string{"python", "train.py", "--sp1=6"}))
	assert.Equal(t, `echo 'a b' '' 'it'\''s'`, shellJoin([]string{"echo", "a b", "", "it's"}))
}
