package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sweepYAML = `
name: sfl-dra
program:
  command: python
  args: [sfl_with_attacker.py]
template: "sfl-{model_name}-sp{sp1}"
axes:
  - {name: model_name, values: [llama2, gpt2]}
  - {name: sp1, values: [6, 15]}
rules:
  selector: model_name
  cases:
    - {match: llama2, set: {gma_lr: 0.09}}
    - {match: gpt2, set: {gma_lr: 0.01}}
`

type stubDispatcher struct {
	mu    sync.Mutex
	exit  map[int]int
	calls []int
}

func (d *stubDispatcher) Validate(domain.Program, domain.Configuration) error { return nil }

func (d *stubDispatcher) Dispatch(ctx context.Context, program domain.Program, inv domain.Invocation) (domain.RunResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, inv.Index)
	d.mu.Unlock()

	r := domain.RunResult{Index: inv.Index, Case: inv.Case, Config: inv.Config, Outcome: domain.OutcomeSucceeded}
	if code := d.exit[inv.Index]; code != 0 {
		r.Outcome = domain.OutcomeFailed
		r.ExitCode = code
	}
	return r, nil
}

func writeSweep(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func runOptions(t *testing.T, path string, d *stubDispatcher, stdout *bytes.Buffer) RunOptions {
	t.Helper()
	return RunOptions{
		Path:       path,
		From:       -1,
		Progress:   ProgressOptions{Dir: t.TempDir()},
		LogLevel:   "error",
		Stdout:     stdout,
		Stderr:     &bytes.Buffer{},
		Dispatcher: d,
	}
}

func TestExecute_Completed(t *testing.T) {
	var stdout bytes.Buffer
	d := &stubDispatcher{}

	err := Execute(context.Background(), runOptions(t, writeSweep(t, sweepYAML), d, &stdout))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, d.calls)
	out := stdout.String()
	assert.Contains(t, out, "#0 sfl-llama2-sp6 succeeded")
	assert.Contains(t, out, "#3 sfl-gpt2-sp15 succeeded")
	assert.Contains(t, out, "sweep sfl-dra completed: 4 succeeded")
}

func TestExecute_StopOnFailure(t *testing.T) {
	var stdout bytes.Buffer
	d := &stubDispatcher{exit: map[int]int{1: 1}}

	err := Execute(context.Background(), runOptions(t, writeSweep(t, sweepYAML), d, &stdout))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, domain.ErrDispatchFailure)
	assert.Equal(t, []int{0, 1}, d.calls)

	t.Run("Keep Going", func(t *testing.T) {
		var stdout bytes.Buffer
		d := &stubDispatcher{exit: map[int]int{1: 1}}
		opts := runOptions(t, writeSweep(t, sweepYAML), d, &stdout)
		opts.KeepGoing = true

		require.NoError(t, Execute(context.Background(), opts))
		assert.Equal(t, []int{0, 1, 2, 3}, d.calls)
		assert.Contains(t, stdout.String(), "3 succeeded, 1 failed")
	})
}

func TestExecute_Resume(t *testing.T) {
	path := writeSweep(t, sweepYAML)
	progressDir := t.TempDir()

	first := &stubDispatcher{exit: map[int]int{1: 1}}
	opts := runOptions(t, path, first, &bytes.Buffer{})
	opts.Progress.Dir = progressDir
	require.ErrorIs(t, Execute(context.Background(), opts), ErrAborted)

	second := &stubDispatcher{}
	opts = runOptions(t, path, second, &bytes.Buffer{})
	opts.Progress.Dir = progressDir
	opts.Resume = true
	require.NoError(t, Execute(context.Background(), opts))
	assert.Equal(t, []int{2, 3}, second.calls, "the failed run was reported, so resume starts after it")

	third := &stubDispatcher{}
	opts = runOptions(t, path, third, &bytes.Buffer{})
	opts.Progress.Dir = progressDir
	opts.From = 3
	require.NoError(t, Execute(context.Background(), opts))
	assert.Equal(t, []int{3}, third.calls)
}

func TestExecute_JSONFormat(t *testing.T) {
	var stdout bytes.Buffer
	opts := runOptions(t, writeSweep(t, sweepYAML), &stubDispatcher{}, &stdout)
	opts.Format = FormatJSON

	require.NoError(t, Execute(context.Background(), opts))

	var types []string
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		var rec struct {
			Type string `json:"type"`
			Case string `json:"case"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		types = append(types, rec.Type)
	}
	assert.Equal(t, []string{"run", "run", "run", "run", "summary"}, types)
}

func TestExecute_DryRun(t *testing.T) {
	var stdout bytes.Buffer
	d := &stubDispatcher{}
	opts := runOptions(t, writeSweep(t, sweepYAML), d, &stdout)
	opts.DryRun = true

	require.NoError(t, Execute(context.Background(), opts))
	assert.Empty(t, d.calls)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# sfl-dra: 4 configurations", lines[0])
	assert.Equal(t, "0\tsfl-llama2-sp6\tpython sfl_with_attacker.py --model_name=llama2 --sp1=6 --gma_lr=0.09", lines[1])
}

func TestExecute_Errors(t *testing.T) {
	path := writeSweep(t, sweepYAML)

	t.Run("Unknown Format", func(t *testing.T) {
		opts := runOptions(t, path, &stubDispatcher{}, &bytes.Buffer{})
		opts.Format = "xml"
		assert.Error(t, Execute(context.Background(), opts))
	})

	t.Run("Bad Log Level", func(t *testing.T) {
		opts := runOptions(t, path, &stubDispatcher{}, &bytes.Buffer{})
		opts.LogLevel = "loud"
		assert.Error(t, Execute(context.Background(), opts))
	})

	t.Run("Missing Template Field", func(t *testing.T) {
		doc := strings.Replace(sweepYAML, "sfl-{model_name}-sp{sp1}", "sfl-{model_name}-{dataset}", 1)
		d := &stubDispatcher{}
		err := Execute(context.Background(), runOptions(t, writeSweep(t, doc), d, &bytes.Buffer{}))
		assert.ErrorIs(t, err, domain.ErrMissingField)
		assert.Empty(t, d.calls, "preflight failures dispatch nothing")
	})

	t.Run("Out Of Range Start", func(t *testing.T) {
		opts := runOptions(t, path, &stubDispatcher{}, &bytes.Buffer{})
		opts.From = 9
		assert.ErrorIs(t, Execute(context.Background(), opts), domain.ErrIndexOutOfRange)
	})
}

func TestExecute_RedisProgress(t *testing.T) {
	mr := miniredis.RunT(t)

	opts := runOptions(t, writeSweep(t, sweepYAML), &stubDispatcher{}, &bytes.Buffer{})
	opts.Progress = ProgressOptions{RedisAddr: mr.Addr()}

	require.NoError(t, Execute(context.Background(), opts))
	assert.True(t, mr.Exists("sflsweep:progress:sfl-dra"))

	raw, err := mr.Get("sflsweep:progress:sfl-dra")
	require.NoError(t, err)
	var progress domain.Progress
	require.NoError(t, json.Unmarshal([]byte(raw), &progress))
	assert.Equal(t, 4, progress.NextIndex)
	assert.Equal(t, domain.StateCompleted, progress.State)
}

func TestExecute_StatusServer(t *testing.T) {
	opts := runOptions(t, writeSweep(t, sweepYAML), &stubDispatcher{}, &bytes.Buffer{})
	opts.StatusAddr = "127.0.0.1:0"

	require.NoError(t, Execute(context.Background(), opts))
}

func TestExecute_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stderr := &bytes.Buffer{}
	opts := runOptions(t, writeSweep(t, sweepYAML), &stubDispatcher{}, &bytes.Buffer{})
	opts.Stderr = stderr

	err := Execute(ctx, opts)
	require.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, stderr.String(), "Resume with --resume")
}
