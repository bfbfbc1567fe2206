package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/sflsweep"
	"github.com/aretw0/sflsweep/internal/logging"
	"github.com/aretw0/sflsweep/internal/presentation/tui"
	"github.com/aretw0/sflsweep/pkg/adapters/process"
)

// PlanOptions controls how a plan is listed.
type PlanOptions struct {
	Pretty   bool // Render a markdown table for the terminal
	Commands bool // Show the argv of each run
	From     int
}

// WritePlan lists the cases of sw in dispatch order without running
// anything. Preparation errors are listed in place of the case.
func WritePlan(w io.Writer, sw *sflsweep.Sweep, opts PlanOptions) error {
	if opts.Pretty {
		md := planMarkdown(sw, opts)
		render, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	fmt.Fprintf(w, "# %s: %d configurations\n", sw.Name(), sw.Len())
	for c, err := range sw.Plan().Cases(opts.From, sw.SelectorPolicy()) {
		if err != nil {
			fmt.Fprintf(w, "error\t%v\n", err)
			continue
		}
		detail := c.Config.String()
		switch {
		case c.Skipped != nil:
			detail = "skipped: " + c.Skipped.Error()
		case opts.Commands:
			argv, err := process.Command(sw.Plan().Program, c.Config)
			if err != nil {
				detail = "error: " + err.Error()
			} else {
				detail = shellJoin(argv)
			}
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", c.Index, c.Name, detail); err != nil {
			return err
		}
	}
	return nil
}

func planMarkdown(sw *sflsweep.Sweep, opts PlanOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%d configurations, command `%s`\n\n", sw.Name(), sw.Len(), sw.Plan().Program.Command)
	b.WriteString("| # | Case | Configuration |\n|---|---|---|\n")
	for c, err := range sw.Plan().Cases(opts.From, sw.SelectorPolicy()) {
		if err != nil {
			fmt.Fprintf(&b, "| | **error** | %s |\n", cell(err.Error()))
			continue
		}
		detail := "`" + cell(c.Config.String()) + "`"
		if c.Skipped != nil {
			detail = "*skipped*: " + cell(c.Skipped.Error())
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", c.Index, cell(c.Name), detail)
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// shellJoin renders argv so it can be pasted into a POSIX shell.
func shellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// PlanFile loads the definition at path and writes its plan to w.
func PlanFile(w io.Writer, path string, opts PlanOptions) error {
	sw, err := sflsweep.Load(path, sflsweep.WithLogger(logging.NewNop()))
	if err != nil {
		return err
	}
	return WritePlan(w, sw, opts)
}

// Validate loads the definition at path and checks every configuration
// without dispatching: rule coverage, case names, declared types and flag
// encoding.
func Validate(ctx context.Context, path string) (*sflsweep.Sweep, error) {
	sw, err := sflsweep.Load(path, sflsweep.WithLogger(logging.NewNop()))
	if err != nil {
		return nil, err
	}
	return sw, sw.Check(ctx)
}
