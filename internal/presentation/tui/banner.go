package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintHeader writes a one-line coloured sweep header, e.g.
//
//	sflsweep 0.1.0 · sfl-dra · 12 configurations
func PrintHeader(w io.Writer, version, sweep string, total int) {
	out := termenv.NewOutput(w)
	p := out.Profile
	name := out.String("sflsweep").Bold().Foreground(p.Color("#818cf8"))
	ver := out.String(version).Foreground(p.Color("#a78bfa"))
	title := out.String(sweep).Bold().Foreground(p.Color("#f472b6"))

	fmt.Fprintf(w, "%s %s · %s · %d configurations\n", name, ver, title, total)
}
