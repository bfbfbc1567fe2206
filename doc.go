/*
Package sflsweep orchestrates experiment sweeps: it expands a parameter space
into an ordered sequence of run configurations, resolves model-dependent
parameters, names each case and runs an external program once per
configuration.

# Concept

A sweep is defined by axes (parameters varied across runs), fixed parameters
and an optional rule table keyed on one selector parameter, such as attack
learning rates per model family. Expansion is the cartesian product of the
axes in nested-loop order: the first declared axis varies slowest. Each
configuration is handed to the external program as flat named flags
(--name=value), one per parameter, and only the exit status is inspected.

Runs are strictly sequential. Progress can be persisted (file or Redis) so a
sweep interrupted by a signal or a failure resumes at the first
configuration that did not finish.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/sflsweep"
		"github.com/aretw0/sflsweep/pkg/report"
	)

	func main() {
		sw, err := sflsweep.Load("sweeps/dra.yaml",
			sflsweep.WithReporter(report.NewText(os.Stdout)),
		)
		if err != nil {
			log.Fatal(err)
		}

		summary, err := sw.Run(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%d runs succeeded", summary.Succeeded)
	}

Sweeps can also be built in code with pkg/space, pkg/resolve and
pkg/casename, and run through New.
*/
package sflsweep
