package ports

import (
	"context"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Dispatcher runs configurations as external processes.
type Dispatcher interface {
	// Validate checks that cfg can be encoded for program without starting
	// anything. It returns a domain.ErrConfiguration match on failure.
	Validate(program domain.Program, cfg domain.Configuration) error

	// Dispatch runs one invocation to completion.
	// A non-zero exit status is reported through RunResult, not as an error.
	// Errors are reserved for invocations that could not be encoded or started.
	Dispatch(ctx context.Context, program domain.Program, inv domain.Invocation) (domain.RunResult, error)
}

// Reporter publishes sweep results as they happen.
type Reporter interface {
	// Report is called once per configuration, before the driver advances.
	Report(ctx context.Context, result domain.RunResult) error

	// Summarize is called once when the sweep ends, whatever its final state.
	Summarize(ctx context.Context, summary domain.Summary) error
}
