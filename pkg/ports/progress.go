package ports

import (
	"context"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// ProgressStore defines the interface for persisting sweep progress.
// This allows a sweep interrupted by policy, failure or signal to be resumed
// from the first configuration that was not reported.
type ProgressStore interface {
	// Save persists the progress for a given sweep name.
	Save(ctx context.Context, sweep string, progress domain.Progress) error

	// Load retrieves the progress for a given sweep name.
	// Returns domain.ErrProgressNotFound if nothing was recorded.
	Load(ctx context.Context, sweep string) (domain.Progress, error)

	// Delete removes the progress for a given sweep name.
	Delete(ctx context.Context, sweep string) error
}
