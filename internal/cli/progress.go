package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/sflsweep/pkg/adapters/file"
	"github.com/aretw0/sflsweep/pkg/adapters/redis"
	"github.com/aretw0/sflsweep/pkg/ports"
)

// ProgressOptions selects where sweep progress is kept.
// RedisAddr wins over Dir when both are set.
type ProgressOptions struct {
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// listingStore is a progress store that can enumerate its sweeps.
type listingStore interface {
	ports.ProgressStore
	List(ctx context.Context) ([]string, error)
}

// progressBackend bundles the store with the optional locker that shares
// its connection.
type progressBackend struct {
	store  listingStore
	locker ports.Locker
	close  func() error
}

// openProgress builds the progress backend. Redis backends are pinged so a
// wrong address fails before anything is dispatched.
func openProgress(ctx context.Context, opts ProgressOptions) (*progressBackend, error) {
	if opts.RedisAddr == "" {
		dir := opts.Dir
		if dir == "" {
			dir = file.DefaultDir
		}
		return &progressBackend{
			store: file.NewStore(dir),
			close: func() error { return nil },
		}, nil
	}

	var storeOpts []redis.Option
	if opts.RedisTTL > 0 {
		storeOpts = append(storeOpts, redis.WithTTL(opts.RedisTTL))
	}
	store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
	if err := store.Client().Ping(ctx).Err(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.RedisAddr, err)
	}
	return &progressBackend{
		store:  store,
		locker: redis.NewLocker(store.Client(), redis.DefaultPrefix),
		close:  store.Close,
	}, nil
}

// ListProgress prints the sweeps with saved progress, one per line, with
// their state and position.
func ListProgress(ctx context.Context, w io.Writer, opts ProgressOptions) error {
	backend, err := openProgress(ctx, opts)
	if err != nil {
		return err
	}
	defer backend.close()

	sweeps, err := backend.store.List(ctx)
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		fmt.Fprintln(w, "No saved progress found.")
		return nil
	}
	for _, name := range sweeps {
		p, err := backend.store.Load(ctx, name)
		if err != nil {
			fmt.Fprintf(w, "%s\t(unreadable: %v)\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", name, p.State, p.NextIndex, p.Total, p.LastCase)
	}
	return nil
}

// ShowProgress prints the saved progress of one sweep as indented JSON.
func ShowProgress(ctx context.Context, w io.Writer, opts ProgressOptions, sweep string) error {
	backend, err := openProgress(ctx, opts)
	if err != nil {
		return err
	}
	defer backend.close()

	p, err := backend.store.Load(ctx, sweep)
	if err != nil {
		return fmt.Errorf("failed to load progress of %q: %w", sweep, err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ResetProgress deletes the saved progress of the given sweeps, so their
// next run starts from the first configuration.
func ResetProgress(ctx context.Context, w io.Writer, opts ProgressOptions, sweeps ...string) error {
	backend, err := openProgress(ctx, opts)
	if err != nil {
		return err
	}
	defer backend.close()

	var failed bool
	for _, name := range sweeps {
		if err := backend.store.Delete(ctx, name); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", name, err)
			failed = true
			continue
		}
		fmt.Fprintf(w, "Removed progress of '%s'\n", name)
	}
	if failed {
		return fmt.Errorf("failed to reset some sweeps")
	}
	return nil
}
