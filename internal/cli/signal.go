package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which
// signal did it, so the CLI can tell an interrupt from a termination.
type SignalContext struct {
	context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	once   sync.Once

	mu  sync.Mutex
	sig os.Signal
}

// NewSignalContext starts listening for signals until Stop is called or
// the parent is done.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sig = sig
			sc.mu.Unlock()
			sc.cancel()
		case <-ctx.Done():
		}
		sc.once.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sig
}

// Stop releases the signal handler and cancels the context.
func (sc *SignalContext) Stop() {
	sc.once.Do(func() { signal.Stop(sc.sigCh) })
	sc.cancel()
}
