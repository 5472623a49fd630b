package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Interrupt is a command context cancelled on SIGINT or SIGTERM.
// It remembers which signal arrived so the caller can report it.
type Interrupt struct {
	context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	once   sync.Once

	mu  sync.Mutex
	sig os.Signal
}

// WithInterrupt starts listening for termination signals until Stop is called
// or parent is done.
func WithInterrupt(parent context.Context) *Interrupt {
	ctx, cancel := context.WithCancel(parent)
	in := &Interrupt{
		Context: ctx,
		cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(in.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-in.sigCh:
			in.mu.Lock()
			in.sig = sig
			in.mu.Unlock()
			in.cancel()
		case <-ctx.Done():
		}
		in.release()
	}()
	return in
}

// Stop cancels the context and stops signal delivery. Safe to call more than once.
func (in *Interrupt) Stop() {
	in.cancel()
	in.release()
}

func (in *Interrupt) release() {
	in.once.Do(func() {
		signal.Stop(in.sigCh)
	})
}

// Signal returns the signal that cancelled the context, or nil.
func (in *Interrupt) Signal() os.Signal {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.sig
}

// Wrap annotates a non-nil err with the received signal, if there was one.
func (in *Interrupt) Wrap(err error) error {
	if err == nil {
		return nil
	}
	if sig := in.Signal(); sig != nil {
		return fmt.Errorf("interrupted by %v: %w", sig, err)
	}
	return err
}
