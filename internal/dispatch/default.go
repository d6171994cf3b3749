package dispatch

import (
	"context"
	"sync"

	"routegeo/internal/model"
)

var (
	defaultMu         sync.Mutex
	defaultDispatcher *Dispatcher
)

// Default returns the process-wide dispatcher, creating it with default
// options on first use.
func Default() *Dispatcher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDispatcher == nil {
		defaultDispatcher = New(Options{})
	}
	return defaultDispatcher
}

// Configure replaces the process-wide dispatcher. A previous one is cleaned
// up first.
func Configure(opts Options) *Dispatcher {
	defaultMu.Lock()
	prev := defaultDispatcher
	defaultDispatcher = New(opts)
	d := defaultDispatcher
	defaultMu.Unlock()
	if prev != nil {
		prev.Cleanup()
	}
	return d
}

// Decode decodes with the process-wide dispatcher.
func Decode(ctx context.Context, encoded string, opts model.DecodeOptions) ([]model.GeoPoint, error) {
	return Default().Decode(ctx, encoded, opts)
}

// Cleanup terminates the process-wide dispatcher's worker, if any.
func Cleanup() {
	defaultMu.Lock()
	d := defaultDispatcher
	defaultMu.Unlock()
	if d != nil {
		d.Cleanup()
	}
}
