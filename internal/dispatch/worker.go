package dispatch

import (
	"context"
	"fmt"
	"sync"

	"routegeo/internal/geo"
	"routegeo/internal/metrics"
	"routegeo/internal/model"
	"routegeo/internal/polyline"
	"routegeo/internal/protocol"
)

// Worker is a background decode context. Requests go in through Post and
// replies come back on Responses in whatever order the worker finishes them.
// Responses is closed once the worker has stopped.
type Worker interface {
	Post(ctx context.Context, req protocol.Request) error
	Responses() <-chan protocol.Response
	Terminate()
}

// WorkerFactory creates the shared worker. An error makes the dispatcher
// decode inline for that call.
type WorkerFactory func() (Worker, error)

// NewWorkerFactory returns a factory for goroutine workers. When enabled is
// false the factory reports ErrWorkerUnavailable and every decode runs inline.
func NewWorkerFactory(threshold int, tolerance float64, enabled bool) WorkerFactory {
	return func() (Worker, error) {
		if !enabled {
			return nil, ErrWorkerUnavailable
		}
		return NewGoroutineWorker(threshold, tolerance), nil
	}
}

// GoroutineWorker decodes requests one at a time on its own goroutine.
type GoroutineWorker struct {
	threshold int
	tolerance float64

	requests  chan protocol.Request
	responses chan protocol.Response
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewGoroutineWorker starts a worker goroutine. It runs until Terminate.
func NewGoroutineWorker(threshold int, tolerance float64) *GoroutineWorker {
	w := &GoroutineWorker{
		threshold: threshold,
		tolerance: tolerance,
		requests:  make(chan protocol.Request, 64),
		responses: make(chan protocol.Response, 64),
		stop:      make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *GoroutineWorker) run() {
	defer close(w.responses)
	for {
		select {
		case <-w.stop:
			return
		case req := <-w.requests:
			resp := w.handle(req)
			select {
			case w.responses <- resp:
			case <-w.stop:
				return
			}
		}
	}
}

// handle never lets a panic escape the worker; it becomes an error reply.
func (w *GoroutineWorker) handle(req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = protocol.Response{Type: protocol.TypeError, ID: req.ID, Error: fmt.Sprintf("decode panicked: %v", r)}
		}
	}()
	if err := req.Validate(); err != nil {
		return protocol.Response{Type: protocol.TypeError, ID: req.ID, Error: err.Error()}
	}
	points := decodeRoute(req.Encoded, req.Options(), w.threshold, w.tolerance)
	return protocol.Response{Type: protocol.TypeResult, ID: req.ID, Points: points}
}

// Post queues req. It fails once the worker is terminated.
func (w *GoroutineWorker) Post(ctx context.Context, req protocol.Request) error {
	select {
	case <-w.stop:
		return ErrWorkerTerminated
	default:
	}
	select {
	case w.requests <- req:
		return nil
	case <-w.stop:
		return ErrWorkerTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *GoroutineWorker) Responses() <-chan protocol.Response { return w.responses }

// Terminate stops the worker. Queued requests are dropped unanswered.
func (w *GoroutineWorker) Terminate() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// decodeRoute is the work itself: decode, then simplify routes over the
// threshold unless the caller opted out.
func decodeRoute(encoded string, opts model.DecodeOptions, threshold int, tolerance float64) []model.GeoPoint {
	points := polyline.Decode(encoded)
	metrics.PointsDecoded.Observe(float64(len(points)))
	if opts.ShouldSimplify() {
		tol := opts.Tolerance
		if tol <= 0 {
			tol = tolerance
		}
		points = geo.SimplifyLarge(points, tol, threshold)
	}
	metrics.PointsReturned.Observe(float64(len(points)))
	return points
}
