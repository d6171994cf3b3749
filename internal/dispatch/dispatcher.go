package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"routegeo/internal/geo"
	"routegeo/internal/metrics"
	"routegeo/internal/model"
	"routegeo/internal/protocol"
)

// DefaultTimeout bounds one round trip to the shared worker.
const DefaultTimeout = 10 * time.Second

var (
	// ErrTimeout is returned when the worker does not answer in time.
	ErrTimeout = errors.New("polyline decode timed out")
	// ErrWorkerUnavailable is returned by factories that cannot start a worker.
	ErrWorkerUnavailable = errors.New("decode worker unavailable")
	// ErrWorkerTerminated is returned when posting to a terminated worker.
	ErrWorkerTerminated = errors.New("decode worker terminated")
)

// WorkerError carries an error reported by the worker for one request.
type WorkerError struct {
	ID      string
	Message string
}

func (e *WorkerError) Error() string { return "decode worker: " + e.Message }

// Options configures a Dispatcher. Zero values select the defaults.
type Options struct {
	Timeout          time.Duration
	Threshold        int
	DefaultTolerance float64
	NewWorker        WorkerFactory
	Logger           *zap.Logger
}

type pendingRequest struct {
	resolve   chan protocol.Response
	createdAt time.Time
}

// Dispatcher runs decodes on one lazily created shared worker, matching
// replies to callers by correlation id. When the worker cannot be created
// the decode runs inline on the caller's goroutine.
type Dispatcher struct {
	timeout   time.Duration
	threshold int
	tolerance float64
	newWorker WorkerFactory
	logger    *zap.Logger

	mu      sync.Mutex
	worker  Worker
	pending map[string]pendingRequest
}

// New creates a Dispatcher. No worker is started until the first Decode.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		timeout:   opts.Timeout,
		threshold: opts.Threshold,
		tolerance: opts.DefaultTolerance,
		newWorker: opts.NewWorker,
		logger:    opts.Logger,
		pending:   map[string]pendingRequest{},
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.threshold <= 0 {
		d.threshold = geo.DefaultThreshold
	}
	if d.tolerance <= 0 {
		d.tolerance = geo.DefaultTolerance
	}
	if d.newWorker == nil {
		d.newWorker = NewWorkerFactory(d.threshold, d.tolerance, true)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.With(zap.String("component", "dispatch"))
	return d
}

// Decode decodes encoded into points, simplifying large routes per opts.
// Concurrent calls share the worker and may complete in any order.
func (d *Dispatcher) Decode(ctx context.Context, encoded string, opts model.DecodeOptions) ([]model.GeoPoint, error) {
	start := time.Now()
	w, err := d.acquire()
	if err != nil {
		return d.decodeInline(encoded, opts, start, err), nil
	}

	points, err := d.roundTrip(ctx, w, encoded, opts)
	if errors.Is(err, ErrWorkerTerminated) {
		// terminated between acquire and Post; one more try on a fresh worker
		d.release(w)
		if w, err = d.acquire(); err != nil {
			return d.decodeInline(encoded, opts, start, err), nil
		}
		points, err = d.roundTrip(ctx, w, encoded, opts)
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrTimeout):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	metrics.Decodes.WithLabelValues("worker", status).Inc()
	metrics.DecodeDuration.WithLabelValues("worker").Observe(time.Since(start).Seconds())
	return points, err
}

func (d *Dispatcher) decodeInline(encoded string, opts model.DecodeOptions, start time.Time, cause error) []model.GeoPoint {
	d.logger.Debug("decode worker unavailable, decoding inline", zap.Error(cause))
	points := decodeRoute(encoded, opts, d.threshold, d.tolerance)
	metrics.Decodes.WithLabelValues("fallback", "ok").Inc()
	metrics.DecodeDuration.WithLabelValues("fallback").Observe(time.Since(start).Seconds())
	return points
}

// release drops w from the slot if it is still the shared worker.
func (d *Dispatcher) release(w Worker) {
	d.mu.Lock()
	if d.worker == w {
		d.worker = nil
	}
	d.mu.Unlock()
	w.Terminate()
}

// acquire returns the shared worker, creating it on first use.
func (d *Dispatcher) acquire() (Worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.worker != nil {
		return d.worker, nil
	}
	w, err := d.newWorker()
	if err == nil && w == nil {
		err = ErrWorkerUnavailable
	}
	if err != nil {
		metrics.WorkerStarts.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.WorkerStarts.WithLabelValues("ok").Inc()
	d.worker = w
	d.logger.Info("decode worker started")
	go d.receive(w)
	return w, nil
}

func (d *Dispatcher) roundTrip(ctx context.Context, w Worker, encoded string, opts model.DecodeOptions) ([]model.GeoPoint, error) {
	id := uuid.NewString()
	resolve := make(chan protocol.Response, 1)
	d.register(id, resolve)
	defer d.forget(id)

	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := protocol.Request{
		Type:      protocol.TypeDecode,
		ID:        id,
		Encoded:   encoded,
		Simplify:  opts.Simplify,
		Tolerance: opts.Tolerance,
	}
	if err := w.Post(tctx, req); err != nil {
		return nil, d.expired(ctx, id, err)
	}

	select {
	case resp := <-resolve:
		if err := resp.Validate(); err != nil {
			d.logger.Warn("malformed worker response", zap.String("id", id), zap.Error(err))
			return nil, &WorkerError{ID: id, Message: "malformed response: " + err.Error()}
		}
		if resp.Type == protocol.TypeError {
			return nil, &WorkerError{ID: id, Message: resp.Error}
		}
		if resp.Points == nil {
			resp.Points = []model.GeoPoint{}
		}
		return resp.Points, nil
	case <-tctx.Done():
		return nil, d.expired(ctx, id, tctx.Err())
	}
}

// expired maps a round-trip failure to what the caller sees: the caller's
// own cancellation wins over our timeout.
func (d *Dispatcher) expired(ctx context.Context, id string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		d.logger.Warn("decode timed out", zap.String("id", id), zap.Duration("timeout", d.timeout))
		return fmt.Errorf("%w after %s", ErrTimeout, d.timeout)
	}
	return err
}

func (d *Dispatcher) register(id string, resolve chan protocol.Response) {
	d.mu.Lock()
	d.pending[id] = pendingRequest{resolve: resolve, createdAt: time.Now()}
	d.mu.Unlock()
	metrics.PendingDecodes.Inc()
}

// forget drops id if it is still pending.
func (d *Dispatcher) forget(id string) {
	d.mu.Lock()
	_, ok := d.pending[id]
	delete(d.pending, id)
	d.mu.Unlock()
	if ok {
		metrics.PendingDecodes.Dec()
	}
}

// receive routes w's replies to their callers until w stops. Each pending
// entry is removed under the lock before its single send.
func (d *Dispatcher) receive(w Worker) {
	for resp := range w.Responses() {
		d.mu.Lock()
		p, ok := d.pending[resp.ID]
		delete(d.pending, resp.ID)
		d.mu.Unlock()
		if !ok {
			d.logger.Debug("dropping response without pending request", zap.String("id", resp.ID), zap.String("type", resp.Type))
			continue
		}
		metrics.PendingDecodes.Dec()
		d.logger.Debug("decode completed", zap.String("id", resp.ID), zap.Duration("age", time.Since(p.createdAt)))
		p.resolve <- resp
	}

	d.mu.Lock()
	if d.worker == w {
		// worker died on its own; let the next call create a fresh one
		d.worker = nil
	}
	d.mu.Unlock()
}

// Cleanup terminates the shared worker. Requests still in flight are not
// rejected here; they end by timeout or by their context. The next Decode
// starts a new worker.
func (d *Dispatcher) Cleanup() {
	d.mu.Lock()
	w := d.worker
	d.worker = nil
	pending := len(d.pending)
	d.mu.Unlock()
	if w == nil {
		return
	}
	w.Terminate()
	d.logger.Info("decode worker terminated", zap.Int("pending", pending))
}

// Pending returns the number of requests awaiting a worker reply.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
