// Package loader resolves entity object descriptors into visual objects in the
// background and hands the results back to the frame thread through Drain.
package loader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// Kind is the stage a Completion reports.
type Kind uint8

const (
	ObjectCreated Kind = iota + 1
	ObjectLoaded
	LoadFailed
)

func (k Kind) String() string {
	switch k {
	case ObjectCreated:
		return "object_created"
	case ObjectLoaded:
		return "object_loaded"
	case LoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Completion is one step of a load request. For a given request the loader emits
// ObjectCreated then ObjectLoaded, or LoadFailed at any point; nothing follows
// ObjectLoaded or LoadFailed.
type Completion struct {
	Request uint64
	Key     uint64
	Kind    Kind
	Object  render.Object
	Err     error
}

// Handle identifies an outstanding request.
type Handle interface {
	ID() uint64
	Key() uint64
	// Cancel suppresses every completion of the request not yet drained.
	Cancel()
	Cancelled() bool
}

type Loader interface {
	// RequestLoad returns immediately; progress is reported through Drain.
	RequestLoad(key uint64, desc render.ObjectDescriptor) Handle
	// Drain returns queued completions in the order they were produced.
	Drain() []Completion
	// Pending counts requests that have not produced their final completion.
	Pending() int
	Close() error
}

type Config struct {
	Workers int
	// Timeout bounds the work of one request once it holds a worker slot.
	// Time spent queued behind other requests does not count.
	Timeout time.Duration
}

type request struct {
	id        uint64
	key       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
	loader    *AsyncLoader
}

func (r *request) ID() uint64      { return r.id }
func (r *request) Key() uint64     { return r.key }
func (r *request) Cancelled() bool { return r.cancelled.Load() }

func (r *request) Cancel() {
	if r.cancelled.CompareAndSwap(false, true) {
		r.cancel()
		r.loader.forget(r.id)
	}
}

// AsyncLoader runs each request on its own goroutine, bounded by Workers concurrent
// requests. Completions are only queued; the frame thread picks them up.
type AsyncLoader struct {
	backend render.Backend
	assets  assets.Registry
	logger  log.Log
	cfg     Config

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	nextID atomic.Uint64

	mu       sync.Mutex
	queue    []Completion
	inflight map[uint64]*request
	closed   bool
}

var _ Loader = (*AsyncLoader)(nil)

func New(cfg Config, backend render.Backend, registry assets.Registry, logger log.Log) *AsyncLoader {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncLoader{
		backend:  backend,
		assets:   registry,
		logger:   logger.With(log.String("component", "loader")),
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[uint64]*request),
	}
}

func (l *AsyncLoader) RequestLoad(key uint64, desc render.ObjectDescriptor) Handle {
	ctx, cancel := context.WithCancel(l.ctx)
	req := &request{
		id:     l.nextID.Add(1),
		key:    key,
		ctx:    ctx,
		cancel: cancel,
		loader: l,
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		req.cancelled.Store(true)
		cancel()
		l.logger.Warn("load requested after close", log.Uint64("key", key))
		return req
	}
	l.inflight[req.id] = req
	l.wg.Add(1)
	l.mu.Unlock()

	l.logger.Debug("load requested",
		log.Uint64("request", req.id),
		log.Uint64("key", key),
		log.String("object", desc.Name))

	go l.run(req, desc)
	return req
}

func (l *AsyncLoader) run(req *request, desc render.ObjectDescriptor) {
	defer l.wg.Done()
	defer req.cancel()
	defer l.finish(req.id)

	if err := l.sem.Acquire(req.ctx, 1); err != nil {
		l.post(req, Completion{Kind: LoadFailed, Err: err})
		return
	}
	defer l.sem.Release(1)

	ctx, cancel := context.WithTimeout(req.ctx, l.cfg.Timeout)
	defer cancel()

	obj, err := l.backend.CreateObject(ctx, desc)
	if err != nil {
		l.post(req, Completion{Kind: LoadFailed, Err: fmt.Errorf("create object %q: %w", desc.Name, err)})
		return
	}
	l.post(req, Completion{Kind: ObjectCreated, Object: obj})

	deps, err := l.resolve(ctx, desc.Refs())
	if err != nil {
		l.post(req, Completion{Kind: LoadFailed, Err: err})
		return
	}
	if err = obj.Bind(deps); err != nil {
		l.post(req, Completion{Kind: LoadFailed, Err: fmt.Errorf("bind dependencies of %q: %w", desc.Name, err)})
		return
	}
	l.post(req, Completion{Kind: ObjectLoaded, Object: obj})
}

// resolve fetches refs concurrently and returns them in ref order.
func (l *AsyncLoader) resolve(ctx context.Context, refs []string) ([]*assets.Asset, error) {
	out := make([]*assets.Asset, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for i, ref := range refs {
		g.Go(func() error {
			a, err := l.assets.Resolve(gctx, ref)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", ref, err)
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *AsyncLoader) post(req *request, c Completion) {
	c.Request = req.id
	c.Key = req.key
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || req.cancelled.Load() {
		return
	}
	l.queue = append(l.queue, c)
}

func (l *AsyncLoader) finish(id uint64) {
	l.mu.Lock()
	delete(l.inflight, id)
	l.mu.Unlock()
}

// forget drops a cancelled request and anything it already queued.
func (l *AsyncLoader) forget(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, id)
	kept := l.queue[:0]
	for _, c := range l.queue {
		if c.Request != id {
			kept = append(kept, c)
		}
	}
	clear(l.queue[len(kept):])
	l.queue = kept
}

func (l *AsyncLoader) Drain() []Completion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.queue
	l.queue = nil
	return out
}

func (l *AsyncLoader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

// Close cancels outstanding requests and waits for their goroutines.
func (l *AsyncLoader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
	return nil
}
