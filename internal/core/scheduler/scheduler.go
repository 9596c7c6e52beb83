// Package scheduler drives the per-frame callback order of a scene.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
	"github.com/zeusync/scenekit/internal/core/scene"
	"github.com/zeusync/scenekit/pkg/sequence"
)

type Config struct {
	// FrameInterval is the Run ticker period.
	FrameInterval time.Duration
	// MaxDelta clamps the measured delta. Zero disables clamping.
	MaxDelta time.Duration
}

type Dependencies struct {
	Scene    *scene.Scene
	Loader   loader.Loader
	Renderer render.Backend
	Events   bus.EventBus
	Logger   log.Log
}

// Scheduler drives a scene frame by frame. Tick, Suspend and Resume belong to the
// frame goroutine; Post, SetFocus, ToggleFocus and GetMetrics are safe from any
// goroutine.
type Scheduler struct {
	cfg      Config
	scene    *scene.Scene
	loader   loader.Loader
	renderer render.Backend
	events   bus.EventBus
	logger   log.Log
	now      func() time.Time

	suspended bool
	last      time.Time

	tasks *sequence.Queue[func()]

	metricsMu sync.RWMutex
	metrics   Metrics
}

type Option func(*Scheduler)

// WithClock replaces time.Now for delta measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(cfg Config, deps Dependencies, opts ...Option) *Scheduler {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = time.Second / 60
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	s := &Scheduler{
		cfg:      cfg,
		scene:    deps.Scene,
		loader:   deps.Loader,
		renderer: deps.Renderer,
		events:   deps.Events,
		logger:   logger.Named("scheduler"),
		now:      time.Now,
		tasks:    sequence.NewQueue[func()](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Scene() *scene.Scene { return s.scene }

func (s *Scheduler) Suspended() bool { return s.suspended }

// Tick runs one frame with the given delta in seconds. While suspended only loader
// completions are delivered.
func (s *Scheduler) Tick(delta float64) {
	s.runTasks()
	s.drain()
	if s.suspended {
		s.metricsMu.Lock()
		s.metrics.SkippedFrames++
		s.metricsMu.Unlock()
		return
	}

	start := s.now()
	ticking := s.scene.Ticking()
	for _, phase := range framePhases {
		for _, inst := range ticking {
			phase.dispatch(inst, delta)
		}
	}
	s.renderViews(ticking)
	s.drain()

	took := s.now().Sub(start)
	s.metricsMu.Lock()
	s.metrics.recordFrame(start, took)
	s.metricsMu.Unlock()
}

func (s *Scheduler) renderViews(ticking []*component.Instance) {
	for _, view := range s.scene.Views() {
		if view.Disabled || view.Camera == nil {
			continue
		}
		for _, inst := range ticking {
			inst.PreRenderView(s.scene, view.Camera, view.Options)
		}
		if s.renderer != nil {
			if err := s.renderer.DrawView(s.scene.Name(), view); err != nil {
				s.logger.Warn("draw view failed", log.String("camera", view.Camera.Name), log.Error(err))
				s.metricsMu.Lock()
				s.metrics.DrawErrors++
				s.metrics.LastDrawError = err
				s.metricsMu.Unlock()
			}
		}
		for _, inst := range ticking {
			inst.PostRenderView(s.scene, view.Camera, view.Options)
		}
	}
}

func (s *Scheduler) drain() {
	if s.loader == nil {
		return
	}
	completions := s.loader.Drain()
	if len(completions) == 0 {
		return
	}
	s.scene.Apply(completions)
	s.metricsMu.Lock()
	s.metrics.CompletionsApplied += uint64(len(completions))
	s.metricsMu.Unlock()
}

// Suspend reports whether the application was running.
func (s *Scheduler) Suspend() bool {
	if s.suspended {
		return false
	}
	s.suspended = true
	s.scene.Suspend()
	s.metricsMu.Lock()
	s.metrics.Suspends++
	s.metricsMu.Unlock()
	s.logger.Info("application suspended")
	s.publish(bus.EventApplicationSuspend)
	return true
}

// Resume reports whether the application was suspended. The next measured delta
// starts at the resume instant.
func (s *Scheduler) Resume() bool {
	if !s.suspended {
		return false
	}
	s.suspended = false
	s.last = s.now()
	s.scene.Resume()
	s.metricsMu.Lock()
	s.metrics.Resumes++
	s.metricsMu.Unlock()
	s.logger.Info("application resumed")
	s.publish(bus.EventApplicationResume)
	return true
}

// Post queues fn for the frame goroutine. Tasks run at the start of the next tick.
func (s *Scheduler) Post(fn func()) {
	s.tasks.Push(fn)
}

// SetFocus suspends on focus loss and resumes on focus gain.
func (s *Scheduler) SetFocus(focused bool) {
	s.Post(func() {
		if focused {
			s.Resume()
		} else {
			s.Suspend()
		}
	})
}

func (s *Scheduler) ToggleFocus() {
	s.Post(func() {
		if s.suspended {
			s.Resume()
		} else {
			s.Suspend()
		}
	})
}

func (s *Scheduler) runTasks() {
	for _, fn := range s.tasks.Drain() {
		fn()
	}
}

// Run ticks at FrameInterval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	s.last = time.Time{}
	s.logger.Info("frame loop started", log.Duration("interval", s.cfg.FrameInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("frame loop stopped", log.Uint64("frames", s.GetMetrics().Frames))
			return ctx.Err()
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Scheduler) step() {
	// a posted Resume resets last, so it must run before delta is measured.
	// Tick runs tasks again for callers that drive frames directly.
	s.runTasks()
	s.Tick(s.delta(s.now()))
}

// delta is zero on the first call and clamped to MaxDelta afterwards.
func (s *Scheduler) delta(now time.Time) float64 {
	if s.last.IsZero() {
		s.last = now
		return 0
	}
	d := now.Sub(s.last)
	s.last = now
	if d < 0 {
		d = 0
	}
	if s.cfg.MaxDelta > 0 && d > s.cfg.MaxDelta {
		d = s.cfg.MaxDelta
	}
	return d.Seconds()
}

func (s *Scheduler) GetMetrics() Metrics {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()
	return s.metrics
}

func (s *Scheduler) publish(eventType string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(bus.NewEvent(eventType, "scheduler", s.scene.Name(), nil)); err != nil {
		s.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
