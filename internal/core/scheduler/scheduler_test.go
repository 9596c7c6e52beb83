package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/component/componenttest"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
	"github.com/zeusync/scenekit/internal/core/render/headless"
	"github.com/zeusync/scenekit/internal/core/scene"
)

var frameCallbacks = []string{
	"preUpdate", "update", "postUpdate", "preRender", "render", "postRender",
	"preRenderView", "postRenderView",
}

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// deltaRecorder keeps every delta passed to Update.
type deltaRecorder struct {
	component.Base
	deltas []float64
}

func (d *deltaRecorder) Update(delta float64) error {
	d.deltas = append(d.deltas, delta)
	return nil
}

// detacher detaches a sibling entity's component during Update.
type detacher struct {
	component.Base
	target   uint64
	instance string
}

func (d *detacher) Update(float64) error {
	return d.Scene().(*scene.Scene).Detach(d.target, d.instance)
}

type fixture struct {
	journal  *componenttest.Journal
	backend  *headless.Backend
	events   bus.EventBus
	scene    *scene.Scene
	sched    *Scheduler
	clock    *fakeClock
	registry *component.Registry
}

func newFixture(t *testing.T, l loader.Loader) *fixture {
	t.Helper()
	j := &componenttest.Journal{}
	reg := component.NewRegistry()
	reg.MustRegister("a", componenttest.Factory("A", j))
	reg.MustRegister("b", componenttest.Factory("B", j))
	reg.MustRegister("c", componenttest.Factory("C", j))

	f := &fixture{
		journal:  j,
		backend:  headless.New(log.Nop()),
		events:   bus.New(),
		clock:    &fakeClock{now: time.Unix(1_700_000_000, 0)},
		registry: reg,
	}
	f.scene = scene.New("test", scene.Dependencies{
		Events: f.events, Renderer: f.backend, Loader: l, Components: reg, Logger: log.Nop(),
	})
	f.sched = New(Config{FrameInterval: time.Millisecond, MaxDelta: 250 * time.Millisecond}, Dependencies{
		Scene: f.scene, Loader: l, Renderer: f.backend, Events: f.events, Logger: log.Nop(),
	}, WithClock(f.clock.Now))
	return f
}

func (f *fixture) spawn(t *testing.T, name string, types ...string) *scene.Entity {
	t.Helper()
	desc := scene.EntityDescriptor{Name: name}
	for _, typ := range types {
		desc.Components = append(desc.Components, scene.ComponentDescriptor{Type: typ})
	}
	e, err := f.scene.Spawn(desc)
	require.NoError(t, err)
	return e
}

func mainView() render.View {
	cam := render.DefaultCamera("main")
	return render.View{Camera: &cam, Options: render.ViewOptions{Viewport: render.Viewport{Width: 320, Height: 240}}}
}

func TestFrameOrdering(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, "E1", "a", "b")
	f.spawn(t, "E2", "c")
	f.scene.AddView(mainView())
	require.NoError(t, f.scene.Open())

	f.sched.Tick(0.016)

	var want []string
	for _, cb := range frameCallbacks {
		for _, name := range []string{"A-1", "B-1", "C-1"} {
			want = append(want, name+"."+cb)
		}
	}
	assert.Equal(t, want, f.journal.Only(frameCallbacks...))
	require.Len(t, f.backend.Draws(), 1)
	assert.Equal(t, "main", f.backend.Draws()[0].Camera)
	assert.Equal(t, uint64(1), f.sched.GetMetrics().Frames)
}

func TestUpdateFailureStillRenders(t *testing.T) {
	f := newFixture(t, nil)
	e := f.spawn(t, "E1", "a", "b")
	a := e.Components()[0].Component().(*componenttest.Probe)
	a.Fail = map[string]error{"update": errors.New("update broke")}
	a.Panic = map[string]bool{"preRender": true}
	require.NoError(t, f.scene.Open())

	f.sched.Tick(0.016)

	assert.Equal(t, []string{"preUpdate", "update", "postUpdate", "preRender", "render", "postRender"},
		f.journal.For("A-1")[4:])
	assert.Contains(t, f.journal.For("B-1"), "render")
	assert.Equal(t, uint64(2), f.scene.Failures())
}

func TestDetachMidFrameSkipsRemainingCallbacks(t *testing.T) {
	f := newFixture(t, nil)
	first := f.spawn(t, "E1")
	victim := f.spawn(t, "E2", "c")
	d := &detacher{target: victim.ID(), instance: victim.Components()[0].ID()}
	_, err := f.scene.AttachComponent(first.ID(), "detacher", d, nil)
	require.NoError(t, err)
	require.NoError(t, f.scene.Open())

	f.sched.Tick(0.016)

	assert.Equal(t, []string{"preUpdate", "shutdown"}, f.journal.For("C-1")[4:])
}

func TestDisabledViewsAndDrawErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, "E1", "a")
	disabled := mainView()
	disabled.Disabled = true
	broken := mainView()
	broken.Options.Viewport = render.Viewport{}
	f.scene.AddView(disabled)
	f.scene.AddView(broken)
	require.NoError(t, f.scene.Open())

	f.sched.Tick(0.016)

	assert.Empty(t, f.backend.Draws())
	m := f.sched.GetMetrics()
	assert.Equal(t, uint64(1), m.DrawErrors)
	assert.ErrorIs(t, m.LastDrawError, headless.ErrEmptyViewport)
	assert.Equal(t, []string{"A-1.preRenderView", "A-1.postRenderView"}, f.journal.Only("preRenderView", "postRenderView"))
}

func TestSuspendedTicksSkipFrames(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, "E1", "a", "b")
	require.NoError(t, f.scene.Open())

	suspended := 0
	_, err := f.events.Subscribe(bus.EventApplicationSuspend, func(bus.Event) error {
		suspended++
		return nil
	})
	require.NoError(t, err)

	assert.True(t, f.sched.Suspend())
	assert.False(t, f.sched.Suspend())
	f.sched.Tick(0.016)
	f.sched.Tick(0.016)
	assert.Empty(t, f.journal.Only(frameCallbacks...))

	assert.True(t, f.sched.Resume())
	assert.False(t, f.sched.Resume())
	f.sched.Tick(0.016)

	assert.Equal(t, []string{"A-1.suspend", "B-1.suspend", "A-1.resume", "B-1.resume"}, f.journal.Only("suspend", "resume"))
	assert.Contains(t, f.journal.For("A-1"), "update")
	assert.Equal(t, 1, suspended)
	m := f.sched.GetMetrics()
	assert.Equal(t, uint64(2), m.SkippedFrames)
	assert.Equal(t, uint64(1), m.Frames)
	assert.Equal(t, uint64(1), m.Suspends)
	assert.Equal(t, uint64(1), m.Resumes)
}

func TestDeltaMeasurement(t *testing.T) {
	f := newFixture(t, nil)
	e := f.spawn(t, "E1")
	rec := &deltaRecorder{}
	_, err := f.scene.AttachComponent(e.ID(), "recorder", rec, nil)
	require.NoError(t, err)
	require.NoError(t, f.scene.Open())

	f.sched.step()
	f.clock.Advance(16 * time.Millisecond)
	f.sched.step()
	f.clock.Advance(2 * time.Second)
	f.sched.step()

	f.sched.SetFocus(false)
	f.sched.step()
	f.clock.Advance(5 * time.Second)
	f.sched.SetFocus(true)
	f.sched.step()
	f.clock.Advance(10 * time.Millisecond)
	f.sched.step()

	require.Len(t, rec.deltas, 5)
	assert.InDelta(t, 0, rec.deltas[0], 1e-9)
	assert.InDelta(t, 0.016, rec.deltas[1], 1e-9)
	assert.InDelta(t, 0.25, rec.deltas[2], 1e-9, "clamped to MaxDelta")
	assert.InDelta(t, 0, rec.deltas[3], 1e-9, "measured from the resume instant")
	assert.InDelta(t, 0.010, rec.deltas[4], 1e-9)
}

func TestToggleFocus(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.scene.Open())

	f.sched.ToggleFocus()
	f.sched.Tick(0)
	assert.True(t, f.sched.Suspended())
	assert.True(t, f.scene.Suspended())

	f.sched.ToggleFocus()
	f.sched.Tick(0)
	assert.False(t, f.sched.Suspended())
}

func TestRunUntilCancelled(t *testing.T) {
	f := newFixture(t, nil)
	f.spawn(t, "E1", "a")
	require.NoError(t, f.scene.Open())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sched.Run(ctx) }()

	ran := make(chan struct{})
	f.sched.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted task never ran")
	}
	require.Eventually(t, func() bool { return f.sched.GetMetrics().Frames >= 3 }, 2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoaderCompletionsArriveAtFrameBoundary(t *testing.T) {
	backend := headless.New(log.Nop())
	registry := assets.NewFSRegistry(fstest.MapFS{"meshes/crate.obj": {Data: []byte("v 0 0 0")}}, log.Nop())
	l := loader.New(loader.Config{Workers: 2, Timeout: time.Second}, backend, registry, log.Nop())
	defer l.Close()

	f := newFixture(t, l)
	e, err := f.scene.Spawn(scene.EntityDescriptor{
		Name:       "crate",
		Object:     &render.ObjectDescriptor{Name: "crate", Kind: "mesh", Dependencies: []string{"meshes/crate.obj"}},
		Components: []scene.ComponentDescriptor{{Type: "a"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.scene.Open())

	require.Eventually(t, func() bool {
		f.sched.Tick(0.016)
		return f.scene.Loaded()
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, scene.LoadStateObjectLoaded, e.LoadState())
	assert.Equal(t, component.StateActive, e.Components()[0].State())
	assert.Equal(t, uint64(2), f.sched.GetMetrics().CompletionsApplied)
	assert.Equal(t, []string{"A-1.objectCreated", "A-1.objectLoaded", "A-1.sceneLoaded"},
		f.journal.Only("objectCreated", "objectLoaded", "sceneLoaded"))
}

func TestPanickingSubscriberKeepsFramesRunning(t *testing.T) {
	backend := headless.New(log.Nop())
	registry := assets.NewFSRegistry(fstest.MapFS{"meshes/crate.obj": {Data: []byte("v 0 0 0")}}, log.Nop())
	l := loader.New(loader.Config{Workers: 1, Timeout: time.Second}, backend, registry, log.Nop())
	defer l.Close()

	f := newFixture(t, l)
	_, err := f.events.Subscribe(bus.EventObjectCreated, func(bus.Event) error { panic("boom") })
	require.NoError(t, err)
	_, err = f.scene.Spawn(scene.EntityDescriptor{
		Name:       "crate",
		Object:     &render.ObjectDescriptor{Name: "crate", Kind: "mesh", Dependencies: []string{"meshes/crate.obj"}},
		Components: []scene.ComponentDescriptor{{Type: "a"}},
	})
	require.NoError(t, err)
	f.spawn(t, "logic", "c")
	require.NoError(t, f.scene.Open())

	require.Eventually(t, func() bool {
		assert.NotPanics(t, func() { f.sched.Tick(0.016) })
		return f.scene.Loaded()
	}, 2*time.Second, 5*time.Millisecond)

	f.sched.Tick(0.016)
	assert.Contains(t, f.journal.For("A-1"), "objectLoaded")
	assert.Contains(t, f.journal.For("C-1"), "update")
	assert.Contains(t, f.journal.For("C-1"), "sceneLoaded")
}

func TestPhaseNames(t *testing.T) {
	var names []string
	for _, p := range Phases() {
		names = append(names, p.String())
	}
	assert.Equal(t, []string{"pre_update", "update", "post_update", "pre_render", "render", "post_render"}, names)
	assert.Equal(t, "unknown", Phase(42).String())
}
