package components

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
	"github.com/zeusync/scenekit/internal/core/render/headless"
	"github.com/zeusync/scenekit/internal/core/scene"
	"github.com/zeusync/scenekit/internal/core/scheduler"
)

type harness struct {
	events  bus.EventBus
	scene   *scene.Scene
	sched   *scheduler.Scheduler
	loader  *loader.AsyncLoader
	logs    *observer.ObservedLogs
	backend *headless.Backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))

	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.FromZap(zap.New(core), log.LevelDebug)
	backend := headless.New(log.Nop())
	registry := assets.NewFSRegistry(fstest.MapFS{"meshes/top.obj": {Data: []byte("v 0 0 0")}}, log.Nop())
	l := loader.New(loader.Config{Workers: 2, Timeout: time.Second}, backend, registry, log.Nop())
	t.Cleanup(func() { _ = l.Close() })

	h := &harness{events: bus.New(), loader: l, logs: logs, backend: backend}
	h.scene = scene.New("test", scene.Dependencies{
		Events: h.events, Renderer: backend, Assets: registry, Loader: l, Components: reg, Logger: logger,
	})
	h.sched = scheduler.New(scheduler.Config{}, scheduler.Dependencies{
		Scene: h.scene, Loader: l, Renderer: backend, Events: h.events,
	})
	return h
}

func (h *harness) spawn(t *testing.T, desc scene.EntityDescriptor) *scene.Entity {
	t.Helper()
	e, err := h.scene.Spawn(desc)
	require.NoError(t, err)
	return e
}

func (h *harness) waitLoaded(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.sched.Tick(0)
		return h.scene.Loaded()
	}, 2*time.Second, 5*time.Millisecond)
}

func (h *harness) record(t *testing.T, eventType string) *[]bus.Event {
	t.Helper()
	var got []bus.Event
	_, err := h.events.Subscribe(eventType, func(ev bus.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	return &got
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{TypeBusRelay, TypeLoadingIndicator, TypeSpin, TypeTracer}, reg.Types())
	assert.ErrorIs(t, Register(reg), component.ErrDuplicateType)
}

func TestSpinRotatesObjectOnceAvailable(t *testing.T) {
	h := newHarness(t)
	e := h.spawn(t, scene.EntityDescriptor{
		Name:   "top",
		Object: &render.ObjectDescriptor{Name: "top", Kind: "mesh", Dependencies: []string{"meshes/top.obj"}},
		Components: []scene.ComponentDescriptor{{
			Type:       TypeSpin,
			Attributes: map[string]any{"speed": 2.0, "axis": []any{0, 0, 3}},
		}},
	})
	require.NoError(t, h.scene.Open())
	spin := e.Components()[0].Component().(*Spin)

	h.sched.Tick(0.5)
	h.waitLoaded(t)
	assert.InDelta(t, 1.0, spin.Angle(), 1e-6)

	h.sched.Tick(0.5)
	obj, err := e.Object()
	require.NoError(t, err)
	want := mgl32.HomogRotate3D(2.0, mgl32.Vec3{0, 0, 1})
	assert.True(t, obj.Transform().ApproxEqualThreshold(want, 1e-5), "got %v", obj.Transform())
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, spin.Axis)
	assert.Zero(t, h.scene.Failures())
}

func TestSpinDefaultsAndUnknownAttributes(t *testing.T) {
	h := newHarness(t)
	e := h.spawn(t, scene.EntityDescriptor{
		Name:       "logic",
		Components: []scene.ComponentDescriptor{{Type: TypeSpin, Attributes: map[string]any{"colour": "red"}}},
	})
	require.NoError(t, h.scene.Open())
	spin := e.Components()[0].Component().(*Spin)

	assert.InDelta(t, 1.0, spin.Speed, 1e-9)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, spin.Axis)
	_, ok := spin.Attribute("colour")
	assert.False(t, ok)
	assert.Equal(t, 1, h.logs.FilterMessage("unknown attributes dropped").Len())

	h.sched.Tick(0.25)
	assert.InDelta(t, 0.25, spin.Angle(), 1e-6)
}

func TestLoadingIndicatorHidesOnSceneLoaded(t *testing.T) {
	h := newHarness(t)
	shown := h.record(t, EventLoadingShown)
	hidden := h.record(t, EventLoadingHidden)
	e := h.spawn(t, scene.EntityDescriptor{
		Name:       "hud",
		Components: []scene.ComponentDescriptor{{Type: TypeLoadingIndicator, Attributes: map[string]any{"message": "Please wait"}}},
	})
	h.spawn(t, scene.EntityDescriptor{
		Name:   "top",
		Object: &render.ObjectDescriptor{Name: "top", Kind: "mesh", Dependencies: []string{"meshes/top.obj"}},
	})
	require.NoError(t, h.scene.Open())
	ind := e.Components()[0].Component().(*LoadingIndicator)
	require.Len(t, *shown, 1)
	assert.True(t, ind.Visible())

	h.waitLoaded(t)
	assert.False(t, ind.Visible())
	require.Len(t, *hidden, 1)
	status := (*hidden)[0].Data().(LoadingStatus)
	assert.Equal(t, "test", status.Scene)
	assert.Equal(t, "Please wait", status.Message)

	h.scene.Close()
	assert.Len(t, *hidden, 1)
}

func TestLoadingIndicatorHidesOnEarlyShutdown(t *testing.T) {
	h := newHarness(t)
	hidden := h.record(t, EventLoadingHidden)
	e := h.spawn(t, scene.EntityDescriptor{
		Name:       "hud",
		Components: []scene.ComponentDescriptor{{Type: TypeLoadingIndicator}},
	})
	h.spawn(t, scene.EntityDescriptor{
		Name:   "missing",
		Object: &render.ObjectDescriptor{Name: "missing", Kind: "mesh", Dependencies: []string{"meshes/none.obj"}},
	})
	require.NoError(t, h.scene.Open())
	require.NoError(t, h.scene.Unload(e.ID()))
	assert.Len(t, *hidden, 1)
}

func TestTracerLogsLifecycle(t *testing.T) {
	h := newHarness(t)
	e := h.spawn(t, scene.EntityDescriptor{
		Name:       "traced",
		Components: []scene.ComponentDescriptor{{Type: TypeTracer, Attributes: map[string]any{"level": "info"}}},
	})
	require.NoError(t, h.scene.Open())
	tr := e.Components()[0].Component().(*Tracer)

	h.sched.Tick(0.016)
	h.sched.Suspend()
	h.sched.Resume()
	require.NoError(t, h.scene.Unload(e.ID()))

	counts := tr.Counts()
	for _, cb := range []string{"pre_init", "init", "scene_loaded", "update", "render", "suspend", "resume", "shutdown"} {
		assert.Equal(t, 1, counts[cb], cb)
	}
	entries := h.logs.FilterMessage("lifecycle").All()
	var logged []string
	for _, entry := range entries {
		logged = append(logged, entry.ContextMap()["callback"].(string))
	}
	// pre_init is logged at the zero level before the attribute is bound.
	assert.Equal(t, []string{"pre_init", "init", "scene_loaded", "suspend", "resume", "shutdown"}, logged)
	assert.Equal(t, zapcore.InfoLevel, entries[len(entries)-1].Level)
}

func TestBusRelayForwardsUntilShutdown(t *testing.T) {
	h := newHarness(t)
	out := h.record(t, "door.opened.relayed")
	e := h.spawn(t, scene.EntityDescriptor{
		Name: "relay",
		Components: []scene.ComponentDescriptor{{
			Type:       TypeBusRelay,
			Attributes: map[string]any{"from": "door.opened", "to": "door.opened.relayed"},
		}},
	})
	require.NoError(t, h.scene.Open())
	relay := e.Components()[0].Component().(*BusRelay)
	before := h.events.SubscriberCount()

	publish := func() {
		require.NoError(t, h.events.Publish(bus.NewEvent("door.opened", "test", "north", nil)))
	}
	publish()
	h.sched.Suspend()
	publish()
	h.sched.Resume()
	publish()

	require.Len(t, *out, 2)
	assert.Equal(t, "north", (*out)[0].Data())
	assert.Equal(t, "door.opened", (*out)[0].Metadata()["relayed_from"])
	assert.Equal(t, "bus-relay:relay", (*out)[0].Source())
	assert.Equal(t, 2, relay.Relayed())

	require.NoError(t, h.scene.Unload(e.ID()))
	assert.Equal(t, before-1, h.events.SubscriberCount())
	publish()
	assert.Len(t, *out, 2)
}

func TestBusRelayRejectsLoops(t *testing.T) {
	h := newHarness(t)
	failed := h.record(t, bus.EventComponentFailed)
	h.spawn(t, scene.EntityDescriptor{
		Name: "relay",
		Components: []scene.ComponentDescriptor{{
			Type:       TypeBusRelay,
			Attributes: map[string]any{"from": "tick", "to": "tick"},
		}},
	})
	require.NoError(t, h.scene.Open())
	require.Len(t, *failed, 1)
	cbErr := (*failed)[0].Data().(*component.CallbackError)
	assert.ErrorIs(t, cbErr, ErrRelayConfig)
	assert.Equal(t, "init", cbErr.Callback)
}
