package components

import (
	"maps"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// Tracer logs every lifecycle callback it receives. Per-frame callbacks are only
// logged when Frames is set.
type Tracer struct {
	component.Base

	Level  string `yaml:"level"`
	Frames bool   `yaml:"frames"`

	level  log.Level
	counts map[string]int
}

func (t *Tracer) Defaults() map[string]any {
	return map[string]any{"level": "debug", "frames": false}
}

func (t *Tracer) AttributeKeys() []string { return []string{"level", "frames"} }

func (t *Tracer) trace(callback string, frame bool, fields ...log.Field) error {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	t.counts[callback]++
	if frame && !t.Frames {
		return nil
	}
	fields = append(fields, log.String("callback", callback), log.Bool("has_object", t.HasObject()))
	t.Logger().Log(t.level, "lifecycle", fields...)
	return nil
}

// Counts returns how many times each callback ran.
func (t *Tracer) Counts() map[string]int { return maps.Clone(t.counts) }

func (t *Tracer) PreInit() error { return t.trace("pre_init", false) }

func (t *Tracer) Init() error {
	t.level = log.ParseLevel(t.Level)
	return t.trace("init", false)
}

func (t *Tracer) ObjectCreated() error { return t.trace("object_created", false) }
func (t *Tracer) ObjectLoaded() error  { return t.trace("object_loaded", false) }
func (t *Tracer) SceneLoaded() error   { return t.trace("scene_loaded", false) }
func (t *Tracer) Suspend() error       { return t.trace("suspend", false) }
func (t *Tracer) Resume() error        { return t.trace("resume", false) }
func (t *Tracer) Shutdown() error      { return t.trace("shutdown", false) }

func (t *Tracer) PreUpdate(delta float64) error {
	return t.trace("pre_update", true, log.Float64("delta", delta))
}

func (t *Tracer) Update(delta float64) error {
	return t.trace("update", true, log.Float64("delta", delta))
}

func (t *Tracer) PostUpdate(delta float64) error {
	return t.trace("post_update", true, log.Float64("delta", delta))
}

func (t *Tracer) PreRender(delta float64) error {
	return t.trace("pre_render", true, log.Float64("delta", delta))
}

func (t *Tracer) Render(delta float64) error {
	return t.trace("render", true, log.Float64("delta", delta))
}

func (t *Tracer) PostRender(delta float64) error {
	return t.trace("post_render", true, log.Float64("delta", delta))
}

func (t *Tracer) PreRenderView(_ component.SceneHandle, camera *render.Camera, options render.ViewOptions) error {
	return t.trace("pre_render_view", true, log.String("camera", camera.Name), log.Int("width", options.Viewport.Width))
}

func (t *Tracer) PostRenderView(_ component.SceneHandle, camera *render.Camera, options render.ViewOptions) error {
	return t.trace("post_render_view", true, log.String("camera", camera.Name), log.Int("width", options.Viewport.Width))
}
