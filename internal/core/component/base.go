package component

import (
	"maps"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

// Base stores the attach-time Context and the bound attributes. Embed it to get the
// accessors.
type Base struct {
	ctx   Context
	attrs map[string]any
}

var _ Component = (*Base)(nil)

func (b *Base) Attach(ctx Context) {
	b.ctx = ctx
}

func (b *Base) Entity() EntityHandle { return b.ctx.Entity }

func (b *Base) Scene() SceneHandle { return b.ctx.Scene }

func (b *Base) Events() bus.EventBus { return b.ctx.Events }

func (b *Base) Renderer() render.Backend { return b.ctx.Renderer }

func (b *Base) Assets() assets.Registry { return b.ctx.Assets }

// Logger is scoped to this instance (type, id, entity).
func (b *Base) Logger() log.Log {
	if b.ctx.Logger == nil {
		return log.Nop()
	}
	return b.ctx.Logger
}

// Object returns the entity's visual object, or ErrObjectUnavailable before
// ObjectCreated.
func (b *Base) Object() (render.Object, error) {
	if b.ctx.Entity == nil {
		return nil, ErrObjectUnavailable
	}
	return b.ctx.Entity.Object()
}

func (b *Base) HasObject() bool {
	return b.ctx.Entity != nil && b.ctx.Entity.HasObject()
}

// Attribute returns a bound attribute value. Nothing is bound before Init.
func (b *Base) Attribute(key string) (any, bool) {
	v, ok := b.attrs[key]
	return v, ok
}

// Attributes returns a copy of the bound attributes.
func (b *Base) Attributes() map[string]any {
	return maps.Clone(b.attrs)
}

func (b *Base) bindAttributes(attrs map[string]any) {
	b.attrs = attrs
}

// attributeSink is satisfied by every component embedding Base.
type attributeSink interface {
	bindAttributes(map[string]any)
}
