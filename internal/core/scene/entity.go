package scene

import (
	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/loader"
	"github.com/zeusync/scenekit/internal/core/render"
)

// LoadState tracks an entity's visual object.
type LoadState uint8

const (
	// LoadStatePending: created, load not requested yet (scene not open).
	LoadStatePending LoadState = iota
	LoadStateRequested
	LoadStateObjectCreated
	LoadStateObjectLoaded
	// LoadStateEmpty: the entity has no visual object description.
	LoadStateEmpty
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStatePending:
		return "pending"
	case LoadStateRequested:
		return "requested"
	case LoadStateObjectCreated:
		return "object_created"
	case LoadStateObjectLoaded:
		return "object_loaded"
	case LoadStateEmpty:
		return "empty"
	case LoadStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolved reports whether the load reached a final state.
func (s LoadState) Resolved() bool {
	return s == LoadStateObjectLoaded || s == LoadStateEmpty || s == LoadStateFailed
}

// Entity owns its component instances in attachment order.
type Entity struct {
	id    uint64
	name  string
	scene *Scene
	desc  *render.ObjectDescriptor

	instances []*component.Instance
	attrs     map[*component.Instance]map[string]any

	object  render.Object
	state   LoadState
	handle  loader.Handle
	loadErr error

	started  bool
	unloaded bool
}

var _ component.EntityHandle = (*Entity)(nil)

func (e *Entity) ID() uint64   { return e.id }
func (e *Entity) Name() string { return e.name }

func (e *Entity) Object() (render.Object, error) {
	if e.object == nil {
		return nil, component.ErrObjectUnavailable
	}
	return e.object, nil
}

func (e *Entity) HasObject() bool { return e.object != nil }

func (e *Entity) LoadState() LoadState { return e.state }

// LoadError is the cause of LoadStateFailed.
func (e *Entity) LoadError() error { return e.loadErr }

func (e *Entity) Unloaded() bool { return e.unloaded }

// Descriptor returns the object description, nil for entities without one.
func (e *Entity) Descriptor() *render.ObjectDescriptor { return e.desc }

// Components returns the instances in attachment order.
func (e *Entity) Components() []*component.Instance {
	out := make([]*component.Instance, len(e.instances))
	copy(out, e.instances)
	return out
}

func (e *Entity) Component(instanceID string) (*component.Instance, bool) {
	for _, inst := range e.instances {
		if inst.ID() == instanceID {
			return inst, true
		}
	}
	return nil, false
}

func (e *Entity) remove(inst *component.Instance) bool {
	for i, cur := range e.instances {
		if cur == inst {
			e.instances = append(e.instances[:i:i], e.instances[i+1:]...)
			delete(e.attrs, inst)
			return true
		}
	}
	return false
}

// catchUp replays the load milestones the entity already passed on a freshly
// initialized instance.
func (e *Entity) catchUp(inst *component.Instance) {
	switch e.state {
	case LoadStateObjectCreated:
		_ = inst.ObjectCreated()
	case LoadStateObjectLoaded:
		_ = inst.ObjectCreated()
		_ = inst.ObjectLoaded()
		_ = inst.Activate()
	case LoadStateFailed:
		// a load can fail after the object was already created
		if e.object != nil {
			_ = inst.ObjectCreated()
		}
	case LoadStateEmpty:
		_ = inst.Activate()
	}
}
