package scheduler

import "github.com/zeusync/scenekit/internal/core/component"

// Phase is one per-frame fan-out, in execution order.
type Phase uint8

const (
	PhasePreUpdate Phase = iota
	PhaseUpdate
	PhasePostUpdate
	PhasePreRender
	PhaseRender
	PhasePostRender
)

var framePhases = [...]Phase{
	PhasePreUpdate,
	PhaseUpdate,
	PhasePostUpdate,
	PhasePreRender,
	PhaseRender,
	PhasePostRender,
}

// Phases returns the frame phases in execution order. View passes run after them.
func Phases() []Phase {
	out := make([]Phase, len(framePhases))
	copy(out, framePhases[:])
	return out
}

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhasePreRender:
		return "pre_render"
	case PhaseRender:
		return "render"
	case PhasePostRender:
		return "post_render"
	default:
		return "unknown"
	}
}

func (p Phase) dispatch(inst *component.Instance, delta float64) {
	switch p {
	case PhasePreUpdate:
		inst.PreUpdate(delta)
	case PhaseUpdate:
		inst.Update(delta)
	case PhasePostUpdate:
		inst.PostUpdate(delta)
	case PhasePreRender:
		inst.PreRender(delta)
	case PhaseRender:
		inst.Render(delta)
	case PhasePostRender:
		inst.PostRender(delta)
	}
}
