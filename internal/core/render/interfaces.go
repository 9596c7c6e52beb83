package render

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/scenekit/internal/core/assets"
)

// Object is the renderable representation a backend builds for an entity.
type Object interface {
	Name() string
	Kind() string
	Children() []Object

	Transform() mgl32.Mat4
	SetTransform(mgl32.Mat4)

	// Bind attaches resolved dependencies. The loader calls it once, before
	// reporting the object as loaded.
	Bind(deps []*assets.Asset) error
	Dependencies() []*assets.Asset
}

// Backend is the rendering backend the engine hands to every component.
type Backend interface {
	Name() string
	// CreateObject builds the object tree described by desc. It may be called from
	// loader goroutines.
	CreateObject(ctx context.Context, desc ObjectDescriptor) (Object, error)
	// DrawView draws one camera view of the named scene. Called on the frame thread.
	DrawView(scene string, view View) error
}

// ObjectDescriptor is the declarative form of a visual object.
type ObjectDescriptor struct {
	Name         string             `yaml:"name"`
	Kind         string             `yaml:"kind"`
	Dependencies []string           `yaml:"dependencies,omitempty"`
	Children     []ObjectDescriptor `yaml:"children,omitempty"`
}

// Refs returns the dependency refs of the whole tree, first occurrence order, without
// duplicates.
func (d ObjectDescriptor) Refs() []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(ObjectDescriptor)
	walk = func(n ObjectDescriptor) {
		for _, ref := range n.Dependencies {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(d)
	return out
}

// Count returns the number of nodes in the tree.
func (d ObjectDescriptor) Count() int {
	n := 1
	for _, ch := range d.Children {
		n += ch.Count()
	}
	return n
}
