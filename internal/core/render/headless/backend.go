// Package headless is a rendering backend that builds object trees and records draws
// without touching a GPU. The demo runner and the tests use it.
package headless

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/scenekit/internal/core/assets"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/internal/core/render"
)

var supportedKinds = map[string]struct{}{
	"group":  {},
	"mesh":   {},
	"light":  {},
	"sprite": {},
}

// DrawCall records one DrawView invocation.
type DrawCall struct {
	Scene          string
	Camera         string
	Viewport       render.Viewport
	Clear          bool
	ViewProjection mgl32.Mat4
}

type Backend struct {
	logger log.Log
	// Latency simulates backend work inside CreateObject.
	Latency time.Duration

	created atomic.Uint64

	mu    sync.Mutex
	draws []DrawCall
}

var _ render.Backend = (*Backend)(nil)

func New(logger log.Log) *Backend {
	return &Backend{logger: logger.With(log.String("component", "renderer"))}
}

func (b *Backend) Name() string { return "headless" }

func (b *Backend) CreateObject(ctx context.Context, desc render.ObjectDescriptor) (render.Object, error) {
	if b.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.Latency):
		}
	}
	obj, err := b.build(desc)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("object created",
		log.String("object", desc.Name),
		log.Int("nodes", desc.Count()))
	return obj, nil
}

func (b *Backend) build(desc render.ObjectDescriptor) (*Node, error) {
	if _, ok := supportedKinds[desc.Kind]; !ok {
		return nil, fmt.Errorf("%w: %q (object %q)", ErrUnsupportedKind, desc.Kind, desc.Name)
	}
	n := &Node{
		name:      desc.Name,
		kind:      desc.Kind,
		transform: mgl32.Ident4(),
	}
	for _, chd := range desc.Children {
		child, err := b.build(chd)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	b.created.Add(1)
	return n, nil
}

func (b *Backend) DrawView(scene string, view render.View) error {
	if view.Camera == nil {
		return ErrNoCamera
	}
	if view.Options.Viewport.Empty() {
		return fmt.Errorf("%w: %+v", ErrEmptyViewport, view.Options.Viewport)
	}
	call := DrawCall{
		Scene:          scene,
		Camera:         view.Camera.Name,
		Viewport:       view.Options.Viewport,
		Clear:          view.Options.Clear,
		ViewProjection: view.Camera.ViewProjection(view.Options.Viewport.Aspect()),
	}
	b.mu.Lock()
	b.draws = append(b.draws, call)
	b.mu.Unlock()
	return nil
}

// Draws returns a copy of the recorded draw calls.
func (b *Backend) Draws() []DrawCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DrawCall, len(b.draws))
	copy(out, b.draws)
	return out
}

// Created reports how many nodes have been built.
func (b *Backend) Created() uint64 {
	return b.created.Load()
}

// Node is the headless render.Object.
type Node struct {
	name      string
	kind      string
	children  []*Node
	transform mgl32.Mat4

	mu   sync.RWMutex
	deps []*assets.Asset
}

var _ render.Object = (*Node)(nil)

func (n *Node) Name() string { return n.name }
func (n *Node) Kind() string { return n.kind }

func (n *Node) Children() []render.Object {
	out := make([]render.Object, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Transform() mgl32.Mat4 { return n.transform }

func (n *Node) SetTransform(m mgl32.Mat4) { n.transform = m }

func (n *Node) Bind(deps []*assets.Asset) error {
	for _, d := range deps {
		if d == nil {
			return ErrNilDependency
		}
	}
	n.mu.Lock()
	n.deps = append([]*assets.Asset(nil), deps...)
	n.mu.Unlock()
	return nil
}

func (n *Node) Dependencies() []*assets.Asset {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.deps
}
