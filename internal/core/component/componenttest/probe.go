// Package componenttest provides an instrumented component for lifecycle and
// scheduling tests.
package componenttest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/render"
)

// Journal records callbacks across probes in call order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) Record(name, callback string) {
	j.mu.Lock()
	j.entries = append(j.entries, name+"."+callback)
	j.mu.Unlock()
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// For returns the callbacks recorded for one probe, without the name prefix.
func (j *Journal) For(name string) []string {
	var out []string
	for _, e := range j.Entries() {
		if cb, ok := strings.CutPrefix(e, name+"."); ok {
			out = append(out, cb)
		}
	}
	return out
}

// Only keeps entries whose callback is one of callbacks.
func (j *Journal) Only(callbacks ...string) []string {
	keep := make(map[string]struct{}, len(callbacks))
	for _, c := range callbacks {
		keep[c] = struct{}{}
	}
	var out []string
	for _, e := range j.Entries() {
		_, cb, _ := strings.Cut(e, ".")
		if _, ok := keep[cb]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (j *Journal) Reset() {
	j.mu.Lock()
	j.entries = nil
	j.mu.Unlock()
}

// Probe implements every optional callback and records each call. Fail and Panic
// make the named callback return an error or panic.
type Probe struct {
	component.Base

	Name    string
	Journal *Journal
	Fail    map[string]error
	Panic   map[string]bool

	Speed float64 `yaml:"speed"`
	Label string  `yaml:"label"`

	// ObjectSeen records HasObject at each callback.
	ObjectSeen map[string]bool
}

// Factory returns a component.Factory producing probes named name-1, name-2, ...
func Factory(name string, journal *Journal) component.Factory {
	n := 0
	return func() component.Component {
		n++
		return &Probe{Name: fmt.Sprintf("%s-%d", name, n), Journal: journal}
	}
}

func (p *Probe) hit(callback string) error {
	if p.Journal != nil {
		p.Journal.Record(p.Name, callback)
	}
	if p.ObjectSeen == nil {
		p.ObjectSeen = make(map[string]bool)
	}
	p.ObjectSeen[callback] = p.HasObject()
	if p.Panic[callback] {
		panic(p.Name + " " + callback)
	}
	return p.Fail[callback]
}

func (p *Probe) Attach(ctx component.Context) {
	p.Base.Attach(ctx)
	_ = p.hit("attach")
}

func (p *Probe) PreInit() error           { return p.hit("preInit") }
func (p *Probe) Init() error              { return p.hit("init") }
func (p *Probe) ObjectCreated() error     { return p.hit("objectCreated") }
func (p *Probe) ObjectLoaded() error      { return p.hit("objectLoaded") }
func (p *Probe) SceneLoaded() error       { return p.hit("sceneLoaded") }
func (p *Probe) PreUpdate(float64) error  { return p.hit("preUpdate") }
func (p *Probe) Update(float64) error     { return p.hit("update") }
func (p *Probe) PostUpdate(float64) error { return p.hit("postUpdate") }
func (p *Probe) PreRender(float64) error  { return p.hit("preRender") }
func (p *Probe) Render(float64) error     { return p.hit("render") }
func (p *Probe) PostRender(float64) error { return p.hit("postRender") }
func (p *Probe) Suspend() error           { return p.hit("suspend") }
func (p *Probe) Resume() error            { return p.hit("resume") }
func (p *Probe) Shutdown() error          { return p.hit("shutdown") }

func (p *Probe) PreRenderView(component.SceneHandle, *render.Camera, render.ViewOptions) error {
	return p.hit("preRenderView")
}

func (p *Probe) PostRenderView(component.SceneHandle, *render.Camera, render.ViewOptions) error {
	return p.hit("postRenderView")
}

// Stub is an EntityHandle with a settable object.
type Stub struct {
	IDValue   uint64
	NameValue string
	Obj       render.Object
}

func (s *Stub) ID() uint64   { return s.IDValue }
func (s *Stub) Name() string { return s.NameValue }

func (s *Stub) Object() (render.Object, error) {
	if s.Obj == nil {
		return nil, component.ErrObjectUnavailable
	}
	return s.Obj, nil
}

func (s *Stub) HasObject() bool { return s.Obj != nil }
