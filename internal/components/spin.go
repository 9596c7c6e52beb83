package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/scenekit/internal/core/component"
)

// Spin rotates the entity's object around Axis at Speed radians per second. Until
// the object exists it only accumulates the angle.
type Spin struct {
	component.Base

	Axis  mgl32.Vec3 `yaml:"axis"`
	Speed float64    `yaml:"speed"`

	angle float32
	rest  mgl32.Mat4
}

var (
	_ component.Defaulter             = (*Spin)(nil)
	_ component.ObjectCreatedListener = (*Spin)(nil)
	_ component.Updater               = (*Spin)(nil)
)

func (s *Spin) Defaults() map[string]any {
	return map[string]any{
		"axis":  []float32{0, 1, 0},
		"speed": 1.0,
	}
}

func (s *Spin) AttributeKeys() []string { return []string{"axis", "speed"} }

func (s *Spin) Init() error {
	if s.Axis.Len() == 0 {
		s.Axis = mgl32.Vec3{0, 1, 0}
	}
	s.Axis = s.Axis.Normalize()
	s.rest = mgl32.Ident4()
	return nil
}

// ObjectCreated captures the object's transform as the rest pose.
func (s *Spin) ObjectCreated() error {
	obj, err := s.Object()
	if err != nil {
		return err
	}
	s.rest = obj.Transform()
	return nil
}

func (s *Spin) Update(delta float64) error {
	s.angle += float32(s.Speed * delta)
	if !s.HasObject() {
		return nil
	}
	obj, err := s.Object()
	if err != nil {
		return err
	}
	obj.SetTransform(s.rest.Mul4(mgl32.HomogRotate3D(s.angle, s.Axis)))
	return nil
}

// Angle is the accumulated rotation in radians.
func (s *Spin) Angle() float32 { return s.angle }
