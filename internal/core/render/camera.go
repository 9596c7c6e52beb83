package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. FOV is the vertical field of view in degrees.
type Camera struct {
	Name     string     `yaml:"name"`
	Position mgl32.Vec3 `yaml:"position"`
	Target   mgl32.Vec3 `yaml:"target"`
	Up       mgl32.Vec3 `yaml:"up"`
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

// DefaultCamera looks at the origin from +Z.
func DefaultCamera(name string) Camera {
	return Camera{
		Name:     name,
		Position: mgl32.Vec3{0, 0, 5},
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      60,
		Near:     0.1,
		Far:      1000,
	}
}

func (c Camera) View() mgl32.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ViewProjection is Projection * View for the given aspect ratio.
func (c Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}
