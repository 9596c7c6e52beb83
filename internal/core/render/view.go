package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Viewport is the target rectangle of a view, in pixels.
type Viewport struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// ViewOptions is handed to PreRenderView/PostRenderView callbacks.
type ViewOptions struct {
	Viewport   Viewport   `yaml:"viewport"`
	Clear      bool       `yaml:"clear"`
	ClearColor mgl32.Vec4 `yaml:"clear_color"`
}

// View pairs a camera with its options. Disabled views are skipped by the scheduler.
type View struct {
	Camera   *Camera
	Options  ViewOptions
	Disabled bool
}
