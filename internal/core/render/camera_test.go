package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraViewProjectionMapsTargetToCenter(t *testing.T) {
	cam := DefaultCamera("main")
	vp := cam.ViewProjection(16.0 / 9.0)

	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.True(t, ndc.Z() > -1 && ndc.Z() < 1)
}

func TestCameraZeroUpFallsBack(t *testing.T) {
	cam := DefaultCamera("main")
	cam.Up = mgl32.Vec3{}
	assert.Equal(t, DefaultCamera("main").View(), cam.View())
}

func TestViewportAspect(t *testing.T) {
	assert.InDelta(t, 2.0, Viewport{Width: 200, Height: 100}.Aspect(), 1e-6)
	assert.Equal(t, float32(1), Viewport{}.Aspect())
	assert.True(t, Viewport{Width: 10}.Empty())
}

func TestDescriptorRefsDedupAcrossTree(t *testing.T) {
	d := ObjectDescriptor{
		Name:         "robot",
		Kind:         "group",
		Dependencies: []string{"materials/metal.mat"},
		Children: []ObjectDescriptor{
			{Name: "arm", Kind: "mesh", Dependencies: []string{"meshes/arm.obj", "materials/metal.mat"}},
			{Name: "head", Kind: "mesh", Dependencies: []string{"meshes/head.obj"},
				Children: []ObjectDescriptor{{Name: "eye", Kind: "light"}}},
		},
	}
	assert.Equal(t, []string{"materials/metal.mat", "meshes/arm.obj", "meshes/head.obj"}, d.Refs())
	assert.Equal(t, 4, d.Count())
}
