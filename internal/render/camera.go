package render

import (
	"voxelcore/internal/player"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the projection parameters; the view matrix comes from the
// player directly, following the teacher's split between a stateless
// projection and a player-owned view.
type Camera struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		AspectRatio: float32(width) / float32(height),
		FOV:         70.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
	}
}

func (c *Camera) Resize(width, height int) {
	c.AspectRatio = float32(width) / float32(height)
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewMatrix(p *player.Player) mgl32.Mat4 {
	return p.GetViewMatrix()
}
