package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/world"
)

// Renderer draws the world's GPU-ready chunk meshes with a single shared
// shader program, grounded on the teacher's blocks.Render/shader-setup
// split but against a texture array and the plain per-chunk VAOs C5's
// render collaborator produces instead of the teacher's packed-atlas
// multi-draw scheme.
type Renderer struct {
	shader  *Shader
	atlas   *TextureArray
	camera  *Camera
	lightDir mgl32.Vec3
}

// NewRenderer compiles the chunk shader and builds the texture array from
// the registry's block face metadata.
func NewRenderer(width, height int) (*Renderer, error) {
	shader, err := NewShader(chunkVertexShader, chunkFragmentShader)
	if err != nil {
		return nil, err
	}
	atlas, err := NewTextureArrayFromRegistry()
	if err != nil {
		shader.Delete()
		return nil, fmt.Errorf("render: build texture array: %w", err)
	}
	return &Renderer{
		shader:   shader,
		atlas:    atlas,
		camera:   NewCamera(width, height),
		lightDir: mgl32.Vec3{0.3, 1.0, 0.3}.Normalize(),
	}, nil
}

func (r *Renderer) Resize(width, height int) { r.camera.Resize(width, height) }

// BeginFrame clears the framebuffer and binds the shared shader/uniforms
// for the frame.
func (r *Renderer) BeginFrame(view, proj mgl32.Mat4) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.shader.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, r.atlas.ID)
	r.shader.SetInt("textureArray", 0)
	r.shader.SetMatrix4("proj", &proj[0])
	r.shader.SetMatrix4("view", &view[0])
	r.shader.SetVector3("lightDir", r.lightDir.X(), r.lightDir.Y(), r.lightDir.Z())
}

// DrawChunk issues one indexed draw call for a chunk's current GPU mesh.
func (r *Renderer) DrawChunk(c *world.Chunk) {
	if !c.GPU.Valid || c.GPU.IndexCount == 0 {
		return
	}
	origin := mgl32.Vec3{
		float32(c.Coord.CX) * float32(world.ChunkSizeX),
		0,
		float32(c.Coord.CZ) * float32(world.ChunkSizeZ),
	}
	r.shader.SetVector3("chunkOrigin", origin.X(), origin.Y(), origin.Z())

	gl.BindVertexArray(c.GPU.VAO)
	gl.DrawElements(gl.TRIANGLES, c.GPU.IndexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

func (r *Renderer) Close() {
	r.shader.Delete()
	r.atlas.Delete()
}
