package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelcore/internal/world"
)

// Upload satisfies meshing.UploadFunc: it creates (or reuses) the VAO/VBOs
// for a chunk and fills them from its CPU mesh buffers. Must run on the
// render thread (the GL context thread), matching §4.5's GPU upload
// contract.
func Upload(c *world.Chunk, buffers *world.MeshBuffers) (world.GPUHandles, error) {
	if buffers == nil || buffers.VertexCount() == 0 {
		return world.GPUHandles{Valid: true, IndexCount: 0}, nil
	}

	h := c.GPU
	if !h.Valid {
		gl.GenVertexArrays(1, &h.VAO)
		gl.GenBuffers(1, &h.PositionVBO)
		gl.GenBuffers(1, &h.UVVBO)
		gl.GenBuffers(1, &h.TexLayerVBO)
		gl.GenBuffers(1, &h.NormalVBO)
		gl.GenBuffers(1, &h.FlagsVBO)
		gl.GenBuffers(1, &h.EBO)
	}

	vertexCount := buffers.VertexCount()
	flags := make([]float32, vertexCount*2)
	for i := 0; i < vertexCount; i++ {
		flags[i*2] = float32(buffers.IsWater[i])
		flags[i*2+1] = float32(buffers.IsAlphaTested[i])
	}

	gl.BindVertexArray(h.VAO)

	bindFloatAttrib(h.PositionVBO, 0, 3, buffers.Positions)
	bindFloatAttrib(h.UVVBO, 1, 2, buffers.UVs)
	bindFloatAttrib(h.TexLayerVBO, 2, 1, buffers.TexLayers)
	bindFloatAttrib(h.NormalVBO, 3, 3, buffers.Normals)

	gl.BindBuffer(gl.ARRAY_BUFFER, h.FlagsVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(flags)*4, gl.Ptr(flags), gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(4, 1, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(4)
	gl.VertexAttribPointerWithOffset(5, 1, gl.FLOAT, false, 2*4, 4)
	gl.EnableVertexAttribArray(5)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buffers.Indices)*4, gl.Ptr(buffers.Indices), gl.DYNAMIC_DRAW)

	gl.BindVertexArray(0)

	if err := gl.GetError(); err != gl.NO_ERROR {
		return world.GPUHandles{}, fmt.Errorf("render: upload chunk %v: gl error %d", c.Coord, err)
	}

	h.IndexCount = int32(len(buffers.Indices))
	h.Valid = true
	return h, nil
}

func bindFloatAttrib(vbo uint32, location uint32, components int32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(location, components, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(location)
}

// Teardown satisfies meshing.TeardownFunc: releases a chunk's GPU
// resources. Must run on the render thread.
func Teardown(c *world.Chunk) {
	h := c.GPU
	if !h.Valid {
		return
	}
	buffers := []uint32{h.PositionVBO, h.UVVBO, h.TexLayerVBO, h.NormalVBO, h.FlagsVBO, h.EBO}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	gl.DeleteVertexArrays(1, &h.VAO)
}
