// Package meshing implements the mesh build algorithm and pipeline of
// C5: greedy per-axis meshing into CPU-side buffers, a priority-ordered
// worker pool, and the bounded main-thread GPU upload/teardown contract.
package meshing

import (
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

// faceNormal pairs a direction vector with the registry.BlockFace it
// corresponds to, walked once per chunk build (§4.5's "one quad per
// visible face" over all six directions).
type faceNormal struct {
	nx, ny, nz int
	face       registry.BlockFace
}

var faceNormals = [6]faceNormal{
	{0, 0, 1, registry.FaceNorth},
	{0, 0, -1, registry.FaceSouth},
	{1, 0, 0, registry.FaceEast},
	{-1, 0, 0, registry.FaceWest},
	{0, 1, 0, registry.FaceTop},
	{0, -1, 0, registry.FaceBottom},
}

// buildResult carries the outcome of a build attempt: either a completed
// buffer or a signal that a neighbor is still missing and the build must
// be deferred (§4.5's "otherwise the build is deferred until the
// neighbor exists").
type buildResult struct {
	buffers  *world.MeshBuffers
	deferred bool
}

// BuildChunkMesh runs the greedy meshing algorithm over c's S x H x S
// blocks, querying w for cross-chunk neighbor visibility. It returns
// deferred=true, buffers=nil if a needed neighbor chunk is not loaded.
// A missing neighbor is never treated as air, so a chunk at the load
// frontier defers the same way as any other chunk.
func BuildChunkMesh(w *world.World, c *world.Chunk) buildResult {
	b := &meshBuilder{w: w, c: c}
	for _, fn := range faceNormals {
		if !b.buildDirection(fn) {
			return buildResult{deferred: true}
		}
	}
	return buildResult{buffers: &b.out}
}

type meshBuilder struct {
	w   *world.World
	c   *world.Chunk
	out world.MeshBuffers
}

// faceVisible reports whether the block at local (x,y,z) plus
// the face normal is air, looking across a chunk border into the
// neighbor chunk when needed. ok=false means the neighbor chunk for an
// out-of-bounds lookup is not loaded; the caller must defer.
func (b *meshBuilder) faceVisible(x, y, z, nx, ny, nz int) (visible, ok bool) {
	lx, ly, lz := x+nx, y+ny, z+nz

	if ly < 0 || ly >= world.WorldHeight {
		return true, true // world floor/ceiling faces are always visible
	}
	if lx >= 0 && lx < world.ChunkSizeX && lz >= 0 && lz < world.ChunkSizeZ {
		return b.c.IsAir(lx, ly, lz), true
	}

	dcx, dcz := 0, 0
	switch {
	case lx < 0:
		dcx = -1
	case lx >= world.ChunkSizeX:
		dcx = 1
	}
	switch {
	case lz < 0:
		dcz = -1
	case lz >= world.ChunkSizeZ:
		dcz = 1
	}
	neighborCoord := world.ChunkCoord{CX: b.c.Coord.CX + int32(dcx), CZ: b.c.Coord.CZ + int32(dcz)}
	neighbor := b.w.Store().Neighbor(neighborCoord)
	if neighbor == nil {
		return false, false
	}
	wrapLocal := func(v, size int) int {
		v %= size
		if v < 0 {
			v += size
		}
		return v
	}
	return neighbor.IsAir(wrapLocal(lx, world.ChunkSizeX), ly, wrapLocal(lz, world.ChunkSizeZ)), true
}

// buildDirection runs greedy meshing for one face direction across the
// whole chunk, appending quads to b.out. Returns false if a neighbor
// required to test visibility is not loaded, signalling the caller to
// defer the whole build.
func (b *meshBuilder) buildDirection(fn faceNormal) bool {
	switch {
	case fn.nx != 0:
		return b.sweepAxis(world.ChunkSizeX, world.WorldHeight, world.ChunkSizeZ, fn, axisX)
	case fn.ny != 0:
		return b.sweepAxis(world.WorldHeight, world.ChunkSizeX, world.ChunkSizeZ, fn, axisY)
	default:
		return b.sweepAxis(world.ChunkSizeZ, world.ChunkSizeX, world.WorldHeight, fn, axisZ)
	}
}

type sweepAxis int

const (
	axisX sweepAxis = iota
	axisY
	axisZ
)

// maskCell is a mask entry: the block type of a visible face, or the
// zero value (set=false) for "not visible here".
type maskCell struct {
	block world.BlockType
	set   bool
}

// sweepAxis walks `layers` planes along the face normal's axis, building
// a uv mask of size dimU x dimV per plane and greedy-merging runs of
// identical block type, the way the teacher's per-axis direction builder
// did — generalized over which axis is fixed.
func (b *meshBuilder) sweepAxis(layers, dimU, dimV int, fn faceNormal, axis sweepAxis) bool {
	for layer := 0; layer < layers; layer++ {
		mask := make([]maskCell, dimU*dimV)
		for u := 0; u < dimU; u++ {
			for v := 0; v < dimV; v++ {
				x, y, z := axisCoords(axis, layer, u, v)
				bt := b.c.GetBlock(x, y, z)
				if bt == world.BlockTypeAir {
					continue
				}
				visible, ok := b.faceVisible(x, y, z, fn.nx, fn.ny, fn.nz)
				if !ok {
					return false
				}
				if visible {
					mask[u*dimV+v] = maskCell{block: bt, set: true}
				}
			}
		}
		b.mergeMask(mask, dimU, dimV, layer, fn, axis)
	}
	return true
}

func axisCoords(axis sweepAxis, layer, u, v int) (x, y, z int) {
	switch axis {
	case axisX:
		return layer, u, v
	case axisY:
		return u, layer, v
	default:
		return u, v, layer
	}
}

// mergeMask performs the standard greedy rectangle merge over one plane's
// mask, emitting one quad per maximal same-block rectangle.
func (b *meshBuilder) mergeMask(mask []maskCell, dimU, dimV, layer int, fn faceNormal, axis sweepAxis) {
	i := 0
	for i < dimU*dimV {
		if !mask[i].set {
			i++
			continue
		}
		block := mask[i].block
		u0, v0 := i/dimV, i%dimV

		width := 1
		for v1 := v0 + 1; v1 < dimV && mask[u0*dimV+v1].set && mask[u0*dimV+v1].block == block; v1++ {
			width++
		}
		height := 1
	outer:
		for u1 := u0 + 1; u1 < dimU; u1++ {
			for v1 := v0; v1 < v0+width; v1++ {
				cell := mask[u1*dimV+v1]
				if !cell.set || cell.block != block {
					break outer
				}
			}
			height++
		}

		b.emitQuad(axis, fn, layer, u0, v0, height, width, block)

		for uu := u0; uu < u0+height; uu++ {
			for vv := v0; vv < v0+width; vv++ {
				mask[uu*dimV+vv] = maskCell{}
			}
		}
	}
}

// emitQuad appends one greedily-merged quad's four vertices and six
// index entries (two CCW triangles) to b.out.
func (b *meshBuilder) emitQuad(axis sweepAxis, fn faceNormal, layer, u0, v0, height, width int, block world.BlockType) {
	faceLayer := layer
	if fn.nx > 0 || fn.ny > 0 || fn.nz > 0 {
		faceLayer = layer + 1
	}

	corner := func(du, dv int) (x, y, z float32) {
		u, v := u0+du, v0+dv
		switch axis {
		case axisX:
			return float32(faceLayer), float32(u), float32(v)
		case axisY:
			return float32(u), float32(faceLayer), float32(v)
		default:
			return float32(u), float32(v), float32(faceLayer)
		}
	}

	// Winding order per face: East/Bottom/North sweep (u,v) one way,
	// West/Top/South the other, so every emitted quad faces outward
	// under CCW triangulation regardless of which axis is fixed.
	var duv [4][2]int
	switch fn.face {
	case registry.FaceEast, registry.FaceBottom, registry.FaceNorth:
		duv = [4][2]int{{0, 0}, {height, 0}, {height, width}, {0, width}}
	default:
		duv = [4][2]int{{0, 0}, {0, width}, {height, width}, {height, 0}}
	}
	var corners [4][3]float32
	for i, d := range duv {
		x, y, z := corner(d[0], d[1])
		corners[i] = [3]float32{x, y, z}
	}

	texLayer := float32(registry.TextureLayer(block, fn.face))
	meta := block.Meta()
	isWater := uint8(0)
	if meta.IsWater {
		isWater = 1
	}
	isAlpha := uint8(0)
	if meta.AlphaTested {
		isAlpha = 1
	}

	base := uint32(len(b.out.Positions) / 3)
	for i, c := range corners {
		b.out.Positions = append(b.out.Positions, c[0], c[1], c[2])
		b.out.UVs = append(b.out.UVs, float32(duv[i][0]), float32(duv[i][1]))
		b.out.TexLayers = append(b.out.TexLayers, texLayer)
		b.out.Normals = append(b.out.Normals, float32(fn.nx), float32(fn.ny), float32(fn.nz))
		b.out.IsWater = append(b.out.IsWater, isWater)
		b.out.IsAlphaTested = append(b.out.IsAlphaTested, isAlpha)
	}
	b.out.Indices = append(b.out.Indices, base, base+1, base+2, base+2, base+3, base)
}
