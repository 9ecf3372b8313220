package meshing

import (
	"testing"

	"voxelcore/internal/world"
)

func BenchmarkBuildChunkMeshFullSurface(b *testing.B) {
	w := newTestWorld()
	c := w.GetChunk(world.ChunkCoord{}, true)
	for x := 0; x < world.ChunkSizeX; x++ {
		for z := 0; z < world.ChunkSizeZ; z++ {
			c.SetBlock(x, 64, z, world.BlockTypeGrass)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildChunkMesh(w, c)
	}
}
