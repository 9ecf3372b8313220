package world

import "testing"

func TestChunkSetGetBlockRoundTrip(t *testing.T) {
	c := NewChunk(ChunkCoord{CX: 1, CZ: -2})

	if c.GetBlock(3, 10, 5) != BlockTypeAir {
		t.Fatalf("expected new chunk to be all air")
	}

	changed := c.SetBlock(3, 10, 5, BlockTypeStone)
	if !changed {
		t.Fatal("expected SetBlock to report a change for a new value")
	}
	if got := c.GetBlock(3, 10, 5); got != BlockTypeStone {
		t.Fatalf("expected stone, got %v", got)
	}

	if c.SetBlock(3, 10, 5, BlockTypeStone) {
		t.Fatal("expected SetBlock to report no change for an identical value")
	}
}

func TestChunkSetBlockOutOfRange(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	if c.SetBlock(-1, 0, 0, BlockTypeStone) {
		t.Fatal("expected out-of-range SetBlock to be a no-op")
	}
	if c.GetBlock(100, 0, 0) != BlockTypeAir {
		t.Fatal("expected out-of-range GetBlock to return air")
	}
}

func TestChunkSectionFreedWhenEmptied(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.SetBlock(0, 0, 0, BlockTypeStone)
	if !c.SetBlock(0, 0, 0, BlockTypeAir) {
		t.Fatal("expected clearing a block to report a change")
	}
	if !c.IsAir(0, 0, 0) {
		t.Fatal("expected block to read back as air")
	}
}

func TestChunkDenseBlocksRoundTrip(t *testing.T) {
	c := NewChunk(ChunkCoord{CX: 4, CZ: 4})
	c.SetBlock(0, 0, 0, BlockTypeBedrock)
	c.SetBlock(5, 100, 9, BlockTypeGrass)

	flat := c.DenseBlocks()

	c2 := NewChunk(ChunkCoord{CX: 4, CZ: 4})
	c2.LoadDenseBlocks(flat)

	if c2.GetBlock(0, 0, 0) != BlockTypeBedrock {
		t.Error("expected bedrock to survive dense round trip")
	}
	if c2.GetBlock(5, 100, 9) != BlockTypeGrass {
		t.Error("expected grass to survive dense round trip")
	}
	if c2.GetBlock(1, 1, 1) != BlockTypeAir {
		t.Error("expected untouched block to remain air")
	}
}

func TestChunkWaterEntriesMarksTransientResidue(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.SetWaterEntries([]WaterEntry{{LX: 1, LZ: 1, Y: 5, Level: 3}})
	if !c.State.NeedsSave() {
		t.Error("expected flowing water to mark the chunk as needing save")
	}

	c.SetWaterEntries([]WaterEntry{{LX: 1, LZ: 1, Y: 5, Level: 0}})
	if c.State.NeedsSave() {
		t.Error("expected only source-level water to clear transient residue")
	}
}

func TestChunkRerunFlag(t *testing.T) {
	c := NewChunk(ChunkCoord{})
	c.RequestRerun()
	if rerun := c.SetCPUMesh(&MeshBuffers{}); !rerun {
		t.Error("expected SetCPUMesh to report the pending rerun")
	}
	if rerun := c.SetCPUMesh(&MeshBuffers{}); rerun {
		t.Error("expected rerun flag to be consumed exactly once")
	}
}
