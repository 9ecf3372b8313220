package worldgen

import (
	"crypto/sha256"
	"testing"

	"voxelcore/internal/world"
)

func hashChunkBlocks(c *world.Chunk) [32]byte {
	h := sha256.New()
	for _, b := range c.DenseBlocks() {
		h.Write([]byte{byte(b), byte(b >> 8)})
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}

func TestFlatGeneratorImplementsInterface(t *testing.T) {
	var _ world.Generator = NewFlatGenerator(10)
}

func TestDensityGeneratorImplementsInterface(t *testing.T) {
	var _ world.Generator = NewDensityGenerator(123)
}

func TestBioGeneratorImplementsInterface(t *testing.T) {
	var _ world.Generator = NewBioGenerator(123)
}

func TestChunkProvider189ImplementsInterface(t *testing.T) {
	var _ world.Generator = NewChunkProvider189(123)
}

func TestFlatGeneratorHeight(t *testing.T) {
	// The argument is a seed: seed 10 at (0,0) gives
	// floor(32 + 32*octaveNoise2D(0, 0, 10, ...)) = 39.
	g := NewFlatGenerator(10)
	if h := g.HeightAt(0, 0); h != 39 {
		t.Errorf("expected height 39, got %d", h)
	}
}

func TestFlatGeneratorPopulate(t *testing.T) {
	g := NewFlatGenerator(5)
	c := g.GenerateTerrainOnly(world.ChunkCoord{})

	if b := c.GetBlock(0, 0, 0); b != world.BlockTypeBedrock {
		t.Errorf("expected bedrock at 0,0,0, got %v", b)
	}
	// Seed 5 puts the (0,0) column's surface at y=44.
	for y := 1; y < 44; y++ {
		if b := c.GetBlock(0, y, 0); b != world.BlockTypeDirt {
			t.Errorf("expected dirt at 0,%d,0, got %v", y, b)
		}
	}
	if b := c.GetBlock(0, 44, 0); b != world.BlockTypeGrass {
		t.Errorf("expected grass at 0,44,0, got %v", b)
	}
	if !c.State.HasState(world.StateBlocksPopulated) {
		t.Error("expected StateBlocksPopulated after GenerateTerrainOnly")
	}
}

func TestDensityDeterminism(t *testing.T) {
	seed := int64(12345)
	var hashes [20][32]byte

	for i := range hashes {
		g := NewDensityGenerator(seed)
		c := g.GenerateTerrainOnly(world.ChunkCoord{})
		hashes[i] = hashChunkBlocks(c)
	}

	first := hashes[0]
	for i := 1; i < len(hashes); i++ {
		if hashes[i] != first {
			t.Errorf("chunk generation not deterministic: hash[0] != hash[%d]", i)
		}
	}
}

func TestDensityDeterminismMultipleChunks(t *testing.T) {
	seed := int64(12345)
	coords := []world.ChunkCoord{{CX: 0, CZ: 0}, {CX: 1, CZ: 0}, {CX: 0, CZ: 1}, {CX: -1, CZ: -1}}

	for _, coord := range coords {
		g1 := NewDensityGenerator(seed)
		hash1 := hashChunkBlocks(g1.GenerateTerrainOnly(coord))

		g2 := NewDensityGenerator(seed)
		hash2 := hashChunkBlocks(g2.GenerateTerrainOnly(coord))

		if hash1 != hash2 {
			t.Errorf("chunk at %v not deterministic", coord)
		}
	}
}

func TestDensityTerrainHasAirAndSolid(t *testing.T) {
	g := NewDensityGenerator(1337)
	c := g.GenerateTerrainOnly(world.ChunkCoord{})

	airCount, solidCount := 0, 0
	for _, b := range c.DenseBlocks() {
		if b == world.BlockTypeAir {
			airCount++
		} else {
			solidCount++
		}
	}
	if airCount == 0 {
		t.Error("expected some air blocks, got none")
	}
	if solidCount == 0 {
		t.Error("expected some solid blocks, got none")
	}
}

func TestDensityBedrockAtZero(t *testing.T) {
	g := NewDensityGenerator(1337)
	c := g.GenerateTerrainOnly(world.ChunkCoord{})
	if b := c.GetBlock(8, 0, 8); b != world.BlockTypeBedrock {
		t.Errorf("expected bedrock at (8,0,8), got %v", b)
	}
}

func TestChunkProvider189Determinism(t *testing.T) {
	seed := int64(7)
	cp1 := NewChunkProvider189(seed)
	c1 := cp1.GenerateTerrainOnly(world.ChunkCoord{CX: 2, CZ: -3})
	hash1 := hashChunkBlocks(c1)

	cp2 := NewChunkProvider189(seed)
	c2 := cp2.GenerateTerrainOnly(world.ChunkCoord{CX: 2, CZ: -3})
	hash2 := hashChunkBlocks(c2)

	if hash1 != hash2 {
		t.Error("ChunkProvider189 generation not deterministic for the same seed/coord")
	}
}

func TestBioGeneratorNotAllAir(t *testing.T) {
	g := NewBioGenerator(42)
	c := g.GenerateTerrainOnly(world.ChunkCoord{})
	nonAir := 0
	for _, b := range c.DenseBlocks() {
		if b != world.BlockTypeAir {
			nonAir++
		}
	}
	if nonAir == 0 {
		t.Error("expected bio generator to produce non-air terrain")
	}
}
