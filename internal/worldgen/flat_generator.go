package worldgen

import (
	"math"

	"voxelcore/internal/world"
)

// FlatGenerator is a simple rolling-hills terrain generator driven by a
// single octave-noise heightmap. It implements world.Generator.
type FlatGenerator struct {
	seed        int64
	scale       float64
	baseHeight  int
	amp         float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// NewFlatGenerator creates a generator with default settings for seed.
func NewFlatGenerator(seed int64) *FlatGenerator {
	return &FlatGenerator{
		seed:        seed,
		scale:       1.0 / 64.0,
		baseHeight:  32,
		amp:         32,
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *FlatGenerator) HeightAt(worldX, worldZ int) int {
	x := float64(worldX) * g.scale
	z := float64(worldZ) * g.scale
	n := octaveNoise2D(x, z, g.seed, g.octaves, g.persistence, g.lacunarity)
	height := float64(g.baseHeight) + n*g.amp
	if height < 0 {
		height = 0
	}
	return int(math.Floor(height))
}

// GenerateTerrainOnly builds the base terrain column for coord. Chunks
// span the full world height (§3), so there is no chunk-Y-index math:
// a single column's noise heightmap directly bounds the fill.
func (g *FlatGenerator) GenerateTerrainOnly(coord world.ChunkCoord) *world.Chunk {
	c := world.NewChunk(coord)
	for lx := 0; lx < world.ChunkSizeX; lx++ {
		for lz := 0; lz < world.ChunkSizeZ; lz++ {
			worldX := int(coord.CX)*world.ChunkSizeX + lx
			worldZ := int(coord.CZ)*world.ChunkSizeZ + lz
			height := g.HeightAt(worldX, worldZ)
			if height >= world.WorldHeight {
				height = world.WorldHeight - 1
			}
			for ly := 0; ly < height; ly++ {
				if ly == 0 {
					c.SetBlock(lx, ly, lz, world.BlockTypeBedrock)
				} else {
					c.SetBlock(lx, ly, lz, world.BlockTypeDirt)
				}
			}
			if height == 0 {
				c.SetBlock(lx, 0, lz, world.BlockTypeBedrock)
			} else {
				c.SetBlock(lx, height, lz, world.BlockTypeGrass)
			}
		}
	}
	c.State.AddState(world.StateBlocksPopulated)
	return c
}

// PopulateFeatures is a no-op for the flat generator: it has no
// cross-chunk decoration pass.
func (g *FlatGenerator) PopulateFeatures(neighbors world.NeighborAccessor, c *world.Chunk) {
	c.State.AddState(world.StateFeaturesPopulated)
}
