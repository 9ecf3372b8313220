package worldgen

import "voxelcore/internal/world"

// DensityGenerator generates 3D terrain using density fields instead of
// heightmaps, enabling overhangs, floating formations, and underground
// voids. It implements world.Generator.
type DensityGenerator struct {
	seed             int64
	scale            float64 // noise frequency (default: 1/64)
	baseHeight       int     // target surface level (default: 64)
	gradientStrength float64 // altitude density gradient (default: 32)
	octaves          int
	persistence      float64
	lacunarity       float64
}

// NewDensityGenerator creates a 3D density-based terrain generator.
func NewDensityGenerator(seed int64) *DensityGenerator {
	return &DensityGenerator{
		seed:             seed,
		scale:            1.0 / 64.0,
		baseHeight:       64,
		gradientStrength: 32.0,
		octaves:          4,
		persistence:      0.5,
		lacunarity:       2.0,
	}
}

// computeDensity calculates the density value at a world coordinate.
// Positive density = solid block, negative/zero = air.
func (g *DensityGenerator) computeDensity(worldX, worldY, worldZ int) float64 {
	nx := float64(worldX) * g.scale
	ny := float64(worldY) * g.scale
	nz := float64(worldZ) * g.scale

	noiseValue := octaveNoise3D(nx, ny, nz, g.seed, g.octaves, g.persistence, g.lacunarity)
	noiseValue = noiseValue*2.0 - 1.0

	heightGradient := (float64(g.baseHeight) - float64(worldY)) / g.gradientStrength
	return noiseValue + heightGradient
}

// GenerateTerrainOnly fills a chunk using 3D density evaluation with
// trilinear interpolation across a sparse sample grid. Chunks span the
// full world height (§3), so the fill runs over [0, WorldHeight) with
// no chunk-Y-index offset.
func (g *DensityGenerator) GenerateTerrainOnly(coord world.ChunkCoord) *world.Chunk {
	c := world.NewChunk(coord)

	maxGenHeight := g.baseHeight + int(g.gradientStrength) + 1
	localMaxY := maxGenHeight
	if localMaxY < 0 {
		c.State.AddState(world.StateBlocksPopulated)
		return c
	}
	if localMaxY > world.WorldHeight {
		localMaxY = world.WorldHeight
	}

	const (
		xScale = 4
		yScale = 8
		zScale = 4
	)

	numX := (world.ChunkSizeX / xScale) + 1 // 5
	numZ := (world.ChunkSizeZ / zScale) + 1 // 5
	numY := (localMaxY+yScale-1)/yScale + 1

	densities := make([]float64, numX*numY*numZ)
	idx := func(x, y, z int) int {
		return (x*numY+y)*numZ + z
	}

	for dx := 0; dx < numX; dx++ {
		lx := dx * xScale
		worldX := int(coord.CX)*world.ChunkSizeX + lx

		for dz := 0; dz < numZ; dz++ {
			lz := dz * zScale
			worldZ := int(coord.CZ)*world.ChunkSizeZ + lz

			for dy := 0; dy < numY; dy++ {
				ly := dy * yScale
				densities[idx(dx, dy, dz)] = g.computeDensity(worldX, ly, worldZ)
			}
		}
	}

	for cx := 0; cx < numX-1; cx++ {
		for cz := 0; cz < numZ-1; cz++ {
			for cy := 0; cy < numY-1; cy++ {
				d000 := densities[idx(cx, cy, cz)]
				d100 := densities[idx(cx+1, cy, cz)]
				d010 := densities[idx(cx, cy+1, cz)]
				d110 := densities[idx(cx+1, cy+1, cz)]
				d001 := densities[idx(cx, cy, cz+1)]
				d101 := densities[idx(cx+1, cy, cz+1)]
				d011 := densities[idx(cx, cy+1, cz+1)]
				d111 := densities[idx(cx+1, cy+1, cz+1)]

				startX := cx * xScale
				startY := cy * yScale
				startZ := cz * zScale

				limitY := startY + yScale
				if limitY > localMaxY {
					limitY = localMaxY
				}

				for lx := 0; lx < xScale; lx++ {
					tx := float64(lx) / float64(xScale)
					d00 := lerp(d000, d100, tx)
					d01 := lerp(d001, d101, tx)
					d10 := lerp(d010, d110, tx)
					d11 := lerp(d011, d111, tx)

					for lz := 0; lz < zScale; lz++ {
						tz := float64(lz) / float64(zScale)
						d0 := lerp(d00, d01, tz)
						d1 := lerp(d10, d11, tz)

						for ly := 0; ly < (limitY - startY); ly++ {
							ty := float64(ly) / float64(yScale)
							density := lerp(d0, d1, ty)

							if density > 0 {
								targetY := startY + ly
								if targetY < world.WorldHeight {
									var blockType world.BlockType
									if targetY == 0 {
										blockType = world.BlockTypeBedrock
									} else {
										blockType = world.BlockTypeStone
									}
									c.SetBlock(startX+lx, targetY, startZ+lz, blockType)
								}
							}
						}
					}
				}
			}
		}
	}

	c.State.AddState(world.StateBlocksPopulated)
	return c
}

// PopulateFeatures is a no-op for the density generator: it has no
// cross-chunk decoration pass.
func (g *DensityGenerator) PopulateFeatures(neighbors world.NeighborAccessor, c *world.Chunk) {
	c.State.AddState(world.StateFeaturesPopulated)
}

// lerp is defined in noise.go
