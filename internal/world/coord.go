package world

// ChunkCoord identifies a column chunk in the horizontal grid. The
// spec's data model (§3) fixes chunks as a 2-D (cx, cz) grid; the
// teacher's Chunk/ChunkCoord carried a vestigial Y that was always 0
// (ChunkSizeY already spans the full world height), so it is dropped
// here rather than carried forward as dead weight.
type ChunkCoord struct {
	CX, CZ int32
}

// Neighbors8 returns the eight chunks adjacent to c (N, S, E, W and the
// four diagonals), in a fixed order used by the neighbor-gating checks.
func (c ChunkCoord) Neighbors8() [8]ChunkCoord {
	return [8]ChunkCoord{
		{c.CX - 1, c.CZ - 1}, {c.CX, c.CZ - 1}, {c.CX + 1, c.CZ - 1},
		{c.CX - 1, c.CZ}, {c.CX + 1, c.CZ},
		{c.CX - 1, c.CZ + 1}, {c.CX, c.CZ + 1}, {c.CX + 1, c.CZ + 1},
	}
}

// East, South, SouthEast return the single neighbor in that direction.
// The deferred feature-population queue only needs these three (§4.4).
func (c ChunkCoord) East() ChunkCoord     { return ChunkCoord{c.CX + 1, c.CZ} }
func (c ChunkCoord) South() ChunkCoord    { return ChunkCoord{c.CX, c.CZ + 1} }
func (c ChunkCoord) SouthEast() ChunkCoord { return ChunkCoord{c.CX + 1, c.CZ + 1} }

// ChebyshevDistance returns max(|Δcx|, |Δcz|), the streaming distance
// used for priority ordering (§4.6, glossary).
func ChebyshevDistance(a, b ChunkCoord) int {
	dx := int(a.CX - b.CX)
	if dx < 0 {
		dx = -dx
	}
	dz := int(a.CZ - b.CZ)
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

// floorDivS floors a world coordinate down to its containing chunk
// index for a chunk side of length s (teacher's floorDiv helper,
// generalized to int32).
func floorDivS(v, s int32) int32 {
	if v < 0 {
		return (v - s + 1) / s
	}
	return v / s
}

// modS returns a non-negative remainder, matching teacher's mod helper.
func modS(v, s int32) int32 {
	r := v % s
	if r < 0 {
		r += s
	}
	return r
}

// ChunkOf returns the chunk coordinate containing world block (wx, wz).
func ChunkOf(wx, wz int32, side int32) ChunkCoord {
	return ChunkCoord{floorDivS(wx, side), floorDivS(wz, side)}
}

// LocalOf returns (lx, lz), the within-chunk offsets of world block
// (wx, wz).
func LocalOf(wx, wz int32, side int32) (int32, int32) {
	return modS(wx, side), modS(wz, side)
}
