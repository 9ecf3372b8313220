package world

// NeighborAccessor lets a Generator look at already-loaded neighboring
// chunks while populating features (§4.4's deferred feature-population
// queue: a chunk's features may only be populated once its east, south,
// and south-east neighbors exist). It returns nil if the neighbor is not
// currently loaded.
type NeighborAccessor interface {
	Neighbor(coord ChunkCoord) *Chunk
}

// Generator is the external terrain collaborator (§6). The core never
// decides what a chunk's terrain looks like; it only calls this
// interface at the right point in a chunk's lifecycle and tracks the
// resulting state transitions.
//
// GenerateTerrainOnly must be safe to call concurrently for distinct
// coordinates and must not read any other chunk's state: it runs before
// a chunk has any neighbors loaded. PopulateFeatures runs later, once
// the deferred-population gate (east/south/south-east neighbors present)
// is satisfied, and may read (but not mutate) those neighbors through
// the supplied NeighborAccessor.
type Generator interface {
	GenerateTerrainOnly(coord ChunkCoord) *Chunk
	PopulateFeatures(neighbors NeighborAccessor, c *Chunk)
}
