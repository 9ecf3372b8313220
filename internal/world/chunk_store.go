package world

import (
	"fmt"
	"sync"
	"sync/atomic"

	"voxelcore/internal/coreerr"
	"voxelcore/internal/logging"
)

var storeLog = logging.New("world.store")

// TaskSubmitter hands a closure to an external low-priority executor
// (the streaming scheduler's priority pool, §5) instead of running it
// inline. ChunkStore works without one — save-then-unload just runs on
// its own goroutine — but wiring one in lets C6 arbitrate priority
// across loads and unload-saves as §4.6 requires.
type TaskSubmitter interface {
	SubmitLowPriority(fn func())
}

// featurePendingLimit is the default drain size for
// processDeferredFeaturePopulation, matching §4.4's "≈10".
const featurePendingLimit = 10

// ChunkStore is the authoritative in-memory chunk map (C4, §4.4).
type ChunkStore struct {
	mu       sync.RWMutex
	chunks   map[ChunkCoord]*Chunk
	modCount atomic.Uint64

	gen         Generator
	persistence ChunkPersistence
	mesh        MeshScheduler
	teardown    GPUTeardownQueue
	water       WaterNotifier
	submitter   TaskSubmitter

	posCache *PositionCache

	featureMu      sync.Mutex
	featurePending []ChunkCoord
}

// NewChunkStore constructs a store backed by gen. Persistence, mesh
// scheduling, GPU teardown, and water notification are optional
// collaborators (§6); pass nil for any not wired up yet.
func NewChunkStore(gen Generator, persistence ChunkPersistence, mesh MeshScheduler, teardown GPUTeardownQueue, water WaterNotifier) *ChunkStore {
	return &ChunkStore{
		chunks:      make(map[ChunkCoord]*Chunk),
		gen:         gen,
		persistence: persistence,
		mesh:        mesh,
		teardown:    teardown,
		water:       water,
		posCache:    NewPositionCache(),
	}
}

// SetTaskSubmitter wires in the streaming scheduler's priority pool
// after construction, avoiding a constructor cycle between C4 and C6.
func (cs *ChunkStore) SetTaskSubmitter(s TaskSubmitter) { cs.submitter = s }

// Position returns the shared ChunkPosition for coord (§3's allocation-
// avoidance cache).
func (cs *ChunkStore) Position(coord ChunkCoord) *ChunkPosition {
	return cs.posCache.Get(coord, cs.Len())
}

// Len returns the number of chunks currently live in the map.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// Get returns the chunk at coord without creating it.
func (cs *ChunkStore) Get(coord ChunkCoord) (*Chunk, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	c, ok := cs.chunks[coord]
	return c, ok
}

// Neighbor implements NeighborAccessor for generator feature population.
func (cs *ChunkStore) Neighbor(coord ChunkCoord) *Chunk {
	c, _ := cs.Get(coord)
	return c
}

// Has reports whether coord is currently loaded.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	_, ok := cs.Get(coord)
	return ok
}

// GetOrCreate returns the chunk at coord, loading it from the save
// repository if present, else generating terrain-only content. New
// chunks are queued for deferred feature population (§4.4). Returns
// nil if the generator fails: the chunk is never inserted into the
// map, and the caller (the streaming scheduler) may retry on a later
// tick (§7's generation-failure recovery).
func (cs *ChunkStore) GetOrCreate(coord ChunkCoord) *Chunk {
	if c, ok := cs.Get(coord); ok {
		return c
	}

	cs.mu.Lock()
	if existing, ok := cs.chunks[coord]; ok {
		cs.mu.Unlock()
		return existing
	}
	cs.mu.Unlock()

	c, needsFeatures := cs.loadOrGenerate(coord)
	if c == nil {
		return nil
	}

	cs.mu.Lock()
	if existing, ok := cs.chunks[coord]; ok {
		cs.mu.Unlock()
		return existing
	}
	cs.chunks[coord] = c
	cs.modCount.Add(1)
	cs.mu.Unlock()

	if needsFeatures {
		cs.featureMu.Lock()
		cs.featurePending = append(cs.featurePending, coord)
		cs.featureMu.Unlock()
	}
	if cs.water != nil {
		cs.water.OnChunkLoaded(c)
	}
	return c
}

func (cs *ChunkStore) loadOrGenerate(coord ChunkCoord) (c *Chunk, needsFeatures bool) {
	if cs.persistence != nil {
		snap, ok, err := cs.persistence.LoadChunk(coord)
		if err != nil {
			storeLog.Warn("chunk load failed, regenerating", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
		} else if ok {
			c = NewChunk(coord)
			c.LoadDenseBlocks(snap.Blocks)
			c.SetSnowEntries(snap.Snow)
			c.SetWaterEntries(snap.Water)
			c.State.AddState(StateBlocksPopulated)
			if snap.FeaturesPopulated {
				c.State.AddState(StateFeaturesPopulated)
			}
			return c, !snap.FeaturesPopulated
		}
	}

	c, err := cs.generateTerrainOnly(coord)
	if err != nil {
		storeLog.Error("chunk generation failed, slot aborted", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
		return nil, false
	}
	return c, true
}

// generateTerrainOnly isolates the call into the external generator
// collaborator: a generator that panics must not leave a partial chunk
// in the map, so the panic is recovered and reported as a classified
// fatal error instead of crashing the caller (§7).
func (cs *ChunkStore) generateTerrainOnly(coord ChunkCoord) (c *Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("world: generator panicked for chunk (%d,%d): %v: %w", coord.CX, coord.CZ, r, coreerr.ErrFatal)
		}
	}()
	return cs.gen.GenerateTerrainOnly(coord), nil
}

// SetBlock writes a world-space block edit, dirtying the owning chunk
// and any face-adjacent neighbor whose mesh the edit could affect, and
// notifying the water collaborator (§4.4).
func (cs *ChunkStore) SetBlock(wx, wy, wz int, block BlockType) bool {
	coord := ChunkOf(int32(wx), int32(wz), ChunkSizeX)
	lx, lz := LocalOf(int32(wx), int32(wz), ChunkSizeX)

	c := cs.GetOrCreate(coord)
	if c == nil {
		return false
	}
	old := c.GetBlock(int(lx), wy, int(lz))
	if old == block {
		return false
	}
	c.SetBlock(int(lx), wy, int(lz), block)
	c.State.MarkBlockDirty()
	c.State.MarkMeshDirty()
	cs.scheduleMesh(c)

	if lx == 0 {
		cs.dirtyNeighbor(ChunkCoord{coord.CX - 1, coord.CZ})
	} else if lx == ChunkSizeX-1 {
		cs.dirtyNeighbor(ChunkCoord{coord.CX + 1, coord.CZ})
	}
	if lz == 0 {
		cs.dirtyNeighbor(ChunkCoord{coord.CX, coord.CZ - 1})
	} else if lz == ChunkSizeZ-1 {
		cs.dirtyNeighbor(ChunkCoord{coord.CX, coord.CZ + 1})
	}

	if cs.water != nil {
		cs.water.OnBlockChanged(wx, wy, wz, old, block)
	}
	return true
}

func (cs *ChunkStore) dirtyNeighbor(coord ChunkCoord) {
	nb, ok := cs.Get(coord)
	if !ok {
		return
	}
	nb.State.MarkMeshDirty()
	cs.scheduleMesh(nb)
}

func (cs *ChunkStore) scheduleMesh(c *Chunk) {
	if cs.mesh != nil {
		cs.mesh.Schedule(c)
	}
}

// Unload implements the save-then-unload sequence of §4.4: the chunk is
// atomically marked UNLOADING and removed from the live map; if it
// needs saving, a low-priority task performs the save then cleanup,
// re-adding the chunk and clearing UNLOADING on failure.
func (cs *ChunkStore) Unload(coord ChunkCoord) {
	c, ok := cs.Get(coord)
	if !ok {
		return
	}
	if !c.State.AddState(StateUnloading) {
		return // already unloading
	}

	cs.mu.Lock()
	delete(cs.chunks, coord)
	cs.modCount.Add(1)
	cs.mu.Unlock()

	if !c.State.NeedsSave() {
		cs.cleanup(c)
		return
	}

	job := func() { cs.saveThenCleanup(coord, c) }
	if cs.submitter != nil {
		cs.submitter.SubmitLowPriority(job)
	} else {
		go job()
	}
}

func (cs *ChunkStore) saveThenCleanup(coord ChunkCoord, c *Chunk) {
	if cs.persistence == nil {
		c.State.MarkSaved()
		cs.cleanup(c)
		return
	}

	snap := &ChunkSnapshot{
		Blocks:            c.DenseBlocks(),
		Snow:              c.SnowEntries(),
		Water:             c.WaterEntries(),
		FeaturesPopulated: c.State.HasState(StateFeaturesPopulated),
	}
	if err := cs.persistence.SaveChunk(coord, snap); err != nil {
		storeLog.Error("chunk save failed, re-adding to live map", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
		c.State.RemoveState(StateUnloading)
		cs.mu.Lock()
		cs.chunks[coord] = c
		cs.mu.Unlock()
		return
	}
	c.State.MarkSaved()
	cs.cleanup(c)
}

func (cs *ChunkStore) cleanup(c *Chunk) {
	if cs.teardown != nil {
		cs.teardown.QueueTeardown(c)
	}
	if cs.water != nil {
		cs.water.OnChunkUnloaded(c)
	}
}

// ProcessDeferredFeaturePopulation drains up to featurePendingLimit
// entries from the feature-pending queue, populating only those whose
// east, south, and south-east neighbors have BLOCKS_POPULATED, and
// re-queuing the rest (§4.4). Intended to be called once per main-loop
// tick.
func (cs *ChunkStore) ProcessDeferredFeaturePopulation() {
	cs.featureMu.Lock()
	n := len(cs.featurePending)
	if n > featurePendingLimit {
		n = featurePendingLimit
	}
	batch := cs.featurePending[:n]
	cs.featurePending = cs.featurePending[n:]
	cs.featureMu.Unlock()

	var requeue []ChunkCoord
	for _, coord := range batch {
		c, ok := cs.Get(coord)
		if !ok {
			continue // chunk was unloaded while pending
		}
		if !cs.neighborsReady(coord) {
			requeue = append(requeue, coord)
			continue
		}
		cs.gen.PopulateFeatures(cs, c)
		c.State.AddState(StateFeaturesPopulated)
		cs.scheduleMesh(c)
	}

	if len(requeue) > 0 {
		cs.featureMu.Lock()
		cs.featurePending = append(cs.featurePending, requeue...)
		cs.featureMu.Unlock()
	}
}

func (cs *ChunkStore) neighborsReady(coord ChunkCoord) bool {
	for _, nb := range [3]ChunkCoord{coord.East(), coord.South(), coord.SouthEast()} {
		c, ok := cs.Get(nb)
		if !ok || !c.State.HasState(StateBlocksPopulated) {
			return false
		}
	}
	return true
}

// AllCoords returns every currently loaded chunk coordinate (used by
// the streaming scheduler to compute active-vs-required set diffs).
func (cs *ChunkStore) AllCoords() []ChunkCoord {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		out = append(out, coord)
	}
	return out
}

// ModCount returns the current modification counter (add/remove count).
func (cs *ChunkStore) ModCount() uint64 { return cs.modCount.Load() }
