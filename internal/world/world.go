package world

import (
	"time"

	"voxelcore/internal/config"
)

// World composes the six core components behind a single facade: the
// chunk store (C4) and streaming scheduler (C6). C1 lives inside Chunk/
// ChunkState; C2/C3 are reached only through the ChunkPersistence
// collaborator; C5 is reached only through the MeshScheduler
// collaborator. Both are supplied by the caller at construction so this
// package never imports internal/save, internal/meshing, or
// internal/render.
type World struct {
	store     *ChunkStore
	scheduler *Scheduler
}

// New constructs a World. persistence, mesh, teardown, and water may be
// nil if that collaborator is not wired up yet — a nil persistence means
// every chunk is freshly generated and never saved; a nil mesh means no
// mesh builds are scheduled.
func New(gen Generator, persistence ChunkPersistence, mesh MeshScheduler, teardown GPUTeardownQueue, water WaterNotifier, cfg config.CoreConfig) *World {
	store := NewChunkStore(gen, persistence, mesh, teardown, water)
	scheduler := NewScheduler(store, mesh, cfg)
	return &World{store: store, scheduler: scheduler}
}

// Close shuts the streaming scheduler down within a bounded timeout
// (§4.6).
func (w *World) Close() {
	w.scheduler.Shutdown(shutdownTimeout)
}

// Tick drives one main-loop iteration: recompute the required set
// around the observer, then drain a batch of the deferred
// feature-population queue (§4.4, §4.6).
func (w *World) Tick(observerWorldX, observerWorldZ float64) {
	w.scheduler.Update(observerWorldX, observerWorldZ)
	w.store.ProcessDeferredFeaturePopulation()
}

// GetChunk returns the chunk at coord, optionally creating it.
func (w *World) GetChunk(coord ChunkCoord, create bool) *Chunk {
	if create {
		return w.store.GetOrCreate(coord)
	}
	c, _ := w.store.Get(coord)
	return c
}

// Get returns the block type at world coordinates (x, y, z).
func (w *World) Get(x, y, z int) BlockType {
	coord := ChunkOf(int32(x), int32(z), ChunkSizeX)
	c, ok := w.store.Get(coord)
	if !ok {
		return BlockTypeAir
	}
	lx, lz := LocalOf(int32(x), int32(z), ChunkSizeX)
	return c.GetBlock(int(lx), y, int(lz))
}

// IsAir reports whether the block at world coordinates is air.
func (w *World) IsAir(x, y, z int) bool { return w.Get(x, y, z) == BlockTypeAir }

// Set writes a world-space block edit (§4.4's setBlock contract).
func (w *World) Set(x, y, z int, val BlockType) bool {
	return w.store.SetBlock(x, y, z, val)
}

// Store exposes the underlying ChunkStore for collaborators (e.g. the
// render package) that need direct access beyond this facade.
func (w *World) Store() *ChunkStore { return w.store }

// shutdownTimeout matches §4.6's bounded shutdown window.
const shutdownTimeout = 5 * time.Second
