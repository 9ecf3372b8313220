package world

import "sync"

// ChunkPosition is a shared, immutable position value object — purely
// an allocation-avoidance device for call sites that would otherwise
// allocate a fresh coordinate pair per lookup (§3).
type ChunkPosition struct {
	CX, CZ int32
}

const maxPositionCacheEntries = 200_000

// PositionCache is the bounded map from a packed chunk key to a shared
// *ChunkPosition described in §3 and §4.4. It never grows past
// maxPositionCacheEntries, and is pruned relative to a live-chunk count
// supplied by the caller (§4.4: "cleared or pruned when growth exceeds
// 2x live chunks").
type PositionCache struct {
	mu      sync.Mutex
	entries map[int64]*ChunkPosition
}

// NewPositionCache constructs an empty cache.
func NewPositionCache() *PositionCache {
	return &PositionCache{entries: make(map[int64]*ChunkPosition)}
}

func packKey(coord ChunkCoord) int64 {
	return (int64(coord.CX) << 32) | int64(uint32(coord.CZ))
}

// Get returns the shared position for coord, creating and caching one if
// it is not already present. liveChunks is used to decide whether the
// cache should be pruned first.
func (pc *PositionCache) Get(coord ChunkCoord, liveChunks int) *ChunkPosition {
	key := packKey(coord)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if p, ok := pc.entries[key]; ok {
		return p
	}

	if len(pc.entries) >= maxPositionCacheEntries || len(pc.entries) > liveChunks*2 {
		pc.pruneLocked(liveChunks)
	}

	p := &ChunkPosition{CX: coord.CX, CZ: coord.CZ}
	pc.entries[key] = p
	return p
}

// pruneLocked drops every cached entry; callers repopulate lazily via
// Get. A full clear is simpler and just as correct as selective eviction
// since entries are cheap to recreate and the invariant only requires
// that pruning never leaves an entry unreachable by the live map.
func (pc *PositionCache) pruneLocked(liveChunks int) {
	pc.entries = make(map[int64]*ChunkPosition, liveChunks)
}

// Len reports the current number of cached entries (tests, diagnostics).
func (pc *PositionCache) Len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.entries)
}
