package save

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"voxelcore/internal/coreerr"
	"voxelcore/internal/logging"
	"voxelcore/internal/metrics"
	"voxelcore/internal/region"
	"voxelcore/internal/world"
)

var log = logging.New("save")

const (
	worldMetaFileName = "world.dat"
	playerFileName    = "player.dat"

	// defaultIOPoolSize matches §4.3's "small dedicated I/O thread pool
	// (default size 2)".
	defaultIOPoolSize = 2

	// maxTransientRetries bounds the repository's retry of a transiently
	// failing region read before giving up and surfacing ok=false.
	maxTransientRetries = 3
)

type regionKey struct{ rx, rz int32 }

// Repository is the save repository (C3): a facade over the region
// file store that serializes whole entities. Region handles are cached
// keyed by (rx, rz); opens are idempotent (§4.3).
type Repository struct {
	dir string

	mu      sync.Mutex
	regions map[regionKey]*region.Region

	sem chan struct{} // bounds concurrent region I/O to the pool size
}

// NewRepository opens (creating if absent) a save repository rooted at
// dir.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: create dir %s: %w", dir, err)
	}
	return &Repository{
		dir:     dir,
		regions: make(map[regionKey]*region.Region),
		sem:     make(chan struct{}, defaultIOPoolSize),
	}, nil
}

func (repo *Repository) acquire() { repo.sem <- struct{}{} }
func (repo *Repository) release() { <-repo.sem }

func regionOf(coord world.ChunkCoord) regionKey {
	return regionKey{rx: floorDiv(coord.CX, region.RegionSide), rz: floorDiv(coord.CZ, region.RegionSide)}
}

func floorDiv(v, s int32) int32 {
	if v < 0 {
		return (v - s + 1) / s
	}
	return v / s
}

func localOf(coord world.ChunkCoord) (int, int) {
	mod := func(v, s int32) int32 {
		r := v % s
		if r < 0 {
			r += s
		}
		return r
	}
	return int(mod(coord.CX, region.RegionSide)), int(mod(coord.CZ, region.RegionSide))
}

// regionFor returns the cached Region for coord, opening it if this is
// the first access (idempotent per §4.3).
func (repo *Repository) regionFor(coord world.ChunkCoord) (*region.Region, error) {
	key := regionOf(coord)

	repo.mu.Lock()
	r, ok := repo.regions[key]
	repo.mu.Unlock()
	if ok {
		return r, nil
	}

	path := filepath.Join(repo.dir, fmt.Sprintf("r.%d.%d.mcr", key.rx, key.rz))
	r, err := region.Open(path)
	if err != nil {
		return nil, err
	}

	repo.mu.Lock()
	if existing, ok := repo.regions[key]; ok {
		repo.mu.Unlock()
		r.Close()
		return existing, nil
	}
	repo.regions[key] = r
	repo.mu.Unlock()
	return r, nil
}

// SaveChunk implements world.ChunkPersistence: encode the chunk snapshot
// and write it to its region's slot.
func (repo *Repository) SaveChunk(coord world.ChunkCoord, snap *world.ChunkSnapshot) error {
	r, err := repo.regionFor(coord)
	if err != nil {
		return err
	}
	lx, lz := localOf(coord)
	payload := encodeChunkPayload(coord, snap)

	repo.acquire()
	defer repo.release()
	return r.WriteChunk(lx, lz, payload)
}

// LoadChunk implements world.ChunkPersistence: read and decode the
// chunk's slot. Deserialization failure or a coordinate mismatch deletes
// the slot and returns ok=false so the caller regenerates (§4.3's
// recovery policy), rather than surfacing the error. A read that still
// fails transiently after the retries returns ok=false and keeps the slot.
func (repo *Repository) LoadChunk(coord world.ChunkCoord) (*world.ChunkSnapshot, bool, error) {
	r, err := repo.regionFor(coord)
	if err != nil {
		return nil, false, err
	}
	lx, lz := localOf(coord)

	var raw []byte
	var ok bool
	for attempt := 0; ; attempt++ {
		repo.acquire()
		raw, ok, err = r.ReadChunk(lx, lz)
		repo.release()
		if err == nil || coreerr.Classify(err) != coreerr.KindTransient || attempt >= maxTransientRetries {
			break
		}
		metrics.RegionIORetries.WithLabelValues("read").Inc()
		log.Warn("transient chunk read failure, retrying", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err), "attempt", attempt+1)
	}
	if err != nil {
		if coreerr.Classify(err) != coreerr.KindCorrupt {
			log.Warn("chunk read failed after retries", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
			return nil, false, nil
		}
		metrics.ChunksCorrupt.Inc()
		log.Warn("chunk read failed, deleting slot", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
		if delErr := r.DeleteChunk(lx, lz); delErr != nil {
			log.Error("failed to delete corrupt slot", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(delErr))
		}
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	snap, err := decodeChunkPayload(raw, coord)
	if err != nil {
		metrics.ChunksCorrupt.Inc()
		log.Warn("chunk decode failed, deleting slot", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(err))
		if delErr := r.DeleteChunk(lx, lz); delErr != nil {
			log.Error("failed to delete corrupt slot", logging.ChunkAttr(coord.CX, coord.CZ), logging.ErrAttr(delErr))
		}
		return nil, false, nil
	}
	return snap, true, nil
}

// ChunkExists reports whether a chunk's slot is occupied without
// decoding its payload.
func (repo *Repository) ChunkExists(coord world.ChunkCoord) (bool, error) {
	r, err := repo.regionFor(coord)
	if err != nil {
		return false, err
	}
	lx, lz := localOf(coord)
	return r.HasChunk(lx, lz), nil
}

// SaveWorld persists world metadata via an atomic temp-file-then-rename
// replace.
func (repo *Repository) SaveWorld(meta WorldMetadata) error {
	return repo.saveRecord(worldMetaFileName, meta)
}

// LoadWorld loads previously saved world metadata, if present.
func (repo *Repository) LoadWorld() (*WorldMetadata, bool, error) {
	var meta WorldMetadata
	ok, err := repo.loadRecord(worldMetaFileName, &meta)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &meta, true, nil
}

// SavePlayer persists one player's data.
func (repo *Repository) SavePlayer(data PlayerData) error {
	return repo.saveRecord(playerFileName, data)
}

// LoadPlayer loads previously saved player data, if present.
func (repo *Repository) LoadPlayer() (*PlayerData, bool, error) {
	var data PlayerData
	ok, err := repo.loadRecord(playerFileName, &data)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &data, true, nil
}

// saveRecord gob-encodes v (a self-describing key/value record per
// §4.3) and replaces name atomically: write to a temp file, fsync, then
// rename over the target.
func (repo *Repository) saveRecord(name string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("save: encode %s: %w", name, err)
	}

	target := filepath.Join(repo.dir, name)
	tmp := target + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("save: open temp %s: %w", tmp, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("save: write temp %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("save: sync temp %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save: close temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("save: rename %s -> %s: %w", tmp, target, err)
	}
	return nil
}

func (repo *Repository) loadRecord(name string, v any) (bool, error) {
	target := filepath.Join(repo.dir, name)
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("save: read %s: %w", target, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return false, fmt.Errorf("save: decode %s: %w: %w", target, err, coreerr.ErrCorrupt)
	}
	return true, nil
}

// Flush fsyncs every open region concurrently, bounded by the I/O pool
// size.
func (repo *Repository) Flush() error {
	repo.mu.Lock()
	regions := make([]*region.Region, 0, len(repo.regions))
	for _, r := range repo.regions {
		regions = append(regions, r)
	}
	repo.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(defaultIOPoolSize)
	for _, r := range regions {
		r := r
		g.Go(func() error { return r.Flush() })
	}
	return g.Wait()
}

// Close flushes and releases every open region handle.
func (repo *Repository) Close() error {
	if err := repo.Flush(); err != nil {
		log.Warn("flush failed on close", logging.ErrAttr(err))
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	var firstErr error
	for key, r := range repo.regions {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(repo.regions, key)
	}
	return firstErr
}

var _ world.ChunkPersistence = (*Repository)(nil)
