package world

import (
	"container/heap"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"voxelcore/internal/config"
	"voxelcore/internal/logging"
)

var schedLog = logging.New("world.scheduler")

// unloadPriority is the lowest priority (highest numeric key): "Unload
// tasks always run at the lowest priority ... so loads preempt them"
// (§4.6).
const unloadPriority = int(^uint(0) >> 1)

// Scheduler is the streaming scheduler (C6, §4.6): one Update call per
// main-loop tick recomputes the required chunk set around an observer
// and drives load/unload through a priority-ordered worker pool.
type Scheduler struct {
	store *ChunkStore
	mesh  MeshScheduler
	cfg   config.CoreConfig

	mu       sync.Mutex
	cond     *sync.Cond
	q        taskHeap
	seq      uint64
	shutdown bool

	wg sync.WaitGroup

	lastTick      time.Time
	renderDist    int
	meshReadyTime sync.Map // ChunkCoord -> time.Time, for stuck-chunk detection

	closed atomic.Bool
}

// NewScheduler constructs a scheduler with cfg.LoadThreads workers and
// wires itself into store as its low-priority TaskSubmitter.
func NewScheduler(store *ChunkStore, mesh MeshScheduler, cfg config.CoreConfig) *Scheduler {
	s := &Scheduler{store: store, mesh: mesh, cfg: cfg, renderDist: cfg.RenderDistance}
	s.cond = sync.NewCond(&s.mu)
	store.SetTaskSubmitter(s)

	workers := cfg.LoadThreads
	if workers < 1 {
		workers = 1
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.q) == 0 && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown && len(s.q) == 0 {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.q).(*priorityTask)
		s.mu.Unlock()
		t.fn()
	}
}

// submit enqueues fn at the given priority (lower runs first).
func (s *Scheduler) submit(priority int, fn func()) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.seq++
	heap.Push(&s.q, &priorityTask{priority: priority, seq: s.seq, fn: fn})
	s.mu.Unlock()
	s.cond.Signal()
}

// SubmitLowPriority implements TaskSubmitter for ChunkStore's
// save-then-unload dispatch.
func (s *Scheduler) SubmitLowPriority(fn func()) { s.submit(unloadPriority, fn) }

// Update recomputes the required set around observerWorldX/Z and drives
// loads/unloads through the priority pool (§4.6).
func (s *Scheduler) Update(observerWorldX, observerWorldZ float64) {
	now := time.Now()
	if !s.lastTick.IsZero() && now.Sub(s.lastTick) < time.Duration(s.cfg.UpdateIntervalMs)*time.Millisecond {
		return
	}
	s.lastTick = now

	playerChunk := ChunkOf(int32(observerWorldX), int32(observerWorldZ), ChunkSizeX)
	radius := s.renderDist + 1

	required := make(map[ChunkCoord]struct{})
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			c := ChunkCoord{playerChunk.CX + int32(dx), playerChunk.CZ + int32(dz)}
			if ChebyshevDistance(c, playerChunk) <= radius {
				required[c] = struct{}{}
			}
		}
	}

	active := s.store.AllCoords()
	activeSet := make(map[ChunkCoord]struct{}, len(active))
	for _, c := range active {
		activeSet[c] = struct{}{}
	}

	for _, coord := range active {
		if _, ok := required[coord]; !ok {
			coord := coord
			s.submit(unloadPriority, func() { s.store.Unload(coord) })
		}
	}

	var toLoad []ChunkCoord
	for coord := range required {
		if _, ok := activeSet[coord]; !ok {
			toLoad = append(toLoad, coord)
		}
	}
	sort.Slice(toLoad, func(i, j int) bool {
		return ChebyshevDistance(toLoad[i], playerChunk) < ChebyshevDistance(toLoad[j], playerChunk)
	})
	for _, coord := range toLoad {
		coord := coord
		priority := ChebyshevDistance(coord, playerChunk)
		s.submit(priority, func() { s.store.GetOrCreate(coord) })
	}

	for dx := -s.renderDist; dx <= s.renderDist; dx++ {
		for dz := -s.renderDist; dz <= s.renderDist; dz++ {
			c := ChunkCoord{playerChunk.CX + int32(dx), playerChunk.CZ + int32(dz)}
			if ChebyshevDistance(c, playerChunk) <= s.renderDist {
				s.ensureReadyForRender(c)
			}
		}
	}
}

// ensureReadyForRender implements the per-chunk recovery pass described
// in §4.6 step 5.
func (s *Scheduler) ensureReadyForRender(coord ChunkCoord) {
	c, ok := s.store.Get(coord)
	if !ok {
		return
	}

	if !c.State.HasState(StateFeaturesPopulated) {
		return // the deferred feature-population pass owns this
	}

	if c.State.IsRenderable() {
		s.meshReadyTime.Delete(coord)
		return
	}

	if !c.State.HasState(StateMeshGenerating) && !c.State.HasState(StateMeshCPUReady) {
		if s.mesh != nil {
			s.mesh.Schedule(c)
		}
		return
	}

	if c.State.HasState(StateMeshCPUReady) {
		first, loaded := s.meshReadyTime.LoadOrStore(coord, time.Now())
		if loaded {
			since := time.Since(first.(time.Time))
			explainable := time.Duration(s.cfg.GLBatchDefault) * 2 * time.Millisecond
			if since > explainable+time.Second {
				schedLog.Warn("chunk stuck in MESH_CPU_READY", logging.ChunkAttr(coord.CX, coord.CZ))
			}
		}
	}
}

// Shutdown stops accepting new work and waits up to timeout for
// in-flight tasks before returning (§4.6).
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cond.Broadcast()

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(timeout):
		schedLog.Warn("scheduler shutdown timed out, force-cancelling")
	}
}
