package meshing

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"voxelcore/internal/config"
	"voxelcore/internal/world"
)

// UploadFunc is supplied by the render collaborator: it uploads buffers
// to the GPU and returns the resulting handles, or an error if the
// upload failed (§4.5, §7's GPU-upload failure path). Kept as a function
// type rather than an interface import so this package never depends on
// go-gl.
type UploadFunc func(c *world.Chunk, buffers *world.MeshBuffers) (world.GPUHandles, error)

// TeardownFunc deletes a chunk's GPU handles, run on the render thread.
type TeardownFunc func(c *world.Chunk)

// Pipeline is the mesh pipeline (C5): a priority-ordered worker pool that
// builds CPU mesh buffers off-thread, plus the bounded main-thread
// GPU upload/teardown contract. It implements world.MeshScheduler and
// world.GPUTeardownQueue.
type Pipeline struct {
	w   *world.World
	cfg config.CoreConfig

	mu       sync.Mutex
	cond     *sync.Cond
	q        buildHeap
	seq      uint64
	shutdown bool
	wg       sync.WaitGroup

	observer atomic.Value // world.ChunkCoord

	cpuReadyMu sync.Mutex
	cpuReady   []*world.Chunk

	teardownMu sync.Mutex
	teardown   []*world.Chunk

	deferredMu sync.Mutex
	deferred   map[world.ChunkCoord]*world.Chunk

	budget   *uploadBudget
	reporter *errorReporter
}

// NewPipeline starts cfg.MeshThreads build workers against w.
func NewPipeline(w *world.World, cfg config.CoreConfig) *Pipeline {
	p := &Pipeline{
		w:        w,
		cfg:      cfg,
		deferred: make(map[world.ChunkCoord]*world.Chunk),
		budget:   newUploadBudget(cfg, newMemoryProbe(cfg)),
		reporter: newErrorReporter(10),
	}
	p.cond = sync.NewCond(&p.mu)
	p.observer.Store(world.ChunkCoord{})

	workers := cfg.MeshThreads
	if workers < 2 {
		workers = 2
	}
	if workers > 8 {
		workers = 8
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// SetObserver updates the coordinate used to prioritize queued builds.
func (p *Pipeline) SetObserver(coord world.ChunkCoord) { p.observer.Store(coord) }

// Schedule implements world.MeshScheduler (§4.5's schedule(Chunk)).
func (p *Pipeline) Schedule(c *world.Chunk) {
	if !c.State.HasState(world.StateFeaturesPopulated) {
		return
	}
	if c.State.HasState(world.StateMeshGPUReady) && !c.State.IsMeshDirty() {
		return
	}
	if !c.State.AddState(world.StateMeshGenerating) {
		c.RequestRerun()
		return
	}
	p.enqueue(c)
}

func (p *Pipeline) enqueue(c *world.Chunk) {
	observer, _ := p.observer.Load().(world.ChunkCoord)
	priority := world.ChebyshevDistance(c.Coord, observer)

	p.mu.Lock()
	p.seq++
	heap.Push(&p.q, &buildTask{priority: priority, seq: p.seq, chunk: c})
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.q) == 0 && !p.shutdown {
			p.cond.Wait()
		}
		if p.shutdown && len(p.q) == 0 {
			p.mu.Unlock()
			return
		}
		task := heap.Pop(&p.q).(*buildTask)
		p.mu.Unlock()

		p.runBuild(task.chunk)
	}
}

func (p *Pipeline) runBuild(c *world.Chunk) {
	if c.State.HasState(world.StateUnloading) {
		// §4.5's cancellation semantics: let an in-flight build for an
		// unloading chunk finish, then discard rather than upload.
		c.State.RemoveState(world.StateMeshGenerating)
		return
	}

	result := BuildChunkMesh(p.w, c)
	c.State.RemoveState(world.StateMeshGenerating)

	if result.deferred {
		p.deferredMu.Lock()
		p.deferred[c.Coord] = c
		p.deferredMu.Unlock()
		return
	}

	p.deferredMu.Lock()
	delete(p.deferred, c.Coord)
	p.deferredMu.Unlock()

	rerun := c.SetCPUMesh(result.buffers)
	c.State.AddState(world.StateMeshCPUReady)
	c.State.MarkMeshClean()
	c.State.ResetFailedMeshRetries()

	p.cpuReadyMu.Lock()
	p.cpuReady = append(p.cpuReady, c)
	p.cpuReadyMu.Unlock()

	if rerun {
		p.Schedule(c)
	}
}

// ApplyPendingGpuUploads implements §4.5's applyPendingGpuUploads(budget):
// called on the render thread once per frame. lastFrame is the previous
// frame's duration, used to adapt next frame's budget.
func (p *Pipeline) ApplyPendingGpuUploads(lastFrame time.Duration, upload UploadFunc) int {
	p.cpuReadyMu.Lock()
	depth := len(p.cpuReady)
	p.cpuReadyMu.Unlock()

	budget := p.budget.adjust(depth, lastFrame, time.Now())

	uploaded := 0
	var failed []*world.Chunk
	for uploaded < budget {
		p.cpuReadyMu.Lock()
		if len(p.cpuReady) == 0 {
			p.cpuReadyMu.Unlock()
			break
		}
		c := p.cpuReady[0]
		p.cpuReady = p.cpuReady[1:]
		p.cpuReadyMu.Unlock()

		if !c.HasCPUMesh() {
			continue
		}
		handles, err := upload(c, c.CPUMesh)
		if err != nil {
			p.reporter.Report(classGPUUpload, err, p.diagFor(c, budget, depth))
			// Stays MESH_CPU_READY; retried next frame per §7.
			failed = append(failed, c)
			continue
		}
		c.GPU = handles
		c.ReleaseCPUMesh()
		c.State.AddState(world.StateMeshGPUReady)
		c.State.RemoveState(world.StateMeshCPUReady)
		uploaded++
	}
	if len(failed) > 0 {
		p.cpuReadyMu.Lock()
		p.cpuReady = append(p.cpuReady, failed...)
		p.cpuReadyMu.Unlock()
	}
	return uploaded
}

// QueueTeardown implements world.GPUTeardownQueue.
func (p *Pipeline) QueueTeardown(c *world.Chunk) {
	p.teardownMu.Lock()
	p.teardown = append(p.teardown, c)
	p.teardownMu.Unlock()
}

// ProcessGpuTeardown implements §4.5's processGpuTeardown(): drains the
// teardown queue on the render thread.
func (p *Pipeline) ProcessGpuTeardown(teardown TeardownFunc) {
	p.teardownMu.Lock()
	pending := p.teardown
	p.teardown = nil
	p.teardownMu.Unlock()

	for _, c := range pending {
		teardown(c)
		c.GPU = world.GPUHandles{}
	}
}

// RequeueFailed implements §4.5's requeueFailed(): called periodically
// to retry chunks whose build was deferred for a missing neighbor, now
// that the neighbor may have loaded.
func (p *Pipeline) RequeueFailed() {
	p.deferredMu.Lock()
	pending := make([]*world.Chunk, 0, len(p.deferred))
	for _, c := range p.deferred {
		pending = append(pending, c)
	}
	p.deferredMu.Unlock()

	for _, c := range pending {
		if c.State.HasState(world.StateUnloading) {
			continue
		}
		retries := c.State.IncrementFailedMeshRetries()
		if int(retries) > p.cfg.MaxFailedChunkRetries {
			p.reporter.Report(classMaxRetry, errMaxRetriesExceeded, p.diagFor(c, p.budget.value(), 0))
			p.deferredMu.Lock()
			delete(p.deferred, c.Coord)
			p.deferredMu.Unlock()
			continue
		}
		c.State.RemoveState(world.StateMeshGenerating)
		p.Schedule(c)
	}
}

func (p *Pipeline) diagFor(c *world.Chunk, budget, queueDepth int) diagnosticContext {
	var word uint32
	for _, f := range []world.ChunkStateFlag{world.StateBlocksPopulated, world.StateFeaturesPopulated,
		world.StateMeshGenerating, world.StateMeshCPUReady, world.StateMeshGPUReady, world.StateUnloading} {
		if c.State.HasState(f) {
			word |= uint32(f)
		}
	}
	return diagnosticContext{
		Coord:       c.Coord,
		StateWord:   word,
		BlockDirty:  c.State.IsBlockDirty(),
		MeshDirty:   c.State.IsMeshDirty(),
		FrameBudget: budget,
		QueueDepth:  queueDepth,
	}
}

// Shutdown stops all build workers, waiting up to timeout.
func (p *Pipeline) Shutdown(timeout time.Duration) {
	p.mu.Lock()
	p.shutdown = true
	p.mu.Unlock()
	p.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

var errMaxRetriesExceeded = errors.New("chunk exceeded max failed mesh retries")

var (
	_ world.MeshScheduler    = (*Pipeline)(nil)
	_ world.GPUTeardownQueue = (*Pipeline)(nil)
)
