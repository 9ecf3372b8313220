package meshing

import (
	"sync"
	"sync/atomic"

	"voxelcore/internal/logging"
	"voxelcore/internal/metrics"
	"voxelcore/internal/world"
)

var errorClassName = [numErrorClasses]string{
	classMeshBuild:  "mesh_build",
	classMaxRetry:   "max_retry",
	classGPUUpload:  "gpu_upload",
}

var meshLog = logging.New("mesh")

// errorClass is one of the three counters the error reporter tracks
// (§7's "lock-free counters for mesh-build, max-retry, and GPU-upload
// error classes").
type errorClass int

const (
	classMeshBuild errorClass = iota
	classMaxRetry
	classGPUUpload
	numErrorClasses
)

// diagnosticContext is the extra state §7 requires on every batched
// report: chunk state, dirty flags, frame budget, queue depth.
type diagnosticContext struct {
	Coord       world.ChunkCoord
	StateWord   uint32
	BlockDirty  bool
	MeshDirty   bool
	FrameBudget int
	QueueDepth  int
}

type report struct {
	class errorClass
	err   error
	ctx   diagnosticContext
}

// errorReporter batches mesh/upload failures and flushes every
// flushEvery reports or immediately on a critical (classMaxRetry)
// report, per §7.
type errorReporter struct {
	flushEvery int

	counters [numErrorClasses]atomic.Int64

	mu      sync.Mutex
	pending []report
}

func newErrorReporter(flushEvery int) *errorReporter {
	if flushEvery < 1 {
		flushEvery = 10
	}
	return &errorReporter{flushEvery: flushEvery}
}

// Report records one failure, flushing immediately for a critical class
// or once flushEvery reports have accumulated.
func (r *errorReporter) Report(class errorClass, err error, ctx diagnosticContext) {
	r.counters[class].Add(1)
	metrics.MeshErrors.WithLabelValues(errorClassName[class]).Inc()

	r.mu.Lock()
	r.pending = append(r.pending, report{class: class, err: err, ctx: ctx})
	shouldFlush := class == classMaxRetry || len(r.pending) >= r.flushEvery
	var batch []report
	if shouldFlush {
		batch = r.pending
		r.pending = nil
	}
	r.mu.Unlock()

	for _, rep := range batch {
		meshLog.Warn("mesh error",
			"class", rep.class,
			logging.ErrAttr(rep.err),
			logging.ChunkAttr(rep.ctx.Coord.CX, rep.ctx.Coord.CZ),
			"state", rep.ctx.StateWord,
			"blockDirty", rep.ctx.BlockDirty,
			"meshDirty", rep.ctx.MeshDirty,
			"frameBudget", rep.ctx.FrameBudget,
			"queueDepth", rep.ctx.QueueDepth,
		)
	}
}

// Counts returns the current (meshBuild, maxRetry, gpuUpload) counters.
func (r *errorReporter) Counts() (meshBuild, maxRetry, gpuUpload int64) {
	return r.counters[classMeshBuild].Load(), r.counters[classMaxRetry].Load(), r.counters[classGPUUpload].Load()
}
