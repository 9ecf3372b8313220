// Package metrics wraps the prometheus counters the error reporter and
// the region/save layers publish. Grounded on marmos91-dittofs and the
// annel0-mmo-game manifest, both of which wire prometheus/client_golang
// directly against a domain-specific registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry is the process-wide collector registry. A demo binary may
// expose this over HTTP; tests construct their own via NewRegistry to
// avoid cross-test collector collisions.
var Registry = prometheus.NewRegistry()

// MeshErrors counts mesh pipeline failures by class (mesh_build, max_retry,
// gpu_upload), per §7's error reporter contract.
var MeshErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voxelcore_mesh_errors_total",
	Help: "Mesh pipeline errors by class.",
}, []string{"class"})

// RegionIORetries counts transient I/O retries inside the region/save
// layer.
var RegionIORetries = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "voxelcore_region_io_retries_total",
	Help: "Transient I/O retries performed by the region store.",
}, []string{"op"})

// ChunksCorrupt counts chunk payloads rejected as corrupt.
var ChunksCorrupt = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "voxelcore_chunks_corrupt_total",
	Help: "Chunk payloads rejected as corrupt during load.",
})

// GPUUploadBudget reports the current adaptive GPU upload budget.
var GPUUploadBudget = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "voxelcore_gpu_upload_budget",
	Help: "Current adaptive per-frame GPU upload budget.",
})

func init() {
	Registry.MustRegister(MeshErrors, RegionIORetries, ChunksCorrupt, GPUUploadBudget)
}
