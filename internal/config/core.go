package config

import "runtime"

// CoreConfig carries the numeric knobs for chunk/world geometry, thread
// pool sizes, scheduler tick, adaptive GPU upload thresholds, memory
// pressure thresholds, and retry bounds.
//
// It is a plain value passed explicitly into World's constructor rather
// than a package singleton: the core must support multiple independent
// worlds in the same process (tests rely on this), so there is no
// process-wide mutable config for it.
type CoreConfig struct {
	ChunkSide   int32 // S
	WorldHeight int32 // H

	RenderDistance      int // chunks
	BorderChunkDistance int // renderDistance + 1

	LoadThreads int // min 4, max 16, default cores
	MeshThreads int // min 2, max 8, default cores/2+1

	UpdateIntervalMs int

	GLBatchMin     int
	GLBatchMax     int
	GLBatchDefault int

	GLHighFrameTimeMs float64
	GLLowFrameTimeMs  float64

	MemoryCheckIntervalMs int
	HighMemoryThreshold   float64

	MaxFailedChunkRetries int
}

// DefaultCoreConfig returns sane defaults for a single-player session,
// with thread pool sizes derived from the host's core count the way the
// teacher's streamer sized its worker pool (max(runtime.NumCPU(), 1)).
func DefaultCoreConfig() CoreConfig {
	cores := runtime.NumCPU()
	if cores < 1 {
		cores = 1
	}

	cfg := CoreConfig{
		ChunkSide:   16,
		WorldHeight: 256,

		RenderDistance: 8,

		LoadThreads: cores,
		MeshThreads: cores/2 + 1,

		UpdateIntervalMs: 100,

		GLBatchMin:     4,
		GLBatchMax:     128,
		GLBatchDefault: 32,

		GLHighFrameTimeMs: 18,
		GLLowFrameTimeMs:  14,

		MemoryCheckIntervalMs: 2000,
		HighMemoryThreshold:   0.80,

		MaxFailedChunkRetries: 3,
	}
	cfg.BorderChunkDistance = cfg.RenderDistance + 1
	cfg.clamp()
	return cfg
}

// clamp enforces the thread-pool and GPU-batch bounds above.
func (c *CoreConfig) clamp() {
	if c.LoadThreads < 4 {
		c.LoadThreads = 4
	}
	if c.LoadThreads > 16 {
		c.LoadThreads = 16
	}
	if c.MeshThreads < 2 {
		c.MeshThreads = 2
	}
	if c.MeshThreads > 8 {
		c.MeshThreads = 8
	}
	if c.GLBatchDefault < c.GLBatchMin {
		c.GLBatchDefault = c.GLBatchMin
	}
	if c.GLBatchDefault > c.GLBatchMax {
		c.GLBatchDefault = c.GLBatchMax
	}
	if c.MaxFailedChunkRetries < 1 {
		c.MaxFailedChunkRetries = 1
	}
	c.BorderChunkDistance = c.RenderDistance + 1
}

// WithRenderDistance returns a copy of c with RenderDistance (and the
// derived BorderChunkDistance) updated.
func (c CoreConfig) WithRenderDistance(d int) CoreConfig {
	c.RenderDistance = d
	c.clamp()
	return c
}
