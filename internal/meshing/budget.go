package meshing

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"voxelcore/internal/config"
	"voxelcore/internal/metrics"
)

// memoryProbe caches a high/low memory-pressure reading, refreshed at
// most every refreshInterval (§4.5: "cached memory-pressure probe
// refreshed every 2 s"), so the render-thread budget update never blocks
// on a syscall.
type memoryProbe struct {
	refreshInterval time.Duration
	highThreshold   float64

	mu       sync.Mutex
	lastRead time.Time
	highPct  bool
}

func newMemoryProbe(cfg config.CoreConfig) *memoryProbe {
	return &memoryProbe{
		refreshInterval: time.Duration(cfg.MemoryCheckIntervalMs) * time.Millisecond,
		highThreshold:   cfg.HighMemoryThreshold,
	}
}

// highPressure reports whether used memory exceeds the configured
// threshold, using the cached reading if it is still fresh.
func (p *memoryProbe) highPressure(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.lastRead) < p.refreshInterval {
		return p.highPct
	}
	p.lastRead = now
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Leave the previous reading in place; a probe failure should
		// not itself constrain the budget.
		return p.highPct
	}
	p.highPct = vm.UsedPercent/100.0 > p.highThreshold
	return p.highPct
}

// uploadBudget tracks the adaptive per-frame GPU upload cap described by
// §4.5's "GPU upload budget" rule.
type uploadBudget struct {
	cfg   config.CoreConfig
	probe *memoryProbe

	mu      sync.Mutex
	current int
}

func newUploadBudget(cfg config.CoreConfig, probe *memoryProbe) *uploadBudget {
	return &uploadBudget{cfg: cfg, probe: probe, current: cfg.GLBatchDefault}
}

// adjust recomputes the budget for the next frame given the CPU-ready
// queue depth and the previous frame's duration, then returns it.
func (b *uploadBudget) adjust(queueDepth int, lastFrame time.Duration, now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case queueDepth > 150:
		b.current += 8
	case queueDepth > 100:
		b.current += 4
	case queueDepth > 50:
		b.current += 2
	}

	lastFrameMs := float64(lastFrame) / float64(time.Millisecond)
	if lastFrameMs > b.cfg.GLHighFrameTimeMs && queueDepth < 50 {
		b.current -= 2
	}

	if b.current < b.cfg.GLBatchMin {
		b.current = b.cfg.GLBatchMin
	}
	if b.current > b.cfg.GLBatchMax {
		b.current = b.cfg.GLBatchMax
	}

	if b.probe.highPressure(now) && b.current > 8 {
		b.current = 8
	}

	metrics.GPUUploadBudget.Set(float64(b.current))
	return b.current
}

// value returns the last computed budget without recomputing it.
func (b *uploadBudget) value() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
