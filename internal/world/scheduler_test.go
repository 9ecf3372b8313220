package world

import (
	"testing"
	"time"

	"voxelcore/internal/config"
)

type fakeMeshScheduler struct {
	scheduled chan *Chunk
}

func newFakeMeshScheduler() *fakeMeshScheduler {
	return &fakeMeshScheduler{scheduled: make(chan *Chunk, 256)}
}

func (f *fakeMeshScheduler) Schedule(c *Chunk) {
	select {
	case f.scheduled <- c:
	default:
	}
}

func testSchedulerConfig() config.CoreConfig {
	return config.CoreConfig{
		RenderDistance:   1,
		LoadThreads:      2,
		UpdateIntervalMs: 0,
		GLBatchDefault:   32,
	}
}

func TestSchedulerUpdateLoadsRequiredChunks(t *testing.T) {
	store := NewChunkStore(&fakeGenerator{}, nil, nil, nil, nil)
	sched := NewScheduler(store, newFakeMeshScheduler(), testSchedulerConfig())
	defer sched.Shutdown(time.Second)

	sched.Update(0, 0)

	deadline := time.After(2 * time.Second)
	for {
		if store.Has(ChunkCoord{CX: 0, CZ: 0}) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected the origin chunk to be loaded after Update")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSchedulerUpdateUnloadsOutOfRangeChunks(t *testing.T) {
	store := NewChunkStore(&fakeGenerator{}, nil, nil, nil, nil)
	sched := NewScheduler(store, newFakeMeshScheduler(), testSchedulerConfig())
	defer sched.Shutdown(time.Second)

	far := ChunkCoord{CX: 100, CZ: 100}
	store.GetOrCreate(far)

	sched.Update(0, 0)

	deadline := time.After(2 * time.Second)
	for {
		if !store.Has(far) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected the far chunk to be unloaded after Update")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSchedulerEnsureReadyForRenderSchedulesMesh(t *testing.T) {
	gen := &fakeGenerator{}
	store := NewChunkStore(gen, nil, nil, nil, nil)
	mesh := newFakeMeshScheduler()
	sched := NewScheduler(store, mesh, testSchedulerConfig())
	defer sched.Shutdown(time.Second)

	coord := ChunkCoord{CX: 0, CZ: 0}
	c := store.GetOrCreate(coord)
	c.State.AddState(StateFeaturesPopulated)

	sched.ensureReadyForRender(coord)

	select {
	case got := <-mesh.scheduled:
		if got != c {
			t.Fatal("expected the scheduled chunk to be the one passed in")
		}
	case <-time.After(time.Second):
		t.Fatal("expected ensureReadyForRender to schedule a mesh build")
	}
}

func TestSchedulerEnsureReadyForRenderSkipsUnpopulatedFeatures(t *testing.T) {
	store := NewChunkStore(&fakeGenerator{}, nil, nil, nil, nil)
	mesh := newFakeMeshScheduler()
	sched := NewScheduler(store, mesh, testSchedulerConfig())
	defer sched.Shutdown(time.Second)

	coord := ChunkCoord{CX: 0, CZ: 0}
	store.GetOrCreate(coord)

	sched.ensureReadyForRender(coord)

	select {
	case <-mesh.scheduled:
		t.Fatal("expected no mesh scheduling before FEATURES_POPULATED is set")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerShutdownIsBounded(t *testing.T) {
	store := NewChunkStore(&fakeGenerator{}, nil, nil, nil, nil)
	sched := NewScheduler(store, newFakeMeshScheduler(), testSchedulerConfig())

	start := time.Now()
	sched.Shutdown(time.Second)
	if time.Since(start) > 2*time.Second {
		t.Fatal("expected Shutdown to return promptly once workers drain")
	}

	if len(sched.q) != 0 {
		t.Fatalf("expected the task queue to be empty after a clean shutdown, got %d", len(sched.q))
	}
}
