package world

import "testing"

func TestChunkStateAddHasRemove(t *testing.T) {
	var s ChunkState
	if s.HasState(StateBlocksPopulated) {
		t.Fatal("expected new state to have no flags set")
	}
	if !s.AddState(StateBlocksPopulated) {
		t.Fatal("expected AddState to succeed")
	}
	if !s.HasState(StateBlocksPopulated) {
		t.Fatal("expected flag to be set after AddState")
	}
	s.RemoveState(StateBlocksPopulated)
	if s.HasState(StateBlocksPopulated) {
		t.Fatal("expected flag to be cleared after RemoveState")
	}
}

func TestChunkStateIsRenderable(t *testing.T) {
	var s ChunkState
	s.AddState(StateFeaturesPopulated)
	if s.IsRenderable() {
		t.Fatal("expected chunk to not be renderable without MESH_GPU_READY")
	}
	s.AddState(StateMeshGPUReady)
	if !s.IsRenderable() {
		t.Fatal("expected chunk to be renderable with both flags set")
	}
	s.AddState(StateUnloading)
	if s.IsRenderable() {
		t.Fatal("expected UNLOADING to make the chunk unrenderable")
	}
}

func TestChunkStateUnloadingIsTerminal(t *testing.T) {
	var s ChunkState
	if !s.AddState(StateUnloading) {
		t.Fatal("expected first AddState(UNLOADING) to succeed")
	}
	if s.AddState(StateUnloading) {
		t.Fatal("expected second AddState(UNLOADING) on an already-unloading chunk to fail")
	}
}

func TestChunkStateMeshGeneratingMutex(t *testing.T) {
	var s ChunkState
	if !s.AddState(StateMeshGenerating) {
		t.Fatal("expected first AddState(MESH_GENERATING) to succeed")
	}
	if s.AddState(StateMeshGenerating) {
		t.Fatal("expected a second concurrent AddState(MESH_GENERATING) to fail")
	}
}

func TestChunkStateNeedsSave(t *testing.T) {
	var s ChunkState
	if s.NeedsSave() {
		t.Fatal("expected clean state to not need save")
	}
	s.MarkBlockDirty()
	if !s.NeedsSave() {
		t.Fatal("expected blocksDirty to trigger needsSave")
	}
	s.MarkSaved()
	if s.NeedsSave() {
		t.Fatal("expected MarkSaved to clear needsSave")
	}

	s.MarkTransientResidue(true)
	if !s.NeedsSave() {
		t.Fatal("expected transient residue to trigger needsSave even with blocksDirty clear")
	}
}

func TestChunkStateMarkSavedKeepsMeshDirty(t *testing.T) {
	var s ChunkState
	s.MarkBlockDirty()
	s.MarkMeshDirty()
	s.MarkSaved()
	if !s.IsMeshDirty() {
		t.Fatal("expected MarkSaved to leave meshDirty untouched")
	}
}

func TestChunkStateFailedMeshRetries(t *testing.T) {
	var s ChunkState
	if s.FailedMeshRetries() != 0 {
		t.Fatal("expected zero initial retries")
	}
	if got := s.IncrementFailedMeshRetries(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	s.ResetFailedMeshRetries()
	if s.FailedMeshRetries() != 0 {
		t.Fatal("expected retries to reset to zero")
	}
}
