package player

import (
	"testing"

	"voxelcore/internal/config"
	"voxelcore/internal/item"
	"voxelcore/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeGenerator struct{}

func (fakeGenerator) GenerateTerrainOnly(coord world.ChunkCoord) *world.Chunk {
	return world.NewChunk(coord)
}
func (fakeGenerator) PopulateFeatures(neighbors world.NeighborAccessor, c *world.Chunk) {}

func newTestPlayer() *Player {
	w := world.New(fakeGenerator{}, nil, nil, nil, nil, config.DefaultCoreConfig())
	return New(w, GameModeSurvival)
}

func TestPlayerSnapshotRestoreRoundTrip(t *testing.T) {
	p := newTestPlayer()
	p.Position = mgl32.Vec3{1, 64, -2}
	p.Velocity = mgl32.Vec3{0, -1, 0}
	p.CamYaw, p.CamPitch = 90, 10
	p.Health, p.MaxHealth = 14, 20
	p.FoodLevel, p.MaxFoodLevel = 18, 20
	p.IsFlying = true
	p.Inventory.SetCurrentItem(4)

	grass := item.NewItemStack(world.BlockType(3), 64)
	p.Inventory.SetItem(0, &grass)

	data := p.Snapshot()

	restored := newTestPlayer()
	restored.Restore(data)

	if restored.Position != p.Position || restored.Velocity != p.Velocity {
		t.Fatalf("position/velocity did not round-trip: got %+v/%+v", restored.Position, restored.Velocity)
	}
	if restored.CamYaw != p.CamYaw || restored.CamPitch != p.CamPitch {
		t.Fatal("camera angles did not round-trip")
	}
	if restored.Health != p.Health || restored.MaxHealth != p.MaxHealth {
		t.Fatal("health did not round-trip")
	}
	if restored.IsFlying != p.IsFlying {
		t.Fatal("flying flag did not round-trip")
	}
	if restored.Inventory.CurrentItem != p.Inventory.CurrentItem {
		t.Fatalf("selected hotbar slot did not round-trip: got %d, want %d", restored.Inventory.CurrentItem, p.Inventory.CurrentItem)
	}
	got := restored.Inventory.GetItem(0)
	if got == nil || got.Type != grass.Type || got.Count != grass.Count {
		t.Fatalf("inventory slot 0 did not round-trip: got %+v", got)
	}
}

func TestPlayerSnapshotSkipsEmptySlots(t *testing.T) {
	p := newTestPlayer()
	data := p.Snapshot()
	if len(data.Inventory) != 0 {
		t.Fatalf("expected an empty inventory to snapshot with no slots, got %d", len(data.Inventory))
	}
}

func TestPlayerApplyDamageClampsAtZero(t *testing.T) {
	p := newTestPlayer()
	p.Health = 5
	p.ApplyDamage(20)
	if p.Health != 0 {
		t.Fatalf("expected health to clamp at 0, got %v", p.Health)
	}
}

func TestPlayerApplyDamageIgnoredInCreative(t *testing.T) {
	p := newTestPlayer()
	p.GameMode = GameModeCreative
	p.Health = 20
	p.ApplyDamage(20)
	if p.Health != 20 {
		t.Fatal("expected creative mode to ignore damage")
	}
}

