package player

import (
	"math"

	"voxelcore/internal/inventory"
	"voxelcore/internal/item"
	"voxelcore/internal/save"
	"voxelcore/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	PlayerEyeHeight = 1.62
	PlayerHeight    = 1.8
)

type GameMode int

const (
	GameModeSurvival GameMode = iota
	GameModeCreative
)

// Player is the live, in-memory half of the C3 "player record" (§6): the
// subset of state the streaming scheduler and the save repository care
// about. Rendering/animation/input state lives in the render collaborator,
// not here.
type Player struct {
	GameMode    GameMode
	Position    mgl32.Vec3
	Velocity    mgl32.Vec3
	CamYaw      float64
	CamPitch    float64
	OnGround    bool
	IsSprinting bool
	IsSneaking  bool
	IsFlying    bool

	World *world.World

	Inventory *inventory.Inventory

	Health       float32
	MaxHealth    float32
	FoodLevel    float32
	MaxFoodLevel float32
}

func New(world *world.World, mode GameMode) *Player {
	return &Player{
		GameMode:     mode,
		Position:     mgl32.Vec3{0, 2.8, 0},
		World:        world,
		Inventory:    inventory.New(),
		Health:       20.0,
		MaxHealth:    20.0,
		FoodLevel:    20.0,
		MaxFoodLevel: 20.0,
	}
}

func (p *Player) GetEyePosition() mgl32.Vec3 {
	eyeOffset := PlayerEyeHeight
	if p.IsSneaking {
		eyeOffset -= 0.08
	}
	return p.Position.Add(mgl32.Vec3{0, float32(eyeOffset), 0})
}

// GetFrontVector returns the normalized look direction derived from the
// camera's yaw/pitch.
func (p *Player) GetFrontVector() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(p.CamYaw))
	pt := mgl32.DegToRad(float32(p.CamPitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// GetViewMatrix builds the look-at view matrix for the current eye
// position and look direction.
func (p *Player) GetViewMatrix() mgl32.Mat4 {
	eyePos := p.GetEyePosition()
	target := eyePos.Add(p.GetFrontVector())
	return mgl32.LookAtV(eyePos, target, mgl32.Vec3{0, 1, 0})
}

func (p *Player) ApplyDamage(amount float32) {
	if p.GameMode == GameModeCreative {
		return
	}

	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

// Snapshot converts the live player into the wire-format record the save
// repository persists (§4.3).
func (p *Player) Snapshot() save.PlayerData {
	data := save.PlayerData{
		PositionX: p.Position.X(), PositionY: p.Position.Y(), PositionZ: p.Position.Z(),
		VelocityX: p.Velocity.X(), VelocityY: p.Velocity.Y(), VelocityZ: p.Velocity.Z(),
		Yaw: p.CamYaw, Pitch: p.CamPitch,
		GameMode:     int32(p.GameMode),
		IsFlying:     p.IsFlying,
		SelectedSlot: int32(p.Inventory.CurrentItem),
		Health:       p.Health,
		MaxHealth:    p.MaxHealth,
		FoodLevel:    p.FoodLevel,
		MaxFoodLevel: p.MaxFoodLevel,
	}
	for i := range p.Inventory.MainInventory {
		stack := p.Inventory.MainInventory[i]
		if stack == nil || stack.Count <= 0 {
			continue
		}
		data.Inventory = append(data.Inventory, save.InventorySlot{
			Index:    int32(i),
			ItemType: uint16(stack.Type),
			Count:    uint8(stack.Count),
		})
	}
	return data
}

// Restore overwrites the live player's persisted fields from a loaded
// record, leaving collaborator references (World) untouched.
func (p *Player) Restore(data save.PlayerData) {
	p.Position = mgl32.Vec3{data.PositionX, data.PositionY, data.PositionZ}
	p.Velocity = mgl32.Vec3{data.VelocityX, data.VelocityY, data.VelocityZ}
	p.CamYaw, p.CamPitch = data.Yaw, data.Pitch
	p.GameMode = GameMode(data.GameMode)
	p.IsFlying = data.IsFlying
	p.Health, p.MaxHealth = data.Health, data.MaxHealth
	p.FoodLevel, p.MaxFoodLevel = data.FoodLevel, data.MaxFoodLevel

	p.Inventory = inventory.New()
	for _, slot := range data.Inventory {
		stack := item.NewItemStack(world.BlockType(slot.ItemType), int(slot.Count))
		p.Inventory.SetItem(int(slot.Index), &stack)
	}
	p.Inventory.SetCurrentItem(int(data.SelectedSlot))
}
