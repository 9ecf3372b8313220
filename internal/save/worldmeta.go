package save

// WorldMetadata is the small self-describing record persisted once per
// world (§4.3): everything needed to resume a session that is not itself
// a chunk or player record.
type WorldMetadata struct {
	Name            string
	Seed            int64
	SpawnX          float64
	SpawnY          float64
	SpawnZ          float64
	GeneratorName   string
	CreatedAtUnix   int64
	LastPlayedUnix  int64
	TotalPlaytimeMs int64
	Version         string
	SchemaVersion   int32
}

// PlayerData is the small self-describing record persisted once per
// player (§4.3).
type PlayerData struct {
	PositionX, PositionY, PositionZ float32
	VelocityX, VelocityY, VelocityZ float32
	Yaw, Pitch                      float64
	GameMode                        int32
	IsFlying                        bool
	SelectedSlot                    int32
	Health, MaxHealth               float32
	FoodLevel, MaxFoodLevel         float32
	Inventory                       []InventorySlot
}

// InventorySlot is a flat, save-format-only view of one inventory slot —
// decoupled from the live gameplay item types so the wire format doesn't
// shift every time item.ItemStack grows a field.
type InventorySlot struct {
	Index    int32
	ItemType uint16
	Count    uint8
}
