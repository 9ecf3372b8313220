package world

// BlockType is a value from the fixed enumeration of block kinds (§3).
// Air is the zero value.
type BlockType uint16

const (
	BlockTypeAir BlockType = iota
	BlockTypeStone
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeBedrock
	BlockTypeWater
	BlockTypeLava
	BlockTypeStoneBrick
	BlockTypePlanksOak
	BlockTypePlanksSpruce
	BlockTypePlanksBirch
	BlockTypePlanksJungle
	BlockTypePlanksAcacia

	blockTypeCount
)

// BlockMeta is the static per-kind metadata fixed by §3: "solid/
// transparent/alpha-tested, visual height".
type BlockMeta struct {
	Name          string
	Solid         bool
	Transparent   bool
	AlphaTested   bool
	VisualHeight  float32 // 1.0 for a full cube; < 1.0 for e.g. snow layers
	IsWater       bool
}

var blockMetaTable = [blockTypeCount]BlockMeta{
	BlockTypeAir:          {Name: "air", Solid: false, Transparent: true, VisualHeight: 0},
	BlockTypeStone:        {Name: "stone", Solid: true, VisualHeight: 1},
	BlockTypeDirt:         {Name: "dirt", Solid: true, VisualHeight: 1},
	BlockTypeGrass:        {Name: "grass", Solid: true, VisualHeight: 1},
	BlockTypeBedrock:      {Name: "bedrock", Solid: true, VisualHeight: 1},
	BlockTypeWater:        {Name: "water", Solid: false, Transparent: true, IsWater: true, VisualHeight: 0.875},
	BlockTypeLava:         {Name: "lava", Solid: false, Transparent: true, IsWater: false, VisualHeight: 0.875},
	BlockTypeStoneBrick:   {Name: "stone_brick", Solid: true, VisualHeight: 1},
	BlockTypePlanksOak:     {Name: "planks_oak", Solid: true, VisualHeight: 1},
	BlockTypePlanksSpruce:  {Name: "planks_spruce", Solid: true, VisualHeight: 1},
	BlockTypePlanksBirch:   {Name: "planks_birch", Solid: true, VisualHeight: 1},
	BlockTypePlanksJungle:  {Name: "planks_jungle", Solid: true, VisualHeight: 1},
	BlockTypePlanksAcacia:  {Name: "planks_acacia", Solid: true, VisualHeight: 1},
}

// Meta returns the static metadata for b. Unknown values fall back to
// air's metadata.
func (b BlockType) Meta() BlockMeta {
	if int(b) >= len(blockMetaTable) {
		return blockMetaTable[BlockTypeAir]
	}
	return blockMetaTable[b]
}

func (b BlockType) IsAir() bool         { return b == BlockTypeAir }
func (b BlockType) IsSolid() bool       { return b.Meta().Solid }
func (b BlockType) IsTransparent() bool { return b.Meta().Transparent }
func (b BlockType) IsAlphaTested() bool { return b.Meta().AlphaTested }
func (b BlockType) IsWater() bool       { return b.Meta().IsWater }

func (b BlockType) String() string { return b.Meta().Name }
