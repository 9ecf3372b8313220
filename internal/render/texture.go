package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelcore/internal/registry"
)

const textureArraySize = 16

// TextureArray is a GL_TEXTURE_2D_ARRAY with one layer per registered
// texture name (§1's texture atlas management is an out-of-scope
// collaborator; this generates a flat placeholder color per layer from
// the layer's texture name rather than decoding real art assets, so
// the render collaborator needs no asset pipeline to exercise C5's
// texture-array wiring).
type TextureArray struct {
	ID     uint32
	Layers int32
}

// NewTextureArrayFromRegistry allocates one textureArraySize x
// textureArraySize layer per name in registry.TextureNames.
func NewTextureArrayFromRegistry() (*TextureArray, error) {
	layers := int32(len(registry.TextureNames))
	if layers == 0 {
		return nil, fmt.Errorf("render: registry has no textures; call registry.InitRegistry first")
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, id)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.RGBA, textureArraySize, textureArraySize, layers, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	pixels := make([]uint8, textureArraySize*textureArraySize*4)
	for layer, name := range registry.TextureNames {
		fillPlaceholder(pixels, name)
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, int32(layer), textureArraySize, textureArraySize, 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	}

	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)

	return &TextureArray{ID: id, Layers: layers}, nil
}

// fillPlaceholder derives a stable solid RGBA color from name's bytes so
// distinct block textures are at least visually distinguishable without
// real art.
func fillPlaceholder(pixels []uint8, name string) {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	r, g, b := uint8(h>>16), uint8(h>>8), uint8(h)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = r, g, b, 255
	}
}

func (t *TextureArray) Delete() {
	gl.DeleteTextures(1, &t.ID)
}
