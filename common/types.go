// package common holds the small value types and helpers shared by the engine packages: staging data handed to the
// texture registry, key codes and alignment math.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData is a decoded RGBA8 image waiting to be uploaded by the texture registry.
type TextureStagingData struct {
	// Pixels is tightly packed RGBA, row-major, top row first.
	Pixels []byte
	Width  uint32
	Height uint32
}

// Valid reports whether the staging data describes a non-empty image whose pixel slice matches its dimensions.
//
// Returns:
//   - bool: true if the pixel slice holds exactly Width*Height RGBA texels
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}

// SamplerStagingData is the sampler created next to a staged texture.
// Zero values are replaced with the engine defaults (linear filtering, clamp-to-edge addressing) at creation time.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound mip selection. A zero LodMaxClamp becomes 32.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy of 0 is treated as 1.
	MaxAnisotropy uint16
}
