// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero values fall back to linear filtering and clamp-to-edge addressing, which keeps tile seams invisible.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DecodeRGBA decodes a PNG, JPEG or WebP stream into an RGBA image.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - r: the reader providing the encoded image bytes
//
// Returns:
//   - *image.RGBA: the decoded image with its bounds starting at (0, 0)
//   - error: error if decoding fails
func DecodeRGBA(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image into an RGBA image whose bounds start at the origin.
// RGBA images that already start at the origin are returned as-is.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *image.RGBA: the converted image
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	return rgba
}

// StagingFromRGBA wraps an RGBA image's pixel buffer as TextureStagingData without copying.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - TextureStagingData: the staging view of the image
func StagingFromRGBA(img *image.RGBA) TextureStagingData {
	return TextureStagingData{
		Pixels: img.Pix,
		Width:  uint32(img.Rect.Dx()),
		Height: uint32(img.Rect.Dy()),
	}
}
