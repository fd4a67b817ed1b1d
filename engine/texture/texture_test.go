package texture

import (
	"image"
	"testing"
)

type countingResource struct {
	releases int
}

func (r *countingResource) Release() {
	r.releases++
}

func TestTextureReleaseIsIdempotent(t *testing.T) {
	gpu := &countingResource{}
	tex := NewTexture(image.NewRGBA(image.Rect(0, 0, 4, 2)), WithLabel("tile 0x0"), WithGPUResource(gpu))

	if got := tex.Label(); got != "tile 0x0" {
		t.Errorf("Label() = %q, want %q", got, "tile 0x0")
	}
	if tex.Width() != 4 || tex.Height() != 2 {
		t.Errorf("size = %dx%d, want 4x2", tex.Width(), tex.Height())
	}
	if s := tex.Staging(); len(s.Pixels) != 4*2*4 || s.Width != 4 || s.Height != 2 {
		t.Errorf("Staging() = %d bytes %dx%d, want 32 bytes 4x2", len(s.Pixels), s.Width, s.Height)
	}

	tex.Release()
	tex.Release()

	if gpu.releases != 1 {
		t.Errorf("GPU releases = %d, want 1", gpu.releases)
	}
	if !tex.Released() {
		t.Error("Released() = false, want true")
	}
	if tex.Image() != nil {
		t.Error("Image() should be nil after Release")
	}
	if s := tex.Staging(); s.Pixels != nil {
		t.Error("Staging() should be empty after Release")
	}
}

func TestTextureSetGPUResource(t *testing.T) {
	tex := NewTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)))

	first := &countingResource{}
	second := &countingResource{}
	tex.SetGPUResource(first)
	tex.SetGPUResource(second)
	if first.releases != 1 {
		t.Errorf("replaced resource releases = %d, want 1", first.releases)
	}
	if tex.GPUResource() != second {
		t.Error("GPUResource() did not return the last attached resource")
	}

	tex.Release()
	late := &countingResource{}
	tex.SetGPUResource(late)
	if late.releases != 1 {
		t.Errorf("resource attached after Release releases = %d, want 1", late.releases)
	}
	if tex.GPUResource() != nil {
		t.Error("GPUResource() should stay nil after Release")
	}
}
