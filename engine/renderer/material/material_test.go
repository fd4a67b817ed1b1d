package material

import (
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

func TestMaterialOpacity(t *testing.T) {
	tests := []struct {
		set         float32
		want        float32
		transparent bool
	}{
		{1, 1, false},
		{0.5, 0.5, true},
		{0, 0, true},
		{2, 1, false},
		{-1, 0, true},
	}

	m := NewMaterial(WithName("base"))
	for _, tt := range tests {
		m.SetOpacity(tt.set)
		if got := m.Opacity(); got != tt.want {
			t.Errorf("SetOpacity(%v) Opacity() = %v, want %v", tt.set, got, tt.want)
		}
		if got := m.Transparent(); got != tt.transparent {
			t.Errorf("SetOpacity(%v) Transparent() = %v, want %v", tt.set, got, tt.transparent)
		}
	}
}

func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithOpacity(0.25), WithBaseColor([4]float32{1, 0, 0, 1}))
	if got := m.Opacity(); got != 0.25 {
		t.Errorf("Opacity() = %v, want 0.25", got)
	}
	if got := m.BaseColor(); got != [4]float32{1, 0, 0, 1} {
		t.Errorf("BaseColor() = %v", got)
	}
	if m.Texture() != nil {
		t.Error("Texture() should be nil without WithTexture")
	}
}

func TestMaterialDisposeReleasesTexture(t *testing.T) {
	tex := texture.NewTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	m := NewMaterial(WithTexture(tex))

	m.Dispose()
	m.Dispose()

	if !m.Disposed() {
		t.Error("Disposed() = false, want true")
	}
	if !tex.Released() {
		t.Error("texture was not released by Dispose")
	}
}
