package renderer

import (
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-pano/engine/geometry"
	"github.com/Carmen-Shannon/oxy-pano/engine/mesh"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

func newTestMesh(t *testing.T) mesh.Mesh {
	t.Helper()
	geom, err := geometry.NewSphereGeometry(10, 8)
	if err != nil {
		t.Fatalf("NewSphereGeometry() error = %v", err)
	}
	return mesh.NewMesh(geom, mesh.WithName("test"))
}

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		name   string
		want   RendererBackendType
		wantOK bool
	}{
		{"", BackendTypeHeadless, true},
		{"headless", BackendTypeHeadless, true},
		{"wgpu", BackendTypeWGPU, true},
		{"vulkan", BackendTypeHeadless, false},
	}
	for _, tt := range tests {
		got, ok := ParseBackendType(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseBackendType(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFrameOnlyWhenNeeded(t *testing.T) {
	r := NewRenderer(BackendTypeHeadless)
	defer r.Release()
	m := newTestMesh(t)

	// first frame uploads the mesh
	if drawn, err := r.Frame(m); err != nil || !drawn {
		t.Fatalf("Frame() = %v, %v, want true, nil", drawn, err)
	}
	if drawn, _ := r.Frame(m); drawn {
		t.Error("Frame() drew without a request or UV change")
	}

	r.RequestRender()
	if !r.RenderPending() {
		t.Error("RenderPending() = false after RequestRender")
	}
	if drawn, _ := r.Frame(m); !drawn {
		t.Error("Frame() did not draw after RequestRender")
	}
	if r.RenderPending() {
		t.Error("RenderPending() = true after Frame")
	}

	m.WriteUVs(0, []float32{0.25, 0.25})
	if drawn, _ := r.Frame(m); !drawn {
		t.Error("Frame() did not draw after a UV change")
	}

	if got := r.FrameCount(); got != 3 {
		t.Errorf("FrameCount() = %d, want 3", got)
	}
	// initial upload plus one rewrite
	if got := r.Stats().UVUploads; got != 2 {
		t.Errorf("Stats().UVUploads = %d, want 2", got)
	}
}

func TestFrameWithoutMesh(t *testing.T) {
	r := NewRenderer(BackendTypeHeadless)
	defer r.Release()

	if drawn, _ := r.Frame(nil); drawn {
		t.Error("Frame(nil) drew without a request")
	}
	r.RequestRender()
	if drawn, _ := r.Frame(nil); !drawn {
		t.Error("Frame(nil) did not draw after RequestRender")
	}
}

func TestUploadTextureAttachesResource(t *testing.T) {
	r := NewRenderer(BackendTypeHeadless)
	defer r.Release()

	tex := texture.NewTexture(image.NewRGBA(image.Rect(0, 0, 4, 2)), texture.WithLabel("tile 0x0"))
	if err := r.UploadTexture(tex); err != nil {
		t.Fatalf("UploadTexture() error = %v", err)
	}
	if tex.GPUResource() == nil {
		t.Fatal("GPUResource() = nil after upload")
	}

	stats := r.Stats()
	if stats.TexturesUploaded != 1 || stats.TexturesLive != 1 || stats.TextureBytes != 32 {
		t.Errorf("Stats() = %+v, want 1 uploaded, 1 live, 32 bytes", stats)
	}

	tex.Release()
	tex.Release()
	if got := r.Stats().TexturesLive; got != 0 {
		t.Errorf("TexturesLive after release = %d, want 0", got)
	}

	if err := r.UploadTexture(tex); err == nil {
		t.Error("UploadTexture() of a released texture returned nil error")
	}
}

func TestReleasedRendererRejectsUploads(t *testing.T) {
	r := NewRenderer(BackendTypeHeadless)
	r.Release()
	r.Release()

	tex := texture.NewTexture(image.NewRGBA(image.Rect(0, 0, 2, 1)))
	if err := r.UploadTexture(tex); err == nil {
		t.Error("UploadTexture() after Release returned nil error")
	}
	r.RequestRender()
	if drawn, _ := r.Frame(nil); drawn {
		t.Error("Frame() drew after Release")
	}
}

func TestReleaseMeshReuploads(t *testing.T) {
	r := NewRenderer(BackendTypeHeadless)
	defer r.Release()
	m := newTestMesh(t)

	r.Frame(m)
	r.ReleaseMesh(m)
	r.Frame(m)
	if got := r.Stats().UVUploads; got != 2 {
		t.Errorf("UVUploads after re-upload = %d, want 2", got)
	}
}
