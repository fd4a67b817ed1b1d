package adapter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/events"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/mesh"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
)

// fakeLoader serves solid images, or fails, without any I/O.
type fakeLoader struct {
	mu      sync.Mutex
	urls    []string
	headers map[string]map[string]string

	fail  bool
	size  image.Point
	block chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{headers: make(map[string]map[string]string), size: image.Pt(8, 8)}
}

func (f *fakeLoader) LoadImage(ctx context.Context, url string, headers map[string]string) (*image.RGBA, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.headers[url] = headers
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail {
		return nil, errors.New("tile unavailable")
	}
	img := image.NewRGBA(image.Rectangle{Max: f.size})
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}

func (f *fakeLoader) Stats() loader.Stats {
	return loader.Stats{}
}

func (f *fakeLoader) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.urls...)
	sort.Strings(out)
	return out
}

func (f *fakeLoader) headersFor(url string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[url]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type testViewer struct {
	adapter    *adapter
	camera     camera.Camera
	dispatcher events.Dispatcher
	renderer   renderer.Renderer
}

func newTestAdapter(t *testing.T, l loader.Loader, options ...AdapterBuilderOption) *testViewer {
	t.Helper()
	d := events.NewDispatcher()
	cam := camera.NewCamera(camera.WithDispatcher(d))
	r := renderer.NewRenderer(renderer.BackendTypeHeadless)
	t.Cleanup(r.Release)

	options = append([]AdapterBuilderOption{WithResolution(16), WithLoader(l), WithBaseBlur(false)}, options...)
	a, err := NewAdapter(cam, d, r, options...)
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	t.Cleanup(a.Destroy)
	return &testViewer{adapter: a.(*adapter), camera: cam, dispatcher: d, renderer: r}
}

func tileURL(col, row int) string {
	return fmt.Sprintf("tiles/%d_%d.png", col, row)
}

func testPanorama() *Panorama {
	return &Panorama{Width: 1024, Cols: 4, Rows: 2, TileURL: tileURL}
}

// show loads p and sets it on a new mesh.
func (v *testViewer) show(t *testing.T, p *Panorama) (mesh.Mesh, TextureData) {
	t.Helper()
	data, err := v.adapter.LoadTexture(context.Background(), p)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	m := v.adapter.CreateMesh(1)
	if err := v.adapter.SetTexture(m, data, false); err != nil {
		t.Fatalf("SetTexture() error = %v", err)
	}
	return m, data
}

// tileMaterial returns the material of the first face of a tile.
func (v *testViewer) tileMaterial(m mesh.Mesh, col, row int) material.Material {
	v.adapter.mu.Lock()
	layout := v.adapter.state.layout
	v.adapter.mu.Unlock()
	face := layout.TileFaces(col, row)[0]
	group, _ := m.Geometry().GroupAt(face.FirstVertex)
	return m.Material(group.MaterialIndex)
}

func (v *testViewer) settled(seen int) func() bool {
	return func() bool {
		s := v.adapter.Stats()
		return s.TilesSeen == seen && s.Queued == 0
	}
}

func TestNewAdapterRejectsResolution(t *testing.T) {
	d := events.NewDispatcher()
	cam := camera.NewCamera()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless)
	defer r.Release()

	for res, want := range map[int]error{0: common.ErrNotPowerOfTwo, 48: common.ErrNotPowerOfTwo, 2: common.ErrResolutionLow} {
		_, err := NewAdapter(cam, d, r, WithResolution(res), WithLoader(newFakeLoader()))
		if !errors.Is(err, want) {
			t.Errorf("NewAdapter(resolution %d) error = %v, want %v", res, err, want)
		}
		var ve *common.ViewerError
		if !errors.As(err, &ve) {
			t.Errorf("NewAdapter(resolution %d) error = %v, want a *common.ViewerError", res, err)
		}
	}
	if got := d.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after failed construction = %d, want 0", got)
	}
}

func TestLoadTextureValidatesBeforeFetching(t *testing.T) {
	tests := []struct {
		name string
		p    *Panorama
		want error
	}{
		{"nil panorama", nil, common.ErrInvalidPanorama},
		{"missing tile url", &Panorama{Width: 1024, Cols: 4, Rows: 2}, common.ErrInvalidPanorama},
		{"zero cols", &Panorama{Width: 1024, Rows: 2, TileURL: tileURL}, common.ErrInvalidPanorama},
		{"odd width", &Panorama{Width: 1023, Cols: 4, Rows: 2, TileURL: tileURL}, common.ErrOddWidth},
		{"cols not power of two", &Panorama{Width: 1024, Cols: 3, Rows: 2, TileURL: tileURL}, common.ErrNotPowerOfTwo},
		{"rows not power of two", &Panorama{Width: 1024, Cols: 4, Rows: 3, TileURL: tileURL}, common.ErrNotPowerOfTwo},
		{"too many cols", &Panorama{Width: 1024, Cols: 32, Rows: 2, TileURL: tileURL}, common.ErrTooManyCols},
		{"too many rows", &Panorama{Width: 1024, Cols: 4, Rows: 16, TileURL: tileURL}, common.ErrTooManyRows},
	}

	l := newFakeLoader()
	v := newTestAdapter(t, l)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p != nil {
				tt.p.BaseURL = "base.png"
			}
			_, err := v.adapter.LoadTexture(context.Background(), tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadTexture() error = %v, want %v", err, tt.want)
			}
			var ve *common.ViewerError
			if !errors.As(err, &ve) {
				t.Errorf("LoadTexture() error = %T, want *common.ViewerError", err)
			}
		})
	}
	if got := l.requested(); len(got) != 0 {
		t.Errorf("requests before validation = %v, want none", got)
	}
}

func TestLoadTexturePanoData(t *testing.T) {
	l := newFakeLoader()
	l.size = image.Pt(64, 32)
	v := newTestAdapter(t, l)

	p := testPanorama()
	data, err := v.adapter.LoadTexture(context.Background(), p)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	want := PanoData{FullWidth: 1024, FullHeight: 512, CroppedWidth: 1024, CroppedHeight: 512}
	if data.PanoData != want {
		t.Errorf("PanoData = %+v, want %+v", data.PanoData, want)
	}
	if data.Texture != nil {
		t.Error("Texture != nil for a panorama without base image")
	}
	if v.adapter.SupportsTransition(p) || v.adapter.SupportsPreload(p) {
		t.Error("a panorama without base image supports transition or preload")
	}

	p.BaseURL = "base.png"
	data, err = v.adapter.LoadTexture(context.Background(), p)
	if err != nil {
		t.Fatalf("LoadTexture() with base error = %v", err)
	}
	if data.Texture == nil || data.Texture.Width() != 64 || data.Texture.Height() != 32 {
		t.Fatalf("base texture = %v, want 64x32", data.Texture)
	}
	if data.Texture.GPUResource() == nil {
		t.Error("base texture was not uploaded")
	}
	if !v.adapter.SupportsTransition(p) || !v.adapter.SupportsPreload(p) {
		t.Error("a panorama with base image does not support transition or preload")
	}
	data.Texture.Release()
}

func TestSetTextureStreamsVisibleTiles(t *testing.T) {
	l := newFakeLoader()
	v := newTestAdapter(t, l, WithRequestHeadersFunc(func(url string) map[string]string {
		return map[string]string{"X-Tile": url}
	}))

	m, _ := v.show(t, testPanorama())
	if got := v.adapter.State(); got != StateTilesStreaming {
		t.Errorf("State() = %v, want %v", got, StateTilesStreaming)
	}

	// looking at the panorama centre with a 60° fov, only the two middle columns are in view
	waitFor(t, "visible tiles to load", v.settled(4))
	want := []string{tileURL(1, 0), tileURL(1, 1), tileURL(2, 0), tileURL(2, 1)}
	if got := l.requested(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("requested tiles = %v, want %v", got, want)
	}
	if got := l.headersFor(tileURL(1, 0))["X-Tile"]; got != tileURL(1, 0) {
		t.Errorf("X-Tile header = %q, want %q", got, tileURL(1, 0))
	}

	if got := v.tileMaterial(m, 1, 0); got == nil || got.Name() != "1x0" || got.Texture() == nil {
		t.Errorf("tile 1x0 material = %v, want a textured material named 1x0", got)
	}
	if got := v.tileMaterial(m, 0, 0); got == nil || got.Name() != "Base" || got.Opacity() != 0 {
		t.Errorf("tile 0x0 material = %v, want the transparent base material", got)
	}
	if !m.UVsDirty() {
		t.Error("UVsDirty() = false after tiles were swapped in")
	}
	if !v.renderer.RenderPending() {
		t.Error("no render requested after tiles were swapped in")
	}
	if got := v.renderer.Stats().TexturesLive; got != 4 {
		t.Errorf("TexturesLive = %d, want 4", got)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	l := newFakeLoader()
	l.block = make(chan struct{})
	q := queue.NewQueue(queue.WithConcurrency(1))
	defer q.Stop()
	v := newTestAdapter(t, l, WithQueue(q))

	v.show(t, testPanorama())
	waitFor(t, "the first tile to start", func() bool { return len(l.requested()) == 1 })

	first := make(map[string]float64)
	for _, id := range []string{"1x0", "1x1", "2x0", "2x1"} {
		task := q.Task(id)
		if task == nil {
			t.Fatalf("task %s not queued", id)
		}
		first[id] = task.Priority()
	}

	v.adapter.Refresh()
	v.adapter.Refresh()

	if got := q.Len(); got != 4 {
		t.Errorf("queue Len() after refresh = %d, want 4", got)
	}
	if got := v.adapter.Stats().TilesSeen; got != 4 {
		t.Errorf("TilesSeen after refresh = %d, want 4", got)
	}
	for id, priority := range first {
		task := q.Task(id)
		if task.Priority() != priority {
			t.Errorf("task %s priority = %v, want %v", id, task.Priority(), priority)
		}
		if s := task.Status(); s != queue.StatusPending && s != queue.StatusRunning {
			t.Errorf("task %s status = %v, want pending or running", id, s)
		}
	}

	close(l.block)
	waitFor(t, "every tile to load", v.settled(4))
	if got := len(l.requested()); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
}

func TestErrorMaterialIsBuiltOnce(t *testing.T) {
	l := newFakeLoader()
	l.fail = true
	v := newTestAdapter(t, l)

	m, _ := v.show(t, testPanorama())
	waitFor(t, "every tile to fail", v.settled(4))

	v.adapter.mu.Lock()
	builds := v.adapter.errorMaterialBuilds
	errMat := v.adapter.errorMaterial
	v.adapter.mu.Unlock()

	if builds != 1 {
		t.Errorf("error material built %d times, want 1", builds)
	}
	a, b := v.tileMaterial(m, 1, 0), v.tileMaterial(m, 2, 1)
	if a == nil || a != b || a != errMat {
		t.Errorf("failed tiles use materials %p and %p, want the shared error material %p", a, b, errMat)
	}
	if tex := errMat.Texture(); tex == nil || tex.Width() != 256 || tex.Height() != 256 {
		t.Errorf("error tile texture = %v, want 256x256", tex)
	}
}

func TestErrorTileDisabled(t *testing.T) {
	l := newFakeLoader()
	l.fail = true
	v := newTestAdapter(t, l, WithShowErrorTile(false))

	m, _ := v.show(t, testPanorama())
	waitFor(t, "every tile to fail", v.settled(4))

	if got := v.tileMaterial(m, 1, 0); got == nil || got.Name() != "Base" {
		t.Errorf("failed tile material = %v, want the base material", got)
	}
	v.adapter.mu.Lock()
	defer v.adapter.mu.Unlock()
	if v.adapter.errorMaterial != nil {
		t.Error("error material built with error tiles disabled")
	}
}

func TestCameraEventsRefreshTiles(t *testing.T) {
	l := newFakeLoader()
	v := newTestAdapter(t, l)

	v.show(t, testPanorama())
	waitFor(t, "visible tiles to load", v.settled(4))

	// turning around brings the outer columns in view
	v.camera.Rotate(math.Pi, 0)
	waitFor(t, "the back tiles to load", v.settled(8))

	requested := l.requested()
	for _, url := range []string{tileURL(0, 0), tileURL(0, 1), tileURL(3, 0), tileURL(3, 1)} {
		found := false
		for _, r := range requested {
			found = found || r == url
		}
		if !found {
			t.Errorf("%s not requested after turning around", url)
		}
	}
	if got := len(requested); got != 8 {
		t.Errorf("requests = %d, want 8", got)
	}
}

func TestNearestTilesFirstNegatesPriority(t *testing.T) {
	l := newFakeLoader()
	l.block = make(chan struct{})
	q := queue.NewQueue(queue.WithConcurrency(1))
	defer q.Stop()
	defer close(l.block)
	v := newTestAdapter(t, l, WithQueue(q), WithNearestTilesFirst())

	v.show(t, testPanorama())
	waitFor(t, "tiles to be queued", func() bool { return q.Len() == 4 })

	for _, id := range []string{"1x0", "1x1", "2x0", "2x1"} {
		if p := q.Task(id).Priority(); p > 0 {
			t.Errorf("task %s priority = %v, want <= 0", id, p)
		}
	}
}

func TestSetTextureOpacity(t *testing.T) {
	v := newTestAdapter(t, newFakeLoader())
	m, _ := v.show(t, testPanorama())

	v.adapter.SetTextureOpacity(m, 0.5)
	base := m.Material(0)
	if base.Opacity() != 0.5 || !base.Transparent() {
		t.Errorf("base material opacity = %v transparent = %v, want 0.5 and true", base.Opacity(), base.Transparent())
	}
	v.adapter.SetTextureOpacity(m, 1)
	if base.Transparent() {
		t.Error("base material transparent at opacity 1")
	}
}

func TestTransitionKeepsStreamingThenSwitches(t *testing.T) {
	l := newFakeLoader()
	l.size = image.Pt(64, 32)
	v := newTestAdapter(t, l)

	first := testPanorama()
	first.BaseURL = "first.png"
	oldMesh, oldData := v.show(t, first)
	waitFor(t, "visible tiles to load", v.settled(4))
	session := v.adapter.Stats().Session

	second := testPanorama()
	second.BaseURL = "second.png"
	data, err := v.adapter.LoadTexture(context.Background(), second)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	newMesh := v.adapter.CreateMesh(1)
	if err := v.adapter.SetTexture(newMesh, data, true); err != nil {
		t.Fatalf("SetTexture(transition) error = %v", err)
	}

	base := newMesh.Material(0)
	if base == nil || base.Texture() != data.Texture {
		t.Fatal("transition mesh does not show the new base texture")
	}
	if s := v.adapter.Stats(); s.Session != session || s.TilesSeen != 4 {
		t.Errorf("Stats() after transition = %+v, want session %s with 4 tiles", s, session)
	}
	if oldMesh.Material(0) == nil {
		t.Error("transition tore down the current mesh")
	}

	if err := v.adapter.SetTexture(newMesh, data, false); err != nil {
		t.Fatalf("SetTexture() error = %v", err)
	}
	if newMesh.Material(0) != base || base.Disposed() {
		t.Error("base material of the transition was not kept")
	}
	if oldMesh.Material(0) != nil {
		t.Error("materials of the previous mesh were not released")
	}
	if !oldData.Texture.Released() {
		t.Error("previous base texture was not released")
	}
	if data.Texture.Released() {
		t.Error("current base texture was released")
	}
	if s := v.adapter.Stats(); s.Session == session {
		t.Error("session id unchanged after switching panorama")
	}
	waitFor(t, "tiles of the new panorama to load", v.settled(4))
}

func TestSetTextureAgainKeepsBaseTexture(t *testing.T) {
	l := newFakeLoader()
	l.size = image.Pt(64, 32)
	v := newTestAdapter(t, l)

	p := testPanorama()
	p.BaseURL = "base.png"
	oldMesh, data := v.show(t, p)
	waitFor(t, "visible tiles to load", v.settled(4))

	m := v.adapter.CreateMesh(1)
	if err := v.adapter.SetTexture(m, data, false); err != nil {
		t.Fatalf("SetTexture(new mesh) error = %v", err)
	}
	base := m.Material(0)
	if base == nil || base.Texture() != data.Texture || base.Disposed() {
		t.Fatalf("base material on the new mesh = %v, want a live material wrapping the base texture", base)
	}
	if data.Texture.Released() {
		t.Error("base texture released when the same texture data was set on a new mesh")
	}
	if got := base.Opacity(); got != 1 {
		t.Errorf("base opacity = %v, want 1", got)
	}
	if oldMesh.Material(0) != nil {
		t.Error("materials of the previous mesh were not released")
	}
	waitFor(t, "tiles to reload", v.settled(4))

	// tiles now cover part of the mesh, setting it again must still keep the base texture
	if err := v.adapter.SetTexture(m, data, false); err != nil {
		t.Fatalf("SetTexture(same mesh) error = %v", err)
	}
	if data.Texture.Released() {
		t.Error("base texture released when the same texture data was set again")
	}
	if got := v.tileMaterial(m, 0, 0); got != base || base.Disposed() {
		t.Errorf("tile 0x0 material = %v, want the live base material", got)
	}
}

func TestZoomEventsRefreshTiles(t *testing.T) {
	l := newFakeLoader()
	v := newTestAdapter(t, l)

	// 50° to one side of the centre a 60° fov sees a single column
	v.camera.Rotate(5*math.Pi/18, 0)
	v.show(t, testPanorama())
	waitFor(t, "visible tiles to load", v.settled(2))
	if got := len(l.requested()); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}

	// zooming out to 90° reaches the next column
	v.camera.SetZoom(0)
	waitFor(t, "the widened view to load", v.settled(4))
	if got := len(l.requested()); got != 4 {
		t.Errorf("requests after zooming out = %d, want 4", got)
	}
}

func TestDestroyCancelsLoads(t *testing.T) {
	l := newFakeLoader()
	l.block = make(chan struct{})
	defer close(l.block)
	v := newTestAdapter(t, l)

	m, _ := v.show(t, testPanorama())
	waitFor(t, "loads to start", func() bool { return len(l.requested()) > 0 })

	v.adapter.Destroy()
	v.adapter.Destroy()

	if got := v.adapter.State(); got != StateUnloaded {
		t.Errorf("State() after Destroy = %v, want %v", got, StateUnloaded)
	}
	if got := v.dispatcher.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after Destroy = %d, want 0", got)
	}
	for i, mat := range m.Materials() {
		if mat != nil {
			t.Fatalf("slot %d holds %v after Destroy, want nil", i, mat)
		}
	}

	// cancelled loads return without touching the mesh
	time.Sleep(20 * time.Millisecond)
	if got := v.renderer.Stats().TexturesLive; got != 0 {
		t.Errorf("TexturesLive after Destroy = %d, want 0", got)
	}
	if err := v.adapter.SetTexture(m, TextureData{Panorama: testPanorama()}, false); err == nil {
		t.Error("SetTexture() after Destroy returned nil error")
	}
}

func TestCreateBaseTexture(t *testing.T) {
	e := &equirectangularLoader{maxTextureWidth: 48, maxCanvasWidth: 32, logger: common.Logger()}

	small := image.NewRGBA(image.Rect(0, 0, 40, 20))
	if got := e.createBaseTexture(small); got != small {
		t.Error("createBaseTexture() redrew an image below the texture limit")
	}

	large := image.NewRGBA(image.Rect(0, 0, 64, 32))
	if got := e.createBaseTexture(large); got.Rect.Dx() != 32 || got.Rect.Dy() != 16 {
		t.Errorf("createBaseTexture() = %v, want 32x16", got.Rect)
	}

	e.baseBlur = true
	if got := e.createBaseTexture(small); got == small || got.Rect.Dx() != 32 || got.Rect.Dy() != 16 {
		t.Errorf("createBaseTexture() with blur = %v, want a new 32x16 image", got.Rect)
	}
}

func TestUncropPlacesImage(t *testing.T) {
	e := &equirectangularLoader{maxCanvasWidth: 4096, logger: common.Logger()}
	img := image.NewRGBA(image.Rect(0, 0, 50, 25))
	for y := 0; y < 25; y++ {
		for x := 0; x < 50; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	got := e.uncrop(img, PanoData{
		FullWidth: 100, FullHeight: 50,
		CroppedWidth: 50, CroppedHeight: 25,
		CroppedX: 25, CroppedY: 10,
	})
	if got.Rect.Dx() != 100 || got.Rect.Dy() != 50 {
		t.Fatalf("uncrop() size = %v, want 100x50", got.Rect)
	}
	if c := got.RGBAAt(50, 20); c.R != 255 || c.A != 255 {
		t.Errorf("pixel inside the crop = %v, want opaque red", c)
	}
	if c := got.RGBAAt(5, 5); c.A != 0 {
		t.Errorf("pixel outside the crop = %v, want transparent", c)
	}

	if e.uncrop(img, PanoData{FullWidth: 50, FullHeight: 25, CroppedWidth: 50, CroppedHeight: 25}) != img {
		t.Error("uncrop() redrew an uncropped image")
	}
}
