package adapter

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
	"golang.org/x/image/draw"
)

// equirectangularLoader loads the single image equirectangular panoramas used as base textures.
type equirectangularLoader struct {
	loader  loader.Loader
	target  RenderTarget
	headers func(url string) map[string]string

	baseBlur        bool
	maxTextureWidth int
	maxCanvasWidth  int

	logger *slog.Logger
}

// loadBaseTexture fetches, prepares and uploads a base image.
// When panoData describes a cropped image, the image is placed on a canvas of the full panorama size.
func (e *equirectangularLoader) loadBaseTexture(ctx context.Context, url string, panoData *PanoData, panoDataFunc func(image.Image) PanoData) (texture.Texture, error) {
	img, err := e.loader.LoadImage(ctx, url, e.headers(url))
	if err != nil {
		return nil, fmt.Errorf("failed to load base image %s: %w", url, err)
	}

	if panoData == nil && panoDataFunc != nil {
		pd := panoDataFunc(img)
		panoData = &pd
	}
	if panoData != nil {
		img = e.uncrop(img, *panoData)
	}

	if img.Rect.Dx() != img.Rect.Dy()*2 {
		e.logger.Warn("invalid base image, the width should be twice the height", "url", url, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	}

	tex := texture.NewTexture(e.createBaseTexture(img), texture.WithLabel("Base "+url))
	if err := e.target.UploadTexture(tex); err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to upload base image %s: %w", url, err)
	}
	return tex, nil
}

// createBaseTexture returns the image to upload for a base panorama.
// Images wider than maxTextureWidth, and every image when blurring, are redrawn at most maxCanvasWidth wide with a 2:1 ratio.
func (e *equirectangularLoader) createBaseTexture(img *image.RGBA) *image.RGBA {
	width := img.Rect.Dx()
	if !e.baseBlur && width <= e.maxTextureWidth {
		return img
	}

	ratio := min(1, float64(e.maxCanvasWidth)/float64(width))
	w := max(2, int(float64(width)*ratio))
	h := max(1, w/2)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if !e.baseBlur {
		draw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, draw.Src, nil)
		return dst
	}

	// a half size round trip through bilinear filtering softens the image by about one pixel
	half := image.NewRGBA(image.Rect(0, 0, max(1, w/2), max(1, h/2)))
	draw.ApproxBiLinear.Scale(half, half.Rect, img, img.Rect, draw.Src, nil)
	draw.BiLinear.Scale(dst, dst.Rect, half, half.Rect, draw.Src, nil)
	return dst
}

// uncrop places a cropped image at its offset on a transparent canvas of the full panorama size.
// The canvas is scaled down to maxCanvasWidth. Invalid or uncropped pano data returns img unchanged.
func (e *equirectangularLoader) uncrop(img *image.RGBA, pd PanoData) *image.RGBA {
	if pd.FullWidth <= 0 || pd.FullHeight <= 0 || pd.CroppedWidth <= 0 || pd.CroppedHeight <= 0 {
		return img
	}
	if pd.CroppedWidth == pd.FullWidth && pd.CroppedHeight == pd.FullHeight {
		return img
	}
	if pd.CroppedX < 0 || pd.CroppedY < 0 ||
		pd.CroppedX+pd.CroppedWidth > pd.FullWidth || pd.CroppedY+pd.CroppedHeight > pd.FullHeight {
		e.logger.Warn("ignoring invalid base pano data", "full_width", pd.FullWidth, "full_height", pd.FullHeight,
			"cropped_width", pd.CroppedWidth, "cropped_height", pd.CroppedHeight, "cropped_x", pd.CroppedX, "cropped_y", pd.CroppedY)
		return img
	}

	ratio := min(1, float64(e.maxCanvasWidth)/float64(pd.FullWidth))
	scale := func(v int) int { return int(float64(v) * ratio) }

	canvas := image.NewRGBA(image.Rect(0, 0, max(1, scale(pd.FullWidth)), max(1, scale(pd.FullHeight))))
	target := image.Rect(scale(pd.CroppedX), scale(pd.CroppedY), scale(pd.CroppedX+pd.CroppedWidth), scale(pd.CroppedY+pd.CroppedHeight))
	draw.BiLinear.Scale(canvas, target, img, img.Rect, draw.Src, nil)
	return canvas
}
