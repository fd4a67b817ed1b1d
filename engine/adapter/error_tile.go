package adapter

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
	"github.com/gogpu/gg"
)

// maxErrorTileSize caps each side of the placeholder image.
const maxErrorTileSize = 512

// buildErrorMaterial renders the placeholder shown in place of tiles that failed to load,
// a dark background with a red warning sign, sized for tiles of colSize x rowSize pixels.
// Caller must hold the adapter lock.
func (a *adapter) buildErrorMaterial(colSize, rowSize int) (material.Material, error) {
	width := common.Clamp(colSize, 1, maxErrorTileSize)
	height := common.Clamp(rowSize, 1, maxErrorTileSize)

	dc := gg.NewContext(width, height)
	defer dc.Close()

	w, h := float64(width), float64(height)
	dc.SetHexColor("#333")
	dc.DrawRectangle(0, 0, w, h)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("failed to draw error tile background: %w", err)
	}

	// warning triangle centred on the tile
	size := math.Min(w, h) * 0.4
	cx, cy := w/2, h/2
	dc.SetHexColor("#a22")
	dc.MoveTo(cx, cy-size/2)
	dc.LineTo(cx+size/2, cy+size/2)
	dc.LineTo(cx-size/2, cy+size/2)
	dc.ClosePath()
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("failed to draw error tile sign: %w", err)
	}

	dc.SetHexColor("#333")
	dc.SetLineWidth(math.Max(1, size/10))
	dc.MoveTo(cx, cy-size/6)
	dc.LineTo(cx, cy+size/6)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("failed to draw error tile sign: %w", err)
	}
	dc.DrawCircle(cx, cy+size/3, math.Max(0.5, size/20))
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("failed to draw error tile sign: %w", err)
	}

	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush error tile: %w", err)
	}

	tex := texture.NewTexture(common.ToRGBA(dc.Image()), texture.WithLabel("Error Tile"))
	if err := a.target.UploadTexture(tex); err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to upload error tile: %w", err)
	}

	a.errorMaterialBuilds++
	return material.NewMaterial(material.WithName("Error Tile"), material.WithTexture(tex)), nil
}
