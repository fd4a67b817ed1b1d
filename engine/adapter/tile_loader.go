package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/texture"
)

// errTileCancelled is returned by tile actions whose result was discarded.
var errTileCancelled = errors.New("tile load cancelled")

// loadTiles disables every queued task, then enqueues the tiles never seen for this panorama and
// re-prioritises the others. Tiles that are no longer visible stay disabled. Caller must hold mu.
func (a *adapter) loadTiles(tiles []Tile) {
	a.queue.DisableAllTasks()

	session := a.state.session
	pano := a.state.panorama
	for _, tile := range tiles {
		id := tile.ID()
		priority := tile.Angle
		if a.config.NearestTilesFirst {
			priority = -priority
		}

		if a.state.tiles[id] {
			a.queue.SetPriority(id, priority)
			continue
		}
		a.state.tiles[id] = true

		a.queue.Enqueue(queue.NewTask(id, priority, func(ctx context.Context, t *queue.Task) error {
			return a.loadTile(ctx, t, tile, pano, session)
		}))
		a.logger.Debug("tile enqueued", "session", session, "tile", id, "angle", tile.Angle)
	}

	a.queue.Start()
}

// loadTile fetches a tile and swaps it into the mesh.
// Runs on a worker goroutine, the mesh is only touched under mu once the task is known not to be cancelled.
func (a *adapter) loadTile(ctx context.Context, t *queue.Task, tile Tile, pano *Panorama, session string) error {
	id := tile.ID()
	url := pano.TileURL(tile.Col, tile.Row)

	img, err := a.loader.LoadImage(ctx, url, a.requestHeaders(url))
	if err != nil {
		return a.failTile(t, tile, session, fmt.Errorf("failed to load tile %s from %s: %w", id, url, err))
	}

	tex := texture.NewTexture(img, texture.WithLabel(session+" "+id))
	if err := a.target.UploadTexture(tex); err != nil {
		tex.Release()
		return a.failTile(t, tile, session, fmt.Errorf("failed to upload tile %s: %w", id, err))
	}

	a.mu.Lock()
	if !a.isCurrent(t, session) {
		a.mu.Unlock()
		tex.Release()
		return errTileCancelled
	}
	mat := material.NewMaterial(material.WithName(id), material.WithTexture(tex))
	a.swapMaterial(tile, mat)
	a.mu.Unlock()

	a.logger.Debug("tile loaded", "session", session, "tile", id, "width", tex.Width(), "height", tex.Height())
	a.target.RequestRender()
	return nil
}

// failTile swaps the shared error material into a tile that could not be loaded.
// Nothing happens if the task was cancelled or error tiles are disabled.
func (a *adapter) failTile(t *queue.Task, tile Tile, session string, cause error) error {
	if t.IsCancelled() || errors.Is(cause, context.Canceled) {
		return errTileCancelled
	}
	a.logger.Debug("tile failed", "session", session, "tile", tile.ID(), "error", cause)

	if !a.config.ShowErrorTile {
		return cause
	}

	a.mu.Lock()
	if !a.isCurrent(t, session) {
		a.mu.Unlock()
		return errTileCancelled
	}
	if a.errorMaterial == nil {
		mat, err := a.buildErrorMaterial(a.state.colSize, a.state.rowSize)
		if err != nil {
			a.mu.Unlock()
			a.logger.Warn("error tile unavailable", "session", session, "error", err)
			return cause
		}
		a.errorMaterial = mat
	}
	a.swapMaterial(tile, a.errorMaterial)
	a.mu.Unlock()

	a.target.RequestRender()
	return cause
}

// isCurrent reports whether a task may still mutate the mesh. Caller must hold mu.
func (a *adapter) isCurrent(t *queue.Task, session string) bool {
	return !a.destroyed && !t.IsCancelled() && a.state.session == session && a.state.mesh != nil
}

// swapMaterial puts mat in the material slot of every face of the tile and maps the tile
// image onto each face. Caller must hold mu.
func (a *adapter) swapMaterial(tile Tile, mat material.Material) {
	m := a.state.mesh
	geom := m.Geometry()
	for _, face := range a.state.layout.TileFaces(tile.Col, tile.Row) {
		group, ok := geom.GroupAt(face.FirstVertex)
		if !ok {
			continue
		}
		m.SetMaterial(group.MaterialIndex, mat)
		m.WriteUVs(face.FirstVertex, face.UVs())
	}
}
