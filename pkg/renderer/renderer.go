package renderer

import (
	"context"
	"math"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/asciimaps/asciimap/pkg/mercator"
	"github.com/asciimaps/asciimap/pkg/raster"
	"github.com/asciimaps/asciimap/pkg/tracing"
	"github.com/asciimaps/asciimap/pkg/vectortile"
)

// TileSource supplies decoded tiles by slippy-map index; tilestore.Store
// satisfies this.
type TileSource interface {
	GetDecodedTile(ctx context.Context, z, x, y int) (vectortile.Tile, error)
}

// RenderResult is the core's external output shape (spec §6).
type RenderResult struct {
	Text       string  `json:"text"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Zoom       int     `json:"zoom"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	CellAspect float64 `json:"cell_aspect"`
}

// Render composites the visible tiles around (lat,lon,zoom) into a
// width×height ASCII framebuffer. It is a pure function of the view, the
// framebuffer size, and the tile source's observable state: no
// cancellation points, no speculative concurrency.
func Render(ctx context.Context, src TileSource, lat, lon float64, zoom, width, height int, cellAspect float64, showStreetNames bool) (*RenderResult, error) {
	ctx, span := tracing.StartRenderSpan(ctx, lat, lon, zoom)
	defer span.End()

	width = clampInt(width, MinWidth, MaxWidth)
	height = clampInt(height, MinHeight, MaxHeight)
	cellAspect = clampFloat(cellAspect, MinCellAspect, MaxCellAspect)

	view := mercator.Normalize(lat, lon, zoom)
	fb := raster.New(width, height, ' ')

	viewW := float64(width) * cellAspect
	viewH := float64(height) * mercator.WorldPxPerCellY

	vp := viewport{
		tlWX:       view.WX - viewW/2,
		tlWY:       view.WY - viewH/2,
		cellAspect: cellAspect,
		width:      width,
		height:     height,
		zoom:       view.Zoom,
	}

	numTiles := 1 << uint(view.Zoom)
	minTX := int(math.Floor(vp.tlWX / mercator.TileSize))
	maxTX := int(math.Floor((vp.tlWX + viewW) / mercator.TileSize))
	minTY := int(math.Floor(vp.tlWY / mercator.TileSize))
	maxTY := int(math.Floor((vp.tlWY + viewH) / mercator.TileSize))

	if minTY > numTiles-1 || maxTY < 0 {
		tracing.SetStatus(ctx, codes.Ok, "")
		return finishRender(fb, view, width, height, cellAspect), nil
	}
	if minTY < 0 {
		minTY = 0
	}
	if maxTY > numTiles-1 {
		maxTY = numTiles - 1
	}

	var candidates []labelCandidate

	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			realTX := ((tx % numTiles) + numTiles) % numTiles

			tile, err := src.GetDecodedTile(ctx, view.Zoom, realTX, ty)
			if err != nil || tile == nil {
				continue
			}

			drawGreenLayer(fb, tile, tx, ty, vp)
			drawWaterLayer(fb, tile, tx, ty, vp, view.Zoom)
			drawBuildingOutline(fb, tile, tx, ty, vp)
			drawRoadLayer(fb, tile, tx, ty, vp)
			drawWaterwayLayer(fb, tile, tx, ty, vp)

			if showStreetNames && view.Zoom >= LabelMinZoom {
				candidates = collectStreetLabelCandidates(tile, tx, ty, vp, candidates)
			}
		}
	}

	if showStreetNames && view.Zoom >= LabelMinZoom {
		placeStreetLabels(fb, width, height, candidates)
	}

	fb.SetChar(width/2, height/2, GlyphCenter)

	tracing.SetStatus(ctx, codes.Ok, "")
	return finishRender(fb, view, width, height, cellAspect), nil
}

func finishRender(fb *raster.Framebuffer, view mercator.View, width, height int, cellAspect float64) *RenderResult {
	rows := make([]string, height)
	for y := 0; y < height; y++ {
		rows[y] = fb.GetRow(y)
	}
	return &RenderResult{
		Text:       strings.Join(rows, "\n"),
		Lat:        view.Lat,
		Lon:        view.Lon,
		Zoom:       view.Zoom,
		Width:      width,
		Height:     height,
		CellAspect: cellAspect,
	}
}

func featureClass(feat vectortile.Feature) string {
	s, _ := feat.Properties["class"].AsString()
	return s
}

func drawGreenLayer(fb *raster.Framebuffer, tile vectortile.Tile, tx, ty int, vp viewport) {
	layer, ok := tile["landuse"]
	if !ok {
		layer, ok = tile["landcover"]
	}
	if !ok {
		return
	}
	for _, feat := range layer.Features {
		if feat.Geometry.Type != vectortile.GeomPolygon {
			continue
		}
		if !greenLandUseClasses[featureClass(feat)] {
			continue
		}
		fillPolygons(fb, feat.Geometry, tx, ty, vp, layer.Extent, GlyphGreen)
	}
}

func drawWaterLayer(fb *raster.Framebuffer, tile vectortile.Tile, tx, ty int, vp viewport, zoom int) {
	layer, ok := tile["water"]
	if !ok {
		return
	}
	for _, feat := range layer.Features {
		if feat.Geometry.Type != vectortile.GeomPolygon {
			continue
		}
		if zoom <= TerrainFillMaxZoom {
			fillPolygons(fb, feat.Geometry, tx, ty, vp, layer.Extent, GlyphWater)
		}
		outlinePolygons(fb, feat.Geometry, tx, ty, vp, layer.Extent, GlyphWater)
	}
}

func drawBuildingOutline(fb *raster.Framebuffer, tile vectortile.Tile, tx, ty int, vp viewport) {
	layer, ok := tile["building"]
	if !ok {
		return
	}
	for _, feat := range layer.Features {
		if feat.Geometry.Type != vectortile.GeomPolygon {
			continue
		}
		outlinePolygons(fb, feat.Geometry, tx, ty, vp, layer.Extent, GlyphBuilding)
	}
}

func drawRoadLayer(fb *raster.Framebuffer, tile vectortile.Tile, tx, ty int, vp viewport) {
	layer, ok := tile["road"]
	if !ok {
		layer, ok = tile["transportation"]
	}
	if !ok {
		return
	}
	for _, feat := range layer.Features {
		if feat.Geometry.Type != vectortile.GeomLineString {
			continue
		}
		glyph, ok := roadClassToGlyph[featureClass(feat)]
		if !ok {
			continue
		}
		for _, line := range feat.Geometry.Lines {
			pts := vp.projectRing(tx, ty, line, layer.Extent)
			drawPolyline(fb, pts, glyph)
		}
	}
}

func drawWaterwayLayer(fb *raster.Framebuffer, tile vectortile.Tile, tx, ty int, vp viewport) {
	layer, ok := tile["waterway"]
	if !ok {
		return
	}
	for _, feat := range layer.Features {
		if feat.Geometry.Type != vectortile.GeomLineString {
			continue
		}
		for _, line := range feat.Geometry.Lines {
			pts := vp.projectRing(tx, ty, line, layer.Extent)
			drawPolyline(fb, pts, GlyphWaterway)
		}
	}
}

func drawPolyline(fb *raster.Framebuffer, pts [][2]int, ch rune) {
	for i := 0; i+1 < len(pts); i++ {
		fb.DrawLine(pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1], ch)
	}
}

func fillPolygons(fb *raster.Framebuffer, geom vectortile.Geometry, tx, ty int, vp viewport, extent uint32, ch rune) {
	for _, poly := range geom.Polygons {
		rings := make([][][2]int, 0, 1+len(poly.Holes))
		rings = append(rings, vp.projectRing(tx, ty, poly.Exterior, extent))
		for _, h := range poly.Holes {
			rings = append(rings, vp.projectRing(tx, ty, h, extent))
		}
		fb.DrawPolygonFilled(rings, ch)
	}
}

func outlinePolygons(fb *raster.Framebuffer, geom vectortile.Geometry, tx, ty int, vp viewport, extent uint32, ch rune) {
	for _, poly := range geom.Polygons {
		fb.DrawPolyOutline(vp.projectRing(tx, ty, poly.Exterior, extent), ch)
		for _, h := range poly.Holes {
			fb.DrawPolyOutline(vp.projectRing(tx, ty, h, extent), ch)
		}
	}
}
