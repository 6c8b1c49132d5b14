package renderer

import (
	"math"

	"github.com/asciimaps/asciimap/pkg/mercator"
	"github.com/asciimaps/asciimap/pkg/vectortile"
)

// simplifyPoints thins a ring or line to at most ~MaxGeomPoints vertices by
// stride sampling, applied only at GeomSimplifyZoom and above. The last
// vertex is always kept so a simplified ring still closes, and a
// simplified line still reaches its endpoint.
func simplifyPoints(points vectortile.Ring, zoom int) vectortile.Ring {
	n := len(points)
	if zoom < GeomSimplifyZoom || n <= MaxGeomPoints {
		return points
	}

	stride := (n + MaxGeomPoints - 1) / MaxGeomPoints
	if stride < 2 {
		stride = 2
	}

	out := make(vectortile.Ring, 0, n/stride+2)
	for i := 0; i < n; i += stride {
		out = append(out, points[i])
	}
	if out[len(out)-1] != points[n-1] {
		out = append(out, points[n-1])
	}
	return out
}

// viewport carries the screen-projection parameters derived from a
// normalized view and framebuffer size.
type viewport struct {
	tlWX, tlWY float64
	cellAspect float64
	width      int
	height     int
	zoom       int
}

// worldToScreen projects a world-pixel point to integer screen coordinates.
// Uses floor, not truncation, so points left of or above the viewport's
// top-left corner land one cell off-screen instead of snapping to 0.
func (vp viewport) worldToScreen(wx, wy float64) (int, int) {
	sx := int(math.Floor((wx - vp.tlWX) / vp.cellAspect))
	sy := int(math.Floor(wy - vp.tlWY))
	return sx, sy
}

// tilePointToScreen projects a tile-local point (px,py in [0,extent)) of
// tile (tx,ty) at the viewport's zoom to screen coordinates.
func (vp viewport) tilePointToScreen(tx, ty int, px, py int32, extent uint32) (int, int) {
	ext := float64(extent)
	if ext == 0 {
		ext = 4096
	}
	wx := float64(tx)*mercator.TileSize + (float64(px)/ext)*mercator.TileSize
	wy := float64(ty)*mercator.TileSize + (float64(py)/ext)*mercator.TileSize
	return vp.worldToScreen(wx, wy)
}

// projectRing simplifies then projects a ring/line to screen-space points.
func (vp viewport) projectRing(tx, ty int, ring vectortile.Ring, extent uint32) [][2]int {
	ring = simplifyPoints(ring, vp.zoom)
	pts := make([][2]int, len(ring))
	for i, p := range ring {
		sx, sy := vp.tilePointToScreen(tx, ty, p.X, p.Y, extent)
		pts[i] = [2]int{sx, sy}
	}
	return pts
}

func (vp viewport) inBounds(sx, sy int) bool {
	return sx >= 0 && sx < vp.width && sy >= 0 && sy < vp.height
}
