// Package raster implements the renderer's character framebuffer: a fixed
// grid of runes plus the line and polygon-fill primitives drawn into it.
package raster

// Framebuffer is a fixed-size grid of runes, row-major, with (0,0) at the
// top-left and Y increasing downward.
type Framebuffer struct {
	Width, Height int
	cells         [][]rune
}

// New allocates a framebuffer of the given size, filled with fill.
func New(width, height int, fill rune) *Framebuffer {
	fb := &Framebuffer{Width: width, Height: height}
	fb.cells = make([][]rune, height)
	for y := range fb.cells {
		fb.cells[y] = make([]rune, width)
	}
	fb.Clear(fill)
	return fb
}

// Clear resets every cell to fill.
func (fb *Framebuffer) Clear(fill rune) {
	for y := 0; y < fb.Height; y++ {
		row := fb.cells[y]
		for x := range row {
			row[x] = fill
		}
	}
}

// SetChar writes ch at (x, y). Out-of-bounds coordinates are a silent no-op:
// callers draw shapes that often extend past the viewport edge.
func (fb *Framebuffer) SetChar(x, y int, ch rune) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.cells[y][x] = ch
}

// At returns the rune at (x, y), or 0 if out of bounds.
func (fb *Framebuffer) At(x, y int) rune {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.cells[y][x]
}

// GetRow returns row y as a string. An out-of-range row returns an empty string.
func (fb *Framebuffer) GetRow(y int) string {
	if y < 0 || y >= fb.Height {
		return ""
	}
	return string(fb.cells[y])
}

// DrawLine rasterizes a line from (x0,y0) to (x1,y1) with ch, via Bresenham's
// algorithm (all eight octants, integer-only).
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, ch rune) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		fb.SetChar(x, y, ch)
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// DrawPolyOutline draws the outline of a ring (points connected in order,
// including the closing segment back to the first point) with ch.
func (fb *Framebuffer) DrawPolyOutline(points [][2]int, ch rune) {
	if len(points) < 2 {
		return
	}
	for i := 0; i < len(points); i++ {
		p0 := points[i]
		p1 := points[(i+1)%len(points)]
		fb.DrawLine(p0[0], p0[1], p1[0], p1[1], ch)
	}
}

// DrawPolygonFilled fills a polygon (an exterior ring plus optional hole
// rings, all in screen-pixel coordinates) using an even-odd scanline
// algorithm: for each row, every ring contributes edge crossings, nodes are
// sorted, and pairs of crossings are filled. Rings that are holes cancel out
// fill within their bounds because the even-odd rule doesn't distinguish
// exterior from hole edges — it just counts crossings.
func (fb *Framebuffer) DrawPolygonFilled(rings [][][2]int, ch rune) {
	if len(rings) == 0 {
		return
	}

	minY, maxY := fb.Height, -1
	for _, ring := range rings {
		for _, p := range ring {
			if p[1] < minY {
				minY = p[1]
			}
			if p[1] > maxY {
				maxY = p[1]
			}
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > fb.Height-1 {
		maxY = fb.Height - 1
	}

	for y := minY; y <= maxY; y++ {
		var nodes []int
		for _, ring := range rings {
			n := len(ring)
			if n < 2 {
				continue
			}
			for i := 0; i < n; i++ {
				pi := ring[i]
				pj := ring[(i+1)%n]
				yi, yj := pi[1], pj[1]
				if (yi < y && yj >= y) || (yj < y && yi >= y) {
					xi, xj := float64(pi[0]), float64(pj[0])
					yiF, yjF := float64(yi), float64(yj)
					x := xi + (float64(y)-yiF)/(yjF-yiF)*(xj-xi)
					nodes = append(nodes, int(x))
				}
			}
		}
		if len(nodes) < 2 {
			continue
		}
		insertionSort(nodes)
		for i := 0; i+1 < len(nodes); i += 2 {
			x0, x1 := nodes[i], nodes[i+1]
			if x0 < 0 {
				x0 = 0
			}
			if x1 > fb.Width-1 {
				x1 = fb.Width - 1
			}
			for x := x0; x <= x1; x++ {
				fb.SetChar(x, y, ch)
			}
		}
	}
}

func insertionSort(xs []int) {
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
