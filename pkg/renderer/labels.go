package renderer

import (
	"sort"
	"strings"

	"github.com/asciimaps/asciimap/pkg/raster"
	"github.com/asciimaps/asciimap/pkg/vectortile"
)

// labelCandidate is a street-label placement candidate collected while
// walking the transportation_name layer.
type labelCandidate struct {
	priority int
	sy, sx   int
	text     string
}

// collectStreetLabelCandidates scans one tile's transportation_name layer
// for named roads, projecting each (simplified) line's middle vertex to
// screen space.
func collectStreetLabelCandidates(tile vectortile.Tile, tx, ty int, vp viewport, candidates []labelCandidate) []labelCandidate {
	layer, ok := tile["transportation_name"]
	if !ok {
		return candidates
	}

	for _, feat := range layer.Features {
		if len(candidates) >= MaxLabelCandidates {
			break
		}
		class, _ := feat.Properties["class"].AsString()
		priority, ranked := roadLabelPriority[class]
		if !ranked {
			continue
		}

		name := propertyText(feat, "name_en", "name")
		if name == "" {
			continue
		}
		text := normalizeLabelText(name)
		if text == "" {
			continue
		}

		for _, line := range feat.Geometry.Lines {
			line = simplifyPoints(line, vp.zoom)
			if len(line) == 0 {
				continue
			}
			mid := line[len(line)/2]
			sx, sy := vp.tilePointToScreen(tx, ty, mid.X, mid.Y, layer.Extent)
			if !vp.inBounds(sx, sy) {
				continue
			}
			candidates = append(candidates, labelCandidate{priority: priority, sy: sy, sx: sx, text: text})
			if len(candidates) >= MaxLabelCandidates {
				break
			}
		}
	}
	return candidates
}

func propertyText(feat vectortile.Feature, primary, fallback string) string {
	if v, ok := feat.Properties[primary]; ok {
		if s, ok := v.AsString(); ok && s != "" {
			return s
		}
	}
	if v, ok := feat.Properties[fallback]; ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return ""
}

// normalizeLabelText collapses whitespace, strips non-ASCII runes, and
// truncates to MaxLabelLen with an ellipsis suffix when the result is
// otherwise longer.
func normalizeLabelText(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 127 {
			continue
		}
		b.WriteRune(r)
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if collapsed == "" {
		return ""
	}
	if len(collapsed) > MaxLabelLen {
		return collapsed[:MaxLabelLen-3] + "..."
	}
	return collapsed
}

// placeStreetLabels sorts candidates by (priority, sy, sx) and stamps as
// many as fit without overlap, a duplicate name, or touching the border.
func placeStreetLabels(fb *raster.Framebuffer, width, height int, candidates []labelCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.sy != b.sy {
			return a.sy < b.sy
		}
		return a.sx < b.sx
	})

	maxLabels := clampInt(width/4+height/3, 10, 48)
	occupied := make([][]bool, height)
	for i := range occupied {
		occupied[i] = make([]bool, width)
	}
	placedNames := make(map[string]bool)
	placed := 0

	for _, c := range candidates {
		if placed >= maxLabels {
			break
		}
		if placedNames[c.text] {
			continue
		}

		length := len(c.text)
		startX := c.sx - length/2
		endX := startX + length - 1

		if startX < 1 || endX >= width-1 || c.sy == 0 || c.sy == height-1 {
			continue
		}

		if regionOccupied(occupied, startX-1, endX+1, c.sy-1, c.sy+1) {
			continue
		}

		for i, r := range c.text {
			fb.SetChar(startX+i, c.sy, r)
		}
		fb.SetChar(startX-1, c.sy, ' ')
		fb.SetChar(endX+1, c.sy, ' ')
		markOccupied(occupied, startX-1, endX+1, c.sy-1, c.sy+1)

		placedNames[c.text] = true
		placed++
	}
}

func regionOccupied(occupied [][]bool, x0, x1, y0, y1 int) bool {
	for y := y0; y <= y1; y++ {
		if y < 0 || y >= len(occupied) {
			continue
		}
		for x := x0; x <= x1; x++ {
			if x < 0 || x >= len(occupied[y]) {
				continue
			}
			if occupied[y][x] {
				return true
			}
		}
	}
	return false
}

func markOccupied(occupied [][]bool, x0, x1, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		if y < 0 || y >= len(occupied) {
			continue
		}
		for x := x0; x <= x1; x++ {
			if x < 0 || x >= len(occupied[y]) {
				continue
			}
			occupied[y][x] = true
		}
	}
}
