package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/asciimaps/asciimap/pkg/raster"
	"github.com/asciimaps/asciimap/pkg/vectortile"
)

type emptyTileSource struct{}

func (emptyTileSource) GetDecodedTile(ctx context.Context, z, x, y int) (vectortile.Tile, error) {
	return vectortile.Tile{}, nil
}

func TestRenderEmptyTileStoreProducesBlankMapWithCenterMarker(t *testing.T) {
	result, err := Render(context.Background(), emptyTileSource{}, 43.6446, -79.3849, 13, 80, 24, 0.6, false)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	lines := strings.Split(result.Text, "\n")
	if len(lines) != 24 {
		t.Fatalf("lines = %d, want 24", len(lines))
	}
	for i, line := range lines {
		if len([]rune(line)) != 80 {
			t.Errorf("line %d has %d runes, want 80", i, len([]rune(line)))
		}
	}

	centerRow := []rune(lines[24/2])
	if centerRow[80/2] != '@' {
		t.Errorf("center cell = %q, want '@'", centerRow[80/2])
	}

	for y, line := range lines {
		for x, r := range []rune(line) {
			if x == 80/2 && y == 24/2 {
				continue
			}
			if r != ' ' {
				t.Errorf("expected blank map aside from center marker, found %q at (%d,%d)", r, x, y)
			}
		}
	}
}

type singleTileSource struct {
	tile vectortile.Tile
}

func (s singleTileSource) GetDecodedTile(ctx context.Context, z, x, y int) (vectortile.Tile, error) {
	return s.tile, nil
}

func TestRenderDrawsRoadLine(t *testing.T) {
	feat := vectortile.Feature{
		Geometry: vectortile.Geometry{
			Type: vectortile.GeomLineString,
			Lines: []vectortile.Ring{
				{{X: 0, Y: 0}, {X: 4096, Y: 4096}},
			},
		},
		Properties: map[string]vectortile.Value{
			"class": {Kind: vectortile.KindString, StringValue: "residential"},
		},
	}
	tile := vectortile.Tile{
		"road": &vectortile.Layer{Extent: 4096, Features: []vectortile.Feature{feat}},
	}

	result, err := Render(context.Background(), singleTileSource{tile: tile}, 0, 0, 0, 40, 20, 0.6, false)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	found := false
	for _, r := range result.Text {
		if r == '.' {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected road glyph '.' somewhere in rendered output, got:\n%s", result.Text)
	}
}

func TestSimplifyPointsKeepsEndpointsAboveThreshold(t *testing.T) {
	n := MaxGeomPoints*2 + 7
	ring := make(vectortile.Ring, n)
	for i := range ring {
		ring[i] = vectortile.Point{X: int32(i), Y: int32(i)}
	}

	simplified := simplifyPoints(ring, GeomSimplifyZoom)
	if len(simplified) > MaxGeomPoints+2 {
		t.Errorf("simplified length = %d, want roughly <= %d", len(simplified), MaxGeomPoints)
	}
	if simplified[0] != ring[0] {
		t.Errorf("first point changed: %+v vs %+v", simplified[0], ring[0])
	}
	if simplified[len(simplified)-1] != ring[n-1] {
		t.Errorf("last point not preserved: %+v vs %+v", simplified[len(simplified)-1], ring[n-1])
	}
}

func TestSimplifyPointsUntouchedBelowZoomOrCount(t *testing.T) {
	ring := vectortile.Ring{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}
	if got := simplifyPoints(ring, GeomSimplifyZoom); len(got) != len(ring) {
		t.Errorf("short ring should be untouched, got len %d", len(got))
	}

	long := make(vectortile.Ring, MaxGeomPoints+50)
	if got := simplifyPoints(long, GeomSimplifyZoom-1); len(got) != len(long) {
		t.Errorf("below simplify zoom should be untouched, got len %d want %d", len(got), len(long))
	}
}

func TestPlaceStreetLabelsDedupesByName(t *testing.T) {
	width, height := 60, 20
	fb := raster.New(width, height, ' ')

	candidates := []labelCandidate{
		{priority: 6, sy: 5, sx: 10, text: "Main St"},
		{priority: 6, sy: 8, sx: 30, text: "Main St"},
		{priority: 6, sy: 12, sx: 45, text: "Main St"},
	}

	placeStreetLabels(fb, width, height, candidates)

	occurrences := 0
	for y := 0; y < height; y++ {
		if strings.Contains(fb.GetRow(y), "Main St") {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Errorf("expected \"Main St\" placed exactly once, found on %d rows", occurrences)
	}
}

func TestPlaceStreetLabelsRejectsBorderTouching(t *testing.T) {
	width, height := 30, 10
	fb := raster.New(width, height, ' ')

	candidates := []labelCandidate{
		{priority: 0, sy: 0, sx: 15, text: "Edge Ave"},      // top border row
		{priority: 0, sy: height - 1, sx: 15, text: "Edge Ave 2"}, // bottom border row
	}
	placeStreetLabels(fb, width, height, candidates)

	for y := 0; y < height; y++ {
		row := fb.GetRow(y)
		if strings.Contains(row, "Edge") {
			t.Errorf("border-touching label should have been rejected, found on row %d: %q", y, row)
		}
	}
}

func TestNormalizeLabelTextTruncatesAndStripsNonASCII(t *testing.T) {
	got := normalizeLabelText("Avenue   of the  Républiqueeeeeeeeee")
	if len([]rune(got)) > MaxLabelLen {
		t.Errorf("normalized text exceeds MaxLabelLen: %q (%d runes)", got, len([]rune(got)))
	}
	if strings.Contains(got, "  ") {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
	for _, r := range got {
		if r > 127 {
			t.Errorf("expected ASCII-only output, found %q in %q", r, got)
		}
	}
}

func TestRenderClampsOutOfRangeDimensions(t *testing.T) {
	result, err := Render(context.Background(), emptyTileSource{}, 0, 0, 5, 1, 1, 100, false)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if result.Width != MinWidth || result.Height != MinHeight {
		t.Errorf("expected dimensions clamped to minimums, got %dx%d", result.Width, result.Height)
	}
	if result.CellAspect != MaxCellAspect {
		t.Errorf("cell aspect = %v, want clamp to %v", result.CellAspect, MaxCellAspect)
	}
}
