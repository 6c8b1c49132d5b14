package vectortile

// GeometryType mirrors the MVT Feature.type enum, plus Unknown for the zero
// value absent from any tile.
type GeometryType int

const (
	GeomUnknown GeometryType = iota
	GeomPoint
	GeomLineString
	GeomPolygon
)

// Point is a coordinate in tile-local units (0..extent).
type Point struct {
	X, Y int32
}

// Ring is a bare sequence of points: one line, or one polygon ring.
type Ring []Point

// Polygon is an exterior ring followed by zero or more hole rings.
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// Geometry is the decoded, tagged-variant geometry of one feature. Only the
// field matching Type is populated.
type Geometry struct {
	Type GeometryType

	Points    []Point    // GeomPoint: one or more points (MultiPoint when >1)
	Lines     []Ring     // GeomLineString: one or more independent lines
	Polygons  []Polygon  // GeomPolygon: one or more polygons (MultiPolygon when >1)
}

// Geometry command ids (tile.proto's packed Feature.geometry command stream).
const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// decodeRings replays the MoveTo/LineTo/ClosePath command stream into raw
// point rings, without regard to geometry type: a MoveTo starts a new ring,
// LineTo appends to the current one, ClosePath closes it by repeating its
// first point. Truncated parameter pairs end the stream at the last
// complete point rather than erroring, matching how a decoder should cope
// with a feature whose geometry was clipped by an encoder bug.
func decodeRings(commands []uint64, yCoordDown bool) []Ring {
	var rings []Ring
	var current Ring
	var cursorX, cursorY int32

	idx := 0
	for idx < len(commands) {
		cmdInt := commands[idx]
		idx++
		cmdID := cmdInt & 0x7
		cmdCount := int(cmdInt >> 3)

		switch cmdID {
		case cmdMoveTo:
			if len(current) > 0 {
				rings = append(rings, current)
				current = nil
			}
			for i := 0; i < cmdCount; i++ {
				if idx+1 >= len(commands) {
					idx = len(commands)
					break
				}
				dx := zigzagDecode(commands[idx])
				dy := zigzagDecode(commands[idx+1])
				idx += 2
				cursorX += int32(dx)
				cursorY += int32(dy)
				current = append(current, pointFor(cursorX, cursorY, yCoordDown))
			}

		case cmdLineTo:
			for i := 0; i < cmdCount; i++ {
				if idx+1 >= len(commands) {
					idx = len(commands)
					break
				}
				dx := zigzagDecode(commands[idx])
				dy := zigzagDecode(commands[idx+1])
				idx += 2
				cursorX += int32(dx)
				cursorY += int32(dy)
				current = append(current, pointFor(cursorX, cursorY, yCoordDown))
			}

		case cmdClosePath:
			if len(current) > 0 {
				current = append(current, current[0])
				rings = append(rings, current)
				current = nil
			}

		default:
			idx = len(commands)
		}
	}
	if len(current) > 0 {
		rings = append(rings, current)
	}
	return rings
}

func pointFor(x, y int32, yCoordDown bool) Point {
	if yCoordDown {
		return Point{X: x, Y: y}
	}
	return Point{X: x, Y: -y}
}

// signedArea returns the signed area of a ring via the shoelace formula
// (half the cross-product sum). A non-negative area marks an exterior ring; negative marks a
// hole belonging to the most recently seen exterior ring.
func signedArea(ring Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += float64(ring[i].X)*float64(ring[j].Y) - float64(ring[j].X)*float64(ring[i].Y)
	}
	return sum / 2
}

// decodeGeometry turns a command stream plus its declared Feature.type into
// the tagged Geometry variant.
func decodeGeometry(commands []uint64, geomType GeometryType, yCoordDown bool) Geometry {
	rings := decodeRings(commands, yCoordDown)

	switch geomType {
	case GeomPoint:
		var pts []Point
		for _, r := range rings {
			pts = append(pts, r...)
		}
		return Geometry{Type: GeomPoint, Points: pts}

	case GeomLineString:
		return Geometry{Type: GeomLineString, Lines: rings}

	case GeomPolygon:
		var polygons []Polygon
		for _, r := range rings {
			if signedArea(r) >= 0 || len(polygons) == 0 {
				polygons = append(polygons, Polygon{Exterior: r})
			} else {
				last := &polygons[len(polygons)-1]
				last.Holes = append(last.Holes, r)
			}
		}
		return Geometry{Type: GeomPolygon, Polygons: polygons}

	default:
		return Geometry{Type: GeomUnknown}
	}
}
