// Package vectortile decodes Mapbox Vector Tile (MVT) byte streams into
// Go values, by hand, without a generated protobuf schema: a small
// recursive-descent reader over the wire-format primitives (varint,
// length-delimited, fixed32/64) plus the MVT-specific layer/feature/geometry
// layout.
package vectortile

import "errors"

// Feature.type enum values.
const (
	featureTypeUnknown    = 0
	featureTypePoint      = 1
	featureTypeLineString = 2
	featureTypePolygon    = 3
)

// Tile field numbers (tile.proto message Tile).
const fieldTileLayers = 3

// Layer field numbers (tile.proto message Layer).
const (
	fieldLayerName    = 1
	fieldLayerFeature = 2
	fieldLayerKeys    = 3
	fieldLayerValues  = 4
	fieldLayerExtent  = 5
	fieldLayerVersion = 15
)

// Feature field numbers (tile.proto message Feature).
const (
	fieldFeatureID       = 1
	fieldFeatureTags     = 2
	fieldFeatureType     = 3
	fieldFeatureGeometry = 4
)

const defaultExtent = 4096

// Feature is one decoded tile feature: its geometry plus its resolved
// key/value properties.
type Feature struct {
	ID         uint64
	Geometry   Geometry
	Properties map[string]Value
}

// Layer is one named layer of a tile (e.g. "water", "transportation").
type Layer struct {
	Name     string
	Version  uint64
	Extent   uint32
	Features []Feature
}

// Tile is a decoded tile: its layers keyed by name.
type Tile map[string]*Layer

// Options configures Decode.
type Options struct {
	// YCoordDown matches the tile's Y-axis direction to the framebuffer's
	// (Y increasing downward). MVT tiles are authored Y-down already, so
	// this defaults to true; set false only for a source that isn't.
	YCoordDown bool
}

// DefaultOptions is the option set used by the tile store.
func DefaultOptions() Options {
	return Options{YCoordDown: true}
}

// decodeFeature parses one Feature submessage, resolving its packed tag
// pairs against the layer's keys/values tables. A malformed feature (bad
// varint, truncated field, or a type that is absent or not Point/LineString/
// Polygon) is reported via error and is skipped by decodeLayer rather than
// aborting the layer.
func decodeFeature(buf []byte, keys []string, values []Value, yCoordDown bool) (Feature, error) {
	var feat Feature
	var geomType GeometryType = GeomUnknown
	var rawTags []uint64
	var rawGeometry []uint64

	fields, err := parseFields(buf)
	for _, f := range fields {
		switch f.Num {
		case fieldFeatureID:
			if f.WireType == wireVarint {
				feat.ID = f.Varint
			}
		case fieldFeatureTags:
			if f.WireType == wireLengthDelimited {
				tags, tagErr := decodePackedVarints(f.Bytes)
				rawTags = tags
				if tagErr != nil && err == nil {
					err = tagErr
				}
			}
		case fieldFeatureType:
			if f.WireType == wireVarint {
				switch f.Varint {
				case featureTypePoint:
					geomType = GeomPoint
				case featureTypeLineString:
					geomType = GeomLineString
				case featureTypePolygon:
					geomType = GeomPolygon
				default:
					geomType = GeomUnknown
				}
			}
		case fieldFeatureGeometry:
			if f.WireType == wireLengthDelimited {
				geom, geomErr := decodePackedVarints(f.Bytes)
				rawGeometry = geom
				if geomErr != nil && err == nil {
					err = geomErr
				}
			}
		}
	}

	if geomType == GeomUnknown && err == nil {
		err = errors.New("vectortile: unknown feature geometry type")
	}

	feat.Geometry = decodeGeometry(rawGeometry, geomType, yCoordDown)
	feat.Properties = resolveTags(rawTags, keys, values)
	return feat, err
}

// resolveTags pairs up a feature's packed (key_index, value_index) tags
// against the layer's keys/values tables. An out-of-range index is simply
// skipped: it reflects a key or value the layer's tables don't carry, not a
// reason to discard the whole feature.
func resolveTags(tags []uint64, keys []string, values []Value) map[string]Value {
	props := make(map[string]Value, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		ki, vi := int(tags[i]), int(tags[i+1])
		if ki < 0 || ki >= len(keys) || vi < 0 || vi >= len(values) {
			continue
		}
		props[keys[ki]] = values[vi]
	}
	return props
}

// decodeLayer parses one Layer submessage. A failure reading the layer's own
// field stream (not an individual feature) yields whatever was decoded up
// to that point; the Tile-level caller still records it under its name if
// one was read.
func decodeLayer(buf []byte, opts Options) (*Layer, error) {
	layer := &Layer{Extent: defaultExtent}
	var keys []string
	var values []Value
	var featureBufs [][]byte

	fields, err := parseFields(buf)
	for _, f := range fields {
		switch f.Num {
		case fieldLayerName:
			if f.WireType == wireLengthDelimited {
				layer.Name = string(f.Bytes)
			}
		case fieldLayerVersion:
			if f.WireType == wireVarint {
				layer.Version = f.Varint
			}
		case fieldLayerExtent:
			if f.WireType == wireVarint {
				layer.Extent = uint32(f.Varint)
			}
		case fieldLayerKeys:
			if f.WireType == wireLengthDelimited {
				keys = append(keys, string(f.Bytes))
			}
		case fieldLayerValues:
			if f.WireType == wireLengthDelimited {
				v, _ := decodeValue(f.Bytes)
				values = append(values, v)
			}
		case fieldLayerFeature:
			if f.WireType == wireLengthDelimited {
				featureBufs = append(featureBufs, f.Bytes)
			}
		}
	}

	for _, fb := range featureBufs {
		feat, ferr := decodeFeature(fb, keys, values, opts.YCoordDown)
		if ferr != nil {
			continue
		}
		layer.Features = append(layer.Features, feat)
	}

	return layer, err
}

// Decode parses a complete tile payload. Any failure reading the tile's own
// field stream is caught here and yields whatever layers were already
// decoded — an empty map in the common case of a corrupt or truncated
// buffer — rather than propagating an error the caller would have to
// special-case; malformed individual features are already skipped inside
// decodeLayer.
func Decode(data []byte, opts Options) Tile {
	tile := make(Tile)

	fields, _ := parseFields(data)
	for _, f := range fields {
		if f.Num != fieldTileLayers || f.WireType != wireLengthDelimited {
			continue
		}
		layer, _ := decodeLayer(f.Bytes, opts)
		if layer.Name == "" {
			continue
		}
		tile[layer.Name] = layer
	}

	return tile
}
