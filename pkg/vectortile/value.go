package vectortile

// ValueKind discriminates the variant stored in a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindFloat32
	KindFloat64
	KindInt64
	KindUint64
	KindSint64
	KindBool
)

// Value is the tagged variant used for MVT layer property values. Only the
// string variant is read by the renderer (street names); the rest are kept
// for completeness and debugging.
type Value struct {
	Kind ValueKind

	StringValue  string
	Float32Value float32
	Float64Value float64
	Int64Value   int64
	Uint64Value  uint64
	Sint64Value  int64
	BoolValue    bool
}

// AsString returns the string variant, if that's what this Value holds.
func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.StringValue, true
	}
	return "", false
}

// Value field numbers (tile.proto message Value).
const (
	fieldValueString  = 1
	fieldValueFloat   = 2
	fieldValueDouble  = 3
	fieldValueInt     = 4
	fieldValueUint    = 5
	fieldValueSint    = 6
	fieldValueBool    = 7
)

// decodeValue parses a Value submessage; when several variant fields are
// present, the first recognized one in field order (string, float, double,
// int, uint, sint, bool) wins.
func decodeValue(buf []byte) (Value, error) {
	var v Value
	kept := 0 // field number of the variant held in v; 0 while none is
	fields, err := parseFields(buf)
	for _, f := range fields {
		if kept != 0 && f.Num >= kept {
			continue
		}
		switch f.Num {
		case fieldValueString:
			if f.WireType == wireLengthDelimited {
				v.Kind = KindString
				v.StringValue = string(f.Bytes)
				kept = f.Num
			}
		case fieldValueFloat:
			if f.WireType == wireFixed32 {
				v.Kind = KindFloat32
				v.Float32Value = fixed32ToFloat32(f.Fixed32)
				kept = f.Num
			}
		case fieldValueDouble:
			if f.WireType == wireFixed64 {
				v.Kind = KindFloat64
				v.Float64Value = fixed64ToFloat64(f.Fixed64)
				kept = f.Num
			}
		case fieldValueInt:
			if f.WireType == wireVarint {
				v.Kind = KindInt64
				v.Int64Value = int64(f.Varint)
				kept = f.Num
			}
		case fieldValueUint:
			if f.WireType == wireVarint {
				v.Kind = KindUint64
				v.Uint64Value = f.Varint
				kept = f.Num
			}
		case fieldValueSint:
			if f.WireType == wireVarint {
				v.Kind = KindSint64
				v.Sint64Value = zigzagDecode(f.Varint)
				kept = f.Num
			}
		case fieldValueBool:
			if f.WireType == wireVarint {
				v.Kind = KindBool
				v.BoolValue = f.Varint != 0
				kept = f.Num
			}
		}
	}
	return v, err
}
