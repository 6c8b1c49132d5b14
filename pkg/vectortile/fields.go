package vectortile

import "math"

// Protobuf wire types used by the tile schema.
const (
	wireVarint          = 0
	wireFixed64         = 1
	wireLengthDelimited = 2
	wireFixed32         = 5
)

// field is one decoded (field number, wire type, value) triple from a
// protobuf message. Only the member matching WireType is meaningful.
type field struct {
	Num      int
	WireType int
	Varint   uint64
	Bytes    []byte
	Fixed32  uint32
	Fixed64  uint64
}

// parseFields walks a protobuf message byte-for-byte, decoding the tag/value
// stream into a flat list of fields. It returns the fields successfully
// parsed before any error, so callers can use a partial result rather than
// discard the whole message on late corruption.
//
// An unrecognized wire type ends parsing gracefully (no error): the message
// is treated as fully consumed up to that point, matching an evolvable wire
// format where a decoder should ignore schema versions it can't interpret
// rather than fail the whole frame.
func parseFields(buf []byte) ([]field, error) {
	fields := make([]field, 0, 8)
	pos := 0
	for pos < len(buf) {
		tag, newPos, err := readVarint(buf, pos)
		if err != nil {
			return fields, err
		}
		pos = newPos

		fieldNum := int(tag >> 3)
		wireType := int(tag & 0x7)

		switch wireType {
		case wireVarint:
			v, newPos, err := readVarint(buf, pos)
			if err != nil {
				return fields, err
			}
			pos = newPos
			fields = append(fields, field{Num: fieldNum, WireType: wireType, Varint: v})

		case wireLengthDelimited:
			length, newPos, err := readVarint(buf, pos)
			if err != nil {
				return fields, err
			}
			pos = newPos
			end := pos + int(length)
			if length > uint64(len(buf)) || end > len(buf) || end < pos {
				return fields, ErrTruncatedVarint
			}
			fields = append(fields, field{Num: fieldNum, WireType: wireType, Bytes: buf[pos:end]})
			pos = end

		case wireFixed32:
			if pos+4 > len(buf) {
				return fields, ErrTruncatedVarint
			}
			v := uint32(buf[pos]) | uint32(buf[pos+1])<<8 | uint32(buf[pos+2])<<16 | uint32(buf[pos+3])<<24
			pos += 4
			fields = append(fields, field{Num: fieldNum, WireType: wireType, Fixed32: v})

		case wireFixed64:
			if pos+8 > len(buf) {
				return fields, ErrTruncatedVarint
			}
			var v uint64
			for i := 0; i < 8; i++ {
				v |= uint64(buf[pos+i]) << (8 * i)
			}
			pos += 8
			fields = append(fields, field{Num: fieldNum, WireType: wireType, Fixed64: v})

		default:
			return fields, nil
		}
	}
	return fields, nil
}

func fixed32ToFloat32(v uint32) float32 {
	return math.Float32frombits(v)
}

func fixed64ToFloat64(v uint64) float64 {
	return math.Float64frombits(v)
}
