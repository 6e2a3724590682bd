package amf

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// AMF0 type markers, per the published format.
const (
	markerNumber      = 0x00
	markerBool        = 0x01
	markerString      = 0x02
	markerObject      = 0x03
	markerNull        = 0x05
	markerUndefined   = 0x06
	markerEcmaArray   = 0x08
	markerObjectEnd   = 0x09
	markerStrictArray = 0x0A
	markerDate        = 0x0B
	markerLongString  = 0x0C
)

// ErrTruncated reports a buffer that ended inside a value.
var ErrTruncated = errors.New("amf: truncated input")

// Encode appends the AMF0 form of v to dst.
func Encode(dst []byte, v Value) []byte {
	switch v.kind {
	case KindUndefined:
		return append(dst, markerUndefined)
	case KindNull:
		return append(dst, markerNull)
	case KindBool:
		if v.b {
			return append(dst, markerBool, 1)
		}
		return append(dst, markerBool, 0)
	case KindNumber:
		dst = append(dst, markerNumber)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(v.n))
	case KindDate:
		dst = append(dst, markerDate)
		dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(v.n))
		// Timezone field: always written as zero, matching the writer the
		// stored blobs came from.
		return append(dst, 0, 0)
	case KindString:
		if len(v.s) > 0xFFFF {
			dst = append(dst, markerLongString)
			dst = binary.BigEndian.AppendUint32(dst, uint32(len(v.s)))
			return append(dst, v.s...)
		}
		dst = append(dst, markerString)
		return appendShortString(dst, v.s)
	case KindList:
		dst = append(dst, markerStrictArray)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v.list)))
		for _, item := range v.list {
			dst = Encode(dst, item)
		}
		return dst
	case KindObject:
		dst = append(dst, markerObject)
		for _, key := range v.keys {
			member := v.obj[key]
			dst = appendShortString(dst, key)
			dst = Encode(dst, member)
		}
		dst = appendShortString(dst, "")
		return append(dst, markerObjectEnd)
	}
	return append(dst, markerUndefined)
}

func appendShortString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...)
}

// Decode reads one AMF0 value from buf, returning it and the remaining
// bytes.
func Decode(buf []byte) (Value, []byte, error) {
	if len(buf) == 0 {
		return Undefined, nil, ErrTruncated
	}
	marker := buf[0]
	buf = buf[1:]
	switch marker {
	case markerUndefined:
		return Undefined, buf, nil
	case markerNull:
		return Null, buf, nil
	case markerBool:
		if len(buf) < 1 {
			return Undefined, nil, ErrTruncated
		}
		return Bool(buf[0] != 0), buf[1:], nil
	case markerNumber:
		if len(buf) < 8 {
			return Undefined, nil, ErrTruncated
		}
		n := math.Float64frombits(binary.BigEndian.Uint64(buf))
		return Number(n), buf[8:], nil
	case markerDate:
		if len(buf) < 10 {
			return Undefined, nil, ErrTruncated
		}
		n := math.Float64frombits(binary.BigEndian.Uint64(buf))
		return Date(n), buf[10:], nil
	case markerString:
		s, rest, err := readShortString(buf)
		if err != nil {
			return Undefined, nil, err
		}
		return String(s), rest, nil
	case markerLongString:
		if len(buf) < 4 {
			return Undefined, nil, ErrTruncated
		}
		n := int(binary.BigEndian.Uint32(buf))
		buf = buf[4:]
		if len(buf) < n {
			return Undefined, nil, ErrTruncated
		}
		return String(string(buf[:n])), buf[n:], nil
	case markerStrictArray:
		if len(buf) < 4 {
			return Undefined, nil, ErrTruncated
		}
		count := int(binary.BigEndian.Uint32(buf))
		buf = buf[4:]
		items := make([]Value, 0, count)
		for i := 0; i < count; i++ {
			var item Value
			var err error
			item, buf, err = Decode(buf)
			if err != nil {
				return Undefined, nil, err
			}
			items = append(items, item)
		}
		return List(items), buf, nil
	case markerEcmaArray:
		if len(buf) < 4 {
			return Undefined, nil, ErrTruncated
		}
		// The leading count is advisory; pairs terminate at object-end.
		buf = buf[4:]
		return decodePairs(buf)
	case markerObject:
		return decodePairs(buf)
	}
	return Undefined, nil, errors.Errorf("amf: unknown marker 0x%02x", marker)
}

func decodePairs(buf []byte) (Value, []byte, error) {
	obj := NewObject()
	for {
		key, rest, err := readShortString(buf)
		if err != nil {
			return Undefined, nil, err
		}
		buf = rest
		if key == "" {
			if len(buf) < 1 || buf[0] != markerObjectEnd {
				return Undefined, nil, ErrTruncated
			}
			return obj, buf[1:], nil
		}
		var member Value
		member, buf, err = Decode(buf)
		if err != nil {
			return Undefined, nil, err
		}
		obj.Set(key, member)
	}
}

func readShortString(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(buf))
	buf = buf[2:]
	if len(buf) < n {
		return "", nil, ErrTruncated
	}
	return string(buf[:n]), buf[n:], nil
}
