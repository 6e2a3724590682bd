package amf

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Local shared objects persist as an "Lso" container: a fixed header, the
// object name, then (key, AMF0 value, pad byte) triples until the end of
// the buffer. The layout is reproduced exactly so blobs written by the
// original runtime read back unchanged.

var lsoMagic = []byte{'T', 'C', 'S', 'O', 0x00, 0x04, 0x00, 0x00, 0x00, 0x00}

// EncodeLso serializes the members of root (an object value) as a shared
// object blob named name.
func EncodeLso(name string, root Value) ([]byte, error) {
	if root.Kind() != KindObject {
		return nil, errors.New("amf: shared object root must be an object")
	}
	var body []byte
	body = append(body, lsoMagic...)
	body = binary.BigEndian.AppendUint16(body, uint16(len(name)))
	body = append(body, name...)
	body = append(body, 0, 0, 0, 0) // AMF0 version word
	for _, key := range root.Keys() {
		member, _ := root.Get(key)
		body = appendShortString(body, key)
		body = Encode(body, member)
		body = append(body, 0)
	}

	out := []byte{0x00, 0xBF}
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...), nil
}

// DecodeLso parses a shared object blob, returning its name and members.
func DecodeLso(blob []byte) (string, Value, error) {
	if len(blob) < 6 || blob[0] != 0x00 || blob[1] != 0xBF {
		return "", Undefined, errors.New("amf: bad shared object header")
	}
	bodyLen := int(binary.BigEndian.Uint32(blob[2:]))
	body := blob[6:]
	if len(body) < bodyLen {
		return "", Undefined, ErrTruncated
	}
	body = body[:bodyLen]
	if len(body) < len(lsoMagic) || string(body[:4]) != "TCSO" {
		return "", Undefined, errors.New("amf: bad shared object magic")
	}
	body = body[len(lsoMagic):]

	name, body, err := readShortString(body)
	if err != nil {
		return "", Undefined, err
	}
	if len(body) < 4 {
		return "", Undefined, ErrTruncated
	}
	body = body[4:]

	root := NewObject()
	for len(body) > 0 {
		var key string
		key, body, err = readShortString(body)
		if err != nil {
			return "", Undefined, err
		}
		var member Value
		member, body, err = Decode(body)
		if err != nil {
			return "", Undefined, err
		}
		if len(body) < 1 {
			return "", Undefined, ErrTruncated
		}
		body = body[1:] // pad byte after every member
		root.Set(key, member)
	}
	return name, root, nil
}
