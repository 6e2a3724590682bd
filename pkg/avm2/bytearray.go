package avm2

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"

	"lantern/pkg/amf"
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// Endianness of multi-byte ByteArray accesses.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

// CompressionFormat selects the compress/uncompress codec.
type CompressionFormat uint8

const (
	CompressZlib CompressionFormat = iota
	CompressDeflate
)

// ByteArrayData is the native payload of a ByteArray object: a growable
// buffer with a read/write cursor and selectable endianness. A domain
// adopting a ByteArray as application memory reads the same buffer the
// script writes.
type ByteArrayData struct {
	data     []byte
	position int
	endian   Endian
	domain   *Domain // set while serving as domain memory
}

// NewByteArrayData returns an empty big-endian buffer, the published
// default.
func NewByteArrayData() *ByteArrayData {
	return &ByteArrayData{}
}

// NewByteArrayObject builds the script object around a fresh buffer.
func NewByteArrayObject(a *Activation) Object {
	avm := a.Avm()
	obj := NewScriptObject(a, avm.classes["ByteArray"], avm.prototypes.ByteArray)
	obj.SetNativeData(NewByteArrayData())
	return obj
}

// Bytes exposes the underlying buffer. Domain memory loads read it
// directly.
func (ba *ByteArrayData) Bytes() []byte { return ba.data }

// Len returns the buffer length in bytes.
func (ba *ByteArrayData) Len() int { return len(ba.data) }

// Position returns the cursor.
func (ba *ByteArrayData) Position() int { return ba.position }

// SetPosition moves the cursor; positions beyond the end are legal and
// make the next write grow the buffer.
func (ba *ByteArrayData) SetPosition(p int) {
	if p < 0 {
		p = 0
	}
	ba.position = p
}

// BytesAvailable reports how much remains between the cursor and the
// end.
func (ba *ByteArrayData) BytesAvailable() int {
	if ba.position >= len(ba.data) {
		return 0
	}
	return len(ba.data) - ba.position
}

// Endian returns the current byte order.
func (ba *ByteArrayData) Endian() Endian { return ba.endian }

// SetEndian selects the byte order for subsequent accesses.
func (ba *ByteArrayData) SetEndian(e Endian) { ba.endian = e }

// SetLength grows with zeros or truncates; a truncation pulls the
// cursor back to the new end.
func (ba *ByteArrayData) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	switch {
	case n < len(ba.data):
		ba.data = ba.data[:n]
		if ba.position > n {
			ba.position = n
		}
	case n > len(ba.data):
		ba.data = append(ba.data, make([]byte, n-len(ba.data))...)
	}
	ba.refresh()
}

// Clear empties the buffer and resets the cursor.
func (ba *ByteArrayData) Clear() {
	ba.data = nil
	ba.position = 0
	ba.refresh()
}

func (ba *ByteArrayData) refresh() {
	if ba.domain != nil {
		ba.domain.refreshMemory()
	}
}

func (ba *ByteArrayData) order() binary.ByteOrder {
	if ba.endian == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (ba *ByteArrayData) take(n int) ([]byte, *Error) {
	if ba.position+n > len(ba.data) {
		return nil, EOFError("read of %d bytes at %d exceeds length %d", n, ba.position, len(ba.data))
	}
	out := ba.data[ba.position : ba.position+n]
	ba.position += n
	return out, nil
}

func (ba *ByteArrayData) put(b []byte) {
	end := ba.position + len(b)
	if end > len(ba.data) {
		ba.data = append(ba.data, make([]byte, end-len(ba.data))...)
	}
	copy(ba.data[ba.position:], b)
	ba.position = end
	ba.refresh()
}

// ReadByte reads a signed byte.
func (ba *ByteArrayData) ReadByte() (int8, *Error) {
	b, err := ba.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadUnsignedByte reads an unsigned byte.
func (ba *ByteArrayData) ReadUnsignedByte() (uint8, *Error) {
	b, err := ba.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadShort reads a signed 16-bit integer.
func (ba *ByteArrayData) ReadShort() (int16, *Error) {
	b, err := ba.take(2)
	if err != nil {
		return 0, err
	}
	return int16(ba.order().Uint16(b)), nil
}

// ReadUnsignedShort reads an unsigned 16-bit integer.
func (ba *ByteArrayData) ReadUnsignedShort() (uint16, *Error) {
	b, err := ba.take(2)
	if err != nil {
		return 0, err
	}
	return ba.order().Uint16(b), nil
}

// ReadInt reads a signed 32-bit integer.
func (ba *ByteArrayData) ReadInt() (int32, *Error) {
	b, err := ba.take(4)
	if err != nil {
		return 0, err
	}
	return int32(ba.order().Uint32(b)), nil
}

// ReadUnsignedInt reads an unsigned 32-bit integer.
func (ba *ByteArrayData) ReadUnsignedInt() (uint32, *Error) {
	b, err := ba.take(4)
	if err != nil {
		return 0, err
	}
	return ba.order().Uint32(b), nil
}

// ReadFloat reads a 32-bit float.
func (ba *ByteArrayData) ReadFloat() (float32, *Error) {
	b, err := ba.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(ba.order().Uint32(b)), nil
}

// ReadDouble reads a 64-bit float.
func (ba *ByteArrayData) ReadDouble() (float64, *Error) {
	b, err := ba.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(ba.order().Uint64(b)), nil
}

// ReadBoolean reads one byte as a truth value.
func (ba *ByteArrayData) ReadBoolean() (bool, *Error) {
	b, err := ba.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadUTF reads a length-prefixed UTF-8 string.
func (ba *ByteArrayData) ReadUTF() (wstr.WStr, *Error) {
	n, err := ba.ReadUnsignedShort()
	if err != nil {
		return wstr.Empty, err
	}
	return ba.ReadUTFBytes(int(n))
}

// ReadUTFBytes reads n bytes as UTF-8 text.
func (ba *ByteArrayData) ReadUTFBytes(n int) (wstr.WStr, *Error) {
	b, err := ba.take(n)
	if err != nil {
		return wstr.Empty, err
	}
	return wstr.FromUTF8(string(b)), nil
}

// ReadBytes copies into dst starting at offset; length 0 means the
// rest of the buffer.
func (ba *ByteArrayData) ReadBytes(dst *ByteArrayData, offset, length int) *Error {
	if length == 0 {
		length = ba.BytesAvailable()
	}
	src, err := ba.take(length)
	if err != nil {
		return err
	}
	savedPos := dst.position
	dst.position = offset
	dst.put(src)
	dst.position = savedPos
	return nil
}

// WriteByte appends a byte at the cursor.
func (ba *ByteArrayData) WriteByte(v int8) { ba.put([]byte{byte(v)}) }

// WriteShort writes a 16-bit integer.
func (ba *ByteArrayData) WriteShort(v int16) {
	var b [2]byte
	ba.order().PutUint16(b[:], uint16(v))
	ba.put(b[:])
}

// WriteInt writes a signed 32-bit integer.
func (ba *ByteArrayData) WriteInt(v int32) {
	var b [4]byte
	ba.order().PutUint32(b[:], uint32(v))
	ba.put(b[:])
}

// WriteUnsignedInt writes an unsigned 32-bit integer.
func (ba *ByteArrayData) WriteUnsignedInt(v uint32) {
	var b [4]byte
	ba.order().PutUint32(b[:], v)
	ba.put(b[:])
}

// WriteFloat writes a 32-bit float.
func (ba *ByteArrayData) WriteFloat(v float32) {
	var b [4]byte
	ba.order().PutUint32(b[:], math.Float32bits(v))
	ba.put(b[:])
}

// WriteDouble writes a 64-bit float.
func (ba *ByteArrayData) WriteDouble(v float64) {
	var b [8]byte
	ba.order().PutUint64(b[:], math.Float64bits(v))
	ba.put(b[:])
}

// WriteBoolean writes one byte.
func (ba *ByteArrayData) WriteBoolean(v bool) {
	if v {
		ba.put([]byte{1})
	} else {
		ba.put([]byte{0})
	}
}

// WriteUTF writes a length-prefixed UTF-8 string; strings over 65535
// bytes fail.
func (ba *ByteArrayData) WriteUTF(s wstr.WStr) *Error {
	utf := s.ToUTF8()
	if len(utf) > 0xFFFF {
		return RangeError("string too long for writeUTF")
	}
	ba.WriteShort(int16(uint16(len(utf))))
	ba.put([]byte(utf))
	return nil
}

// WriteUTFBytes writes raw UTF-8 text with no length prefix.
func (ba *ByteArrayData) WriteUTFBytes(s wstr.WStr) {
	ba.put([]byte(s.ToUTF8()))
}

// WriteRaw copies host bytes at the cursor.
func (ba *ByteArrayData) WriteRaw(b []byte) { ba.put(b) }

// WriteBytes copies a slice of src at the cursor; length 0 means all
// of src past offset.
func (ba *ByteArrayData) WriteBytes(src *ByteArrayData, offset, length int) *Error {
	if offset < 0 || offset > len(src.data) {
		return RangeError("offset %d out of range", offset)
	}
	if length == 0 {
		length = len(src.data) - offset
	}
	if offset+length > len(src.data) {
		return RangeError("length %d out of range", length)
	}
	ba.put(src.data[offset : offset+length])
	return nil
}

// WriteObject serializes a script value in AMF at the cursor.
func (ba *ByteArrayData) WriteObject(a *Activation, v Value) *Error {
	av, err := ExportAMF(a, v)
	if err != nil {
		return err
	}
	ba.put(amf.Encode(nil, av))
	return nil
}

// ReadObject deserializes one AMF value from the cursor.
func (ba *ByteArrayData) ReadObject(a *Activation) (Value, *Error) {
	av, rest, err := amf.Decode(ba.data[min(ba.position, len(ba.data)):])
	if err != nil {
		return Undefined, EOFError("malformed object data: %v", err)
	}
	ba.position = len(ba.data) - len(rest)
	return ImportAMF(a, av), nil
}

// Compress replaces the buffer with its compressed form and moves the
// cursor to the end.
func (ba *ByteArrayData) Compress(format CompressionFormat) *Error {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch format {
	case CompressDeflate:
		w, err = flate.NewWriter(&buf, flate.DefaultCompression)
	default:
		w = zlib.NewWriter(&buf)
	}
	if err != nil {
		return IOError("compression failed: %v", err)
	}
	if _, err := w.Write(ba.data); err != nil {
		return IOError("compression failed: %v", err)
	}
	if err := w.Close(); err != nil {
		return IOError("compression failed: %v", err)
	}
	ba.data = buf.Bytes()
	ba.position = len(ba.data)
	ba.refresh()
	return nil
}

// Uncompress replaces the buffer with its decoded form and resets the
// cursor.
func (ba *ByteArrayData) Uncompress(format CompressionFormat) *Error {
	var r io.ReadCloser
	var err error
	switch format {
	case CompressDeflate:
		r = flate.NewReader(bytes.NewReader(ba.data))
	default:
		r, err = zlib.NewReader(bytes.NewReader(ba.data))
	}
	if err != nil {
		return IOError("invalid compressed data: %v", err)
	}
	out, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return IOError("invalid compressed data: %v", err)
	}
	ba.data = out
	ba.position = 0
	ba.refresh()
	return nil
}

// ToString decodes the whole buffer as UTF-8, ignoring the cursor.
func (ba *ByteArrayData) ToString() wstr.WStr {
	return wstr.FromUTF8(string(ba.data))
}

// ByteAt serves indexed reads; out-of-range is a miss.
func (ba *ByteArrayData) ByteAt(i int) (Value, bool) {
	if i < 0 || i >= len(ba.data) {
		return Undefined, false
	}
	return Integer(int32(ba.data[i])), true
}

// SetByteAt serves indexed writes, growing as needed.
func (ba *ByteArrayData) SetByteAt(i int, v byte) {
	if i < 0 {
		return
	}
	if i >= len(ba.data) {
		ba.data = append(ba.data, make([]byte, i+1-len(ba.data))...)
	}
	ba.data[i] = v
	ba.refresh()
}

// ExportAMF lowers a script value into the serialization model.
// Object graphs export their dynamic enumerable properties; cycles are
// cut by depth.
func ExportAMF(a *Activation, v Value) (amf.Value, *Error) {
	return exportAMF(a, v, 0)
}

func exportAMF(a *Activation, v Value, depth int) (amf.Value, *Error) {
	if depth > 32 {
		return amf.Undefined, RangeError("object graph too deep to serialize")
	}
	switch v.Kind() {
	case KindUndefined:
		return amf.Undefined, nil
	case KindNull:
		return amf.Null, nil
	case KindBool:
		return amf.Bool(v.AsBoolRaw()), nil
	case KindInt, KindUint, KindNumber:
		return amf.Number(v.AsNumberRaw()), nil
	case KindString:
		return amf.String(v.AsString().ToUTF8()), nil
	}
	obj := v.AsObject()
	if arr := asArray(obj); arr != nil {
		items := make([]amf.Value, 0, arr.Length())
		for i := 0; i < arr.Length(); i++ {
			elem, _ := arr.Get(i)
			av, err := exportAMF(a, elem, depth+1)
			if err != nil {
				return amf.Undefined, err
			}
			items = append(items, av)
		}
		return amf.List(items), nil
	}
	out := amf.NewObject()
	for _, key := range obj.Base().DynamicKeys() {
		member, _ := obj.Base().GetDynamic(key)
		av, err := exportAMF(a, member, depth+1)
		if err != nil {
			return amf.Undefined, err
		}
		out.Set(key, av)
	}
	return out, nil
}

// ImportAMF lifts a serialization value back into the script model.
func ImportAMF(a *Activation, av amf.Value) Value {
	switch av.Kind() {
	case amf.KindUndefined:
		return Undefined
	case amf.KindNull:
		return Null
	case amf.KindBool:
		return Bool(av.AsBool())
	case amf.KindNumber, amf.KindDate:
		return Number(av.AsNumber())
	case amf.KindString:
		return Str(av.AsString())
	case amf.KindList:
		items := av.AsList()
		values := make([]Value, len(items))
		for i, item := range items {
			values[i] = ImportAMF(a, item)
		}
		return ObjectValue(NewArrayObject(a, values))
	case amf.KindObject:
		obj := NewScriptObject(a, nil, a.Avm().objectProto())
		for _, key := range av.Keys() {
			member, _ := av.Get(key)
			obj.SetDynamic(key, ImportAMF(a, member))
		}
		return ObjectValue(obj)
	}
	return Undefined
}

var _ gc.Traceable = (*ArrayObject)(nil)
