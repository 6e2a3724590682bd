package avm2

import (
	"bytes"
	"testing"

	"lantern/pkg/wstr"
)

func TestByteArrayEndian(t *testing.T) {
	ba := NewByteArrayData()
	ba.WriteInt(0x01020304)
	if got := ba.Bytes(); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("big endian bytes %v", got)
	}

	ba = NewByteArrayData()
	ba.SetEndian(LittleEndian)
	ba.WriteInt(0x01020304)
	if got := ba.Bytes(); !bytes.Equal(got, []byte{4, 3, 2, 1}) {
		t.Fatalf("little endian bytes %v", got)
	}
	ba.SetPosition(0)
	v, verr := ba.ReadInt()
	if verr != nil {
		t.Fatalf("ReadInt: %v", verr)
	}
	if v != 0x01020304 {
		t.Fatalf("ReadInt = %#x", v)
	}
}

func TestByteArrayReadPastEnd(t *testing.T) {
	ba := NewByteArrayData()
	ba.WriteByte(1)
	ba.SetPosition(0)
	if _, verr := ba.ReadInt(); verr == nil || verr.Kind != ErrEOF {
		t.Fatalf("ReadInt past end: %v", verr)
	}
}

func TestByteArrayUTFRoundTrip(t *testing.T) {
	ba := NewByteArrayData()
	if verr := ba.WriteUTF(wstr.FromUTF8("héllo")); verr != nil {
		t.Fatalf("WriteUTF: %v", verr)
	}
	ba.SetPosition(0)
	s, verr := ba.ReadUTF()
	if verr != nil {
		t.Fatalf("ReadUTF: %v", verr)
	}
	if s.ToUTF8() != "héllo" {
		t.Fatalf("ReadUTF = %q", s.ToUTF8())
	}
}

func TestByteArrayCompress(t *testing.T) {
	for _, format := range []CompressionFormat{CompressZlib, CompressDeflate} {
		ba := NewByteArrayData()
		payload := bytes.Repeat([]byte("lantern"), 50)
		ba.WriteRaw(payload)
		if verr := ba.Compress(format); verr != nil {
			t.Fatalf("Compress(%v): %v", format, verr)
		}
		if ba.Len() >= len(payload) {
			t.Fatalf("Compress(%v) grew the buffer: %d", format, ba.Len())
		}
		if verr := ba.Uncompress(format); verr != nil {
			t.Fatalf("Uncompress(%v): %v", format, verr)
		}
		if !bytes.Equal(ba.Bytes(), payload) {
			t.Fatalf("round trip mismatch for %v", format)
		}
	}
}

func TestByteArraySetLength(t *testing.T) {
	ba := NewByteArrayData()
	ba.WriteRaw([]byte{1, 2, 3, 4})
	ba.SetLength(2)
	if ba.Len() != 2 {
		t.Fatalf("Len = %d", ba.Len())
	}
	if ba.Position() != 2 {
		t.Fatalf("Position after shrink = %d", ba.Position())
	}
	ba.SetLength(4)
	if !bytes.Equal(ba.Bytes(), []byte{1, 2, 0, 0}) {
		t.Fatalf("grow bytes %v", ba.Bytes())
	}
}

func TestByteArrayAMFRoundTrip(t *testing.T) {
	_, a := testVM()
	ba := NewByteArrayData()
	if verr := ba.WriteObject(a, Number(42)); verr != nil {
		t.Fatalf("WriteObject: %v", verr)
	}
	ba.SetPosition(0)
	v, verr := ba.ReadObject(a)
	if verr != nil {
		t.Fatalf("ReadObject: %v", verr)
	}
	n, err := v.CoerceToNumber(a)
	if err != nil || n != 42 {
		t.Fatalf("ReadObject = %v (%v)", n, err)
	}
}
