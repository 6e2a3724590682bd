package avm1

import (
	"encoding/binary"
	"math"

	"lantern/pkg/wstr"
)

// Action opcodes. Values at or above 0x80 carry a u16 payload length.
const (
	opEnd            = 0x00
	opNextFrame      = 0x04
	opPrevFrame      = 0x05
	opPlay           = 0x06
	opStop           = 0x07
	opToggleQuality  = 0x08
	opStopSounds     = 0x09
	opAdd            = 0x0A
	opSubtract       = 0x0B
	opMultiply       = 0x0C
	opDivide         = 0x0D
	opOldEquals      = 0x0E
	opOldLess        = 0x0F
	opAnd            = 0x10
	opOr             = 0x11
	opNot            = 0x12
	opStringEquals   = 0x13
	opStringLength   = 0x14
	opStringExtract  = 0x15
	opPop            = 0x17
	opToInteger      = 0x18
	opGetVariable    = 0x1C
	opSetVariable    = 0x1D
	opSetTarget2     = 0x20
	opStringAdd      = 0x21
	opGetProperty    = 0x22
	opSetProperty    = 0x23
	opCloneSprite    = 0x24
	opRemoveSprite   = 0x25
	opTrace          = 0x26
	opStartDrag      = 0x27
	opEndDrag        = 0x28
	opStringLess     = 0x29
	opThrow          = 0x2A
	opCastOp         = 0x2B
	opImplementsOp   = 0x2C
	opRandomNumber   = 0x30
	opMBStringLength = 0x31
	opCharToAscii    = 0x32
	opAsciiToChar    = 0x33
	opGetTime        = 0x34
	opMBStringExtract = 0x35
	opMBCharToAscii  = 0x36
	opMBAsciiToChar  = 0x37
	opDelete         = 0x3A
	opDelete2        = 0x3B
	opDefineLocal    = 0x3C
	opCallFunction   = 0x3D
	opReturn         = 0x3E
	opModulo         = 0x3F
	opNewObject      = 0x40
	opDefineLocal2   = 0x41
	opInitArray      = 0x42
	opInitObject     = 0x43
	opTypeOf         = 0x44
	opTargetPath     = 0x45
	opEnumerate      = 0x46
	opAdd2           = 0x47
	opLess2          = 0x48
	opEquals2        = 0x49
	opToNumber       = 0x4A
	opToString       = 0x4B
	opPushDuplicate  = 0x4C
	opStackSwap      = 0x4D
	opGetMember      = 0x4E
	opSetMember      = 0x4F
	opIncrement      = 0x50
	opDecrement      = 0x51
	opCallMethod     = 0x52
	opNewMethod      = 0x53
	opInstanceOf     = 0x54
	opEnumerate2     = 0x55
	opBitAnd         = 0x60
	opBitOr          = 0x61
	opBitXor         = 0x62
	opBitLShift      = 0x63
	opBitRShift      = 0x64
	opBitURShift     = 0x65
	opStrictEquals   = 0x66
	opGreater        = 0x67
	opStringGreater  = 0x68
	opExtends        = 0x69
	opGotoFrame      = 0x81
	opGetURL         = 0x83
	opStoreRegister  = 0x87
	opConstantPool   = 0x88
	opWaitForFrame   = 0x8A
	opSetTarget      = 0x8B
	opGotoLabel      = 0x8C
	opWaitForFrame2  = 0x8D
	opDefineFunction2 = 0x8E
	opTry            = 0x8F
	opWith           = 0x94
	opPush           = 0x96
	opJump           = 0x99
	opGetURL2        = 0x9A
	opDefineFunction = 0x9B
	opIf             = 0x9D
	opCall           = 0x9E
	opGotoFrame2     = 0x9F
)

// reader walks an action buffer. All multi-byte fields are
// little-endian.
type reader struct {
	data []byte
	pc   int
	swf  uint8
}

func newReader(data []byte, swfVersion uint8) *reader {
	return &reader{data: data, swf: swfVersion}
}

func (r *reader) done() bool { return r.pc >= len(r.data) }

func (r *reader) u8() uint8 {
	if r.pc >= len(r.data) {
		r.pc++
		return 0
	}
	b := r.data[r.pc]
	r.pc++
	return b
}

func (r *reader) u16() uint16 {
	if r.pc+2 > len(r.data) {
		r.pc = len(r.data) + 1
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pc:])
	r.pc += 2
	return v
}

func (r *reader) s16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	if r.pc+4 > len(r.data) {
		r.pc = len(r.data) + 1
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pc:])
	r.pc += 4
	return v
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) f64() float64 {
	// The push payload stores doubles as two swapped 32-bit words.
	hi := uint64(r.u32())
	lo := uint64(r.u32())
	return math.Float64frombits(hi<<32 | lo)
}

// str reads a null-terminated string, decoding per movie version.
func (r *reader) str() wstr.WStr {
	start := r.pc
	for r.pc < len(r.data) && r.data[r.pc] != 0 {
		r.pc++
	}
	raw := r.data[start:min(r.pc, len(r.data))]
	if r.pc < len(r.data) {
		r.pc++ // consume terminator
	}
	if r.swf >= 6 {
		return wstr.FromUTF8(string(raw))
	}
	return wstr.Decode1252(raw)
}

func (r *reader) bytes(n int) []byte {
	if n < 0 || r.pc+n > len(r.data) {
		r.pc = len(r.data) + 1
		return nil
	}
	out := r.data[r.pc : r.pc+n]
	r.pc += n
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// valueStack is the operand stack; popping when empty yields undefined,
// the forgiving failure model of this VM.
type valueStack struct {
	items []Value
}

func (s *valueStack) push(v Value) { s.items = append(s.items, v) }

func (s *valueStack) pop() Value {
	if len(s.items) == 0 {
		return Undefined
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v
}

func (s *valueStack) peek() Value {
	if len(s.items) == 0 {
		return Undefined
	}
	return s.items[len(s.items)-1]
}

// popArgs pops a count then that many values, in call order.
func (s *valueStack) popArgs(a *Activation) []Value {
	count := int(s.pop().CoerceToI32(a))
	if count < 0 {
		count = 0
	}
	if count > len(s.items) {
		count = len(s.items)
	}
	args := make([]Value, count)
	for i := 0; i < count; i++ {
		args[i] = s.pop()
	}
	return args
}
