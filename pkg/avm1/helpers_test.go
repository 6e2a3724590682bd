package avm1

import (
	"encoding/binary"
	"math"

	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// testVM boots a bare VM (no builtin library) with a one-clip stage.
func testVM(version uint8) (*Avm1, *Activation, *host.CaptureLog) {
	stage := display.NewStage(550, 400)
	root := display.NewMovieClip("", 0, 1)
	stage.SetLevel(0, root)
	log := &host.CaptureLog{}
	ctx := &Context{
		Arena:    gc.NewArena(gc.Options{}),
		Stage:    stage,
		Log:      log,
		Clock:    &host.FixedClock{},
		Interner: wstr.NewInterner(1024),
	}
	avm := NewAvm1(ctx, Options{SwfVersion: version}, nil)
	boot := avm.NewActivation("[bind]", nil)
	avm.BindClip(boot, root)
	a := avm.NewActivation("[test]", root)
	return avm, a, log
}

func name(s string) wstr.WStr { return wstr.FromUTF8(s) }

// asm assembles action buffers for interpreter tests.
type asm struct {
	buf []byte
}

func (b *asm) op(code byte) *asm {
	b.buf = append(b.buf, code)
	return b
}

func (b *asm) action(code byte, payload ...byte) *asm {
	b.buf = append(b.buf, code)
	var size [2]byte
	binary.LittleEndian.PutUint16(size[:], uint16(len(payload)))
	b.buf = append(b.buf, size[:]...)
	b.buf = append(b.buf, payload...)
	return b
}

// raw appends bytes with no framing, used for function bodies that
// follow their defining instruction.
func (b *asm) raw(data []byte) *asm {
	b.buf = append(b.buf, data...)
	return b
}

func (b *asm) pushStr(s string) *asm {
	payload := append([]byte{0}, []byte(s)...)
	payload = append(payload, 0)
	return b.action(opPush, payload...)
}

func (b *asm) pushF64(f float64) *asm {
	bits := math.Float64bits(f)
	payload := make([]byte, 9)
	payload[0] = 6
	binary.LittleEndian.PutUint32(payload[1:], uint32(bits>>32))
	binary.LittleEndian.PutUint32(payload[5:], uint32(bits))
	return b.action(opPush, payload...)
}

func (b *asm) pushInt(i int32) *asm {
	payload := make([]byte, 5)
	payload[0] = 7
	binary.LittleEndian.PutUint32(payload[1:], uint32(i))
	return b.action(opPush, payload...)
}

func (b *asm) pushBool(v bool) *asm {
	flag := byte(0)
	if v {
		flag = 1
	}
	return b.action(opPush, 0x05, flag)
}

func (b *asm) pushUndefined() *asm { return b.action(opPush, 0x03) }

func (b *asm) pushRegister(reg byte) *asm { return b.action(opPush, 0x04, reg) }

func (b *asm) done() []byte {
	return append(b.buf, opEnd)
}

func u16le(v uint16) []byte {
	var out [2]byte
	binary.LittleEndian.PutUint16(out[:], v)
	return out[:]
}

// run assembles and executes at top level, then reads a global back.
func runAndGet(a *Activation, data []byte, varName string) Value {
	if err := interpret(a, data); err != nil {
		return Undefined
	}
	v, _ := a.Scope().Resolve(a, name(varName))
	return v
}
