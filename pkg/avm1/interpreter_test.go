package avm1

import (
	"testing"

	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

func TestInterpretArithmetic(t *testing.T) {
	tests := []struct {
		name string
		prog func(b *asm) *asm
		want float64
	}{
		{"add", func(b *asm) *asm { return b.pushF64(2).pushF64(3).op(opAdd2) }, 5},
		{"subtract", func(b *asm) *asm { return b.pushF64(10).pushF64(4).op(opSubtract) }, 6},
		{"multiply", func(b *asm) *asm { return b.pushF64(6).pushF64(7).op(opMultiply) }, 42},
		{"divide", func(b *asm) *asm { return b.pushF64(9).pushF64(2).op(opDivide) }, 4.5},
		{"modulo", func(b *asm) *asm { return b.pushF64(7).pushF64(3).op(opModulo) }, 1},
		{"increment", func(b *asm) *asm { return b.pushF64(41).op(opIncrement) }, 42},
		{"decrement", func(b *asm) *asm { return b.pushF64(43).op(opDecrement) }, 42},
		{"toInteger", func(b *asm) *asm { return b.pushF64(3.9).op(opToInteger) }, 3},
		{"bitAnd", func(b *asm) *asm { return b.pushInt(0xFF).pushInt(0x0F).op(opBitAnd) }, 15},
		{"bitOr", func(b *asm) *asm { return b.pushInt(0xF0).pushInt(0x0F).op(opBitOr) }, 255},
		{"bitXor", func(b *asm) *asm { return b.pushInt(0xFF).pushInt(0x0F).op(opBitXor) }, 240},
		{"lshift", func(b *asm) *asm { return b.pushInt(1).pushInt(4).op(opBitLShift) }, 16},
		{"rshift", func(b *asm) *asm { return b.pushInt(-8).pushInt(1).op(opBitRShift) }, -4},
		{"urshift", func(b *asm) *asm { return b.pushInt(-1).pushInt(28).op(opBitURShift) }, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, a, _ := testVM(7)
			b := (&asm{}).pushStr("r")
			prog := tt.prog(b).op(opSetVariable).done()
			got := runAndGet(a, prog, "r")
			if got.CoerceToF64(a) != tt.want {
				t.Errorf("result = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdd2StringBias(t *testing.T) {
	_, a, _ := testVM(7)
	prog := (&asm{}).pushStr("r").pushStr("1").pushF64(2).op(opAdd2).op(opSetVariable).done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToString(a).ToUTF8() != "12" {
		t.Errorf("\"1\" + 2 = %v, want \"12\"", got)
	}
}

func TestInterpretBranches(t *testing.T) {
	taken := (&asm{}).pushStr("r").pushStr("yes").op(opSetVariable).done()
	skipped := (&asm{}).pushStr("r").pushStr("no").op(opSetVariable).buf

	for _, cond := range []bool{true, false} {
		_, a, _ := testVM(7)
		b := (&asm{}).pushBool(cond)
		// A true condition branches past the "no" arm and its jump.
		b.action(opIf, u16le(uint16(len(skipped)+5))...)
		b.raw(skipped)
		b.action(opJump, u16le(uint16(len(taken)))...)
		b.raw(taken)
		got := runAndGet(a, b.buf, "r")
		want := "no"
		if cond {
			want = "yes"
		}
		if got.CoerceToString(a).ToUTF8() != want {
			t.Errorf("cond=%v: r = %v, want %q", cond, got, want)
		}
	}
}

func TestInterpretObjectLiteralAndMembers(t *testing.T) {
	_, a, _ := testVM(7)
	// r = {score: 7}.score
	prog := (&asm{}).
		pushStr("r").
		pushStr("score").pushF64(7).pushInt(1).op(opInitObject).
		pushStr("score").op(opGetMember).
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 7 {
		t.Errorf("member read = %v", got)
	}
}

func TestInterpretArrayLiteral(t *testing.T) {
	_, a, _ := testVM(7)
	// r = [10, 20].length; elements push in reverse order.
	prog := (&asm{}).
		pushStr("r").
		pushF64(20).pushF64(10).pushInt(2).op(opInitArray).
		pushStr("length").op(opGetMember).
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 2 {
		t.Errorf("array length = %v", got)
	}
}

func TestDefineFunctionAndCall(t *testing.T) {
	_, a, _ := testVM(7)

	body := (&asm{}).
		pushStr("a").op(opGetVariable).
		pushStr("b").op(opGetVariable).
		op(opAdd2).
		op(opReturn).buf

	payload := append([]byte("add"), 0)
	payload = append(payload, u16le(2)...)
	payload = append(payload, append([]byte("a"), 0)...)
	payload = append(payload, append([]byte("b"), 0)...)
	payload = append(payload, u16le(uint16(len(body)))...)

	prog := (&asm{}).
		action(opDefineFunction, payload...).
		raw(body).
		pushStr("r").
		pushF64(4).pushF64(3).pushInt(2).pushStr("add").op(opCallFunction).
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 7 {
		t.Errorf("add(3, 4) = %v", got)
	}
}

func TestDefineFunction2RegisterParams(t *testing.T) {
	_, a, _ := testVM(7)

	// double(x) with x preloaded into register 1.
	body := (&asm{}).
		pushRegister(1).
		pushRegister(1).
		op(opAdd2).
		op(opReturn).buf

	payload := append([]byte("double"), 0)
	payload = append(payload, u16le(1)...) // one parameter
	payload = append(payload, 2)           // register count
	payload = append(payload, u16le(0)...) // flags
	payload = append(payload, 1)           // param register
	payload = append(payload, append([]byte("x"), 0)...)
	payload = append(payload, u16le(uint16(len(body)))...)

	prog := (&asm{}).
		action(opDefineFunction2, payload...).
		raw(body).
		pushStr("r").
		pushF64(21).pushInt(1).pushStr("double").op(opCallFunction).
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 42 {
		t.Errorf("double(21) = %v", got)
	}
}

func TestConstructorViaNewObject(t *testing.T) {
	_, a, _ := testVM(7)

	// function Point(v) { this.x = v }
	body := (&asm{}).
		pushStr("this").op(opGetVariable).
		pushStr("x").
		pushStr("v").op(opGetVariable).
		op(opSetMember).buf

	payload := append([]byte("Point"), 0)
	payload = append(payload, u16le(1)...)
	payload = append(payload, append([]byte("v"), 0)...)
	payload = append(payload, u16le(uint16(len(body)))...)

	prog := (&asm{}).
		action(opDefineFunction, payload...).
		raw(body).
		pushStr("r").
		pushF64(5).pushInt(1).pushStr("Point").op(opNewObject).
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.Kind() != KindObject {
		t.Fatalf("new Point(5) = %v", got)
	}
	x, _ := Get(a, got.AsObject(), name("x"))
	if x.CoerceToF64(a) != 5 {
		t.Errorf("instance.x = %v", x)
	}
}

func TestTryCatchFinally(t *testing.T) {
	_, a, _ := testVM(7)

	tryBody := (&asm{}).pushStr("boom").op(opThrow).buf
	catchBody := (&asm{}).
		pushStr("caught").
		pushStr("e").op(opGetVariable).
		op(opSetVariable).buf
	finallyBody := (&asm{}).pushStr("cleaned").pushBool(true).op(opSetVariable).buf

	payload := []byte{0x03} // catch block + finally block
	payload = append(payload, u16le(uint16(len(tryBody)))...)
	payload = append(payload, u16le(uint16(len(catchBody)))...)
	payload = append(payload, u16le(uint16(len(finallyBody)))...)
	payload = append(payload, append([]byte("e"), 0)...)

	prog := (&asm{}).
		action(opTry, payload...).
		raw(tryBody).
		raw(catchBody).
		raw(finallyBody).
		done()
	if err := interpret(a, prog); err != nil {
		t.Fatalf("caught throw must not escape: %v", err)
	}
	caught, _ := a.Scope().Resolve(a, name("caught"))
	if caught.CoerceToString(a).ToUTF8() != "boom" {
		t.Errorf("caught = %v", caught)
	}
	cleaned, _ := a.Scope().Resolve(a, name("cleaned"))
	if !cleaned.CoerceToBool(a) {
		t.Error("finally clause did not run")
	}
}

func TestUncaughtThrowIsContained(t *testing.T) {
	avm, _, log := testVM(7)
	prog := (&asm{}).pushStr("boom").op(opThrow).done()
	avm.RunActionBuffer("[test]", nil, prog)
	if len(log.Warnings) == 0 {
		t.Error("uncaught thrown value should be logged, not fatal")
	}
}

func TestWithScope(t *testing.T) {
	_, a, _ := testVM(7)

	withBody := (&asm{}).
		pushStr("r").
		pushStr("score").op(opGetVariable).
		op(opSetVariable).buf

	prog := (&asm{}).
		pushStr("score").pushF64(7).pushInt(1).op(opInitObject).
		action(opWith, u16le(uint16(len(withBody)))...).
		raw(withBody).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 7 {
		t.Errorf("with-scope read = %v", got)
	}
}

func TestConstantPoolPush(t *testing.T) {
	_, a, _ := testVM(7)

	pool := append(u16le(2), append([]byte("first"), 0)...)
	pool = append(pool, append([]byte("second"), 0)...)

	prog := (&asm{}).
		action(opConstantPool, pool...).
		pushStr("r").
		action(opPush, 0x08, 1). // constant8 index 1
		op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToString(a).ToUTF8() != "second" {
		t.Errorf("constant push = %v", got)
	}
}

func TestGotoFrameAction(t *testing.T) {
	stage := display.NewStage(550, 400)
	root := display.NewMovieClip("", 0, 5)
	stage.SetLevel(0, root)
	ctx := &Context{
		Arena:    gc.NewArena(gc.Options{}),
		Stage:    stage,
		Log:      &host.CaptureLog{},
		Clock:    &host.FixedClock{},
		Interner: wstr.NewInterner(1024),
	}
	avm := NewAvm1(ctx, Options{SwfVersion: 7}, nil)
	boot := avm.NewActivation("[bind]", nil)
	avm.BindClip(boot, root)

	prog := (&asm{}).action(opGotoFrame, u16le(2)...).done()
	avm.RunActionBuffer("[test]", root, prog)

	// The payload frame is zero-based.
	if root.CurrentFrame() != 3 {
		t.Errorf("currentFrame = %d, want 3", root.CurrentFrame())
	}
	if root.Playing() {
		t.Error("gotoFrame must leave the clip stopped")
	}
}

func TestTraceAction(t *testing.T) {
	avm, _, log := testVM(7)
	prog := (&asm{}).pushStr("hello").op(opTrace).done()
	avm.RunActionBuffer("[test]", nil, prog)
	if len(log.Traces) != 1 || log.Traces[0] != "hello" {
		t.Errorf("traces = %v", log.Traces)
	}
}

func TestPathVariableAcrossClips(t *testing.T) {
	_, a, _ := testVM(7)
	root := a.Ctx().Stage.Root()
	child := display.NewMovieClip("hero", 1, 1)
	root.AddChild(child)
	a.Avm().BindClip(a, child)

	prog := (&asm{}).
		pushStr("hero.hp").pushF64(100).op(opSetVariable).
		pushStr("r").pushStr("hero.hp").op(opGetVariable).op(opSetVariable).
		done()
	got := runAndGet(a, prog, "r")
	if got.CoerceToF64(a) != 100 {
		t.Errorf("path variable = %v", got)
	}

	heroObj, _ := child.ScriptObject().(Object)
	hp, _ := Get(a, heroObj, name("hp"))
	if hp.CoerceToF64(a) != 100 {
		t.Errorf("hp stored on clip = %v", hp)
	}
}
