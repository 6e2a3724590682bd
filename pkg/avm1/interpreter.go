package avm1

import (
	"math"
	"strings"

	"lantern/pkg/display"
	"lantern/pkg/wstr"
)

// flow tells a block runner how control left the block.
type flow uint8

const (
	flowNormal flow = iota
	flowReturn
)

const interruptStride = 64

// interpret runs a top-level action buffer to completion.
func interpret(a *Activation, data []byte) error {
	if a.registers == nil {
		// Top-level code shares four global registers.
		a.registers = make([]Value, 4)
	}
	stack := &valueStack{}
	_, _, err := execBlock(a, data, stack)
	return err
}

// execBlock is the opcode loop. Nested blocks (with bodies, try
// clauses, called frames) recurse here sharing the operand stack.
func execBlock(a *Activation, data []byte, stack *valueStack) (flow, Value, error) {
	r := newReader(data, a.SwfVersion())
	ops := 0

	for !r.done() {
		ops++
		if ops%interruptStride == 0 {
			if err := a.checkInterrupt(); err != nil {
				return flowNormal, Undefined, err
			}
		}

		op := r.u8()
		if op == opEnd {
			break
		}

		var p *reader
		if op >= 0x80 {
			length := int(r.u16())
			p = newReader(r.bytes(length), a.SwfVersion())
		}

		switch op {

		// Stack and constants.
		case opPush:
			execPush(a, p, stack)
		case opPop:
			stack.pop()
		case opPushDuplicate:
			stack.push(stack.peek())
		case opStackSwap:
			x, y := stack.pop(), stack.pop()
			stack.push(x)
			stack.push(y)
		case opConstantPool:
			count := int(p.u16())
			pool := make([]wstr.WStr, 0, count)
			for i := 0; i < count; i++ {
				pool = append(pool, p.str())
			}
			a.SetConstantPool(pool)
		case opStoreRegister:
			a.SetRegister(int(p.u8()), stack.peek())

		// Control flow.
		case opJump:
			r.pc += int(p.s16())
		case opIf:
			offset := int(p.s16())
			if stack.pop().CoerceToBool(a) {
				r.pc += offset
			}
		case opReturn:
			return flowReturn, stack.pop(), nil
		case opWith:
			size := int(p.u16())
			body := r.bytes(size)
			obj := stack.pop()
			if obj.Kind() == KindObject {
				saved := a.Scope()
				a.SetScope(saved.ChildScope(ScopeWith, obj.AsObject()))
				fl, rv, err := execBlock(a, body, stack)
				a.SetScope(saved)
				if err != nil || fl == flowReturn {
					return fl, rv, err
				}
			}
		case opTry:
			if fl, rv, err := execTry(a, r, p, stack); err != nil || fl == flowReturn {
				return fl, rv, err
			}
		case opThrow:
			return flowNormal, Undefined, ThrownError(stack.pop())
		case opCall:
			execCallFrame(a, stack)

		// Arithmetic.
		case opAdd:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Number(x + b))
		case opSubtract:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Number(x - b))
		case opMultiply:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Number(x * b))
		case opDivide:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			if b == 0 && a.SwfVersion() < 5 {
				stack.push(Str("#ERROR#"))
			} else {
				stack.push(Number(x / b))
			}
		case opModulo:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Number(math.Mod(x, b)))
		case opAdd2:
			right, left := stack.pop(), stack.pop()
			stack.push(add2(a, left, right))
		case opIncrement:
			stack.push(Number(stack.pop().CoerceToF64(a) + 1))
		case opDecrement:
			stack.push(Number(stack.pop().CoerceToF64(a) - 1))
		case opToInteger:
			stack.push(Number(math.Trunc(stack.pop().CoerceToF64(a))))
		case opToNumber:
			stack.push(Number(stack.pop().CoerceToF64(a)))
		case opToString:
			stack.push(String(stack.pop().CoerceToString(a)))

		// Comparison and logic.
		case opOldEquals:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Bool(x == b))
		case opOldLess:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Bool(x < b))
		case opEquals2:
			right, left := stack.pop(), stack.pop()
			stack.push(Bool(AbstractEquals(a, left, right)))
		case opStrictEquals:
			right, left := stack.pop(), stack.pop()
			stack.push(Bool(StrictEquals(left, right)))
		case opLess2:
			right, left := stack.pop(), stack.pop()
			stack.push(AbstractLess(a, left, right))
		case opGreater:
			right, left := stack.pop(), stack.pop()
			stack.push(AbstractLess(a, right, left))
		case opAnd:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Bool(x != 0 && b != 0))
		case opOr:
			b, x := stack.pop().CoerceToF64(a), stack.pop().CoerceToF64(a)
			stack.push(Bool(x != 0 || b != 0))
		case opNot:
			v := stack.pop()
			if a.SwfVersion() >= 5 {
				stack.push(Bool(!v.CoerceToBool(a)))
			} else {
				stack.push(Number(float64(boolToInt(v.CoerceToF64(a) == 0))))
			}

		// Bit operations.
		case opBitAnd:
			b, x := stack.pop().CoerceToI32(a), stack.pop().CoerceToI32(a)
			stack.push(Number(float64(x & b)))
		case opBitOr:
			b, x := stack.pop().CoerceToI32(a), stack.pop().CoerceToI32(a)
			stack.push(Number(float64(x | b)))
		case opBitXor:
			b, x := stack.pop().CoerceToI32(a), stack.pop().CoerceToI32(a)
			stack.push(Number(float64(x ^ b)))
		case opBitLShift:
			shift := uint(stack.pop().CoerceToI32(a)) & 31
			stack.push(Number(float64(stack.pop().CoerceToI32(a) << shift)))
		case opBitRShift:
			shift := uint(stack.pop().CoerceToI32(a)) & 31
			stack.push(Number(float64(stack.pop().CoerceToI32(a) >> shift)))
		case opBitURShift:
			shift := uint(stack.pop().CoerceToI32(a)) & 31
			stack.push(Number(float64(stack.pop().CoerceToU32(a) >> shift)))

		// Strings.
		case opStringAdd:
			b, x := stack.pop().CoerceToString(a), stack.pop().CoerceToString(a)
			stack.push(String(wstr.Concat(x, b)))
		case opStringEquals:
			b, x := stack.pop().CoerceToString(a), stack.pop().CoerceToString(a)
			stack.push(Bool(x.Eq(b)))
		case opStringLess:
			b, x := stack.pop().CoerceToString(a), stack.pop().CoerceToString(a)
			stack.push(Bool(x.Compare(b) < 0))
		case opStringGreater:
			b, x := stack.pop().CoerceToString(a), stack.pop().CoerceToString(a)
			stack.push(Bool(x.Compare(b) > 0))
		case opStringLength, opMBStringLength:
			stack.push(Number(float64(stack.pop().CoerceToString(a).Len())))
		case opStringExtract, opMBStringExtract:
			count := int(stack.pop().CoerceToI32(a))
			index := int(stack.pop().CoerceToI32(a))
			s := stack.pop().CoerceToString(a)
			stack.push(String(substring(s, index, count)))
		case opCharToAscii, opMBCharToAscii:
			s := stack.pop().CoerceToString(a)
			stack.push(Number(float64(s.At(0))))
		case opAsciiToChar, opMBAsciiToChar:
			code := uint16(stack.pop().CoerceToU32(a))
			stack.push(String(wstr.FromUTF16([]uint16{code})))

		// Variables.
		case opGetVariable:
			name := stack.pop().CoerceToString(a)
			v, _ := getPathVariable(a, name)
			stack.push(v)
		case opSetVariable:
			v := stack.pop()
			name := stack.pop().CoerceToString(a)
			if err := setPathVariable(a, name, v); err != nil {
				return flowNormal, Undefined, err
			}
		case opDefineLocal:
			v := stack.pop()
			name := stack.pop().CoerceToString(a)
			if err := a.Scope().DefineLocal(a, name, v); err != nil {
				return flowNormal, Undefined, err
			}
		case opDefineLocal2:
			name := stack.pop().CoerceToString(a)
			if _, ok := a.Scope().Resolve(a, name); !ok {
				a.Scope().ForceDefineLocal(a, name, Undefined)
			}
		case opDelete2:
			name := stack.pop().CoerceToString(a)
			stack.push(Bool(a.Scope().Delete(a, name)))

		// Objects.
		case opGetMember:
			name := stack.pop().CoerceToString(a)
			objVal := stack.pop()
			if objVal.IsUndefined() || objVal.IsNull() {
				stack.push(Undefined)
				break
			}
			obj := objVal.CoerceToObject(a)
			if obj == nil {
				stack.push(Undefined)
				break
			}
			v, err := Get(a, obj, name)
			if err != nil {
				return flowNormal, Undefined, err
			}
			stack.push(v)
		case opSetMember:
			v := stack.pop()
			name := stack.pop().CoerceToString(a)
			objVal := stack.pop()
			if objVal.Kind() == KindObject {
				if err := Set(a, objVal.AsObject(), name, v); err != nil {
					return flowNormal, Undefined, err
				}
			}
		case opDelete:
			name := stack.pop().CoerceToString(a)
			objVal := stack.pop()
			if objVal.Kind() == KindObject {
				stack.push(Bool(Delete(a, objVal.AsObject(), name)))
			} else {
				stack.push(Bool(false))
			}
		case opInitObject:
			count := int(stack.pop().CoerceToI32(a))
			obj := NewScriptObject(a, ObjectValue(a.Avm().prototypes.Object))
			for i := 0; i < count; i++ {
				v := stack.pop()
				name := stack.pop().CoerceToString(a)
				if err := obj.SetLocal(a, name, v, obj); err != nil {
					return flowNormal, Undefined, err
				}
			}
			stack.push(ObjectValue(obj))
		case opInitArray:
			count := int(stack.pop().CoerceToI32(a))
			elements := make([]Value, count)
			for i := 0; i < count; i++ {
				elements[i] = stack.pop()
			}
			stack.push(ObjectValue(NewArrayObject(a, elements)))
		case opTypeOf:
			stack.push(Str(stack.pop().TypeOf()))
		case opInstanceOf:
			ctorVal, objVal := stack.pop(), stack.pop()
			result := false
			if ctorVal.Kind() == KindObject && objVal.Kind() == KindObject {
				result = InstanceOf(a, objVal.AsObject(), ctorVal.AsObject())
			}
			stack.push(Bool(result))
		case opCastOp:
			objVal, ctorVal := stack.pop(), stack.pop()
			if ctorVal.Kind() == KindObject && objVal.Kind() == KindObject &&
				InstanceOf(a, objVal.AsObject(), ctorVal.AsObject()) {
				stack.push(objVal)
			} else {
				stack.push(Null)
			}
		case opImplementsOp:
			ctorVal := stack.pop()
			count := int(stack.pop().CoerceToI32(a))
			ifaces := make([]Object, 0, count)
			for i := 0; i < count; i++ {
				if v := stack.pop(); v.Kind() == KindObject {
					ifaces = append(ifaces, v.AsObject())
				}
			}
			if ctor := ctorVal.AsObject(); ctor != nil {
				protoVal, err := Get(a, ctor, a.Intern("prototype"))
				if err == nil && protoVal.Kind() == KindObject {
					for _, iface := range ifaces {
						protoVal.AsObject().Raw().AddInterface(iface)
					}
				}
			}
		case opExtends:
			superVal, subVal := stack.pop(), stack.pop()
			if err := execExtends(a, superVal, subVal); err != nil {
				return flowNormal, Undefined, err
			}
		case opEnumerate:
			name := stack.pop().CoerceToString(a)
			stack.push(Null)
			if v, ok := getPathVariable(a, name); ok && v.Kind() == KindObject {
				pushKeys(a, v.AsObject(), stack)
			}
		case opEnumerate2:
			v := stack.pop()
			stack.push(Null)
			if v.Kind() == KindObject {
				pushKeys(a, v.AsObject(), stack)
			}

		// Calls.
		case opCallFunction:
			name := stack.pop().CoerceToString(a)
			args := stack.popArgs(a)
			v, err := execCallFunction(a, name, args)
			if err != nil {
				return flowNormal, Undefined, err
			}
			stack.push(v)
		case opCallMethod:
			name := stack.pop()
			objVal := stack.pop()
			args := stack.popArgs(a)
			v, err := execCallMethod(a, name, objVal, args)
			if err != nil {
				return flowNormal, Undefined, err
			}
			stack.push(v)
		case opNewObject:
			name := stack.pop().CoerceToString(a)
			args := stack.popArgs(a)
			ctorVal, _ := getPathVariable(a, name)
			v, err := execConstruct(a, ctorVal, args)
			if err != nil {
				return flowNormal, Undefined, err
			}
			stack.push(v)
		case opNewMethod:
			name := stack.pop()
			objVal := stack.pop()
			args := stack.popArgs(a)
			ctorVal := Undefined
			if objVal.Kind() == KindObject {
				if name.IsUndefined() || name.CoerceToString(a).Len() == 0 {
					ctorVal = objVal
				} else {
					var err error
					ctorVal, err = Get(a, objVal.AsObject(), name.CoerceToString(a))
					if err != nil {
						return flowNormal, Undefined, err
					}
				}
			}
			v, err := execConstruct(a, ctorVal, args)
			if err != nil {
				return flowNormal, Undefined, err
			}
			stack.push(v)
		case opDefineFunction:
			name := p.str()
			numParams := int(p.u16())
			params := make([]Param, 0, numParams)
			for i := 0; i < numParams; i++ {
				params = append(params, Param{Name: p.str()})
			}
			body := r.bytes(int(p.u16()))
			pushOrBindFunction(a, stack, &FunctionDef{
				Name:         name.ToUTF8(),
				Params:       params,
				Data:         body,
				Scope:        a.Scope(),
				ConstantPool: a.ConstantPool(),
				BaseClip:     a.BaseClip(),
				SwfVersion:   a.SwfVersion(),
			}, name)
		case opDefineFunction2:
			name := p.str()
			numParams := int(p.u16())
			registerCount := p.u8()
			flags := p.u16()
			params := make([]Param, 0, numParams)
			for i := 0; i < numParams; i++ {
				reg := p.u8()
				params = append(params, Param{Name: p.str(), Register: reg})
			}
			body := r.bytes(int(p.u16()))
			pushOrBindFunction(a, stack, &FunctionDef{
				Name:          name.ToUTF8(),
				Params:        params,
				RegisterCount: registerCount,
				Flags:         flags,
				Data:          body,
				Scope:         a.Scope(),
				ConstantPool:  a.ConstantPool(),
				BaseClip:      a.BaseClip(),
				SwfVersion:    a.SwfVersion(),
			}, name)

		// Movie control.
		case opNextFrame:
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				mc.GotoFrame(mc.CurrentFrame()+1, false)
			}
		case opPrevFrame:
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				mc.GotoFrame(mc.CurrentFrame()-1, false)
			}
		case opPlay:
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				mc.Play()
			}
		case opStop:
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				mc.Stop()
			}
		case opGotoFrame:
			frame := int(p.u16())
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				mc.GotoFrame(frame+1, false)
			}
		case opGotoLabel:
			label := p.str().ToUTF8()
			if mc := asMovieClip(a.TargetClip()); mc != nil {
				if frame := mc.FrameForLabel(label); frame > 0 {
					mc.GotoFrame(frame, false)
				}
			}
		case opGotoFrame2:
			flags := p.u8()
			bias := 0
			if flags&0x02 != 0 {
				bias = int(p.u16())
			}
			execGotoFrame2(a, stack.pop(), bias, flags&0x01 != 0)
		case opSetTarget:
			execSetTarget(a, p.str().ToUTF8())
		case opSetTarget2:
			execSetTarget(a, stack.pop().CoerceToString(a).ToUTF8())
		case opTargetPath:
			v := stack.pop()
			if st := asStage(v.AsObject()); st != nil {
				stack.push(Str(st.TargetPath()))
			} else {
				stack.push(Undefined)
			}
		case opWaitForFrame:
			frame := int(p.u16())
			skip := int(p.u8())
			if frameNotLoaded(a, frame) {
				skipActions(r, skip)
			}
		case opWaitForFrame2:
			skip := int(p.u8())
			frame := int(stack.pop().CoerceToI32(a))
			if frameNotLoaded(a, frame) {
				skipActions(r, skip)
			}
		case opGetProperty:
			index := int(stack.pop().CoerceToI32(a))
			path := stack.pop().CoerceToString(a).ToUTF8()
			stack.push(execGetProperty(a, path, index))
		case opSetProperty:
			v := stack.pop()
			index := int(stack.pop().CoerceToI32(a))
			path := stack.pop().CoerceToString(a).ToUTF8()
			execSetProperty(a, path, index, v)
		case opCloneSprite:
			depth := int(stack.pop().CoerceToI32(a))
			target := stack.pop().CoerceToString(a).ToUTF8()
			source := stack.pop().CoerceToString(a).ToUTF8()
			execCloneSprite(a, source, target, depth)
		case opRemoveSprite:
			target := stack.pop().CoerceToString(a).ToUTF8()
			if node, ok := resolveTargetNode(a, target); ok && node != nil {
				if parent := asMovieClip(node.Parent()); parent != nil {
					parent.RemoveChild(node)
				}
			}
		case opStartDrag:
			stack.pop() // target
			stack.pop() // lock center
			if stack.pop().CoerceToBool(a) {
				stack.pop()
				stack.pop()
				stack.pop()
				stack.pop()
			}
		case opEndDrag:
			// drag state is a renderer concern; nothing to do headless

		// Environment.
		case opTrace:
			msg := stack.pop().CoerceToString(a)
			a.Avm().Trace(msg.ToUTF8())
		case opGetTime:
			ms := float64(0)
			if a.Ctx().Clock != nil {
				ms = float64(a.Ctx().Clock.Now().Sub(a.Avm().startTime).Milliseconds())
			}
			stack.push(Number(ms))
		case opRandomNumber:
			max := stack.pop().CoerceToI32(a)
			if max > 0 {
				stack.push(Number(float64(a.Avm().rng.Int31n(max))))
			} else {
				stack.push(Number(0))
			}
		case opGetURL:
			url := p.str().ToUTF8()
			target := p.str().ToUTF8()
			execGetURL(a, url, target, 0)
		case opGetURL2:
			flags := p.u8()
			target := stack.pop().CoerceToString(a).ToUTF8()
			url := stack.pop().CoerceToString(a).ToUTF8()
			execGetURL(a, url, target, flags)
		case opToggleQuality:
			if stage := a.Ctx().Stage; stage != nil {
				if stage.Quality() == "HIGH" {
					stage.SetQuality("LOW")
				} else {
					stage.SetQuality("HIGH")
				}
			}
		case opStopSounds:
			if a.Ctx().Audio != nil {
				a.Ctx().Audio.StopAll()
			}

		default:
			if a.Ctx().Log != nil {
				a.Ctx().Log.Debug("unknown action 0x%02x in %s", op, a.name)
			}
		}
	}
	return flowNormal, Undefined, nil
}

// execPush decodes the push payload; one instruction can push several
// values.
func execPush(a *Activation, p *reader, stack *valueStack) {
	for !p.done() {
		switch p.u8() {
		case 0:
			stack.push(String(p.str()))
		case 1:
			stack.push(Number(float64(p.f32())))
		case 2:
			stack.push(Null)
		case 3:
			stack.push(Undefined)
		case 4:
			stack.push(a.Register(int(p.u8())))
		case 5:
			stack.push(Bool(p.u8() != 0))
		case 6:
			stack.push(Number(p.f64()))
		case 7:
			stack.push(Number(float64(int32(p.u32()))))
		case 8:
			stack.push(constantAt(a, int(p.u8())))
		case 9:
			stack.push(constantAt(a, int(p.u16())))
		default:
			return
		}
	}
}

func constantAt(a *Activation, i int) Value {
	pool := a.ConstantPool()
	if i < 0 || i >= len(pool) {
		return Undefined
	}
	return String(pool[i])
}

// add2 applies the string-biased addition: if either side's primitive
// is a string the operands concatenate, otherwise they add numerically.
func add2(a *Activation, left, right Value) Value {
	lp := left.toPrimitiveNumber(a)
	rp := right.toPrimitiveNumber(a)
	if lp.IsString() || rp.IsString() {
		ls := lp.CoerceToString(a)
		rs := rp.CoerceToString(a)
		return String(wstr.Concat(ls, rs))
	}
	return Number(lp.CoerceToF64(a) + rp.CoerceToF64(a))
}

func substring(s wstr.WStr, index, count int) wstr.WStr {
	// Legacy extraction is 1-based; out-of-range clamps.
	start := index - 1
	if start < 0 {
		start = 0
	}
	if start > s.Len() {
		start = s.Len()
	}
	end := s.Len()
	if count >= 0 && start+count < end {
		end = start + count
	}
	return s.Slice(start, end)
}

func pushKeys(a *Activation, obj Object, stack *valueStack) {
	keys := GetKeys(a, obj)
	for i := len(keys) - 1; i >= 0; i-- {
		stack.push(String(keys[i]))
	}
}

// pushOrBindFunction makes a closure; anonymous functions go on the
// stack, named ones bind into the defining scope.
func pushOrBindFunction(a *Activation, stack *valueStack, def *FunctionDef, name wstr.WStr) {
	fn := NewBytecodeFunction(a, def)
	if name.Len() == 0 {
		stack.push(ObjectValue(fn))
		return
	}
	a.Scope().ForceDefineLocal(a, name, ObjectValue(fn))
}

func execCallFunction(a *Activation, name wstr.WStr, args []Value) (Value, error) {
	fnVal, _ := getPathVariable(a, name)
	fn := fnVal.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	this := Undefined
	if target := a.TargetObject(); target != nil {
		this = ObjectValue(target)
	}
	return fn.Call(a, this, args)
}

func execCallMethod(a *Activation, name Value, objVal Value, args []Value) (Value, error) {
	obj := objVal.AsObject()
	if obj == nil {
		return Undefined, nil
	}
	// An empty method name calls the object itself; on a super
	// reference that is the superclass constructor.
	if name.IsUndefined() || name.CoerceToString(a).Len() == 0 {
		return obj.Call(a, objVal, args)
	}
	return CallMethodOn(a, obj, name.CoerceToString(a), args)
}

func execConstruct(a *Activation, ctorVal Value, args []Value) (Value, error) {
	ctor := ctorVal.AsObject()
	if ctor == nil {
		return Undefined, nil
	}
	return ctor.Construct(a, args)
}

// execExtends rewires subclass.prototype to a fresh object inheriting
// from superclass.prototype.
func execExtends(a *Activation, superVal, subVal Value) error {
	superCtor := superVal.AsObject()
	subCtor := subVal.AsObject()
	if superCtor == nil || subCtor == nil {
		return nil
	}
	superProto, err := Get(a, superCtor, a.Intern("prototype"))
	if err != nil {
		return err
	}
	proto := NewScriptObject(a, superProto)
	proto.DefineValue("__constructor__", superVal, AttrDontEnum)
	if a.SwfVersion() < 7 {
		proto.DefineValue("constructor", superVal, AttrDontEnum)
	}
	return Set(a, subCtor, a.Intern("prototype"), ObjectValue(proto))
}

func execSetTarget(a *Activation, path string) {
	if path == "" {
		a.SetTargetClip(a.BaseClip())
		return
	}
	node, ok := resolveTargetNode(a, path)
	if !ok {
		if a.Ctx().Log != nil {
			a.Ctx().Log.Warning("setTarget: target not found: %q", path)
		}
		a.SetTargetClip(a.BaseClip())
		return
	}
	a.SetTargetClip(node)
}

func execGotoFrame2(a *Activation, frameVal Value, bias int, play bool) {
	target := a.TargetClip()
	if frameVal.IsString() {
		// "path:label" addresses another clip's label.
		s := frameVal.AsString().ToUTF8()
		label := s
		if i := strings.LastIndexByte(s, ':'); i >= 0 {
			if node, ok := resolveTargetNode(a, s[:i]); ok {
				target = node
			}
			label = s[i+1:]
		}
		mc := asMovieClip(target)
		if mc == nil {
			return
		}
		if frame := mc.FrameForLabel(label); frame > 0 {
			mc.GotoFrame(frame+bias, play)
		}
		return
	}
	mc := asMovieClip(target)
	if mc == nil {
		return
	}
	mc.GotoFrame(int(frameVal.CoerceToI32(a))+bias, play)
}

func execGetProperty(a *Activation, path string, index int) Value {
	node, ok := resolveTargetNode(a, path)
	if !ok || node == nil {
		return Undefined
	}
	prop := a.Avm().DisplayProps().byIndex(index)
	if prop == nil {
		return Undefined
	}
	return prop.get(a, node)
}

func execSetProperty(a *Activation, path string, index int, v Value) {
	node, ok := resolveTargetNode(a, path)
	if !ok || node == nil {
		return
	}
	prop := a.Avm().DisplayProps().byIndex(index)
	if prop == nil || prop.set == nil {
		return
	}
	prop.set(a, node, v)
}

func execCloneSprite(a *Activation, source, target string, depth int) {
	node, ok := resolveTargetNode(a, source)
	if !ok {
		return
	}
	src := asMovieClip(node)
	if src == nil {
		return
	}
	parent := asMovieClip(src.Parent())
	if parent == nil {
		return
	}
	clone := display.NewMovieClip(target, depth, src.TotalFrames())
	parent.AddChild(clone)
	a.Avm().BindClip(a, clone)
}

// execCallFrame runs another frame's scripts in place (ActionCall).
func execCallFrame(a *Activation, stack *valueStack) {
	frameVal := stack.pop()
	target := a.TargetClip()
	frame := 0
	if frameVal.IsString() {
		s := frameVal.AsString().ToUTF8()
		label := s
		if i := strings.LastIndexByte(s, ':'); i >= 0 {
			if node, ok := resolveTargetNode(a, s[:i]); ok {
				target = node
			}
			label = s[i+1:]
		}
		if mc := asMovieClip(target); mc != nil {
			frame = mc.FrameForLabel(label)
		}
	} else {
		frame = int(frameVal.CoerceToI32(a))
	}
	mc := asMovieClip(target)
	if mc == nil || frame <= 0 {
		return
	}
	for _, script := range mc.FrameScripts(frame) {
		if data, ok := script.([]byte); ok {
			a.Avm().RunActionBuffer("[frame call]", mc, data)
		}
	}
}

func execGetURL(a *Activation, url, target string, flags uint8) {
	if strings.HasPrefix(strings.ToLower(url), "fscommand:") {
		if a.Ctx().ExternalCall != nil {
			a.Ctx().ExternalCall(url[len("fscommand:"):], nil)
		}
		return
	}
	if a.Ctx().Navigator == nil {
		return
	}
	method := "GET"
	if flags&0x03 == 2 {
		method = "POST"
	}
	a.Ctx().Navigator.Fetch(url, method, nil, nil)
	if a.Ctx().Log != nil {
		a.Ctx().Log.Debug("getURL %s target=%q flags=%#x", url, target, flags)
	}
}

func frameNotLoaded(a *Activation, frame int) bool {
	mc := asMovieClip(a.TargetClip())
	if mc == nil {
		return false
	}
	return frame > mc.FramesLoaded()
}

// skipActions advances past the next count instructions.
func skipActions(r *reader, count int) {
	for i := 0; i < count && !r.done(); i++ {
		op := r.u8()
		if op == opEnd {
			return
		}
		if op >= 0x80 {
			r.bytes(int(r.u16()))
		}
	}
}

// execTry reads the clause sizes and bodies, then runs them with the
// legacy catch semantics: only thrown values are catchable, the finally
// clause always runs.
func execTry(a *Activation, r, p *reader, stack *valueStack) (flow, Value, error) {
	flags := p.u8()
	trySize := int(p.u16())
	catchSize := int(p.u16())
	finallySize := int(p.u16())

	hasCatch := flags&0x01 != 0
	hasFinally := flags&0x02 != 0
	catchInRegister := flags&0x04 != 0

	var catchName wstr.WStr
	var catchRegister int
	if catchInRegister {
		catchRegister = int(p.u8())
	} else {
		catchName = p.str()
	}

	tryBody := r.bytes(trySize)
	catchBody := r.bytes(catchSize)
	finallyBody := r.bytes(finallySize)

	fl, rv, err := execBlock(a, tryBody, stack)

	if err != nil && hasCatch {
		if thrown, ok := err.(*Error); ok && thrown.Kind == ErrThrown {
			if catchInRegister {
				a.SetRegister(catchRegister, thrown.Thrown)
			} else {
				a.Scope().ForceDefineLocal(a, catchName, thrown.Thrown)
			}
			fl, rv, err = execBlock(a, catchBody, stack)
		}
	}

	if hasFinally {
		ffl, frv, ferr := execBlock(a, finallyBody, stack)
		// A completion from the finally clause overrides the others.
		if ferr != nil || ffl == flowReturn {
			return ffl, frv, ferr
		}
	}
	return fl, rv, err
}

// runFunctionBody executes a bytecode function: fresh local scope over
// an activation object, Function2 register preloading, parameter
// binding, and the captured constant pool.
func runFunctionBody(a *Activation, f *FunctionObject, def *FunctionDef, thisObj Object, args []Value, superDepth int) (Value, error) {
	locals := newScriptObjectRaw(a.Arena(), Undefined, a)
	scope := def.Scope
	if scope == nil {
		scope = a.Avm().rootScope
	}
	scope = scope.ChildScope(ScopeLocal, locals)

	regCount := int(def.RegisterCount)
	if regCount == 0 {
		regCount = 4
	}
	child := a.child(def.Name, scope, regCount)
	child.constantPool = def.ConstantPool
	child.superDepth = superDepth
	if def.BaseClip != nil {
		child.baseClip = def.BaseClip
		child.targetClip = def.BaseClip
	}
	thisVal := Undefined
	if thisObj != nil {
		thisVal = ObjectValue(thisObj)
	}
	child.this = thisVal

	flags := def.Flags
	reg := 1
	if flags&FlagPreloadThis != 0 {
		child.SetRegister(reg, thisVal)
		reg++
	}
	if flags&FlagSuppressThis == 0 {
		locals.DefineValue("this", thisVal, AttrDontEnum|AttrDontDelete)
	}
	var argsObj *ArrayObject
	needArgs := flags&FlagSuppressArgs == 0 || flags&FlagPreloadArguments != 0
	if needArgs {
		argsObj = NewArrayObject(child, append([]Value(nil), args...))
		argsObj.DefineValue("callee", ObjectValue(f), AttrDontEnum)
	}
	if flags&FlagPreloadArguments != 0 {
		child.SetRegister(reg, ObjectValue(argsObj))
		reg++
	}
	if flags&FlagSuppressArgs == 0 && argsObj != nil {
		locals.DefineValue("arguments", ObjectValue(argsObj), AttrDontEnum|AttrDontDelete)
	}
	var super Object
	if thisObj != nil && (flags&FlagPreloadSuper != 0 || flags&FlagSuppressSuper == 0) {
		super = NewSuperObject(child, thisObj, superDepth)
	}
	if flags&FlagPreloadSuper != 0 {
		superVal := Undefined
		if super != nil {
			superVal = ObjectValue(super)
		}
		child.SetRegister(reg, superVal)
		reg++
	}
	if flags&FlagSuppressSuper == 0 && super != nil {
		locals.DefineValue("super", ObjectValue(super), AttrDontEnum|AttrDontDelete)
	}
	if flags&FlagPreloadRoot != 0 {
		rootVal := Undefined
		if root := rootObject(child); root != nil {
			rootVal = ObjectValue(root)
		}
		child.SetRegister(reg, rootVal)
		reg++
	}
	if flags&FlagPreloadParent != 0 {
		parentVal := Undefined
		if clip := child.TargetClip(); clip != nil && clip.Parent() != nil {
			if obj, ok := clip.Parent().ScriptObject().(Object); ok && obj != nil {
				parentVal = ObjectValue(obj)
			}
		}
		child.SetRegister(reg, parentVal)
		reg++
	}
	if flags&FlagPreloadGlobal != 0 {
		child.SetRegister(reg, ObjectValue(a.Avm().Globals()))
		reg++
	}

	for i, param := range def.Params {
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		if param.Register != 0 {
			child.SetRegister(int(param.Register), v)
		} else {
			locals.DefineValue(param.Name.ToUTF8(), v, 0)
		}
	}

	stack := &valueStack{}
	fl, rv, err := execBlock(child, def.Data, stack)
	if err != nil {
		return Undefined, err
	}
	if fl == flowReturn {
		return rv, nil
	}
	return Undefined, nil
}
