package avm2

import (
	"encoding/binary"
	"math"

	"lantern/pkg/abc"
	"lantern/pkg/wstr"
)

// executeMethod is the single entry for invoking any method: natives
// run directly, bytecode bodies verify on first call and then
// interpret. The caller's activation supplies the VM and context; a
// fresh frame is built for the callee.
func (avm *Avm2) executeMethod(a *Activation, m *Method, this Value, args []Value) (Value, error) {
	if m == nil {
		return Undefined, typeError("call to an undefined method")
	}
	if err := a.enterCall(); err != nil {
		return Undefined, err
	}
	defer a.exitCall()

	if m.IsNative() {
		na := a.child(m.name, m, m.scope, 0)
		na.this = this
		return m.native(na, this, args)
	}
	body := m.body
	if body == nil {
		return Undefined, nil
	}
	vb, err := m.unit.verifyBody(body)
	if err != nil {
		return Undefined, err
	}

	coerced, err := m.coerceArgs(a, args)
	if err != nil {
		return Undefined, err
	}

	frame := a.child(m.name, m, m.scope, int(body.LocalCount)+2)
	frame.this = this
	frame.setLocal(0, this)
	for i, v := range coerced {
		frame.setLocal(i+1, v)
	}
	restBase := len(coerced) + 1
	switch {
	case m.NeedsRest():
		var rest []Value
		if len(args) > len(coerced) {
			rest = args[len(coerced):]
		}
		frame.setLocal(restBase, ObjectValue(NewArrayObject(frame, rest)))
	case m.NeedsArguments():
		frame.setLocal(restBase, ObjectValue(NewArrayObject(frame, args)))
	}
	return avm.interpret(frame, m, body, vb)
}

// interpret runs a verified body to completion, routing errors through
// the exception table.
func (avm *Avm2) interpret(a *Activation, m *Method, body *abc.MethodBody, vb *verifiedBody) (Value, error) {
	r := &codeReader{code: body.Code}
	for {
		if r.done() {
			return Undefined, nil
		}
		at := r.pos
		if err := a.checkInterrupt(); err != nil {
			return Undefined, err
		}
		done, result, err := avm.step(a, m, r)
		if err != nil {
			verr := asVMError(err)
			if !verr.Catchable() {
				return Undefined, verr
			}
			target, errValue, handled, herr := avm.findHandler(a, m, body, at, verr)
			if herr != nil {
				return Undefined, herr
			}
			if !handled {
				return Undefined, verr
			}
			a.stack = a.stack[:0]
			a.scopeStack = a.scopeStack[:0]
			a.push(errValue)
			r.pos = target
			continue
		}
		if done {
			return result, nil
		}
	}
}

// findHandler scans the exception table for a range covering the
// faulting offset whose catch type matches the error.
func (avm *Avm2) findHandler(a *Activation, m *Method, body *abc.MethodBody, at int, verr *Error) (int, Value, bool, error) {
	for i := range body.Exceptions {
		ex := &body.Exceptions[i]
		if at < int(ex.From) || at >= int(ex.To) {
			continue
		}
		errValue, err := avm.errorValue(a, verr)
		if err != nil {
			return 0, Undefined, false, err
		}
		if ex.TypeName != 0 {
			typeMn, err := m.unit.MultinameAt(ex.TypeName)
			if err != nil {
				return 0, Undefined, false, err
			}
			matches, err := avm.valueIsType(a, errValue, typeMn)
			if err != nil {
				return 0, Undefined, false, err
			}
			if !matches {
				continue
			}
		}
		return int(ex.Target), errValue, true, nil
	}
	return 0, Undefined, false, nil
}

// step executes one instruction. done reports a return.
func (avm *Avm2) step(a *Activation, m *Method, r *codeReader) (done bool, result Value, err error) {
	op, ok := r.u8()
	if !ok {
		return true, Undefined, nil
	}
	u := m.unit

	operand := func() uint32 {
		v, _ := r.u30()
		return v
	}
	branch := func() int {
		off, _ := r.s24()
		return r.pos + int(off)
	}
	multiname := func() (*Multiname, error) {
		mn, err := u.MultinameAt(operand())
		if err != nil {
			return nil, err
		}
		return a.popMultiname(mn)
	}

	switch op {
	case opNop, opLabel:
		// nothing

	case opThrow:
		return false, Undefined, ThrownError(a.pop())

	case opKill:
		a.setLocal(int(operand()), Undefined)

	case opJump:
		r.pos = branch()

	case opIfTrue, opIfFalse:
		target := branch()
		cond := a.pop().CoerceToBoolean()
		if (op == opIfTrue) == cond {
			r.pos = target
		}

	case opIfEq, opIfNe:
		target := branch()
		right, left := a.pop(), a.pop()
		eq, err := AbstractEquals(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		if (op == opIfEq) == eq {
			r.pos = target
		}

	case opIfStrictEq, opIfStrictNe:
		target := branch()
		right, left := a.pop(), a.pop()
		if (op == opIfStrictEq) == StrictEquals(left, right) {
			r.pos = target
		}

	case opIfLt, opIfNge:
		target := branch()
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		taken := less && defined
		if op == opIfNge {
			taken = !taken
		}
		if taken {
			r.pos = target
		}

	case opIfGt, opIfNle:
		target := branch()
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, right, left)
		if err != nil {
			return false, Undefined, err
		}
		taken := less && defined
		if op == opIfNle {
			taken = !taken
		}
		if taken {
			r.pos = target
		}

	case opIfLe, opIfNgt:
		target := branch()
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, right, left)
		if err != nil {
			return false, Undefined, err
		}
		taken := defined && !less
		if op == opIfNgt {
			taken = !taken
		}
		if taken {
			r.pos = target
		}

	case opIfGe, opIfNlt:
		target := branch()
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		taken := defined && !less
		if op == opIfNlt {
			taken = !taken
		}
		if taken {
			r.pos = target
		}

	case opLookupSwitch:
		base := r.pos - 1
		def, _ := r.s24()
		count, _ := r.u30()
		offsets := make([]int32, count+1)
		for i := range offsets {
			offsets[i], _ = r.s24()
		}
		idx, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		if idx >= 0 && int(idx) < len(offsets) {
			r.pos = base + int(offsets[idx])
		} else {
			r.pos = base + int(def)
		}

	case opPushWith:
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		a.pushScope(NewWithScope(obj))

	case opPushScope:
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		a.pushScope(NewScope(obj))

	case opPopScope:
		a.popScope()

	case opNextName:
		index, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(obj.EnumName(a, int(index)))

	case opNextValue:
		index, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := obj.EnumValue(a, int(index))
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opHasNext:
		index, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		objVal := a.pop()
		next := 0
		if obj := objVal.AsObject(); obj != nil {
			next = obj.EnumNext(a, int(index))
		}
		a.push(Integer(int32(next)))

	case opHasNext2:
		objReg := int(operand())
		idxReg := int(operand())
		objVal := a.local(objReg)
		index, err := a.local(idxReg).CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		cur := int(index)
		// Exhausting an object steps the register to its prototype,
		// restarting the cursor, so for-in sees inherited dynamics.
		for {
			obj := objVal.AsObject()
			if obj == nil {
				a.setLocal(objReg, Null)
				a.setLocal(idxReg, Integer(0))
				a.push(Bool(false))
				break
			}
			next := obj.EnumNext(a, cur)
			if next != 0 {
				a.setLocal(objReg, objVal)
				a.setLocal(idxReg, Integer(int32(next)))
				a.push(Bool(true))
				break
			}
			objVal = obj.Base().Proto()
			cur = 0
		}

	case opPushNull:
		a.push(Null)
	case opPushUndefined:
		a.push(Undefined)
	case opPushTrue:
		a.push(Bool(true))
	case opPushFalse:
		a.push(Bool(false))
	case opPushNaN:
		a.push(Number(math.NaN()))
	case opPushByte:
		b, _ := r.u8()
		a.push(Integer(int32(int8(b))))
	case opPushShort:
		v := operand()
		// The operand is a sign-extended 30-bit value.
		if v&0x20000000 != 0 {
			v |= 0xC0000000
		}
		a.push(Integer(int32(v)))
	case opPushString:
		a.push(Str(u.file.Str(operand())))
	case opPushInt:
		idx := operand()
		if int(idx) >= len(u.file.Ints) {
			return false, Undefined, verifyError("int constant %d out of range", idx)
		}
		a.push(Integer(u.file.Ints[idx]))
	case opPushUint:
		idx := operand()
		if int(idx) >= len(u.file.Uints) {
			return false, Undefined, verifyError("uint constant %d out of range", idx)
		}
		a.push(Unsigned(u.file.Uints[idx]))
	case opPushDouble:
		idx := operand()
		if int(idx) >= len(u.file.Doubles) {
			return false, Undefined, verifyError("double constant %d out of range", idx)
		}
		a.push(Number(u.file.Doubles[idx]))
	case opPushNamespace:
		ns, err := u.NamespaceAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		a.push(ObjectValue(avm.newNamespaceObject(a, ns)))

	case opPop:
		a.pop()
	case opDup:
		v := a.peek(0)
		a.push(v)
	case opSwap:
		x, y := a.pop(), a.pop()
		a.push(x)
		a.push(y)

	case opDxns:
		uri := u.file.Str(operand())
		a.activeDxns = NewNamespace(abc.NsNamespace, uri)
	case opDxnsLate:
		uri, err := a.pop().CoerceToUTF8(a)
		if err != nil {
			return false, Undefined, err
		}
		a.activeDxns = NewNamespace(abc.NsNamespace, uri)

	case opLi8, opLi16, opLi32, opLf32, opLf64, opSxi1, opSxi8, opSxi16:
		addr, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := loadDomainMemory(a, op, int(addr))
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opSi8, opSi16, opSi32, opSf32, opSf64:
		addr, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		val := a.pop()
		if err := storeDomainMemory(a, op, int(addr), val); err != nil {
			return false, Undefined, err
		}

	case opNewFunction:
		fm, err := u.MethodAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		bound := fm.withScope(a.fullScope(), nil)
		a.push(ObjectValue(NewFunctionObject(a, bound)))

	case opCall:
		argc := int(operand())
		args := a.popN(argc)
		receiver := a.pop()
		callee := a.pop().AsObject()
		if callee == nil {
			return false, Undefined, typeError("value is not a function")
		}
		v, err := callee.Call(a, receiver, args)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opConstruct:
		argc := int(operand())
		args := a.popN(argc)
		ctor := a.pop().AsObject()
		if ctor == nil {
			return false, Undefined, typeError("value is not a constructor")
		}
		obj, err := ctor.Construct(a, args)
		if err != nil {
			return false, Undefined, err
		}
		a.push(ObjectValue(obj))

	case opCallMethod:
		disp := operand()
		argc := int(operand())
		args := a.popN(argc)
		receiver, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		target := receiver.Base().vtable.Method(disp)
		if target == nil {
			return false, Undefined, referenceError("dispatch id %d out of range", disp)
		}
		v, err := avm.executeMethod(a, target, ObjectValue(receiver), args)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opCallStatic:
		idx := operand()
		argc := int(operand())
		args := a.popN(argc)
		receiver := a.pop()
		target, err := u.MethodAt(idx)
		if err != nil {
			return false, Undefined, err
		}
		v, err := avm.executeMethod(a, target.withScope(a.fullScope(), nil), receiver, args)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opCallSuper, opCallSuperVoid:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		argc := int(operand())
		args := a.popN(argc)
		receiver, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := CallSuper(a, receiver, mn, args)
		if err != nil {
			return false, Undefined, err
		}
		if op == opCallSuper {
			a.push(v)
		}

	case opCallProperty, opCallPropVoid, opCallPropLex:
		mnIdx := operand()
		argc := int(operand())
		args := a.popN(argc)
		mn, err := u.MultinameAt(mnIdx)
		if err != nil {
			return false, Undefined, err
		}
		mn, err = a.popMultiname(mn)
		if err != nil {
			return false, Undefined, err
		}
		receiver, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := CallProperty(a, receiver, mn, args)
		if err != nil {
			return false, Undefined, err
		}
		if op != opCallPropVoid {
			a.push(v)
		}

	case opReturnVoid:
		ret, err := avm.coerceReturn(a, m, Undefined)
		return true, ret, err
	case opReturnValue:
		ret, err := avm.coerceReturn(a, m, a.pop())
		return true, ret, err

	case opConstructSuper:
		argc := int(operand())
		args := a.popN(argc)
		receiver := a.pop()
		defining := m.DefiningClass()
		if defining == nil || defining.super == nil {
			// Object's constructor: nothing to run.
			_ = args
		} else if err := defining.super.runInstanceInit(a, receiver, args); err != nil {
			return false, Undefined, err
		}

	case opConstructProp:
		mnIdx := operand()
		argc := int(operand())
		args := a.popN(argc)
		mn, err := u.MultinameAt(mnIdx)
		if err != nil {
			return false, Undefined, err
		}
		mn, err = a.popMultiname(mn)
		if err != nil {
			return false, Undefined, err
		}
		receiver, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		obj, err := ConstructProperty(a, receiver, mn, args)
		if err != nil {
			return false, Undefined, err
		}
		a.push(ObjectValue(obj))

	case opApplyType:
		argc := int(operand())
		params := a.popN(argc)
		base := a.pop()
		applied, err := avm.applyType(a, base, params)
		if err != nil {
			return false, Undefined, err
		}
		a.push(applied)

	case opNewObject:
		argc := int(operand())
		obj := NewScriptObject(a, nil, avm.objectProto())
		pairs := a.popN(argc * 2)
		for i := 0; i < len(pairs); i += 2 {
			name, err := pairs[i].CoerceToUTF8(a)
			if err != nil {
				return false, Undefined, err
			}
			obj.SetDynamic(name, pairs[i+1])
		}
		a.push(ObjectValue(obj))

	case opNewArray:
		argc := int(operand())
		a.push(ObjectValue(NewArrayObject(a, a.popN(argc))))

	case opNewActivation:
		act := NewScriptObject(a, nil, Null)
		if m.body != nil && len(m.body.Traits) > 0 {
			vt := NewVTable()
			if err := vt.InstallTraits(a, u, m.body.Traits, a.fullScope(), nil); err != nil {
				return false, Undefined, err
			}
			act.SetVTable(vt)
		}
		a.push(ObjectValue(act))

	case opNewClass:
		classIdx := operand()
		baseVal := a.pop()
		cls, err := u.linkClass(a, classIdx, a.fullScope())
		if err != nil {
			return false, Undefined, err
		}
		_ = baseVal // the super link resolved at class translation
		co, err := NewClassObject(a, cls, a.fullScope())
		if err != nil {
			return false, Undefined, err
		}
		avm.registerClass(cls)
		a.push(ObjectValue(co))

	case opGetDescendants:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := xmlDescendants(a, obj, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opNewCatch:
		exIdx := operand()
		if int(exIdx) >= len(m.body.Exceptions) {
			return false, Undefined, verifyError("exception index %d out of range", exIdx)
		}
		ex := &m.body.Exceptions[exIdx]
		catch := NewScriptObject(a, nil, Null)
		if ex.VarName != 0 {
			vt := NewVTable()
			varMn, err := u.MultinameAt(ex.VarName)
			if err != nil {
				return false, Undefined, err
			}
			if len(varMn.Namespaces()) == 1 {
				id := vt.allocSlot(1, slotInfo{defaultValue: Undefined, hasDefault: true})
				vt.insert(varMn.Name(), varMn.Namespaces()[0], Property{Kind: PropSlot, SlotID: id})
			}
			catch.SetVTable(vt)
		}
		a.push(ObjectValue(catch))

	case opFindPropStrict:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := FindPropertyStrict(a, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(ObjectValue(obj))

	case opFindProperty:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := FindProperty(a, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(ObjectValue(obj))

	case opFindDef:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		v, err := a.Domain().GetDefinition(a, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opGetLex:
		mn, err := u.MultinameAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		obj, err := FindPropertyStrict(a, mn)
		if err != nil {
			return false, Undefined, err
		}
		v, err := GetProperty(a, obj, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opSetProperty, opInitProperty:
		mnIdx := operand()
		value := a.pop()
		mn, err := u.MultinameAt(mnIdx)
		if err != nil {
			return false, Undefined, err
		}
		mn, err = a.popMultiname(mn)
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opInitProperty {
			err = InitProperty(a, obj, mn, value)
		} else {
			err = SetProperty(a, obj, mn, value)
		}
		if err != nil {
			return false, Undefined, err
		}

	case opGetLocal:
		a.push(a.local(int(operand())))
	case opSetLocal:
		a.setLocal(int(operand()), a.pop())

	case opGetGlobalScope:
		a.push(ObjectValue(a.globalScope()))

	case opGetScopeObject:
		idx, _ := r.u8()
		if int(idx) < len(a.scopeStack) {
			a.push(ObjectValue(a.scopeStack[idx].values))
		} else {
			a.push(Undefined)
		}

	case opGetProperty:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := GetProperty(a, obj, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opDeleteProperty:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		removed, err := DeleteProperty(a, obj, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(removed))

	case opGetSlot:
		id := operand()
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(obj.Base().SlotAt(id))

	case opSetSlot:
		id := operand()
		value := a.pop()
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		if err := writeSlot(a, obj.Base(), id, value); err != nil {
			return false, Undefined, err
		}

	case opGetGlobalSlot:
		id := operand()
		g := a.globalScope()
		if g == nil {
			return false, Undefined, referenceError("no global scope")
		}
		a.push(g.Base().SlotAt(id))

	case opSetGlobalSlot:
		id := operand()
		value := a.pop()
		g := a.globalScope()
		if g == nil {
			return false, Undefined, referenceError("no global scope")
		}
		if err := writeSlot(a, g.Base(), id, value); err != nil {
			return false, Undefined, err
		}

	case opConvertS, opCoerceS:
		v := a.pop()
		if op == opCoerceS && v.IsNullish() {
			a.push(Null)
			break
		}
		s, err := v.CoerceToString(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(String(s))

	case opEscXElem:
		s, err := a.pop().CoerceToString(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Str(escapeXMLElement(s.ToUTF8())))
	case opEscXAttr:
		s, err := a.pop().CoerceToString(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Str(escapeXMLAttribute(s.ToUTF8())))

	case opConvertI:
		i, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Integer(i))
	case opConvertU:
		v, err := a.pop().CoerceToU32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Unsigned(v))
	case opConvertD:
		n, err := a.pop().CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Number(n))
	case opConvertB:
		a.push(Bool(a.pop().CoerceToBoolean()))
	case opConvertO:
		v := a.peek(0)
		if v.IsNullish() {
			a.pop()
			return false, Undefined, typeError("cannot convert %s to an object", v.TypeOf())
		}

	case opCheckFilter:
		v := a.peek(0)
		if obj := v.AsObject(); obj != nil {
			switch obj.NativeData().(type) {
			case *XMLData, *XMLListData:
				break
			default:
				a.pop()
				return false, Undefined, typeError("filter operator requires XML")
			}
		} else {
			a.pop()
			return false, Undefined, typeError("filter operator requires XML")
		}

	case opCoerce:
		mn, err := u.MultinameAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		v, err := coerceToType(a, a.pop(), mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opCoerceA:
		// no-op: any accepts everything

	case opAsType:
		mn, err := u.MultinameAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		v := a.pop()
		is, err := avm.valueIsType(a, v, mn)
		if err != nil {
			return false, Undefined, err
		}
		if is {
			a.push(v)
		} else {
			a.push(Null)
		}

	case opAsTypeLate:
		cls := a.pop()
		v := a.pop()
		co := asClassObject(cls.AsObject())
		if co == nil {
			return false, Undefined, typeError("as operand is not a class")
		}
		if obj := v.AsObject(); obj != nil && instanceOfClass(obj, co.class) {
			a.push(v)
		} else {
			a.push(Null)
		}

	case opNegate:
		n, err := a.pop().CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Number(-n))
	case opNegateI:
		i, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Integer(-i))

	case opIncrement, opDecrement:
		n, err := a.pop().CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opIncrement {
			n++
		} else {
			n--
		}
		a.push(Number(n))

	case opIncrementI, opDecrementI:
		i, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opIncrementI {
			i++
		} else {
			i--
		}
		a.push(Integer(i))

	case opIncLocal, opDecLocal:
		reg := int(operand())
		n, err := a.local(reg).CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opIncLocal {
			n++
		} else {
			n--
		}
		a.setLocal(reg, Number(n))

	case opIncLocalI, opDecLocalI:
		reg := int(operand())
		i, err := a.local(reg).CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opIncLocalI {
			i++
		} else {
			i--
		}
		a.setLocal(reg, Integer(i))

	case opTypeOf:
		a.push(Str(a.pop().TypeOf()))

	case opNot:
		a.push(Bool(!a.pop().CoerceToBoolean()))

	case opBitNot:
		i, err := a.pop().CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Integer(^i))

	case opAdd:
		right, left := a.pop(), a.pop()
		v, err := addValues(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opAddI:
		right, left := a.pop(), a.pop()
		ri, err := right.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		li, err := left.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Integer(li + ri))

	case opSubtract, opMultiply, opDivide, opModulo:
		right, left := a.pop(), a.pop()
		rn, err := right.CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		ln, err := left.CoerceToNumber(a)
		if err != nil {
			return false, Undefined, err
		}
		switch op {
		case opSubtract:
			a.push(Number(ln - rn))
		case opMultiply:
			a.push(Number(ln * rn))
		case opDivide:
			a.push(Number(ln / rn))
		case opModulo:
			a.push(Number(math.Mod(ln, rn)))
		}

	case opSubtractI, opMultiplyI:
		right, left := a.pop(), a.pop()
		ri, err := right.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		li, err := left.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		if op == opSubtractI {
			a.push(Integer(li - ri))
		} else {
			a.push(Integer(li * ri))
		}

	case opLShift, opRShift, opBitAnd, opBitOr, opBitXor:
		right, left := a.pop(), a.pop()
		ri, err := right.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		li, err := left.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		switch op {
		case opLShift:
			a.push(Integer(li << (uint32(ri) & 31)))
		case opRShift:
			a.push(Integer(li >> (uint32(ri) & 31)))
		case opBitAnd:
			a.push(Integer(li & ri))
		case opBitOr:
			a.push(Integer(li | ri))
		case opBitXor:
			a.push(Integer(li ^ ri))
		}

	case opURShift:
		right, left := a.pop(), a.pop()
		ri, err := right.CoerceToI32(a)
		if err != nil {
			return false, Undefined, err
		}
		lu, err := left.CoerceToU32(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Unsigned(lu >> (uint32(ri) & 31)))

	case opEquals:
		right, left := a.pop(), a.pop()
		eq, err := AbstractEquals(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(eq))

	case opStrictEquals:
		right, left := a.pop(), a.pop()
		a.push(Bool(StrictEquals(left, right)))

	case opLessThan:
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(less && defined))

	case opLessEquals:
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, right, left)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(defined && !less))

	case opGreaterThan:
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, right, left)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(less && defined))

	case opGreaterEquals:
		right, left := a.pop(), a.pop()
		less, defined, err := AbstractLess(a, left, right)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(defined && !less))

	case opInstanceOf:
		ctor := a.pop().AsObject()
		v := a.pop()
		if ctor == nil {
			return false, Undefined, typeError("instanceof operand is not a constructor")
		}
		a.push(Bool(valueInstanceOf(a, v, ctor)))

	case opIsType:
		mn, err := u.MultinameAt(operand())
		if err != nil {
			return false, Undefined, err
		}
		is, err := avm.valueIsType(a, a.pop(), mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(is))

	case opIsTypeLate:
		cls := a.pop()
		v := a.pop()
		co := asClassObject(cls.AsObject())
		if co == nil {
			return false, Undefined, typeError("is operand is not a class")
		}
		a.push(Bool(valueIsClass(v, co.class)))

	case opIn:
		objVal := a.pop()
		nameVal := a.pop()
		obj, err := objVal.CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		name, err := nameVal.CoerceToUTF8(a)
		if err != nil {
			return false, Undefined, err
		}
		a.push(Bool(HasProperty(a, obj, PublicName(name))))

	case opGetLocal0, opGetLocal1, opGetLocal2, opGetLocal3:
		a.push(a.local(int(op - opGetLocal0)))
	case opSetLocal0, opSetLocal1, opSetLocal2, opSetLocal3:
		a.setLocal(int(op-opSetLocal0), a.pop())

	case opGetSuper:
		mn, err := multiname()
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		v, err := GetSuper(a, obj, mn)
		if err != nil {
			return false, Undefined, err
		}
		a.push(v)

	case opSetSuper:
		mnIdx := operand()
		value := a.pop()
		mn, err := u.MultinameAt(mnIdx)
		if err != nil {
			return false, Undefined, err
		}
		mn, err = a.popMultiname(mn)
		if err != nil {
			return false, Undefined, err
		}
		obj, err := a.pop().CoerceToObject(a)
		if err != nil {
			return false, Undefined, err
		}
		if err := SetSuper(a, obj, mn, value); err != nil {
			return false, Undefined, err
		}

	case opDebug, opDebugLine, opDebugFile, opBkptLine:
		r.skipOperands(op)

	default:
		return false, Undefined, verifyError("unknown opcode 0x%02x", op)
	}
	return false, Undefined, nil
}

// coerceReturn applies the declared return type.
func (avm *Avm2) coerceReturn(a *Activation, m *Method, v Value) (Value, error) {
	if m.info == nil || m.info.ReturnType == 0 {
		return v, nil
	}
	typeName, err := m.unit.optionalMultinameAt(m.info.ReturnType)
	if err != nil || typeName == nil {
		return v, err
	}
	if typeName.Name() == "void" {
		return Undefined, nil
	}
	return coerceToType(a, v, typeName)
}

// addValues implements the published + semantics: numeric adds stay
// numeric, a string on either side concatenates, objects resolve to
// primitives first.
func addValues(a *Activation, left, right Value) (Value, error) {
	if left.IsNumeric() && right.IsNumeric() {
		return Number(left.AsNumberRaw() + right.AsNumberRaw()), nil
	}
	lp, err := left.CoerceToPrimitive(a, hintNumber)
	if err != nil {
		return Undefined, err
	}
	rp, err := right.CoerceToPrimitive(a, hintNumber)
	if err != nil {
		return Undefined, err
	}
	if lp.IsString() || rp.IsString() {
		ls, err := lp.CoerceToString(a)
		if err != nil {
			return Undefined, err
		}
		rs, err := rp.CoerceToString(a)
		if err != nil {
			return Undefined, err
		}
		return String(wstr.Concat(ls, rs)), nil
	}
	ln, err := lp.CoerceToNumber(a)
	if err != nil {
		return Undefined, err
	}
	rn, err := rp.CoerceToNumber(a)
	if err != nil {
		return Undefined, err
	}
	return Number(ln + rn), nil
}

// valueInstanceOf checks the prototype chain against the constructor's
// prototype property, the legacy instanceof.
func valueInstanceOf(a *Activation, v Value, ctor Object) bool {
	target, err := GetProperty(a, ctor, PublicName("prototype"))
	if err != nil || !target.IsObject() {
		if co := asClassObject(ctor); co != nil {
			target = ObjectValue(co.prototype)
		} else {
			return false
		}
	}
	obj := v.AsObject()
	if obj == nil {
		return false
	}
	proto := obj.Base().Proto()
	for depth := 0; depth < protoChainLimit && proto.IsObject(); depth++ {
		if proto.AsObject() == target.AsObject() {
			return true
		}
		proto = proto.AsObject().Base().Proto()
	}
	return false
}

// valueIsClass implements the is operator against a class definition,
// including the primitive classes.
func valueIsClass(v Value, cls *Class) bool {
	switch cls.name {
	case "int":
		if v.Kind() == KindInt {
			return true
		}
		n := v.AsNumberRaw()
		return v.IsNumeric() && n == math.Trunc(n) && n >= math.MinInt32 && n <= math.MaxInt32
	case "uint":
		if v.Kind() == KindUint {
			return true
		}
		n := v.AsNumberRaw()
		return v.IsNumeric() && n == math.Trunc(n) && n >= 0 && n <= math.MaxUint32
	case "Number":
		return v.IsNumeric()
	case "String":
		return v.IsString()
	case "Boolean":
		return v.Kind() == KindBool
	case "Function":
		return v.TypeOf() == "function"
	case "Object":
		return !v.IsNullish()
	}
	obj := v.AsObject()
	return obj != nil && instanceOfClass(obj, cls)
}

// valueIsType resolves a type multiname and applies valueIsClass.
func (avm *Avm2) valueIsType(a *Activation, v Value, mn *Multiname) (bool, error) {
	if mn.IsAnyName() {
		return true, nil
	}
	cls := avm.classFor(mn)
	if cls == nil {
		if obj, ok, _ := FindDefinition(a, mn); ok && obj != nil {
			got, err := GetProperty(a, obj, mn)
			if err == nil {
				if co := asClassObject(got.AsObject()); co != nil {
					return valueIsClass(v, co.class), nil
				}
			}
		}
		return false, typeError("type %s not found", mn.ToQualifiedString())
	}
	return valueIsClass(v, cls), nil
}

// loadDomainMemory serves the fast-memory load opcodes.
func loadDomainMemory(a *Activation, op byte, addr int) (Value, error) {
	// Sign-extension ops take their value off the stack, delivered
	// here as addr; they never touch memory.
	switch op {
	case opSxi1:
		return Integer(int32(addr<<31) >> 31), nil
	case opSxi8:
		return Integer(int32(int8(addr))), nil
	case opSxi16:
		return Integer(int32(int16(addr))), nil
	}
	mem := a.Domain().DomainMemory()
	size := map[byte]int{opLi8: 1, opLi16: 2, opLi32: 4, opLf32: 4, opLf64: 8}[op]
	if mem == nil || addr < 0 || addr+size > len(mem) {
		return Undefined, rangeError("domain memory access at %d out of range", addr)
	}
	switch op {
	case opLi8:
		return Integer(int32(mem[addr])), nil
	case opLi16:
		return Integer(int32(binary.LittleEndian.Uint16(mem[addr:]))), nil
	case opLi32:
		return Integer(int32(binary.LittleEndian.Uint32(mem[addr:]))), nil
	case opLf32:
		return Number(float64(math.Float32frombits(binary.LittleEndian.Uint32(mem[addr:])))), nil
	case opLf64:
		return Number(math.Float64frombits(binary.LittleEndian.Uint64(mem[addr:]))), nil
	}
	return Undefined, verifyError("bad fast-memory opcode 0x%02x", op)
}

// storeDomainMemory serves the fast-memory store opcodes.
func storeDomainMemory(a *Activation, op byte, addr int, val Value) error {
	mem := a.Domain().DomainMemory()
	size := map[byte]int{opSi8: 1, opSi16: 2, opSi32: 4, opSf32: 4, opSf64: 8}[op]
	if mem == nil || addr < 0 || addr+size > len(mem) {
		return rangeError("domain memory access at %d out of range", addr)
	}
	switch op {
	case opSi8, opSi16, opSi32:
		i, err := val.CoerceToI32(a)
		if err != nil {
			return err
		}
		switch op {
		case opSi8:
			mem[addr] = byte(i)
		case opSi16:
			binary.LittleEndian.PutUint16(mem[addr:], uint16(i))
		case opSi32:
			binary.LittleEndian.PutUint32(mem[addr:], uint32(i))
		}
	case opSf32, opSf64:
		n, err := val.CoerceToNumber(a)
		if err != nil {
			return err
		}
		if op == opSf32 {
			binary.LittleEndian.PutUint32(mem[addr:], math.Float32bits(float32(n)))
		} else {
			binary.LittleEndian.PutUint64(mem[addr:], math.Float64bits(n))
		}
	}
	return nil
}
