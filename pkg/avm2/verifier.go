package avm2

import (
	"lantern/pkg/abc"
)

// verifiedBody is the decoding the verifier hands the interpreter: the
// instruction boundary set proves jump targets, and the depth map holds
// the join-checked operand-stack depth at every boundary.
type verifiedBody struct {
	boundaries map[int]bool
	depths     map[int]int
}

// verifyBody validates a method body before first execution: jump
// targets on instruction boundaries, consistent operand-stack depth at
// every join, well-formed exception ranges, and pool references of the
// expected kind. The result is cached per body on the unit.
func (u *Unit) verifyBody(body *abc.MethodBody) (*verifiedBody, error) {
	if err, seen := u.verified[body]; seen {
		if err != nil {
			return nil, err
		}
		return u.verifiedBodies[body], nil
	}
	vb, err := u.runVerifier(body)
	u.verified[body] = err
	if err != nil {
		return nil, err
	}
	if u.verifiedBodies == nil {
		u.verifiedBodies = make(map[*abc.MethodBody]*verifiedBody)
	}
	u.verifiedBodies[body] = vb
	return vb, nil
}

func (u *Unit) runVerifier(body *abc.MethodBody) (*verifiedBody, error) {
	code := body.Code
	if len(code) == 0 {
		return nil, verifyError("empty method body")
	}

	boundaries := make(map[int]bool)
	next := make(map[int]int) // boundary -> following boundary
	r := &codeReader{code: code}
	for !r.done() {
		at := r.pos
		boundaries[at] = true
		op, _ := r.u8()
		if !r.skipOperands(op) {
			return nil, verifyError("truncated instruction 0x%02x at %d", op, at)
		}
		next[at] = r.pos
	}

	// Pass two: decode operands, validate pool references, and collect
	// the control-flow edges.
	type edge struct{ from, to int }
	var edges []edge
	terminal := make(map[int]bool)
	effects := make(map[int][2]int) // boundary -> {pops, pushes}

	r = &codeReader{code: code}
	for !r.done() {
		at := r.pos
		op, _ := r.u8()
		pops, pushes, targets, term, err := u.verifyInstruction(body, r, op, at)
		if err != nil {
			return nil, err
		}
		effects[at] = [2]int{pops, pushes}
		terminal[at] = term
		for _, t := range targets {
			if t < 0 || t > len(code) || !boundaries[t] {
				return nil, verifyError("jump from %d to invalid offset %d", at, t)
			}
			edges = append(edges, edge{from: at, to: t})
		}
	}

	for _, ex := range body.Exceptions {
		if ex.From > ex.To || int(ex.To) > len(code) {
			return nil, verifyError("malformed exception range [%d,%d)", ex.From, ex.To)
		}
		if !boundaries[int(ex.Target)] {
			return nil, verifyError("exception target %d is not an instruction boundary", ex.Target)
		}
		if _, err := u.optionalMultinameAt(ex.TypeName); err != nil {
			return nil, err
		}
	}

	// Depth simulation: a worklist from the entry and every exception
	// target, joining at shared boundaries.
	depths := make(map[int]int)
	type workItem struct{ pc, depth int }
	work := []workItem{{0, 0}}
	for _, ex := range body.Exceptions {
		work = append(work, workItem{int(ex.Target), 1})
	}
	branchTargets := make(map[int][]int)
	for _, e := range edges {
		branchTargets[e.from] = append(branchTargets[e.from], e.to)
	}

	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]
		if known, ok := depths[item.pc]; ok {
			if known != item.depth {
				return nil, verifyError("inconsistent stack depth at %d: %d vs %d", item.pc, known, item.depth)
			}
			continue
		}
		depths[item.pc] = item.depth

		eff := effects[item.pc]
		depth := item.depth - eff[0]
		if depth < 0 {
			return nil, verifyError("stack underflow at %d", item.pc)
		}
		depth += eff[1]
		if body.MaxStack > 0 && depth > int(body.MaxStack) {
			return nil, verifyError("stack depth %d exceeds declared max %d at %d", depth, body.MaxStack, item.pc)
		}
		for _, t := range branchTargets[item.pc] {
			work = append(work, workItem{t, depth})
		}
		if !terminal[item.pc] {
			if n, ok := next[item.pc]; ok && n < len(code) {
				work = append(work, workItem{n, depth})
			}
		}
	}

	return &verifiedBody{boundaries: boundaries, depths: depths}, nil
}

// verifyInstruction validates one instruction's operands and reports
// its stack effect, branch targets, and whether control falls through.
func (u *Unit) verifyInstruction(body *abc.MethodBody, r *codeReader, op byte, at int) (pops, pushes int, targets []int, terminal bool, err error) {
	f := u.file
	popU30 := func() uint32 {
		v, ok := r.u30()
		if !ok {
			err = verifyError("truncated operand at %d", at)
		}
		return v
	}
	mnEffect := func(idx uint32) int {
		mn, merr := u.MultinameAt(idx)
		if merr != nil {
			err = merr
			return 0
		}
		extra := 0
		if mn.HasLazyNamespace() {
			extra++
		}
		if mn.HasLazyName() {
			extra++
		}
		return extra
	}

	switch op {
	case opNop, opLabel, opKill, opDebug, opDebugLine, opDebugFile, opBkptLine,
		opIncLocal, opDecLocal, opIncLocalI, opDecLocalI:
		r.skipOperands(op)
		return 0, 0, nil, false, nil

	case opThrow:
		return 1, 0, nil, true, nil

	case opJump:
		off, ok := r.s24()
		if !ok {
			return 0, 0, nil, false, verifyError("truncated jump at %d", at)
		}
		return 0, 0, []int{r.pos + int(off)}, true, nil

	case opIfTrue, opIfFalse:
		off, ok := r.s24()
		if !ok {
			return 0, 0, nil, false, verifyError("truncated branch at %d", at)
		}
		return 1, 0, []int{r.pos + int(off)}, false, nil

	case opIfEq, opIfNe, opIfLt, opIfLe, opIfGt, opIfGe,
		opIfStrictEq, opIfStrictNe, opIfNlt, opIfNle, opIfNgt, opIfNge:
		off, ok := r.s24()
		if !ok {
			return 0, 0, nil, false, verifyError("truncated branch at %d", at)
		}
		return 2, 0, []int{r.pos + int(off)}, false, nil

	case opLookupSwitch:
		base := at
		def, ok := r.s24()
		if !ok {
			return 0, 0, nil, false, verifyError("truncated lookupswitch at %d", at)
		}
		count, ok := r.u30()
		if !ok {
			return 0, 0, nil, false, verifyError("truncated lookupswitch at %d", at)
		}
		targets = []int{base + int(def)}
		for i := uint32(0); i <= count; i++ {
			off, ok := r.s24()
			if !ok {
				return 0, 0, nil, false, verifyError("truncated lookupswitch at %d", at)
			}
			targets = append(targets, base+int(off))
		}
		return 1, 0, targets, true, nil

	case opPushWith, opPushScope:
		return 1, 0, nil, false, nil
	case opPopScope, opDxns:
		r.skipOperands(op)
		return 0, 0, nil, false, nil
	case opDxnsLate:
		return 1, 0, nil, false, nil

	case opNextName, opNextValue, opHasNext:
		return 2, 1, nil, false, nil
	case opHasNext2:
		popU30()
		popU30()
		return 0, 1, nil, false, err

	case opPushNull, opPushUndefined, opPushTrue, opPushFalse, opPushNaN:
		return 0, 1, nil, false, nil
	case opPushByte:
		r.u8()
		return 0, 1, nil, false, nil
	case opPushShort:
		popU30()
		return 0, 1, nil, false, err
	case opPushString:
		if idx := popU30(); err == nil && int(idx) >= len(f.Strings) {
			err = verifyError("string constant %d out of range", idx)
		}
		return 0, 1, nil, false, err
	case opPushInt:
		if idx := popU30(); err == nil && int(idx) >= len(f.Ints) {
			err = verifyError("int constant %d out of range", idx)
		}
		return 0, 1, nil, false, err
	case opPushUint:
		if idx := popU30(); err == nil && int(idx) >= len(f.Uints) {
			err = verifyError("uint constant %d out of range", idx)
		}
		return 0, 1, nil, false, err
	case opPushDouble:
		if idx := popU30(); err == nil && int(idx) >= len(f.Doubles) {
			err = verifyError("double constant %d out of range", idx)
		}
		return 0, 1, nil, false, err
	case opPushNamespace:
		if idx := popU30(); err == nil && (idx == 0 || int(idx) >= len(f.Namespaces)) {
			err = verifyError("namespace constant %d out of range", idx)
		}
		return 0, 1, nil, false, err

	case opPop:
		return 1, 0, nil, false, nil
	case opDup:
		return 1, 2, nil, false, nil
	case opSwap:
		return 2, 2, nil, false, nil

	case opLi8, opLi16, opLi32, opLf32, opLf64, opSxi1, opSxi8, opSxi16:
		return 1, 1, nil, false, nil
	case opSi8, opSi16, opSi32, opSf32, opSf64:
		return 2, 0, nil, false, nil

	case opNewFunction:
		if idx := popU30(); err == nil && int(idx) >= len(f.Methods) {
			err = verifyError("method index %d out of range", idx)
		}
		return 0, 1, nil, false, err
	case opCall:
		argc := int(popU30())
		return argc + 2, 1, nil, false, err
	case opConstruct:
		argc := int(popU30())
		return argc + 1, 1, nil, false, err
	case opCallMethod, opCallStatic:
		popU30()
		argc := int(popU30())
		return argc + 1, 1, nil, false, err
	case opCallSuper, opCallProperty, opCallPropLex:
		extra := mnEffect(popU30())
		argc := int(popU30())
		return argc + 1 + extra, 1, nil, false, err
	case opCallSuperVoid, opCallPropVoid:
		extra := mnEffect(popU30())
		argc := int(popU30())
		return argc + 1 + extra, 0, nil, false, err
	case opReturnVoid:
		return 0, 0, nil, true, nil
	case opReturnValue:
		return 1, 0, nil, true, nil
	case opConstructSuper:
		argc := int(popU30())
		return argc + 1, 0, nil, false, err
	case opConstructProp:
		extra := mnEffect(popU30())
		argc := int(popU30())
		return argc + 1 + extra, 1, nil, false, err
	case opApplyType:
		argc := int(popU30())
		return argc + 1, 1, nil, false, err

	case opNewObject:
		argc := int(popU30())
		return argc * 2, 1, nil, false, err
	case opNewArray:
		argc := int(popU30())
		return argc, 1, nil, false, err
	case opNewActivation:
		return 0, 1, nil, false, nil
	case opNewClass:
		if idx := popU30(); err == nil && int(idx) >= len(f.Classes) {
			err = verifyError("class index %d out of range", idx)
		}
		return 1, 1, nil, false, err
	case opGetDescendants:
		extra := mnEffect(popU30())
		return 1 + extra, 1, nil, false, err
	case opNewCatch:
		if idx := popU30(); err == nil && int(idx) >= len(body.Exceptions) {
			err = verifyError("exception index %d out of range", idx)
		}
		return 0, 1, nil, false, err

	case opFindPropStrict, opFindProperty:
		extra := mnEffect(popU30())
		return extra, 1, nil, false, err
	case opFindDef, opGetLex:
		extra := mnEffect(popU30())
		if extra != 0 {
			err = verifyError("getlex name must not be runtime-qualified")
		}
		return 0, 1, nil, false, err

	case opSetProperty, opInitProperty:
		extra := mnEffect(popU30())
		return 2 + extra, 0, nil, false, err
	case opGetProperty, opDeleteProperty:
		extra := mnEffect(popU30())
		return 1 + extra, 1, nil, false, err
	case opGetSuper:
		extra := mnEffect(popU30())
		return 1 + extra, 1, nil, false, err
	case opSetSuper:
		extra := mnEffect(popU30())
		return 2 + extra, 0, nil, false, err

	case opGetLocal:
		popU30()
		return 0, 1, nil, false, err
	case opSetLocal:
		popU30()
		return 1, 0, nil, false, err
	case opGetGlobalScope:
		return 0, 1, nil, false, nil
	case opGetScopeObject:
		r.u8()
		return 0, 1, nil, false, nil
	case opGetSlot:
		popU30()
		return 1, 1, nil, false, err
	case opSetSlot:
		popU30()
		return 2, 0, nil, false, err
	case opGetGlobalSlot:
		popU30()
		return 0, 1, nil, false, err
	case opSetGlobalSlot:
		popU30()
		return 1, 0, nil, false, err

	case opConvertS, opEscXElem, opEscXAttr, opConvertI, opConvertU,
		opConvertD, opConvertB, opConvertO, opCheckFilter, opCoerceA,
		opCoerceS, opNegate, opIncrement, opDecrement, opTypeOf, opNot,
		opBitNot, opIncrementI, opDecrementI, opNegateI:
		return 1, 1, nil, false, nil
	case opCoerce, opAsType, opIsType:
		mnEffect(popU30())
		return 1, 1, nil, false, err
	case opAsTypeLate, opIsTypeLate, opInstanceOf, opIn:
		return 2, 1, nil, false, nil

	case opAdd, opSubtract, opMultiply, opDivide, opModulo, opLShift,
		opRShift, opURShift, opBitAnd, opBitOr, opBitXor, opEquals,
		opStrictEquals, opLessThan, opLessEquals, opGreaterThan,
		opGreaterEquals, opAddI, opSubtractI, opMultiplyI:
		return 2, 1, nil, false, nil

	case opGetLocal0, opGetLocal1, opGetLocal2, opGetLocal3:
		return 0, 1, nil, false, nil
	case opSetLocal0, opSetLocal1, opSetLocal2, opSetLocal3:
		return 1, 0, nil, false, nil
	}
	return 0, 0, nil, false, verifyError("unknown opcode 0x%02x at %d", op, at)
}
