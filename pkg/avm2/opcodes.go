package avm2

// AVM2 opcode bytes.
const (
	opNop            = 0x02
	opThrow          = 0x03
	opGetSuper       = 0x04
	opSetSuper       = 0x05
	opDxns           = 0x06
	opDxnsLate       = 0x07
	opKill           = 0x08
	opLabel          = 0x09
	opIfNlt          = 0x0C
	opIfNle          = 0x0D
	opIfNgt          = 0x0E
	opIfNge          = 0x0F
	opJump           = 0x10
	opIfTrue         = 0x11
	opIfFalse        = 0x12
	opIfEq           = 0x13
	opIfNe           = 0x14
	opIfLt           = 0x15
	opIfLe           = 0x16
	opIfGt           = 0x17
	opIfGe           = 0x18
	opIfStrictEq     = 0x19
	opIfStrictNe     = 0x1A
	opLookupSwitch   = 0x1B
	opPushWith       = 0x1C
	opPopScope       = 0x1D
	opNextName       = 0x1E
	opHasNext        = 0x1F
	opPushNull       = 0x20
	opPushUndefined  = 0x21
	opNextValue      = 0x23
	opPushByte       = 0x24
	opPushShort      = 0x25
	opPushTrue       = 0x26
	opPushFalse      = 0x27
	opPushNaN        = 0x28
	opPop            = 0x29
	opDup            = 0x2A
	opSwap           = 0x2B
	opPushString     = 0x2C
	opPushInt        = 0x2D
	opPushUint       = 0x2E
	opPushDouble     = 0x2F
	opPushScope      = 0x30
	opPushNamespace  = 0x31
	opHasNext2       = 0x32
	opLi8            = 0x35
	opLi16           = 0x36
	opLi32           = 0x37
	opLf32           = 0x38
	opLf64           = 0x39
	opSi8            = 0x3A
	opSi16           = 0x3B
	opSi32           = 0x3C
	opSf32           = 0x3D
	opSf64           = 0x3E
	opNewFunction    = 0x40
	opCall           = 0x41
	opConstruct      = 0x42
	opCallMethod     = 0x43
	opCallStatic     = 0x44
	opCallSuper      = 0x45
	opCallProperty   = 0x46
	opReturnVoid     = 0x47
	opReturnValue    = 0x48
	opConstructSuper = 0x49
	opConstructProp  = 0x4A
	opCallPropLex    = 0x4C
	opCallSuperVoid  = 0x4E
	opCallPropVoid   = 0x4F
	opSxi1           = 0x50
	opSxi8           = 0x51
	opSxi16          = 0x52
	opApplyType      = 0x53
	opNewObject      = 0x55
	opNewArray       = 0x56
	opNewActivation  = 0x57
	opNewClass       = 0x58
	opGetDescendants = 0x59
	opNewCatch       = 0x5A
	opFindPropStrict = 0x5D
	opFindProperty   = 0x5E
	opFindDef        = 0x5F
	opGetLex         = 0x60
	opSetProperty    = 0x61
	opGetLocal       = 0x62
	opSetLocal       = 0x63
	opGetGlobalScope = 0x64
	opGetScopeObject = 0x65
	opGetProperty    = 0x66
	opInitProperty   = 0x68
	opDeleteProperty = 0x6A
	opGetSlot        = 0x6C
	opSetSlot        = 0x6D
	opGetGlobalSlot  = 0x6E
	opSetGlobalSlot  = 0x6F
	opConvertS       = 0x70
	opEscXElem       = 0x71
	opEscXAttr       = 0x72
	opConvertI       = 0x73
	opConvertU       = 0x74
	opConvertD       = 0x75
	opConvertB       = 0x76
	opConvertO       = 0x77
	opCheckFilter    = 0x78
	opCoerce         = 0x80
	opCoerceA        = 0x82
	opCoerceS        = 0x85
	opAsType         = 0x86
	opAsTypeLate     = 0x87
	opNegate         = 0x90
	opIncrement      = 0x91
	opIncLocal       = 0x92
	opDecrement      = 0x93
	opDecLocal       = 0x94
	opTypeOf         = 0x95
	opNot            = 0x96
	opBitNot         = 0x97
	opAdd            = 0xA0
	opSubtract       = 0xA1
	opMultiply       = 0xA2
	opDivide         = 0xA3
	opModulo         = 0xA4
	opLShift         = 0xA5
	opRShift         = 0xA6
	opURShift        = 0xA7
	opBitAnd         = 0xA8
	opBitOr          = 0xA9
	opBitXor         = 0xAA
	opEquals         = 0xAB
	opStrictEquals   = 0xAC
	opLessThan       = 0xAD
	opLessEquals     = 0xAE
	opGreaterThan    = 0xAF
	opGreaterEquals  = 0xB0
	opInstanceOf     = 0xB1
	opIsType         = 0xB2
	opIsTypeLate     = 0xB3
	opIn             = 0xB4
	opIncrementI     = 0xC0
	opDecrementI     = 0xC1
	opIncLocalI      = 0xC2
	opDecLocalI      = 0xC3
	opNegateI        = 0xC4
	opAddI           = 0xC5
	opSubtractI      = 0xC6
	opMultiplyI      = 0xC7
	opGetLocal0      = 0xD0
	opGetLocal1      = 0xD1
	opGetLocal2      = 0xD2
	opGetLocal3      = 0xD3
	opSetLocal0      = 0xD4
	opSetLocal1      = 0xD5
	opSetLocal2      = 0xD6
	opSetLocal3      = 0xD7
	opDebug          = 0xEF
	opDebugLine      = 0xF0
	opDebugFile      = 0xF1
	opBkptLine       = 0xF2
)

// operandKind describes one immediate operand for decoding.
type operandKind uint8

const (
	operU30 operandKind = iota
	operS24
	operU8
	operSwitch // lookupswitch's variable case table
)

// opShapes maps opcodes to their immediate operand layout. Opcodes
// absent from the table take no immediates; unknown opcodes are the
// verifier's problem.
var opShapes = map[byte][]operandKind{
	opGetSuper:       {operU30},
	opSetSuper:       {operU30},
	opDxns:           {operU30},
	opKill:           {operU30},
	opIfNlt:          {operS24},
	opIfNle:          {operS24},
	opIfNgt:          {operS24},
	opIfNge:          {operS24},
	opJump:           {operS24},
	opIfTrue:         {operS24},
	opIfFalse:        {operS24},
	opIfEq:           {operS24},
	opIfNe:           {operS24},
	opIfLt:           {operS24},
	opIfLe:           {operS24},
	opIfGt:           {operS24},
	opIfGe:           {operS24},
	opIfStrictEq:     {operS24},
	opIfStrictNe:     {operS24},
	opLookupSwitch:   {operSwitch},
	opPushByte:       {operU8},
	opPushShort:      {operU30},
	opPushString:     {operU30},
	opPushInt:        {operU30},
	opPushUint:       {operU30},
	opPushDouble:     {operU30},
	opPushNamespace:  {operU30},
	opHasNext2:       {operU30, operU30},
	opNewFunction:    {operU30},
	opCall:           {operU30},
	opConstruct:      {operU30},
	opCallMethod:     {operU30, operU30},
	opCallStatic:     {operU30, operU30},
	opCallSuper:      {operU30, operU30},
	opCallProperty:   {operU30, operU30},
	opConstructSuper: {operU30},
	opConstructProp:  {operU30, operU30},
	opCallPropLex:    {operU30, operU30},
	opCallSuperVoid:  {operU30, operU30},
	opCallPropVoid:   {operU30, operU30},
	opApplyType:      {operU30},
	opNewObject:      {operU30},
	opNewArray:       {operU30},
	opNewClass:       {operU30},
	opGetDescendants: {operU30},
	opNewCatch:       {operU30},
	opFindPropStrict: {operU30},
	opFindProperty:   {operU30},
	opFindDef:        {operU30},
	opGetLex:         {operU30},
	opSetProperty:    {operU30},
	opGetLocal:       {operU30},
	opSetLocal:       {operU30},
	opGetScopeObject: {operU8},
	opGetProperty:    {operU30},
	opInitProperty:   {operU30},
	opDeleteProperty: {operU30},
	opGetSlot:        {operU30},
	opSetSlot:        {operU30},
	opGetGlobalSlot:  {operU30},
	opSetGlobalSlot:  {operU30},
	opCoerce:         {operU30},
	opAsType:         {operU30},
	opIncLocal:       {operU30},
	opDecLocal:       {operU30},
	opIsType:         {operU30},
	opIncLocalI:      {operU30},
	opDecLocalI:      {operU30},
	opDebug:          {operU8, operU30, operU8, operU30},
	opDebugLine:      {operU30},
	opDebugFile:      {operU30},
	opBkptLine:       {operU30},
}

// codeReader walks method-body bytes with the same varint rules as the
// container reader.
type codeReader struct {
	code []byte
	pos  int
}

func (r *codeReader) done() bool { return r.pos >= len(r.code) }

func (r *codeReader) u8() (byte, bool) {
	if r.pos >= len(r.code) {
		return 0, false
	}
	b := r.code[r.pos]
	r.pos++
	return b, true
}

func (r *codeReader) u30() (uint32, bool) {
	var out uint32
	var shift uint
	for i := 0; i < 5; i++ {
		b, ok := r.u8()
		if !ok {
			return 0, false
		}
		out |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return out & 0x3FFFFFFF, true
		}
		shift += 7
	}
	return 0, false
}

func (r *codeReader) s24() (int32, bool) {
	if r.pos+3 > len(r.code) {
		return 0, false
	}
	v := int32(r.code[r.pos]) | int32(r.code[r.pos+1])<<8 | int32(r.code[r.pos+2])<<16
	if v&0x800000 != 0 {
		v |= ^int32(0xFFFFFF)
	}
	r.pos += 3
	return v, true
}

// skipOperands advances past an opcode's immediates; false reports a
// truncated body.
func (r *codeReader) skipOperands(op byte) bool {
	shape, ok := opShapes[op]
	if !ok {
		return true
	}
	for _, kind := range shape {
		switch kind {
		case operU8:
			if _, ok := r.u8(); !ok {
				return false
			}
		case operU30:
			if _, ok := r.u30(); !ok {
				return false
			}
		case operS24:
			if _, ok := r.s24(); !ok {
				return false
			}
		case operSwitch:
			if _, ok := r.s24(); !ok {
				return false
			}
			count, ok := r.u30()
			if !ok {
				return false
			}
			for i := uint32(0); i <= count; i++ {
				if _, ok := r.s24(); !ok {
					return false
				}
			}
		}
	}
	return true
}
