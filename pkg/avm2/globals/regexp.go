package globals

import (
	"strings"

	"github.com/dlclark/regexp2"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type regexpModule struct{}

func (regexpModule) Name() string  { return "RegExp" }
func (regexpModule) Priority() int { return PriorityRegExp }

func (regexpModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("RegExp", public(), objectCls, 0)
	cls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&regExpData{})
		return obj, nil
	})
	cls.SetNativeInit(regExpInit)
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		// RegExp(re) returns the argument unchanged; anything else
		// compiles a fresh expression.
		if rx, _ := regExpArg(a, args, 0); rx != nil {
			return args[0], nil
		}
		co := a.Avm().ClassByName("RegExp").ClassObject()
		obj, err := co.Construct(a, args)
		if err != nil {
			return avm2.Undefined, err
		}
		return avm2.ObjectValue(obj), nil
	})

	cls.DefineGetter(public(), "source", regExpSource)
	cls.DefineGetter(public(), "global", regExpGlobal)
	cls.DefineGetter(public(), "ignoreCase", regExpIgnoreCase)
	cls.DefineGetter(public(), "multiline", regExpMultiline)
	cls.DefineGetter(public(), "dotall", regExpDotall)
	cls.DefineGetter(public(), "extended", regExpExtended)
	cls.DefineGetter(public(), "lastIndex", regExpLastIndexGet)
	cls.DefineSetter(public(), "lastIndex", regExpLastIndexSet)
	cls.DefineMethod(public(), "exec", regExpExec)
	cls.DefineMethod(public(), "test", regExpTest)
	cls.DefineMethod(public(), "toString", regExpToString)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().RegExp = avm2.ObjectValue(co.Prototype())
}

// regExpData is the native payload behind a RegExp instance.
type regExpData struct {
	source     wstr.WStr
	flags      string
	re         *regexp2.Regexp
	global     bool
	ignoreCase bool
	multiline  bool
	dotall     bool
	extended   bool
	lastIndex  int
}

// regExpMatch reports one match with positions in code units.
type regExpMatch struct {
	index  int
	text   wstr.WStr
	groups []wstr.WStr
	names  []string
}

func compileRegExp(pattern wstr.WStr, flags string) (*regExpData, error) {
	var opts regexp2.RegexOptions
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	if strings.Contains(flags, "x") {
		opts |= regexp2.IgnorePatternWhitespace
	}
	re, err := regexp2.Compile(pattern.ToUTF8(), opts)
	if err != nil {
		return nil, avm2.TypeError("invalid regular expression: %v", err)
	}
	return &regExpData{
		source:     pattern,
		flags:      flags,
		re:         re,
		global:     strings.Contains(flags, "g"),
		ignoreCase: strings.Contains(flags, "i"),
		multiline:  strings.Contains(flags, "m"),
		dotall:     strings.Contains(flags, "s"),
		extended:   strings.Contains(flags, "x"),
	}, nil
}

// findAt matches against s from a code-unit offset. The engine works in
// runes, so offsets are translated at the boundary.
func (rx *regExpData) findAt(s wstr.WStr, start int) (*regExpMatch, error) {
	if start < 0 || start > s.Len() {
		return nil, nil
	}
	runes := []rune(s.ToUTF8())
	runeStart := runeIndexOfUnit(runes, start)
	m, err := rx.re.FindRunesMatchStartingAt(runes, runeStart)
	if err != nil {
		return nil, avm2.TypeError("regular expression error: %v", err)
	}
	if m == nil {
		return nil, nil
	}
	out := &regExpMatch{
		index: unitIndexOfRune(runes, m.Index),
		text:  wstr.FromUTF8(m.String()),
	}
	groups := m.Groups()
	for _, g := range groups[1:] {
		out.groups = append(out.groups, wstr.FromUTF8(g.String()))
		out.names = append(out.names, g.Name)
	}
	return out, nil
}

// runeIndexOfUnit maps a UTF-16 offset onto the rune stream.
func runeIndexOfUnit(runes []rune, unit int) int {
	units := 0
	for i, r := range runes {
		if units >= unit {
			return i
		}
		units += utf16Width(r)
	}
	return len(runes)
}

// unitIndexOfRune maps a rune offset back to UTF-16 units.
func unitIndexOfRune(runes []rune, idx int) int {
	units := 0
	for i := 0; i < idx && i < len(runes); i++ {
		units += utf16Width(runes[i])
	}
	return units
}

func utf16Width(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

// regExpOf extracts the payload from a RegExp instance.
func regExpOf(o avm2.Object) *regExpData {
	if o == nil {
		return nil
	}
	rx, _ := o.NativeData().(*regExpData)
	return rx
}

// regExpArg reads args[i] as a regular expression; nil with no error
// means the argument is not one.
func regExpArg(a *avm2.Activation, args []avm2.Value, i int) (*regExpData, error) {
	rx := regExpOf(argObject(args, i))
	if rx == nil {
		return nil, nil
	}
	if rx.re == nil {
		return nil, avm2.TypeError("regular expression is not compiled")
	}
	return rx, nil
}

func regExpInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	pattern := wstr.Empty
	flags := ""
	if src, _ := regExpArg(a, args, 0); src != nil {
		pattern = src.source
		flags = src.flags
	} else if len(args) > 0 && !args[0].IsUndefined() {
		pattern = argString(a, args, 0)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		flags = argUTF8(a, args, 1)
	}
	rx, err := compileRegExp(pattern, flags)
	if err != nil {
		return avm2.Undefined, err
	}
	obj.Base().SetNativeData(rx)
	return avm2.Undefined, nil
}

func receiverRegExp(this avm2.Value) *regExpData {
	return regExpOf(this.AsObject())
}

func regExpSource(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if rx := receiverRegExp(this); rx != nil {
		return avm2.String(rx.source), nil
	}
	return avm2.Str(""), nil
}

func regExpGlobal(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	return avm2.Bool(rx != nil && rx.global), nil
}

func regExpIgnoreCase(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	return avm2.Bool(rx != nil && rx.ignoreCase), nil
}

func regExpMultiline(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	return avm2.Bool(rx != nil && rx.multiline), nil
}

func regExpDotall(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	return avm2.Bool(rx != nil && rx.dotall), nil
}

func regExpExtended(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	return avm2.Bool(rx != nil && rx.extended), nil
}

func regExpLastIndexGet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if rx := receiverRegExp(this); rx != nil {
		return avm2.Integer(int32(rx.lastIndex)), nil
	}
	return avm2.Integer(0), nil
}

func regExpLastIndexSet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if rx := receiverRegExp(this); rx != nil {
		n := argInt(a, args, 0)
		if n < 0 {
			n = 0
		}
		rx.lastIndex = n
	}
	return avm2.Undefined, nil
}

// matchResult builds the exec/match result array: the full match in
// slot 0, capture groups after it, with index and input attached.
func matchResult(a *avm2.Activation, input wstr.WStr, m *regExpMatch) *avm2.ArrayObject {
	elems := []avm2.Value{avm2.String(m.text)}
	for _, g := range m.groups {
		elems = append(elems, avm2.String(g))
	}
	arr := avm2.NewArrayObject(a, elems)
	arr.SetDynamic("index", avm2.Integer(int32(m.index)))
	arr.SetDynamic("input", avm2.String(input))
	for i, name := range m.names {
		if name != "" && !isDigits(name) {
			arr.SetDynamic(name, avm2.String(m.groups[i]))
		}
	}
	return arr
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func regExpExec(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	if rx == nil || rx.re == nil {
		return avm2.Null, nil
	}
	s := argString(a, args, 0)
	start := 0
	if rx.global {
		start = rx.lastIndex
	}
	m, err := rx.findAt(s, start)
	if err != nil {
		return avm2.Undefined, err
	}
	if m == nil {
		rx.lastIndex = 0
		return avm2.Null, nil
	}
	if rx.global {
		rx.lastIndex = m.index + m.text.Len()
		if m.text.IsEmpty() {
			rx.lastIndex++
		}
	}
	return avm2.ObjectValue(matchResult(a, s, m)), nil
}

func regExpTest(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	r, err := regExpExec(a, this, args)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Bool(!r.IsNull()), nil
}

func regExpToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	rx := receiverRegExp(this)
	if rx == nil {
		return avm2.Str("/(?:)/"), nil
	}
	return avm2.Str("/" + rx.source.ToUTF8() + "/" + rx.flags), nil
}

// expandReplacement substitutes $-sequences in a replace template:
// $$ for a literal dollar, $& the match, $` and $' the surrounding
// text, $1..$99 capture groups. Unknown sequences pass through.
func expandReplacement(tpl wstr.WStr, s wstr.WStr, m *regExpMatch) wstr.WStr {
	var out []uint16
	appendStr := func(w wstr.WStr) {
		out = append(out, w.Units()...)
	}
	for i := 0; i < tpl.Len(); i++ {
		u := tpl.At(i)
		if u != '$' || i+1 >= tpl.Len() {
			out = append(out, u)
			continue
		}
		next := tpl.At(i + 1)
		switch {
		case next == '$':
			out = append(out, '$')
			i++
		case next == '&':
			appendStr(m.text)
			i++
		case next == '`':
			appendStr(s.Slice(0, m.index))
			i++
		case next == '\'':
			appendStr(s.Slice(m.index+m.text.Len(), s.Len()))
			i++
		case next >= '1' && next <= '9':
			n := int(next - '0')
			used := 1
			if i+2 < tpl.Len() {
				if d := tpl.At(i + 2); d >= '0' && d <= '9' && n*10+int(d-'0') <= len(m.groups) {
					n = n*10 + int(d-'0')
					used = 2
				}
			}
			if n <= len(m.groups) {
				appendStr(m.groups[n-1])
				i += used
			} else {
				out = append(out, u)
			}
		default:
			out = append(out, u)
		}
	}
	return wstr.FromUTF16(out)
}
