package globals

import (
	"fmt"
	"math"
	"strings"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type functionsModule struct{}

func (functionsModule) Name() string  { return "GlobalFunctions" }
func (functionsModule) Priority() int { return PriorityFunctions }

func (functionsModule) Install(a *avm1.Activation) {
	g := a.Avm().Globals()

	method(a, g, "parseInt", globalParseInt)
	method(a, g, "parseFloat", globalParseFloat)
	method(a, g, "isNaN", globalIsNaN)
	method(a, g, "isFinite", globalIsFinite)
	method(a, g, "escape", globalEscape)
	method(a, g, "unescape", globalUnescape)
	method(a, g, "getTimer", globalGetTimer)
	method(a, g, "setInterval", makeTimerAdd(true))
	method(a, g, "setTimeout", makeTimerAdd(false))
	method(a, g, "clearInterval", globalClearTimer)
	method(a, g, "clearTimeout", globalClearTimer)
	method(a, g, "updateAfterEvent", globalUpdateAfterEvent)
	method(a, g, "ASSetPropFlags", globalASSetPropFlags)
}

func digitValue(u uint16) int {
	switch {
	case u >= '0' && u <= '9':
		return int(u - '0')
	case u >= 'a' && u <= 'z':
		return int(u-'a') + 10
	case u >= 'A' && u <= 'Z':
		return int(u-'A') + 10
	}
	return -1
}

func globalParseInt(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := argString(a, args, 0)
	i := 0
	for i < s.Len() && (s.At(i) == ' ' || s.At(i) == '\t' || s.At(i) == '\n' || s.At(i) == '\r') {
		i++
	}
	sign := 1.0
	if i < s.Len() && (s.At(i) == '+' || s.At(i) == '-') {
		if s.At(i) == '-' {
			sign = -1
		}
		i++
	}
	radix := 0
	if len(args) > 1 && !args[1].IsUndefined() {
		radix = argInt(a, args, 1)
		if radix != 0 && (radix < 2 || radix > 36) {
			return avm1.Number(math.NaN()), nil
		}
	}
	if (radix == 0 || radix == 16) && i+1 < s.Len() && s.At(i) == '0' && (s.At(i+1) == 'x' || s.At(i+1) == 'X') {
		radix = 16
		i += 2
	} else if radix == 0 {
		// A leading zero selects octal, as the original parser did.
		if i < s.Len() && s.At(i) == '0' && i+1 < s.Len() {
			radix = 8
		} else {
			radix = 10
		}
	}
	start := i
	result := 0.0
	for i < s.Len() {
		d := digitValue(s.At(i))
		if d < 0 || d >= radix {
			break
		}
		result = result*float64(radix) + float64(d)
		i++
	}
	if i == start {
		return avm1.Number(math.NaN()), nil
	}
	return avm1.Number(sign * result), nil
}

func globalParseFloat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(argString(a, args, 0).ParsePrefixF64()), nil
}

func globalIsNaN(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Bool(math.IsNaN(argNumber(a, args, 0))), nil
}

func globalIsFinite(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	n := argNumber(a, args, 0)
	return avm1.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

func escapeUnreserved(u uint16) bool {
	return u >= 'A' && u <= 'Z' || u >= 'a' && u <= 'z' || u >= '0' && u <= '9' ||
		strings.ContainsRune("@*_+-./", rune(u))
}

func globalEscape(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := argString(a, args, 0)
	var b strings.Builder
	for i := 0; i < s.Len(); i++ {
		u := s.At(i)
		switch {
		case escapeUnreserved(u):
			b.WriteByte(byte(u))
		case u < 256:
			fmt.Fprintf(&b, "%%%02X", u)
		default:
			fmt.Fprintf(&b, "%%u%04X", u)
		}
	}
	return avm1.Str(b.String()), nil
}

func hexValue(u uint16) int {
	d := digitValue(u)
	if d >= 16 {
		return -1
	}
	return d
}

func globalUnescape(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := argString(a, args, 0)
	var units []uint16
	for i := 0; i < s.Len(); i++ {
		u := s.At(i)
		if u == '%' && i+5 < s.Len() && s.At(i+1) == 'u' {
			v := 0
			ok := true
			for j := 0; j < 4; j++ {
				d := hexValue(s.At(i + 2 + j))
				if d < 0 {
					ok = false
					break
				}
				v = v<<4 | d
			}
			if ok {
				units = append(units, uint16(v))
				i += 5
				continue
			}
		}
		if u == '%' && i+2 < s.Len() {
			hi, lo := hexValue(s.At(i+1)), hexValue(s.At(i+2))
			if hi >= 0 && lo >= 0 {
				units = append(units, uint16(hi<<4|lo))
				i += 2
				continue
			}
		}
		units = append(units, u)
	}
	return avm1.String(wstr.FromUTF16(units)), nil
}

func globalGetTimer(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(a.Avm().ElapsedMs()), nil
}

// makeTimerAdd handles both registration forms: (function, delay,
// args...) and (object, methodName, delay, args...).
func makeTimerAdd(repeating bool) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		sched := a.Ctx().Scheduler
		if sched == nil || len(args) < 2 {
			return avm1.Undefined, nil
		}
		var fire func(a *avm1.Activation)
		var delay float64
		var extra []avm1.Value
		if target := argObject(args, 0); target != nil && avm1.AsArray(target) == nil && args[1].IsString() {
			methodName := args[1].AsString()
			delay = argNumber(a, args, 2)
			if len(args) > 3 {
				extra = append(extra, args[3:]...)
			}
			fire = func(a *avm1.Activation) {
				if _, err := avm1.CallMethod(a, target, methodName, avm1.ObjectValue(target), extra); err != nil {
					a.Ctx().Log.Warning("interval handler failed: %v", err)
				}
			}
		} else if fn := argObject(args, 0); fn != nil {
			delay = argNumber(a, args, 1)
			if len(args) > 2 {
				extra = append(extra, args[2:]...)
			}
			fire = func(a *avm1.Activation) {
				if _, err := fn.Call(a, avm1.Undefined, extra); err != nil {
					a.Ctx().Log.Warning("interval handler failed: %v", err)
				}
			}
		} else {
			return avm1.Undefined, nil
		}
		avm := a.Avm()
		clip := a.BaseClip()
		id := sched.Add(delay, repeating, func() {
			fire(avm.NewActivation("[timer]", clip))
		})
		return avm1.Number(float64(id)), nil
	}
}

func globalClearTimer(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if a.Ctx().Scheduler != nil {
		a.Ctx().Scheduler.Remove(argInt(a, args, 0))
	}
	return avm1.Undefined, nil
}

// Rendering is frame-driven here, so forcing an early redraw is a
// no-op.
func globalUpdateAfterEvent(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Undefined, nil
}

func globalASSetPropFlags(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	obj := argObject(args, 0)
	if obj == nil {
		return avm1.Undefined, nil
	}
	var names []wstr.WStr
	props := arg(args, 1)
	switch {
	case props.IsNull() || props.IsUndefined():
		names = obj.Raw().OwnKeys(a)
	case props.IsObject():
		if list := avm1.AsArray(props.AsObject()); list != nil {
			for i := 0; i < list.Length(); i++ {
				names = append(names, list.Element(a, i).CoerceToString(a))
			}
		}
	default:
		for _, part := range strings.Split(props.CoerceToString(a).ToUTF8(), ",") {
			names = append(names, wstr.FromUTF8(part))
		}
	}
	set := avm1.Attr(argInt(a, args, 2)) & (avm1.AttrDontEnum | avm1.AttrDontDelete | avm1.AttrReadOnly)
	clear := avm1.Attr(argInt(a, args, 3)) & (avm1.AttrDontEnum | avm1.AttrDontDelete | avm1.AttrReadOnly)
	for _, name := range names {
		obj.Raw().SetAttributes(a, name, set, clear)
	}
	return avm1.Undefined, nil
}
