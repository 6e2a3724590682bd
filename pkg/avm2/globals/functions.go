package globals

import (
	"fmt"
	"math"
	"strings"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type functionsModule struct{}

func (functionsModule) Name() string  { return "toplevel functions" }
func (functionsModule) Priority() int { return PriorityFunctions }

func (functionsModule) Install(a *avm2.Activation) {
	avm := a.Avm()
	avm.DefineGlobalValue("NaN", avm2.Number(math.NaN()))
	avm.DefineGlobalValue("Infinity", avm2.Number(math.Inf(1)))
	avm.DefineGlobalValue("undefined", avm2.Undefined)

	avm.DefineGlobalFunction(a, "trace", globalTrace)
	avm.DefineGlobalFunction(a, "parseInt", globalParseInt)
	avm.DefineGlobalFunction(a, "parseFloat", globalParseFloat)
	avm.DefineGlobalFunction(a, "isNaN", globalIsNaN)
	avm.DefineGlobalFunction(a, "isFinite", globalIsFinite)
	avm.DefineGlobalFunction(a, "escape", globalEscape)
	avm.DefineGlobalFunction(a, "unescape", globalUnescape)
	avm.DefineGlobalFunction(a, "encodeURI", uriEncoder(uriKeepEncodeURI))
	avm.DefineGlobalFunction(a, "encodeURIComponent", uriEncoder(uriKeepComponent))
	avm.DefineGlobalFunction(a, "decodeURI", uriDecoder(";/?:@&=+$,#"))
	avm.DefineGlobalFunction(a, "decodeURIComponent", uriDecoder(""))
	avm.DefineGlobalFunction(a, "navigateToURL", globalNavigateToURL)
	avm.DefineGlobalFunction(a, "fscommand", globalFSCommand)
}

func globalTrace(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	parts := make([]string, len(args))
	for i, v := range args {
		s, err := v.CoerceToString(a)
		if err != nil {
			return avm2.Undefined, err
		}
		parts[i] = s.ToUTF8()
	}
	if log := a.Avm().Ctx().Log; log != nil {
		log.Trace(strings.Join(parts, " "))
	}
	return avm2.Undefined, nil
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

func globalParseInt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
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
	if len(args) > 1 && !args[1].IsNullish() {
		radix = argInt(a, args, 1)
		if radix != 0 && (radix < 2 || radix > 36) {
			return avm2.Number(math.NaN()), nil
		}
	}
	if (radix == 0 || radix == 16) && i+1 < s.Len() && s.At(i) == '0' && (s.At(i+1) == 'x' || s.At(i+1) == 'X') {
		radix = 16
		i += 2
	} else if radix == 0 {
		radix = 10
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
		return avm2.Number(math.NaN()), nil
	}
	return avm2.Number(sign * result), nil
}

func globalParseFloat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(argString(a, args, 0).ParsePrefixF64()), nil
}

func globalIsNaN(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Bool(math.IsNaN(argNumber(a, args, 0))), nil
}

func globalIsFinite(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := argNumber(a, args, 0)
	return avm2.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

func escapeUnreserved(u uint16) bool {
	return u >= 'A' && u <= 'Z' || u >= 'a' && u <= 'z' || u >= '0' && u <= '9' ||
		strings.ContainsRune("@*_+-./", rune(u))
}

func globalEscape(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
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
	return avm2.Str(b.String()), nil
}

func hexValue(u uint16) int {
	d := digitValue(u)
	if d >= 16 {
		return -1
	}
	return d
}

func globalUnescape(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
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
	return avm2.String(wstr.FromUTF16(units)), nil
}

const (
	uriKeepComponent = "-_.!~*'()"
	uriKeepEncodeURI = uriKeepComponent + ";/?:@&=+$,#"
)

// uriEncoder percent-encodes the UTF-8 form of the argument, leaving
// ASCII alphanumerics and the given keep set alone.
func uriEncoder(keep string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		src := argUTF8(a, args, 0)
		var b strings.Builder
		for i := 0; i < len(src); i++ {
			c := src[i]
			if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
				strings.IndexByte(keep, c) >= 0 {
				b.WriteByte(c)
				continue
			}
			fmt.Fprintf(&b, "%%%02X", c)
		}
		return avm2.Str(b.String()), nil
	}
}

// uriDecoder reverses percent-encoding, keeping escapes in the
// reserved set intact so decodeURI does not alter URI structure.
func uriDecoder(reserved string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		src := argUTF8(a, args, 0)
		var b strings.Builder
		for i := 0; i < len(src); i++ {
			c := src[i]
			if c != '%' || i+2 >= len(src) {
				b.WriteByte(c)
				continue
			}
			hi, lo := hexValue(uint16(src[i+1])), hexValue(uint16(src[i+2]))
			if hi < 0 || lo < 0 {
				return avm2.Undefined, avm2.TypeError("malformed URI sequence")
			}
			decoded := byte(hi<<4 | lo)
			if strings.IndexByte(reserved, decoded) >= 0 {
				b.WriteString(src[i : i+3])
			} else {
				b.WriteByte(decoded)
			}
			i += 2
		}
		return avm2.Str(b.String()), nil
	}
}

func globalNavigateToURL(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	request := argObject(args, 0)
	if request == nil {
		return avm2.Undefined, avm2.TypeError("navigateToURL needs a URLRequest")
	}
	nav := a.Avm().Ctx().Navigator
	if nav == nil {
		return avm2.Undefined, nil
	}
	target := dynString(a, request, "url", "")
	method := strings.ToUpper(dynString(a, request, "method", "GET"))
	nav.Fetch(target, method, nil, nil)
	if log := a.Avm().Ctx().Log; log != nil {
		log.Debug("navigateToURL %s window=%q", target, argUTF8(a, args, 1))
	}
	return avm2.Undefined, nil
}

func globalFSCommand(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bridge := a.Avm().Ctx().ExternalCall; bridge != nil {
		bridge("fscommand:"+argUTF8(a, args, 0), nil)
	}
	return avm2.Undefined, nil
}
