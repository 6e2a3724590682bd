package wstr

import (
	"math"
	"strconv"
	"strings"
)

// Interner deduplicates small strings. One interner exists per arena;
// interned handles must not cross arenas.
type Interner struct {
	table map[string]WStr
	limit int
}

// NewInterner creates an interner that memoizes strings up to limit units.
func NewInterner(limit int) *Interner {
	return &Interner{table: make(map[string]WStr), limit: limit}
}

// Intern returns a canonical handle for s, memoizing it when small.
func (in *Interner) Intern(s WStr) WStr {
	if s.Len() > in.limit {
		return s
	}
	key := s.ToUTF8()
	if got, ok := in.table[key]; ok {
		return got
	}
	in.table[key] = s
	return s
}

// InternUTF8 interns a Go string directly.
func (in *Interner) InternUTF8(s string) WStr {
	if len(s) <= in.limit {
		if got, ok := in.table[s]; ok {
			return got
		}
	}
	w := FromUTF8(s)
	if len(s) <= in.limit {
		in.table[s] = w
	}
	return w
}

// ParseF64 converts a string to a number following the legacy rules:
// leading/trailing whitespace is skipped, an empty or non-numeric remainder
// yields NaN, and hex literals with an 0x prefix are honored.
func (s WStr) ParseF64() float64 {
	str := strings.TrimSpace(s.ToUTF8())
	if str == "" {
		return math.NaN()
	}
	if len(str) > 2 && (strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X")) {
		n, err := strconv.ParseInt(str[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if str == "Infinity" || str == "+Infinity" {
		return math.Inf(1)
	}
	if str == "-Infinity" {
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ParsePrefixF64 parses the longest numeric prefix, the parseFloat rule.
// Returns NaN when no prefix parses.
func (s WStr) ParsePrefixF64() float64 {
	str := strings.TrimLeft(s.ToUTF8(), " \t\n\r\f\v")
	end := 0
	seenDigit := false
	seenDot := false
	seenExp := false
	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case (c == '+' || c == '-') && i == 0:
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			// Only commit to the exponent if digits follow it.
			j := i + 1
			if j < len(str) && (str[j] == '+' || str[j] == '-') {
				j++
			}
			if j >= len(str) || str[j] < '0' || str[j] > '9' {
				goto done
			}
			seenExp = true
			i = j - 1
		default:
			goto done
		}
		end = i + 1
	}
done:
	if !seenDigit {
		if strings.HasPrefix(str, "Infinity") || strings.HasPrefix(str, "+Infinity") {
			return math.Inf(1)
		}
		if strings.HasPrefix(str, "-Infinity") {
			return math.Inf(-1)
		}
		return math.NaN()
	}
	f, err := strconv.ParseFloat(str[:end], 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// F64ToString renders a number the way the legacy runtime printed them:
// integral doubles lose the fraction, NaN and infinities use the script
// spellings, and everything else goes through the shortest round-trip form.
func F64ToString(f float64) WStr {
	switch {
	case math.IsNaN(f):
		return FromUTF8("NaN")
	case math.IsInf(f, 1):
		return FromUTF8("Infinity")
	case math.IsInf(f, -1):
		return FromUTF8("-Infinity")
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return FromUTF8(strconv.FormatInt(int64(f), 10))
	}
	return FromUTF8(cleanExponent(strconv.FormatFloat(f, 'g', -1, 64)))
}

// cleanExponent strips leading zeros from an exponent so "1e-07" prints
// as "1e-7", matching the script formatting.
func cleanExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+2 >= len(s) {
		return s
	}
	sign := s[i+1]
	if sign != '+' && sign != '-' {
		return s
	}
	j := i + 2
	for j < len(s)-1 && s[j] == '0' {
		j++
	}
	return s[:i+2] + s[j:]
}

// I32ToString renders a 32-bit integer.
func I32ToString(n int32) WStr {
	return FromUTF8(strconv.FormatInt(int64(n), 10))
}

// U32ToString renders an unsigned 32-bit integer.
func U32ToString(n uint32) WStr {
	return FromUTF8(strconv.FormatUint(uint64(n), 10))
}
