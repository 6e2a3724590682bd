// Package wstr implements the wide-character string type used by the
// scripting runtime. Runtime strings are sequences of 16-bit code units,
// stored narrow (one byte per unit, latin-1) when possible and wide
// (uint16 per unit) otherwise. They are immutable after construction and
// deliberately distinct from Go's UTF-8 strings: conversion in either
// direction is explicit.
package wstr

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// WStr is an immutable wide string. The zero value is the empty string.
// Exactly one of narrow/wide is non-nil for non-empty strings.
type WStr struct {
	narrow []byte
	wide   []uint16
}

// Empty is the canonical empty string.
var Empty = WStr{}

// FromUTF8 converts a Go string into a runtime string. Code points above
// U+FFFF are encoded as surrogate pairs, matching the unit-based string
// model of the original runtime.
func FromUTF8(s string) WStr {
	narrow := true
	for _, r := range s {
		if r > 0xFF {
			narrow = false
			break
		}
	}
	if narrow {
		buf := make([]byte, 0, len(s))
		for _, r := range s {
			buf = append(buf, byte(r))
		}
		return WStr{narrow: buf}
	}
	return WStr{wide: utf16.Encode([]rune(s))}
}

// FromUTF16 wraps a unit buffer directly. Unpaired surrogates are kept
// as-is; scripts can and do construct them.
func FromUTF16(units []uint16) WStr {
	for _, u := range units {
		if u > 0xFF {
			w := make([]uint16, len(units))
			copy(w, units)
			return WStr{wide: w}
		}
	}
	buf := make([]byte, len(units))
	for i, u := range units {
		buf[i] = byte(u)
	}
	return WStr{narrow: buf}
}

// FromUnits builds a string from already-validated narrow bytes without
// re-scanning. The caller must not retain buf.
func FromUnits(buf []byte) WStr {
	return WStr{narrow: buf}
}

// Decode1252 interprets raw movie bytes as windows-1252, the encoding
// used by content published before SWF 6.
func Decode1252(raw []byte) WStr {
	units := make([]uint16, len(raw))
	narrow := true
	for i, b := range raw {
		r := charmap.Windows1252.DecodeByte(b)
		if r == utf8.RuneError {
			r = rune(b)
		}
		units[i] = uint16(r)
		if r > 0xFF {
			narrow = false
		}
	}
	if !narrow {
		return WStr{wide: units}
	}
	buf := make([]byte, len(units))
	for i, u := range units {
		buf[i] = byte(u)
	}
	return WStr{narrow: buf}
}

// Len returns the number of 16-bit units, not code points.
func (s WStr) Len() int {
	if s.narrow != nil {
		return len(s.narrow)
	}
	return len(s.wide)
}

// IsEmpty reports whether the string has no units.
func (s WStr) IsEmpty() bool { return s.Len() == 0 }

// At returns the unit at index i. Out-of-range access returns 0; property
// paths probe past the end routinely and must not panic.
func (s WStr) At(i int) uint16 {
	if i < 0 || i >= s.Len() {
		return 0
	}
	if s.narrow != nil {
		return uint16(s.narrow[i])
	}
	return s.wide[i]
}

// Units copies the string out as a uint16 slice.
func (s WStr) Units() []uint16 {
	out := make([]uint16, s.Len())
	if s.narrow != nil {
		for i, b := range s.narrow {
			out[i] = uint16(b)
		}
	} else {
		copy(out, s.wide)
	}
	return out
}

// Slice returns the unit range [from, to), clamped to the string bounds.
func (s WStr) Slice(from, to int) WStr {
	n := s.Len()
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from >= to {
		return Empty
	}
	if s.narrow != nil {
		return WStr{narrow: s.narrow[from:to]}
	}
	// A wide slice may become representable narrow; keep it wide. Slicing
	// is hot and the narrow check costs a scan.
	return WStr{wide: s.wide[from:to]}
}

// Concat joins two strings.
func Concat(a, b WStr) WStr {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	if a.narrow != nil && b.narrow != nil {
		buf := make([]byte, 0, len(a.narrow)+len(b.narrow))
		buf = append(buf, a.narrow...)
		buf = append(buf, b.narrow...)
		return WStr{narrow: buf}
	}
	units := make([]uint16, 0, a.Len()+b.Len())
	units = append(units, a.Units()...)
	units = append(units, b.Units()...)
	return WStr{wide: units}
}

// Repeat returns the string repeated count times.
func (s WStr) Repeat(count int) WStr {
	if count <= 0 || s.IsEmpty() {
		return Empty
	}
	out := s
	for i := 1; i < count; i++ {
		out = Concat(out, s)
	}
	return out
}

// Eq reports unit-wise equality.
func (s WStr) Eq(other WStr) bool {
	n := s.Len()
	if n != other.Len() {
		return false
	}
	if s.narrow != nil && other.narrow != nil {
		return string(s.narrow) == string(other.narrow)
	}
	for i := 0; i < n; i++ {
		if s.At(i) != other.At(i) {
			return false
		}
	}
	return true
}

// foldUnit lowercases a single unit using the simple one-to-one folding
// the original runtime applied. Multi-unit foldings are out of scope.
func foldUnit(u uint16) uint16 {
	r := unicodeSimpleFold(rune(u))
	if r > 0xFFFF {
		return u
	}
	return uint16(r)
}

func unicodeSimpleFold(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	if r < 0x80 {
		return r
	}
	lower := []rune(strings.ToLower(string(r)))
	if len(lower) != 1 {
		return r
	}
	return lower[0]
}

// EqIgnoreCase reports equality under simple case folding.
func (s WStr) EqIgnoreCase(other WStr) bool {
	n := s.Len()
	if n != other.Len() {
		return false
	}
	for i := 0; i < n; i++ {
		if foldUnit(s.At(i)) != foldUnit(other.At(i)) {
			return false
		}
	}
	return true
}

// Compare orders two strings unit-wise. Returns -1, 0, or 1.
func (s WStr) Compare(other WStr) int {
	n := s.Len()
	m := other.Len()
	for i := 0; i < n && i < m; i++ {
		a, b := s.At(i), other.At(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	switch {
	case n < m:
		return -1
	case n > m:
		return 1
	}
	return 0
}

// CompareIgnoreCase orders two strings under simple case folding.
func (s WStr) CompareIgnoreCase(other WStr) int {
	n := s.Len()
	m := other.Len()
	for i := 0; i < n && i < m; i++ {
		a, b := foldUnit(s.At(i)), foldUnit(other.At(i))
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	switch {
	case n < m:
		return -1
	case n > m:
		return 1
	}
	return 0
}

// Index returns the unit offset of the first occurrence of needle at or
// after from, or -1.
func (s WStr) Index(needle WStr, from int) int {
	if from < 0 {
		from = 0
	}
	n := s.Len()
	m := needle.Len()
	if m == 0 {
		if from > n {
			return n
		}
		return from
	}
	for i := from; i+m <= n; i++ {
		match := true
		for j := 0; j < m; j++ {
			if s.At(i+j) != needle.At(j) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// LastIndex returns the unit offset of the last occurrence of needle
// starting at or before from, or -1.
func (s WStr) LastIndex(needle WStr, from int) int {
	n := s.Len()
	m := needle.Len()
	if from > n-m {
		from = n - m
	}
	for i := from; i >= 0; i-- {
		match := true
		for j := 0; j < m; j++ {
			if s.At(i+j) != needle.At(j) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// ToLowercase folds every unit down.
func (s WStr) ToLowercase() WStr {
	units := s.Units()
	for i, u := range units {
		units[i] = foldUnit(u)
	}
	return FromUTF16(units)
}

// ToUppercase raises every unit using the simple mapping.
func (s WStr) ToUppercase() WStr {
	units := s.Units()
	for i, u := range units {
		r := rune(u)
		if r >= 'a' && r <= 'z' {
			units[i] = u - ('a' - 'A')
			continue
		}
		if r >= 0x80 {
			upper := []rune(strings.ToUpper(string(r)))
			if len(upper) == 1 && upper[0] <= 0xFFFF {
				units[i] = uint16(upper[0])
			}
		}
	}
	return FromUTF16(units)
}

// ToUTF8 converts to a Go string. Unpaired surrogates become U+FFFD;
// the conversion is lossy by contract and used only at host boundaries.
func (s WStr) ToUTF8() string {
	if s.narrow != nil {
		var b strings.Builder
		b.Grow(len(s.narrow))
		for _, u := range s.narrow {
			b.WriteRune(rune(u))
		}
		return b.String()
	}
	return string(utf16.Decode(s.wide))
}

// String implements fmt.Stringer via the lossy UTF-8 conversion.
func (s WStr) String() string { return s.ToUTF8() }
