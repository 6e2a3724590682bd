package avm2

import (
	"lantern/pkg/gc"
)

// hole marks an absent dense element; reads treat it as a miss so the
// prototype chain stays visible through holes.
type arrayStorage struct {
	dense []Value
	holes []bool
	// sparse holds indices beyond the dense frontier.
	sparse map[int]Value
	length int
}

// ArrayObject is the array variant: dense storage with holes up to a
// frontier, a sparse map beyond it, and a length that tracks the
// highest index plus one.
type ArrayObject struct {
	*ScriptObject
	storage *gc.Cell[arrayStorage]
}

// NewArrayObject builds an array from initial elements.
func NewArrayObject(a *Activation, elements []Value) *ArrayObject {
	arr := &ArrayObject{
		ScriptObject: NewScriptObject(a, a.Avm().classFor(PublicName("Array")), a.Avm().arrayProto()),
		storage: gc.NewCell(a.Arena(), arrayStorage{
			dense:  append([]Value(nil), elements...),
			holes:  make([]bool, len(elements)),
			sparse: make(map[int]Value),
			length: len(elements),
		}),
	}
	return arr
}

// NewArrayWithLength builds a holes-only array, the Array(n) form.
func NewArrayWithLength(a *Activation, n int) *ArrayObject {
	arr := NewArrayObject(a, nil)
	arr.storage.Mutate(func(s *arrayStorage) { s.length = n })
	return arr
}

func (arr *ArrayObject) Trace(t *gc.Tracer) {
	arr.ScriptObject.Trace(t)
	s := arr.storage.Get()
	for _, v := range s.dense {
		traceValue(t, v)
	}
	for _, v := range s.sparse {
		traceValue(t, v)
	}
}

// Length returns the script-visible length.
func (arr *ArrayObject) Length() int { return arr.storage.Get().length }

// SetLength grows with holes or shrinks by deleting indices at and
// beyond the new length.
func (arr *ArrayObject) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	arr.storage.Mutate(func(s *arrayStorage) {
		if n < len(s.dense) {
			s.dense = s.dense[:n]
			s.holes = s.holes[:n]
		}
		for i := range s.sparse {
			if i >= n {
				delete(s.sparse, i)
			}
		}
		s.length = n
	})
}

// Get reads an element; false reports a hole or out-of-range index.
func (arr *ArrayObject) Get(i int) (Value, bool) {
	s := arr.storage.Get()
	if i < 0 {
		return Undefined, false
	}
	if i < len(s.dense) {
		if s.holes[i] {
			return Undefined, false
		}
		return s.dense[i], true
	}
	v, ok := s.sparse[i]
	return v, ok
}

// Set stores an element, extending length as needed.
func (arr *ArrayObject) Set(i int, v Value) {
	if i < 0 {
		return
	}
	arr.storage.Mutate(func(s *arrayStorage) {
		switch {
		case i < len(s.dense):
			s.dense[i] = v
			s.holes[i] = false
		case i == len(s.dense):
			s.dense = append(s.dense, v)
			s.holes = append(s.holes, false)
		default:
			s.sparse[i] = v
		}
		if i >= s.length {
			s.length = i + 1
		}
	})
}

// Delete removes an element leaving a hole; length is unchanged.
func (arr *ArrayObject) Delete(i int) bool {
	removed := false
	arr.storage.Mutate(func(s *arrayStorage) {
		if i >= 0 && i < len(s.dense) {
			if !s.holes[i] {
				s.dense[i] = Undefined
				s.holes[i] = true
				removed = true
			}
			return
		}
		if _, ok := s.sparse[i]; ok {
			delete(s.sparse, i)
			removed = true
		}
	})
	return removed
}

// Values snapshots the elements in index order, holes as undefined.
func (arr *ArrayObject) Values() []Value {
	s := arr.storage.Get()
	out := make([]Value, s.length)
	for i := 0; i < s.length; i++ {
		if v, ok := arr.Get(i); ok {
			out[i] = v
		} else {
			out[i] = Undefined
		}
	}
	return out
}

// Replace swaps the whole element list, used by the mutating builtins
// (sort, splice, reverse).
func (arr *ArrayObject) Replace(elements []Value) {
	arr.storage.Set(arrayStorage{
		dense:  append([]Value(nil), elements...),
		holes:  make([]bool, len(elements)),
		sparse: make(map[int]Value),
		length: len(elements),
	})
}

// Push appends and returns the new length.
func (arr *ArrayObject) Push(values ...Value) int {
	n := 0
	arr.storage.Mutate(func(s *arrayStorage) {
		for _, v := range values {
			if s.length == len(s.dense) {
				s.dense = append(s.dense, v)
				s.holes = append(s.holes, false)
			} else {
				s.sparse[s.length] = v
			}
			s.length++
		}
		n = s.length
	})
	return n
}

func (arr *ArrayObject) GetIndex(a *Activation, i int) (Value, bool) {
	return arr.Get(i)
}

func (arr *ArrayObject) SetIndex(a *Activation, i int, v Value) (bool, error) {
	if i < 0 {
		return false, nil
	}
	arr.Set(i, v)
	return true, nil
}

func (arr *ArrayObject) DeleteIndex(a *Activation, i int) (bool, bool) {
	if i < 0 || i >= arr.Length() {
		return false, false
	}
	return true, arr.Delete(i)
}

func (arr *ArrayObject) HasIndex(i int) bool {
	_, ok := arr.Get(i)
	return ok
}

// EnumNext iterates occupied indices first, then dynamic keys offset
// past the length.
func (arr *ArrayObject) EnumNext(a *Activation, cur int) int {
	s := arr.storage.Get()
	for i := cur; i < s.length; i++ {
		if _, ok := arr.Get(i); ok {
			return i + 1
		}
	}
	base := cur - s.length
	if base < 0 {
		base = 0
	}
	dyn := arr.ScriptObject.EnumNext(a, base)
	if dyn == 0 {
		return 0
	}
	return s.length + dyn
}

func (arr *ArrayObject) EnumName(a *Activation, i int) Value {
	s := arr.storage.Get()
	if i >= 1 && i <= s.length {
		return Integer(int32(i - 1))
	}
	return arr.ScriptObject.EnumName(a, i-s.length)
}

func (arr *ArrayObject) EnumValue(a *Activation, i int) (Value, error) {
	s := arr.storage.Get()
	if i >= 1 && i <= s.length {
		if v, ok := arr.Get(i - 1); ok {
			return v, nil
		}
		return Undefined, nil
	}
	return arr.ScriptObject.EnumValue(a, i-s.length)
}

// asArray downcasts.
func asArray(o Object) *ArrayObject {
	arr, _ := o.(*ArrayObject)
	return arr
}

// AsArrayObject is the exported downcast for the globals packages.
func AsArrayObject(o Object) *ArrayObject { return asArray(o) }
