package avm2

import (
	"lantern/pkg/gc"
)

// dictEntry is one key/value pair. Object keys compare by identity,
// primitives by strict equality.
type dictEntry struct {
	key   Value
	value Value
}

// DictionaryData is the native payload of a Dictionary: object-keyed
// storage with insertion-order enumeration. Primitive keys coexist so
// a dictionary degrades gracefully to a plain map.
type DictionaryData struct {
	entries []dictEntry
}

// NewDictionaryData returns empty storage.
func NewDictionaryData() *DictionaryData {
	return &DictionaryData{}
}

func (dd *DictionaryData) find(key Value) int {
	for i := range dd.entries {
		if StrictEquals(dd.entries[i].key, key) {
			return i
		}
	}
	return -1
}

// Get reads a value by key.
func (dd *DictionaryData) Get(key Value) (Value, bool) {
	if i := dd.find(key); i >= 0 {
		return dd.entries[i].value, true
	}
	return Undefined, false
}

// Set writes or replaces a pair.
func (dd *DictionaryData) Set(key, value Value) {
	if i := dd.find(key); i >= 0 {
		dd.entries[i].value = value
		return
	}
	dd.entries = append(dd.entries, dictEntry{key: key, value: value})
}

// Delete removes a pair, reporting whether it existed.
func (dd *DictionaryData) Delete(key Value) bool {
	i := dd.find(key)
	if i < 0 {
		return false
	}
	dd.entries = append(dd.entries[:i], dd.entries[i+1:]...)
	return true
}

// Has reports key presence.
func (dd *DictionaryData) Has(key Value) bool { return dd.find(key) >= 0 }

// Len returns the pair count.
func (dd *DictionaryData) Len() int { return len(dd.entries) }

// DictionaryObject routes property access through value keys instead
// of names, the behavior scripts reach for when identity matters.
type DictionaryObject struct {
	*ScriptObject
	data *DictionaryData
}

// NewDictionaryObject builds an instance.
func NewDictionaryObject(a *Activation, cls *Class, proto Value) *DictionaryObject {
	do := &DictionaryObject{
		ScriptObject: NewScriptObject(a, cls, proto),
		data:         NewDictionaryData(),
	}
	do.ScriptObject.native = do.data
	return do
}

func (do *DictionaryObject) Trace(t *gc.Tracer) {
	do.ScriptObject.Trace(t)
	for _, e := range do.data.entries {
		traceValue(t, e.key)
		traceValue(t, e.value)
	}
}

// Data returns the keyed storage.
func (do *DictionaryObject) Data() *DictionaryData { return do.data }

// GetKeyed reads through an arbitrary key value.
func (do *DictionaryObject) GetKeyed(key Value) Value {
	if v, ok := do.data.Get(key); ok {
		return v
	}
	return Undefined
}

// SetKeyed writes through an arbitrary key value.
func (do *DictionaryObject) SetKeyed(key, value Value) {
	do.data.Set(key, value)
}

// DeleteKeyed removes an arbitrary key.
func (do *DictionaryObject) DeleteKeyed(key Value) bool {
	return do.data.Delete(key)
}

func (do *DictionaryObject) GetIndex(a *Activation, i int) (Value, bool) {
	return do.data.Get(Integer(int32(i)))
}

func (do *DictionaryObject) SetIndex(a *Activation, i int, v Value) (bool, error) {
	do.data.Set(Integer(int32(i)), v)
	return true, nil
}

func (do *DictionaryObject) DeleteIndex(a *Activation, i int) (bool, bool) {
	return true, do.data.Delete(Integer(int32(i)))
}

func (do *DictionaryObject) HasIndex(i int) bool {
	return do.data.Has(Integer(int32(i)))
}

func (do *DictionaryObject) EnumNext(a *Activation, i int) int {
	if i < len(do.data.entries) {
		return i + 1
	}
	return 0
}

func (do *DictionaryObject) EnumName(a *Activation, i int) Value {
	if i >= 1 && i <= len(do.data.entries) {
		return do.data.entries[i-1].key
	}
	return Undefined
}

func (do *DictionaryObject) EnumValue(a *Activation, i int) (Value, error) {
	if i >= 1 && i <= len(do.data.entries) {
		return do.data.entries[i-1].value, nil
	}
	return Undefined, nil
}

// asDictionary downcasts through the native payload.
func asDictionary(o Object) *DictionaryObject {
	do, _ := o.(*DictionaryObject)
	return do
}
