package globals

import (
	"math"
	"strings"

	"lantern/pkg/abc"
	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

// arg returns args[i], Undefined past the end.
func arg(args []avm2.Value, i int) avm2.Value {
	if i < 0 || i >= len(args) {
		return avm2.Undefined
	}
	return args[i]
}

func argNumber(a *avm2.Activation, args []avm2.Value, i int) float64 {
	n, err := arg(args, i).CoerceToNumber(a)
	if err != nil {
		return math.NaN()
	}
	return n
}

func argString(a *avm2.Activation, args []avm2.Value, i int) wstr.WStr {
	s, err := arg(args, i).CoerceToString(a)
	if err != nil {
		return wstr.Empty
	}
	return s
}

func argUTF8(a *avm2.Activation, args []avm2.Value, i int) string {
	return argString(a, args, i).ToUTF8()
}

func argInt(a *avm2.Activation, args []avm2.Value, i int) int {
	n, err := arg(args, i).CoerceToI32(a)
	if err != nil {
		return 0
	}
	return int(n)
}

func argIntDefault(a *avm2.Activation, args []avm2.Value, i, def int) int {
	if i >= len(args) || args[i].IsUndefined() {
		return def
	}
	return argInt(a, args, i)
}

func argBool(args []avm2.Value, i int) bool {
	return arg(args, i).CoerceToBoolean()
}

func argObject(args []avm2.Value, i int) avm2.Object {
	v := arg(args, i)
	if !v.IsObject() {
		return nil
	}
	return v.AsObject()
}

// public is the unnamed package namespace every plain name lives in.
func public() *avm2.Namespace { return avm2.NewPublicNamespace() }

// parseDefinitionName splits "flash.display.Sprite" or
// "flash.display::Sprite" into a package-qualified multiname.
func parseDefinitionName(s wstr.WStr) *avm2.Multiname {
	full := s.ToUTF8()
	pkg, name := "", full
	if i := strings.LastIndex(full, "::"); i >= 0 {
		pkg, name = full[:i], full[i+2:]
	} else if i := strings.LastIndex(full, "."); i >= 0 {
		pkg, name = full[:i], full[i+1:]
	}
	if pkg == "" {
		return avm2.QualifiedName(public(), name)
	}
	return avm2.QualifiedName(avm2.NewNamespace(abc.NsPackage, pkg), name)
}

// receiverValue unwraps the primitive inside a wrapper receiver, or
// passes the value through.
func receiverValue(this avm2.Value) avm2.Value {
	if obj := this.AsObject(); obj != nil {
		if v := avm2.Unbox(obj); !v.IsUndefined() {
			return v
		}
	}
	return this
}

// defineClass builds a sealed builtin class, registers it, and returns
// both halves. Methods and accessors defined on cls before this call
// are already flattened into the vtable.
func defineClass(a *avm2.Activation, cls *avm2.Class) *avm2.ClassObject {
	co, err := a.Avm().RegisterClass(a, cls)
	if err != nil {
		a.Avm().ReportUncaught("globals install", err)
		return nil
	}
	return co
}

// protoMethod attaches a native function to a prototype object, the
// legacy access path for plain objects and subclasses built with the
// prototype idiom.
func protoMethod(a *avm2.Activation, proto avm2.Object, name string, fn avm2.NativeMethod) {
	f := avm2.NewFunctionObject(a, avm2.NewNativeMethod(name, fn))
	proto.Base().SetDynamic(name, avm2.ObjectValue(f))
}

// newObject allocates a plain dynamic object on the Object prototype.
func newObject(a *avm2.Activation) *avm2.ScriptObject {
	return avm2.NewScriptObject(a, nil, a.Avm().ProtoFor().Object)
}
