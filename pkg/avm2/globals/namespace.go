package globals

import (
	"lantern/pkg/abc"
	"lantern/pkg/avm2"
)

type namespaceModule struct{}

func (namespaceModule) Name() string  { return "Namespace" }
func (namespaceModule) Priority() int { return PriorityNamespace }

func (namespaceModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")

	nsCls := avm2.NewClass("Namespace", public(), objectCls, avm2.ClassFlagFinal)
	nsCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&avm2.NamespaceData{Namespace: avm2.NewPublicNamespace()})
		return obj, nil
	})
	nsCls.SetNativeInit(namespaceInit)
	nsCls.DefineGetter(public(), "uri", namespaceURI)
	nsCls.DefineGetter(public(), "prefix", namespacePrefix)
	nsCls.DefineMethod(public(), "toString", namespaceURI)
	nsCls.DefineMethod(public(), "valueOf", namespaceURI)

	if co := defineClass(a, nsCls); co != nil {
		a.Avm().ProtoFor().Namespace = avm2.ObjectValue(co.Prototype())
	}

	qnCls := avm2.NewClass("QName", public(), objectCls, avm2.ClassFlagFinal)
	qnCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&avm2.QNameData{})
		return obj, nil
	})
	qnCls.SetNativeInit(qnameInit)
	qnCls.DefineGetter(public(), "uri", qnameURI)
	qnCls.DefineGetter(public(), "localName", qnameLocalName)
	qnCls.DefineMethod(public(), "toString", qnameToString)

	if co := defineClass(a, qnCls); co != nil {
		a.Avm().ProtoFor().QName = avm2.ObjectValue(co.Prototype())
	}
}

func namespaceOf(this avm2.Value) *avm2.NamespaceData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	d, _ := obj.NativeData().(*avm2.NamespaceData)
	return d
}

func namespaceInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := namespaceOf(this)
	if d == nil {
		return avm2.Undefined, nil
	}
	switch len(args) {
	case 0:
	case 1:
		if src := namespaceOf(arg(args, 0)); src != nil {
			*d = *src
			break
		}
		d.Namespace = avm2.NewNamespace(abc.NsNamespace, argUTF8(a, args, 0))
	default:
		d.Prefix = argUTF8(a, args, 0)
		d.Namespace = avm2.NewNamespace(abc.NsNamespace, argUTF8(a, args, 1))
	}
	return avm2.Undefined, nil
}

func namespaceURI(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if d := namespaceOf(this); d != nil && d.Namespace != nil {
		return avm2.Str(d.Namespace.URI), nil
	}
	return avm2.Str(""), nil
}

func namespacePrefix(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if d := namespaceOf(this); d != nil {
		return avm2.Str(d.Prefix), nil
	}
	return avm2.Undefined, nil
}

func qnameOf(this avm2.Value) *avm2.QNameData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	d, _ := obj.NativeData().(*avm2.QNameData)
	return d
}

func qnameInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := qnameOf(this)
	if d == nil {
		return avm2.Undefined, nil
	}
	switch len(args) {
	case 0:
	case 1:
		if src := qnameOf(arg(args, 0)); src != nil {
			*d = *src
			break
		}
		name := argUTF8(a, args, 0)
		if name == "*" {
			d.AnyName = true
			break
		}
		d.Name = name
	default:
		if ns := namespaceOf(arg(args, 0)); ns != nil {
			d.Namespace = ns.Namespace
		} else if !args[0].IsNullish() {
			d.Namespace = avm2.NewNamespace(abc.NsNamespace, argUTF8(a, args, 0))
		}
		d.Name = argUTF8(a, args, 1)
	}
	return avm2.Undefined, nil
}

func qnameURI(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := qnameOf(this)
	if d == nil || d.Namespace == nil {
		return avm2.Null, nil
	}
	return avm2.Str(d.Namespace.URI), nil
}

func qnameLocalName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := qnameOf(this)
	if d == nil {
		return avm2.Str(""), nil
	}
	if d.AnyName {
		return avm2.Str("*"), nil
	}
	return avm2.Str(d.Name), nil
}

func qnameToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := qnameOf(this)
	if d == nil {
		return avm2.Str(""), nil
	}
	name := d.Name
	if d.AnyName {
		name = "*"
	}
	if d.Namespace != nil && d.Namespace.URI != "" {
		return avm2.Str(d.Namespace.URI + "::" + name), nil
	}
	return avm2.Str(name), nil
}
