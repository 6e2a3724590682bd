package globals

import (
	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type xmlModule struct{}

func (xmlModule) Name() string  { return "XML" }
func (xmlModule) Priority() int { return PriorityXML }

func (xmlModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")

	xmlCls := avm2.NewClass("XML", public(), objectCls, avm2.ClassFlagFinal)
	xmlCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&avm2.XMLData{Kind: avm2.XMLText})
		return obj, nil
	})
	xmlCls.SetNativeInit(xmlInit)
	xmlCls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if node := avm2.AsXMLData(argObject(args, 0)); node != nil {
			return args[0], nil
		}
		node, perr := avm2.ParseXML(argString(a, args, 0))
		if perr != nil {
			return avm2.Undefined, perr
		}
		return avm2.ObjectValue(avm2.NewXMLObject(a, node)), nil
	})

	xmlCls.DefineMethod(public(), "toString", xmlToString)
	xmlCls.DefineMethod(public(), "toXMLString", xmlToXMLString)
	xmlCls.DefineMethod(public(), "name", xmlName)
	xmlCls.DefineMethod(public(), "localName", xmlLocalName)
	xmlCls.DefineMethod(public(), "children", xmlChildren)
	xmlCls.DefineMethod(public(), "child", xmlChild)
	xmlCls.DefineMethod(public(), "attribute", xmlAttribute)
	xmlCls.DefineMethod(public(), "attributes", xmlAttributes)
	xmlCls.DefineMethod(public(), "descendants", xmlDescendantsMethod)
	xmlCls.DefineMethod(public(), "elements", xmlChildren)
	xmlCls.DefineMethod(public(), "text", xmlText)
	xmlCls.DefineMethod(public(), "appendChild", xmlAppendChild)
	xmlCls.DefineMethod(public(), "hasSimpleContent", xmlHasSimpleContent)
	xmlCls.DefineMethod(public(), "hasComplexContent", xmlHasComplexContent)
	xmlCls.DefineMethod(public(), "length", xmlLength)
	xmlCls.DefineMethod(public(), "nodeKind", xmlNodeKind)

	if co := defineClass(a, xmlCls); co != nil {
		a.Avm().ProtoFor().XML = avm2.ObjectValue(co.Prototype())
	}

	listCls := avm2.NewClass("XMLList", public(), objectCls, avm2.ClassFlagFinal)
	listCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&avm2.XMLListData{})
		return obj, nil
	})
	listCls.SetNativeInit(xmlListInit)

	listCls.DefineMethod(public(), "toString", xmlToString)
	listCls.DefineMethod(public(), "toXMLString", xmlToXMLString)
	listCls.DefineMethod(public(), "length", xmlLength)
	listCls.DefineMethod(public(), "children", xmlChildren)
	listCls.DefineMethod(public(), "child", xmlChild)
	listCls.DefineMethod(public(), "attribute", xmlAttribute)
	listCls.DefineMethod(public(), "attributes", xmlAttributes)
	listCls.DefineMethod(public(), "descendants", xmlDescendantsMethod)
	listCls.DefineMethod(public(), "text", xmlText)
	listCls.DefineMethod(public(), "hasSimpleContent", xmlHasSimpleContent)
	listCls.DefineMethod(public(), "hasComplexContent", xmlHasComplexContent)

	if co := defineClass(a, listCls); co != nil {
		a.Avm().ProtoFor().XMLList = avm2.ObjectValue(co.Prototype())
	}
}

func xmlInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	if node := avm2.AsXMLData(argObject(args, 0)); node != nil {
		obj.Base().SetNativeData(node)
		return avm2.Undefined, nil
	}
	src := wstr.Empty
	if len(args) > 0 && !args[0].IsNullish() {
		src = argString(a, args, 0)
	}
	node, perr := avm2.ParseXML(src)
	if perr != nil {
		return avm2.Undefined, perr
	}
	obj.Base().SetNativeData(node)
	return avm2.Undefined, nil
}

func xmlListInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	if list := avm2.AsXMLListData(argObject(args, 0)); list != nil {
		obj.Base().SetNativeData(list)
		return avm2.Undefined, nil
	}
	if len(args) > 0 && !args[0].IsNullish() {
		node, perr := avm2.ParseXML(argString(a, args, 0))
		if perr != nil {
			return avm2.Undefined, perr
		}
		obj.Base().SetNativeData(&avm2.XMLListData{Nodes: []*avm2.XMLData{node}})
	}
	return avm2.Undefined, nil
}

// receiverNodes flattens the receiver to its node list.
func receiverNodes(this avm2.Value) []*avm2.XMLData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	if list := avm2.AsXMLListData(obj); list != nil {
		return list.Nodes
	}
	return nil
}

func xmlToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Str(""), nil
	}
	if node := avm2.AsXMLData(obj); node != nil {
		return avm2.String(node.ToString()), nil
	}
	if list := avm2.AsXMLListData(obj); list != nil {
		return avm2.String(list.ToString()), nil
	}
	return avm2.Str(""), nil
}

func xmlToXMLString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	var out wstr.WStr
	for i, n := range receiverNodes(this) {
		if i > 0 {
			out = wstr.Concat(out, wstr.FromUTF8("\n"))
		}
		out = wstr.Concat(out, n.ToXMLString())
	}
	return avm2.String(out), nil
}

func xmlName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	node := avm2.AsXMLData(this.AsObject())
	if node == nil || node.Kind != avm2.XMLElement && node.Kind != avm2.XMLAttributeNode {
		return avm2.Null, nil
	}
	return a.Avm().NewQNameValue(a, node.Name), nil
}

func xmlLocalName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	node := avm2.AsXMLData(this.AsObject())
	if node == nil {
		return avm2.Null, nil
	}
	return avm2.Str(node.LocalName()), nil
}

func xmlNodeKind(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	node := avm2.AsXMLData(this.AsObject())
	if node == nil {
		return avm2.Str("text"), nil
	}
	switch node.Kind {
	case avm2.XMLElement:
		return avm2.Str("element"), nil
	case avm2.XMLComment:
		return avm2.Str("comment"), nil
	case avm2.XMLProcessingInstruction:
		return avm2.Str("processing-instruction"), nil
	case avm2.XMLAttributeNode:
		return avm2.Str("attribute"), nil
	}
	return avm2.Str("text"), nil
}

func xmlLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Integer(0), nil
	}
	if list, ok := obj.NativeData().(*avm2.XMLListData); ok {
		return avm2.Integer(int32(len(list.Nodes))), nil
	}
	return avm2.Integer(1), nil
}

func xmlChildren(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		out.Nodes = append(out.Nodes, n.Children...)
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlChild(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	name := argUTF8(a, args, 0)
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		out.Nodes = append(out.Nodes, n.ChildrenNamed(name)...)
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlAttribute(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	name := argUTF8(a, args, 0)
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		if attr := n.AttributeNamed(name); attr != nil {
			out.Nodes = append(out.Nodes, attr)
		}
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlAttributes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		out.Nodes = append(out.Nodes, n.Attributes...)
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlDescendantsMethod(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	name := "*"
	if len(args) > 0 && !args[0].IsUndefined() {
		name = argUTF8(a, args, 0)
	}
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		out.Nodes = append(out.Nodes, n.Descendants(name, false)...)
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	out := &avm2.XMLListData{}
	for _, n := range receiverNodes(this) {
		for _, c := range n.Children {
			if c.Kind == avm2.XMLText {
				out.Nodes = append(out.Nodes, c)
			}
		}
	}
	return avm2.ObjectValue(avm2.NewXMLListObject(a, out)), nil
}

func xmlAppendChild(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	node := avm2.AsXMLData(this.AsObject())
	if node == nil {
		return this, nil
	}
	if child := avm2.AsXMLData(argObject(args, 0)); child != nil {
		node.AppendChild(child)
	} else if len(args) > 0 {
		node.AppendChild(&avm2.XMLData{Kind: avm2.XMLText, Text: argString(a, args, 0)})
	}
	return this, nil
}

func xmlHasSimpleContent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	nodes := receiverNodes(this)
	if len(nodes) == 1 {
		return avm2.Bool(nodes[0].SimpleContent()), nil
	}
	for _, n := range nodes {
		if n.Kind == avm2.XMLElement {
			return avm2.Bool(false), nil
		}
	}
	return avm2.Bool(true), nil
}

func xmlHasComplexContent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	simple, err := xmlHasSimpleContent(a, this, args)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Bool(!simple.CoerceToBoolean()), nil
}
