package globals

import (
	"encoding/xml"
	"io"
	"strings"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type xmlModule struct{}

func (xmlModule) Name() string  { return "XML" }
func (xmlModule) Priority() int { return PriorityXML }

// Node type codes and parse status codes as published.
const (
	xmlElementNode = 1
	xmlTextNode    = 3

	xmlStatusOK           = 0
	xmlStatusMalformed    = -6
	xmlStatusUnclosedTag  = -9
	xmlStatusOrphanEndTag = -10
)

func (xmlModule) Install(a *avm1.Activation) {
	_, nodeProto := defineClass(a, "XMLNode", xmlNodeConstructor)

	virtual(a, nodeProto, "firstChild", xmlFirstChild, nil)
	virtual(a, nodeProto, "lastChild", xmlLastChild, nil)
	method(a, nodeProto, "appendChild", xmlAppendChild)
	method(a, nodeProto, "hasChildNodes", xmlHasChildNodes)
	method(a, nodeProto, "cloneNode", xmlCloneNode)
	method(a, nodeProto, "removeNode", xmlRemoveNode)
	method(a, nodeProto, "toString", xmlNodeToString)

	xmlCtor, xmlProto := defineClass(a, "XML", xmlConstructor)
	xmlProto.SetProto(avm1.ObjectValue(nodeProto))
	_ = xmlCtor

	method(a, xmlProto, "parseXML", xmlParseXML)
	method(a, xmlProto, "createElement", xmlCreateElement)
	method(a, xmlProto, "createTextNode", xmlCreateTextNode)
	method(a, xmlProto, "toString", xmlDocToString)
}

// initNode lays down the tree slots every node carries. The tree lives
// in ordinary properties so the collector traces it.
func initNode(a *avm1.Activation, node avm1.Object, nodeType int, value avm1.Value) {
	raw := node.Raw()
	raw.DefineValue("nodeType", avm1.Number(float64(nodeType)), avm1.AttrDontEnum)
	if nodeType == xmlElementNode {
		raw.DefineValue("nodeName", value, avm1.AttrDontEnum)
		raw.DefineValue("nodeValue", avm1.Null, avm1.AttrDontEnum)
	} else {
		raw.DefineValue("nodeName", avm1.Null, avm1.AttrDontEnum)
		raw.DefineValue("nodeValue", value, avm1.AttrDontEnum)
	}
	raw.DefineValue("childNodes", avm1.ObjectValue(avm1.NewArrayObject(a, nil)), avm1.AttrDontEnum)
	raw.DefineValue("attributes", avm1.ObjectValue(avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))), avm1.AttrDontEnum)
	raw.DefineValue("parentNode", avm1.Null, avm1.AttrDontEnum)
}

func newXMLNode(a *avm1.Activation, nodeType int, value avm1.Value) avm1.Object {
	ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern("XMLNode"))
	if err == nil && ctorVal.IsObject() {
		out, err := ctorVal.AsObject().Construct(a, []avm1.Value{avm1.Number(float64(nodeType)), value})
		if err == nil && out.IsObject() {
			return out.AsObject()
		}
	}
	node := avm1.NewScriptObject(a, avm1.Undefined)
	initNode(a, node, nodeType, value)
	return node
}

func xmlNodeConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	nodeType := xmlElementNode
	if len(args) > 0 {
		nodeType = argInt(a, args, 0)
	}
	initNode(a, this, nodeType, arg(args, 1))
	return avm1.Undefined, nil
}

func childrenOf(a *avm1.Activation, node avm1.Object) avm1.Object {
	v, err := avm1.Get(a, node, wstr.FromUTF8("childNodes"))
	if err != nil || !v.IsObject() {
		return nil
	}
	return v.AsObject()
}

func xmlFirstChild(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	kids := childrenOf(a, this)
	if kids == nil || avm1.LengthOf(a, kids) == 0 {
		return avm1.Null, nil
	}
	return avm1.ElementOf(a, kids, 0), nil
}

func xmlLastChild(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	kids := childrenOf(a, this)
	n := avm1.LengthOf(a, kids)
	if kids == nil || n == 0 {
		return avm1.Null, nil
	}
	return avm1.ElementOf(a, kids, n-1), nil
}

func xmlAppendChild(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	child := argObject(args, 0)
	kids := childrenOf(a, this)
	if this == nil || child == nil || kids == nil {
		return avm1.Undefined, nil
	}
	avm1.SetElementOf(a, kids, avm1.LengthOf(a, kids), avm1.ObjectValue(child))
	child.Raw().DefineValue("parentNode", avm1.ObjectValue(this), avm1.AttrDontEnum)
	return avm1.Undefined, nil
}

func xmlHasChildNodes(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	kids := childrenOf(a, this)
	return avm1.Bool(kids != nil && avm1.LengthOf(a, kids) > 0), nil
}

func xmlCloneNode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	deep := argBool(a, args, 0)
	return avm1.ObjectValue(cloneXMLNode(a, this, deep)), nil
}

func cloneXMLNode(a *avm1.Activation, node avm1.Object, deep bool) avm1.Object {
	nodeType := int(numProp(a, node, "nodeType"))
	var seed avm1.Value
	if nodeType == xmlElementNode {
		seed, _ = avm1.Get(a, node, wstr.FromUTF8("nodeName"))
	} else {
		seed, _ = avm1.Get(a, node, wstr.FromUTF8("nodeValue"))
	}
	out := newXMLNode(a, nodeType, seed)
	if attrs, err := avm1.Get(a, node, wstr.FromUTF8("attributes")); err == nil && attrs.IsObject() {
		dst, _ := avm1.Get(a, out, wstr.FromUTF8("attributes"))
		if dst.IsObject() {
			for _, k := range avm1.GetKeys(a, attrs.AsObject()) {
				v, err := avm1.Get(a, attrs.AsObject(), k)
				if err == nil {
					avm1.Set(a, dst.AsObject(), k, v)
				}
			}
		}
	}
	if deep {
		if kids := childrenOf(a, node); kids != nil {
			for i := 0; i < avm1.LengthOf(a, kids); i++ {
				child := avm1.ElementOf(a, kids, i)
				if child.IsObject() {
					xmlAppendChild(a, out, []avm1.Value{avm1.ObjectValue(cloneXMLNode(a, child.AsObject(), true))})
				}
			}
		}
	}
	return out
}

func xmlRemoveNode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	parentVal, err := avm1.Get(a, this, wstr.FromUTF8("parentNode"))
	if err != nil || !parentVal.IsObject() {
		return avm1.Undefined, nil
	}
	kids := childrenOf(a, parentVal.AsObject())
	if kids == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, kids)
	for i := 0; i < n; i++ {
		v := avm1.ElementOf(a, kids, i)
		if v.IsObject() && v.AsObject().Raw() == this.Raw() {
			for j := i + 1; j < n; j++ {
				avm1.SetElementOf(a, kids, j-1, avm1.ElementOf(a, kids, j))
			}
			if arr := avm1.AsArray(kids); arr != nil {
				arr.SetLength(a, n-1)
			}
			break
		}
	}
	this.Raw().DefineValue("parentNode", avm1.Null, avm1.AttrDontEnum)
	return avm1.Undefined, nil
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "'", "&apos;")
	return r.Replace(s)
}

func serializeNode(a *avm1.Activation, node avm1.Object) string {
	nodeType := int(numProp(a, node, "nodeType"))
	if nodeType == xmlTextNode {
		v, _ := avm1.Get(a, node, wstr.FromUTF8("nodeValue"))
		return escapeXML(v.CoerceToString(a).ToUTF8())
	}
	nameVal, _ := avm1.Get(a, node, wstr.FromUTF8("nodeName"))
	var b strings.Builder
	hasName := nameVal.IsString() || nameVal.IsObject()
	name := nameVal.CoerceToString(a).ToUTF8()
	if hasName {
		b.WriteByte('<')
		b.WriteString(name)
		if attrs, err := avm1.Get(a, node, wstr.FromUTF8("attributes")); err == nil && attrs.IsObject() {
			for _, k := range avm1.GetKeys(a, attrs.AsObject()) {
				v, err := avm1.Get(a, attrs.AsObject(), k)
				if err != nil {
					continue
				}
				b.WriteByte(' ')
				b.WriteString(k.ToUTF8())
				b.WriteString("=\"")
				b.WriteString(escapeXML(v.CoerceToString(a).ToUTF8()))
				b.WriteByte('"')
			}
		}
	}
	kids := childrenOf(a, node)
	n := 0
	if kids != nil {
		n = avm1.LengthOf(a, kids)
	}
	if hasName && n == 0 {
		b.WriteString(" />")
		return b.String()
	}
	if hasName {
		b.WriteByte('>')
	}
	for i := 0; i < n; i++ {
		child := avm1.ElementOf(a, kids, i)
		if child.IsObject() {
			b.WriteString(serializeNode(a, child.AsObject()))
		}
	}
	if hasName {
		b.WriteString("</")
		b.WriteString(name)
		b.WriteByte('>')
	}
	return b.String()
}

func xmlNodeToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Str(""), nil
	}
	return avm1.Str(serializeNode(a, this)), nil
}

func xmlConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	// The document itself is a nameless element node.
	initNode(a, this, xmlElementNode, avm1.Null)
	this.Raw().DefineValue("ignoreWhite", avm1.Bool(false), avm1.AttrDontEnum)
	this.Raw().DefineValue("status", avm1.Number(xmlStatusOK), avm1.AttrDontEnum)
	this.Raw().DefineValue("loaded", avm1.Undefined, avm1.AttrDontEnum)
	if len(args) > 0 && args[0].IsString() {
		return xmlParseXML(a, this, args)
	}
	return avm1.Undefined, nil
}

func xmlParseXML(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	src := argString(a, args, 0).ToUTF8()
	ignoreWhite := false
	if v, err := avm1.Get(a, this, wstr.FromUTF8("ignoreWhite")); err == nil {
		ignoreWhite = v.CoerceToBool(a)
	}
	this.Raw().DefineValue("childNodes", avm1.ObjectValue(avm1.NewArrayObject(a, nil)), avm1.AttrDontEnum)
	status := parseInto(a, this, src, ignoreWhite)
	this.Raw().DefineValue("status", avm1.Number(float64(status)), avm1.AttrDontEnum)
	return avm1.Undefined, nil
}

// parseInto builds the node tree under doc and returns a status code.
func parseInto(a *avm1.Activation, doc avm1.Object, src string, ignoreWhite bool) int {
	dec := xml.NewDecoder(strings.NewReader(src))
	dec.Strict = true
	stack := []avm1.Object{doc}
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			if strings.Contains(err.Error(), "unexpected end element") {
				return xmlStatusOrphanEndTag
			}
			return xmlStatusMalformed
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			node := newXMLNode(a, xmlElementNode, avm1.Str(t.Name.Local))
			attrsVal, _ := avm1.Get(a, node, wstr.FromUTF8("attributes"))
			if attrsVal.IsObject() {
				for _, attr := range t.Attr {
					avm1.Set(a, attrsVal.AsObject(), wstr.FromUTF8(attr.Name.Local), avm1.Str(attr.Value))
				}
			}
			xmlAppendChild(a, top, []avm1.Value{avm1.ObjectValue(node)})
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 1 {
				return xmlStatusOrphanEndTag
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			text := string(t)
			if ignoreWhite && strings.TrimSpace(text) == "" {
				continue
			}
			node := newXMLNode(a, xmlTextNode, avm1.Str(text))
			xmlAppendChild(a, top, []avm1.Value{avm1.ObjectValue(node)})
		}
	}
	if len(stack) != 1 {
		return xmlStatusUnclosedTag
	}
	return xmlStatusOK
}

func xmlCreateElement(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.ObjectValue(newXMLNode(a, xmlElementNode, avm1.String(argString(a, args, 0)))), nil
}

func xmlCreateTextNode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.ObjectValue(newXMLNode(a, xmlTextNode, avm1.String(argString(a, args, 0)))), nil
}

func xmlDocToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return xmlNodeToString(a, this, args)
}
