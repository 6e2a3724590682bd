package avm2

import (
	"encoding/xml"
	"strings"

	"lantern/pkg/abc"
	"lantern/pkg/wstr"
)

// XMLNodeKind tags the node variants of the legacy XML object model.
type XMLNodeKind uint8

const (
	XMLElement XMLNodeKind = iota
	XMLText
	XMLComment
	XMLProcessingInstruction
	XMLAttributeNode
)

// XMLData is the native payload of one XML node. Lists of nodes travel
// as XMLListData; most operations accept either and normalize.
type XMLData struct {
	Kind       XMLNodeKind
	Name       QNameData
	Attributes []*XMLData
	Children   []*XMLData
	Parent     *XMLData
	Text       wstr.WStr // text, comment, PI, and attribute payload
}

// XMLListData is an ordered node collection. A list of one element
// behaves like the element almost everywhere.
type XMLListData struct {
	Nodes []*XMLData
}

// NewXMLObject wraps a node in its script object.
func NewXMLObject(a *Activation, node *XMLData) Object {
	avm := a.Avm()
	obj := NewScriptObject(a, avm.classes["XML"], avm.prototypes.XML)
	obj.SetNativeData(node)
	return obj
}

// NewXMLListObject wraps a node list in its script object.
func NewXMLListObject(a *Activation, list *XMLListData) Object {
	avm := a.Avm()
	obj := NewScriptObject(a, avm.classes["XMLList"], avm.prototypes.XMLList)
	obj.SetNativeData(list)
	return obj
}

// asXML extracts a node payload, unwrapping one-element lists.
func asXML(o Object) *XMLData {
	if o == nil {
		return nil
	}
	switch d := o.NativeData().(type) {
	case *XMLData:
		return d
	case *XMLListData:
		if len(d.Nodes) == 1 {
			return d.Nodes[0]
		}
	}
	return nil
}

// AsXMLData is the exported node downcast for the globals packages.
func AsXMLData(o Object) *XMLData { return asXML(o) }

// AsXMLListData is the exported list downcast for the globals packages.
func AsXMLListData(o Object) *XMLListData { return asXMLList(o) }

// asXMLList extracts a list payload, lifting a bare node.
func asXMLList(o Object) *XMLListData {
	if o == nil {
		return nil
	}
	switch d := o.NativeData().(type) {
	case *XMLListData:
		return d
	case *XMLData:
		return &XMLListData{Nodes: []*XMLData{d}}
	}
	return nil
}

// ParseXML parses a document fragment into the node model. A bare text
// string becomes a text node; several top-level elements are an error,
// matching the published constructor.
func ParseXML(src wstr.WStr) (*XMLData, *Error) {
	text := strings.TrimSpace(src.ToUTF8())
	if text == "" || !strings.HasPrefix(text, "<") {
		return &XMLData{Kind: XMLText, Text: wstr.FromUTF8(text)}, nil
	}
	dec := xml.NewDecoder(strings.NewReader(text))
	var root *XMLData
	var stack []*XMLData
	for {
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, TypeError("malformed XML: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &XMLData{
				Kind: XMLElement,
				Name: QNameData{Namespace: NewNamespaceURI(t.Name.Space), Name: t.Name.Local},
			}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				node.Attributes = append(node.Attributes, &XMLData{
					Kind: XMLAttributeNode,
					Name: QNameData{Namespace: NewNamespaceURI(attr.Name.Space), Name: attr.Name.Local},
					Text: wstr.FromUTF8(attr.Value),
				})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				node.Parent = parent
				parent.Children = append(parent.Children, node)
			} else if root != nil {
				return nil, TypeError("markup must have a single root element")
			} else {
				root = node
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			content := strings.TrimSpace(string(t))
			if content == "" || len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			child := &XMLData{Kind: XMLText, Text: wstr.FromUTF8(content), Parent: parent}
			parent.Children = append(parent.Children, child)
		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			child := &XMLData{Kind: XMLComment, Text: wstr.FromUTF8(string(t)), Parent: parent}
			parent.Children = append(parent.Children, child)
		case xml.ProcInst:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			child := &XMLData{
				Kind:   XMLProcessingInstruction,
				Name:   QNameData{Name: t.Target},
				Text:   wstr.FromUTF8(string(t.Inst)),
				Parent: parent,
			}
			parent.Children = append(parent.Children, child)
		}
	}
	if root == nil {
		return &XMLData{Kind: XMLText, Text: wstr.Empty}, nil
	}
	return root, nil
}

// NewNamespaceURI wraps a URI string, nil for the empty namespace.
func NewNamespaceURI(uri string) *Namespace {
	if uri == "" {
		return NewPublicNamespace()
	}
	return NewNamespace(abc.NsNamespace, uri)
}

// LocalName returns the node's local name, "*" for non-elements
// without one.
func (x *XMLData) LocalName() string {
	if x.Name.Name == "" && x.Kind == XMLText {
		return "text"
	}
	return x.Name.Name
}

// SimpleContent reports whether the node flattens to a text value.
func (x *XMLData) SimpleContent() bool {
	if x.Kind != XMLElement {
		return true
	}
	for _, c := range x.Children {
		if c.Kind == XMLElement {
			return false
		}
	}
	return true
}

// TextValue flattens the node's character content.
func (x *XMLData) TextValue() wstr.WStr {
	switch x.Kind {
	case XMLText, XMLAttributeNode, XMLComment, XMLProcessingInstruction:
		return x.Text
	}
	out := wstr.Empty
	for _, c := range x.Children {
		if c.Kind == XMLText {
			out = wstr.Concat(out, c.Text)
		}
	}
	return out
}

// AttributeNamed returns the matching attribute node, or nil.
func (x *XMLData) AttributeNamed(name string) *XMLData {
	for _, attr := range x.Attributes {
		if name == "*" || attr.Name.Name == name {
			return attr
		}
	}
	return nil
}

// ChildrenNamed collects direct element children matching a name, "*"
// for all.
func (x *XMLData) ChildrenNamed(name string) []*XMLData {
	var out []*XMLData
	for _, c := range x.Children {
		if c.Kind != XMLElement {
			if name == "*" {
				out = append(out, c)
			}
			continue
		}
		if name == "*" || c.Name.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Descendants collects matching nodes at any depth, the .. operator.
func (x *XMLData) Descendants(name string, attribute bool) []*XMLData {
	var out []*XMLData
	var walk func(n *XMLData)
	walk = func(n *XMLData) {
		for _, c := range n.Children {
			if attribute {
				for _, attr := range c.Attributes {
					if name == "*" || attr.Name.Name == name {
						out = append(out, attr)
					}
				}
			} else if c.Kind == XMLElement && (name == "*" || c.Name.Name == name) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(x)
	return out
}

// AppendChild attaches a node, reparenting it.
func (x *XMLData) AppendChild(child *XMLData) {
	child.Parent = x
	x.Children = append(x.Children, child)
}

// SetAttribute writes or replaces an attribute value.
func (x *XMLData) SetAttribute(name string, value wstr.WStr) {
	if attr := x.AttributeNamed(name); attr != nil {
		attr.Text = value
		return
	}
	x.Attributes = append(x.Attributes, &XMLData{
		Kind: XMLAttributeNode,
		Name: QNameData{Name: name},
		Text: value,
	})
}

// ToXMLString serializes the subtree.
func (x *XMLData) ToXMLString() wstr.WStr {
	var sb strings.Builder
	x.serialize(&sb, 0)
	return wstr.FromUTF8(sb.String())
}

func (x *XMLData) serialize(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	switch x.Kind {
	case XMLText:
		sb.WriteString(indent)
		sb.WriteString(escapeXMLElement(x.Text.ToUTF8()))
	case XMLComment:
		sb.WriteString(indent)
		sb.WriteString("<!--")
		sb.WriteString(x.Text.ToUTF8())
		sb.WriteString("-->")
	case XMLProcessingInstruction:
		sb.WriteString(indent)
		sb.WriteString("<?")
		sb.WriteString(x.Name.Name)
		if !x.Text.IsEmpty() {
			sb.WriteString(" ")
			sb.WriteString(x.Text.ToUTF8())
		}
		sb.WriteString("?>")
	case XMLAttributeNode:
		sb.WriteString(escapeXMLAttribute(x.Text.ToUTF8()))
	case XMLElement:
		sb.WriteString(indent)
		sb.WriteString("<")
		sb.WriteString(x.Name.Name)
		for _, attr := range x.Attributes {
			sb.WriteString(" ")
			sb.WriteString(attr.Name.Name)
			sb.WriteString(`="`)
			sb.WriteString(escapeXMLAttribute(attr.Text.ToUTF8()))
			sb.WriteString(`"`)
		}
		if len(x.Children) == 0 {
			sb.WriteString("/>")
			return
		}
		sb.WriteString(">")
		simple := x.SimpleContent()
		if simple {
			for _, c := range x.Children {
				if c.Kind == XMLText {
					sb.WriteString(escapeXMLElement(c.Text.ToUTF8()))
				}
			}
		} else {
			for _, c := range x.Children {
				sb.WriteString("\n")
				c.serialize(sb, depth+1)
			}
			sb.WriteString("\n")
			sb.WriteString(indent)
		}
		sb.WriteString("</")
		sb.WriteString(x.Name.Name)
		sb.WriteString(">")
	}
}

// ToString follows the published rule: simple content flattens to its
// text, anything else serializes as markup.
func (x *XMLData) ToString() wstr.WStr {
	if x.SimpleContent() {
		return x.TextValue()
	}
	return x.ToXMLString()
}

// ToString joins member strings; a pure-text list concatenates bare.
func (l *XMLListData) ToString() wstr.WStr {
	if len(l.Nodes) == 1 {
		return l.Nodes[0].ToString()
	}
	parts := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		parts = append(parts, n.ToString().ToUTF8())
	}
	return wstr.FromUTF8(strings.Join(parts, "\n"))
}

// xmlDescendants serves the descendants operator over either payload.
func xmlDescendants(a *Activation, o Object, mn *Multiname) (Value, error) {
	name := mn.Name()
	if mn.IsAnyName() {
		name = "*"
	}
	list := asXMLList(o)
	if list == nil {
		return Undefined, typeError("descendants operator requires XML")
	}
	out := &XMLListData{}
	for _, n := range list.Nodes {
		out.Nodes = append(out.Nodes, n.Descendants(name, mn.IsAttribute())...)
	}
	return ObjectValue(NewXMLListObject(a, out)), nil
}

// XMLPropertyGet resolves the E4X read forms: @attr, child name, *.
func XMLPropertyGet(a *Activation, o Object, mn *Multiname) (Value, bool) {
	list := asXMLList(o)
	if list == nil {
		return Undefined, false
	}
	name := mn.Name()
	if mn.IsAnyName() {
		name = "*"
	}
	out := &XMLListData{}
	for _, n := range list.Nodes {
		if mn.IsAttribute() {
			for _, attr := range n.Attributes {
				if name == "*" || attr.Name.Name == name {
					out.Nodes = append(out.Nodes, attr)
				}
			}
		} else {
			out.Nodes = append(out.Nodes, n.ChildrenNamed(name)...)
		}
	}
	return ObjectValue(NewXMLListObject(a, out)), true
}

func escapeXMLElement(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeXMLAttribute(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;",
		`"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;",
	)
	return r.Replace(s)
}
