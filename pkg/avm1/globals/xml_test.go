package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestXMLParseTree(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML", avm1.Str(`<a x="1"><b/>hi</a>`))

	wantNumber(t, getProp(t, a, doc, "status"), 0)

	root := getProp(t, a, doc, "firstChild").AsObject()
	wantString(t, a, getProp(t, a, root, "nodeName"), "a")
	wantNumber(t, getProp(t, a, root, "nodeType"), 1)

	attrs := getProp(t, a, root, "attributes").AsObject()
	wantString(t, a, getProp(t, a, attrs, "x"), "1")

	kids := getProp(t, a, root, "childNodes").AsObject()
	wantNumber(t, getProp(t, a, kids, "length"), 2)

	b := getProp(t, a, kids, "0").AsObject()
	wantString(t, a, getProp(t, a, b, "nodeName"), "b")

	text := getProp(t, a, kids, "1").AsObject()
	wantNumber(t, getProp(t, a, text, "nodeType"), 3)
	wantString(t, a, getProp(t, a, text, "nodeValue"), "hi")

	parent := getProp(t, a, b, "parentNode").AsObject()
	if parent.Raw() != root.Raw() {
		t.Fatal("parentNode does not point at the root element")
	}
}

func TestXMLSerialize(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML", avm1.Str(`<a x="1"><b/>hi</a>`))

	wantString(t, a, call(t, a, doc, "toString"), `<a x="1"><b />hi</a>`)
}

func TestXMLEscapesText(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML", avm1.Str("<a>1 &lt; 2</a>"))

	wantString(t, a, call(t, a, doc, "toString"), "<a>1 &lt; 2</a>")
}

func TestXMLParseStatusCodes(t *testing.T) {
	_, a, _ := testVM(8)

	tests := []struct {
		src    string
		status float64
	}{
		{"<a><b/></a>", 0},
		{"<a", -6},
		{"<a><b></a>", -9},
		{"</a>", -10},
	}
	for _, tt := range tests {
		doc := construct(t, a, "XML", avm1.Str(tt.src))
		wantNumber(t, getProp(t, a, doc, "status"), tt.status)
	}
}

func TestXMLIgnoreWhite(t *testing.T) {
	_, a, _ := testVM(8)

	doc := construct(t, a, "XML")
	setProp(t, a, doc, "ignoreWhite", avm1.Bool(true))
	call(t, a, doc, "parseXML", avm1.Str("<a>\n  <b/>\n</a>"))

	root := getProp(t, a, doc, "firstChild").AsObject()
	kids := getProp(t, a, root, "childNodes").AsObject()
	wantNumber(t, getProp(t, a, kids, "length"), 1)

	loose := construct(t, a, "XML", avm1.Str("<a>\n  <b/>\n</a>"))
	rootLoose := getProp(t, a, loose, "firstChild").AsObject()
	kidsLoose := getProp(t, a, rootLoose, "childNodes").AsObject()
	wantNumber(t, getProp(t, a, kidsLoose, "length"), 3)
}

func TestXMLBuildTree(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML")

	el := call(t, a, doc, "createElement", avm1.Str("item")).AsObject()
	txt := call(t, a, doc, "createTextNode", avm1.Str("v")).AsObject()
	call(t, a, el, "appendChild", avm1.ObjectValue(txt))
	call(t, a, doc, "appendChild", avm1.ObjectValue(el))

	wantString(t, a, call(t, a, doc, "toString"), "<item>v</item>")
	if !call(t, a, el, "hasChildNodes").AsBoolRaw() {
		t.Fatal("hasChildNodes = false")
	}
}

func TestXMLCloneNode(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML", avm1.Str(`<a x="1"><b/></a>`))
	root := getProp(t, a, doc, "firstChild").AsObject()

	shallow := call(t, a, root, "cloneNode", avm1.Bool(false)).AsObject()
	wantString(t, a, call(t, a, shallow, "toString"), `<a x="1" />`)

	deep := call(t, a, root, "cloneNode", avm1.Bool(true)).AsObject()
	wantString(t, a, call(t, a, deep, "toString"), `<a x="1"><b /></a>`)
}

func TestXMLRemoveNode(t *testing.T) {
	_, a, _ := testVM(8)
	doc := construct(t, a, "XML", avm1.Str("<a><b/><c/></a>"))
	root := getProp(t, a, doc, "firstChild").AsObject()
	b := getProp(t, a, root, "firstChild").AsObject()

	call(t, a, b, "removeNode")
	wantString(t, a, call(t, a, root, "toString"), "<a><c /></a>")
	if v := getProp(t, a, b, "parentNode"); !v.IsNull() {
		t.Fatalf("parentNode after removal = %v", v.Kind())
	}
}
