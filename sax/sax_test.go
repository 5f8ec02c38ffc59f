package sax

import (
	"strings"
	"testing"

	orcuserr "github.com/orcus-go/orcus/errors"
)

// recorder is a Handler that appends a flat log of events, used to assert on
// parse order and content without building a tree.
type recorder struct {
	NopHandler
	events []string
	attrs  map[string][]Attribute
}

func newRecorder() *recorder {
	return &recorder{attrs: make(map[string][]Attribute)}
}

func (r *recorder) StartElement(e Element) error {
	name := e.Name
	if e.NSAlias != "" {
		name = e.NSAlias + ":" + e.Name
	}
	r.events = append(r.events, "start:"+name)
	return nil
}

func (r *recorder) EndElement(e Element) error {
	name := e.Name
	if e.NSAlias != "" {
		name = e.NSAlias + ":" + e.Name
	}
	r.events = append(r.events, "end:"+name)
	return nil
}

func (r *recorder) Characters(value string, transient bool) error {
	r.events = append(r.events, "text:"+value)
	return nil
}

func (r *recorder) Attribute(a Attribute) error {
	name := a.Name
	if a.NSAlias != "" {
		name = a.NSAlias + ":" + a.Name
	}
	r.attrs[name] = append(r.attrs[name], a)
	r.events = append(r.events, "attr:"+name+"="+a.Value)
	return nil
}

func (r *recorder) Doctype(d DoctypeDeclaration) error {
	r.events = append(r.events, "doctype:"+d.RootElement)
	return nil
}

func (r *recorder) StartDeclaration(name string) error {
	r.events = append(r.events, "decl-start:"+name)
	return nil
}

func (r *recorder) EndDeclaration(name string) error {
	r.events = append(r.events, "decl-end:"+name)
	return nil
}

func mustParse(t *testing.T, xml string) *recorder {
	t.Helper()
	r := newRecorder()
	p := New([]byte(xml), false, r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse(%q) returned error: %v", xml, err)
	}
	return r
}

func TestBasicElement(t *testing.T) {
	r := mustParse(t, `<root><item>hello</item></root>`)
	want := []string{"start:root", "start:item", "text:hello", "end:item", "end:root"}
	assertEvents(t, r, want)
}

func TestEmptyElement(t *testing.T) {
	r := mustParse(t, `<root><item></item></root>`)
	want := []string{"start:root", "start:item", "end:item", "end:root"}
	assertEvents(t, r, want)
}

func TestSelfClosingElement(t *testing.T) {
	r := mustParse(t, `<root><item/></root>`)
	want := []string{"start:root", "start:item", "end:item", "end:root"}
	assertEvents(t, r, want)
}

func TestSelfClosingWithSpace(t *testing.T) {
	r := mustParse(t, `<root><item /></root>`)
	want := []string{"start:root", "start:item", "end:item", "end:root"}
	assertEvents(t, r, want)
}

func TestMultipleElements(t *testing.T) {
	r := mustParse(t, `<root><item>one</item><item>two</item></root>`)
	want := []string{
		"start:root",
		"start:item", "text:one", "end:item",
		"start:item", "text:two", "end:item",
		"end:root",
	}
	assertEvents(t, r, want)
}

func TestSingleAttribute(t *testing.T) {
	r := mustParse(t, `<root><item id="123">text</item></root>`)
	if got := r.attrs["id"]; len(got) != 1 || got[0].Value != "123" {
		t.Fatalf("expected attribute id=123, got %v", got)
	}
}

func TestAttributeWithSingleQuotes(t *testing.T) {
	r := mustParse(t, `<root><item name='single'>text</item></root>`)
	if got := r.attrs["name"]; len(got) != 1 || got[0].Value != "single" {
		t.Fatalf("expected attribute name=single, got %v", got)
	}
}

func TestAttributeWithSpaces(t *testing.T) {
	r := mustParse(t, `<root><item name = "spaced" id= "1">text</item></root>`)
	if len(r.attrs) != 2 {
		t.Fatalf("expected 2 distinct attribute names, got %d", len(r.attrs))
	}
}

func TestAttributeEmptyValue(t *testing.T) {
	r := mustParse(t, `<root><item name="">text</item></root>`)
	if got := r.attrs["name"]; len(got) != 1 || got[0].Value != "" {
		t.Fatalf("expected empty attribute value, got %v", got)
	}
}

func TestCDATABasic(t *testing.T) {
	r := mustParse(t, `<root><item><![CDATA[raw content]]></item></root>`)
	assertEvents(t, r, []string{"start:root", "start:item", "text:raw content", "end:item", "end:root"})
}

func TestCDATAWithSpecialChars(t *testing.T) {
	r := mustParse(t, `<root><item><![CDATA[<script>alert('xss')</script>]]></item></root>`)
	want := "text:<script>alert('xss')</script>"
	if !contains(r.events, want) {
		t.Fatalf("expected event %q in %v", want, r.events)
	}
}

func TestCDATAEmpty(t *testing.T) {
	r := mustParse(t, `<root><item><![CDATA[]]></item></root>`)
	assertEvents(t, r, []string{"start:root", "start:item", "end:item", "end:root"})
}

func TestEntityPredefined(t *testing.T) {
	r := mustParse(t, `<root><item>&lt;tag&gt; &amp; &apos;&quot;</item></root>`)
	if !contains(r.events, `text:<tag> & '"`) {
		t.Fatalf("expected decoded entities, got %v", r.events)
	}
}

func TestEntityInAttribute(t *testing.T) {
	r := mustParse(t, `<root><item name="&lt;value&gt;">text</item></root>`)
	if got := r.attrs["name"]; len(got) != 1 || got[0].Value != "<value>" {
		t.Fatalf("expected decoded attribute value, got %v", got)
	}
}

func TestNumericEntityDecimal(t *testing.T) {
	r := mustParse(t, `<root><item>&#65;&#66;&#67;</item></root>`)
	if !contains(r.events, "text:ABC") {
		t.Fatalf("expected decoded decimal entities, got %v", r.events)
	}
}

func TestNumericEntityHex(t *testing.T) {
	r := mustParse(t, `<root><item>&#x41;&#x42;&#x43;</item></root>`)
	if !contains(r.events, "text:ABC") {
		t.Fatalf("expected decoded hex entities, got %v", r.events)
	}
}

func TestUnknownEntityPreserved(t *testing.T) {
	r := mustParse(t, `<root><item>&foo;</item></root>`)
	if !contains(r.events, "text:&foo;") {
		t.Fatalf("expected unrecognized entity preserved literally, got %v", r.events)
	}
}

func TestPrefixedElementName(t *testing.T) {
	r := mustParse(t, `<ns:root><ns:item>text</ns:item></ns:root>`)
	assertEvents(t, r, []string{"start:ns:root", "start:ns:item", "text:text", "end:ns:item", "end:ns:root"})
}

func TestXMLDeclaration(t *testing.T) {
	r := mustParse(t, `<?xml version="1.0" encoding="UTF-8"?><root><item>text</item></root>`)
	if !contains(r.events, "decl-start:xml") || !contains(r.events, "decl-end:xml") {
		t.Fatalf("expected declaration events, got %v", r.events)
	}
	if !contains(r.events, "start:root") {
		t.Fatalf("expected root element after declaration, got %v", r.events)
	}
}

func TestXMLWithDoctypeSystem(t *testing.T) {
	r := mustParse(t, `<?xml version="1.0"?><!DOCTYPE root SYSTEM "root.dtd"><root><item>text</item></root>`)
	if !contains(r.events, "doctype:root") {
		t.Fatalf("expected doctype event, got %v", r.events)
	}
}

func TestXMLWithDoctypePublic(t *testing.T) {
	r := mustParse(t, `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0//EN" "xhtml1.dtd"><html><body/></html>`)
	if !contains(r.events, "doctype:html") {
		t.Fatalf("expected doctype event, got %v", r.events)
	}
}

func TestXMLComments(t *testing.T) {
	r := mustParse(t, `<root><!-- comment --><item>text</item><!-- another --></root>`)
	assertEvents(t, r, []string{"start:root", "start:item", "text:text", "end:item", "end:root"})
}

func TestProcessingInstruction(t *testing.T) {
	r := mustParse(t, `<?xml version="1.0"?><?custom instruction?><root><item>text</item></root>`)
	if !contains(r.events, "start:root") {
		t.Fatalf("expected root element, got %v", r.events)
	}
}

func TestMixedContent(t *testing.T) {
	r := mustParse(t, `<root><item>text<child/>more</item></root>`)
	want := []string{
		"start:root", "start:item",
		"text:text", "start:child", "end:child", "text:more",
		"end:item", "end:root",
	}
	assertEvents(t, r, want)
}

func TestUnicodeContent(t *testing.T) {
	r := mustParse(t, `<root><item>日本語 emoji: 🎉</item></root>`)
	if !contains(r.events, "text:日本語 emoji: 🎉") {
		t.Fatalf("expected unicode text preserved, got %v", r.events)
	}
}

func TestUnicodeElementName(t *testing.T) {
	r := mustParse(t, `<日本語><項目>text</項目></日本語>`)
	if !contains(r.events, "start:日本語") {
		t.Fatalf("expected unicode element name preserved, got %v", r.events)
	}
}

func TestRootOnly(t *testing.T) {
	r := mustParse(t, `<root/>`)
	assertEvents(t, r, []string{"start:root", "end:root"})
}

func TestManyAttributes(t *testing.T) {
	var b strings.Builder
	b.WriteString("<item ")
	for i := 0; i < 50; i++ {
		b.WriteString("a")
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString(`="v" `)
	}
	b.WriteString("/>")
	r := mustParse(t, b.String())
	if len(r.attrs) == 0 {
		t.Fatalf("expected attributes to be recorded")
	}
}

func assertEvents(t *testing.T, r *recorder, want []string) {
	t.Helper()
	if len(r.events) != len(want) {
		t.Fatalf("event count mismatch: got %v, want %v", r.events, want)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q (full: %v)", i, r.events[i], want[i], r.events)
		}
	}
}

func contains(events []string, want string) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}

// malformed-input tests: each of these must surface a *orcuserr.MalformedXMLError.

func TestMalformedMismatchedCloseTag(t *testing.T) {
	assertMalformed(t, `<root><item></other></root>`)
}

func TestMalformedUnterminatedComment(t *testing.T) {
	assertMalformed(t, `<root><!-- unterminated</root>`)
}

func TestMalformedUnterminatedCDATA(t *testing.T) {
	assertMalformed(t, `<root><![CDATA[unterminated</root>`)
}

func TestMalformedMissingEquals(t *testing.T) {
	assertMalformed(t, `<root><item name"value"/></root>`)
}

func TestMalformedUnterminatedAttributeValue(t *testing.T) {
	assertMalformed(t, `<root><item name="unterminated/></root>`)
}

func TestMalformedPrematureEOF(t *testing.T) {
	assertMalformed(t, `<root><item>`)
}

func assertMalformed(t *testing.T, xml string) {
	t.Helper()
	r := newRecorder()
	p := New([]byte(xml), false, r)
	err := p.Parse()
	if err == nil {
		t.Fatalf("Parse(%q) expected an error, got none (events: %v)", xml, r.events)
	}
	switch err.(type) {
	case *orcuserr.MalformedXMLError, *orcuserr.ParseError:
	default:
		t.Fatalf("Parse(%q) returned %T, want *MalformedXMLError or *ParseError", xml, err)
	}
}
