package saxtoken

import (
	"testing"

	"github.com/orcus-go/orcus/charset"
	"github.com/orcus-go/orcus/tokens"
	"github.com/orcus-go/orcus/xmlns"
)

type event struct {
	kind    string // "start", "end", "text"
	rawName string
	token   tokens.T
	attrs   []Attribute
	text    string
}

type recorder struct {
	NopHandler
	events []event
	decl   Declaration
}

func (r *recorder) Declaration(d Declaration) error {
	r.decl = d
	return nil
}

func (r *recorder) StartElement(e Element) error {
	r.events = append(r.events, event{kind: "start", rawName: e.RawName, token: e.Token, attrs: e.Attrs})
	return nil
}

func (r *recorder) EndElement(e Element) error {
	r.events = append(r.events, event{kind: "end", rawName: e.RawName, token: e.Token, attrs: e.Attrs})
	return nil
}

func (r *recorder) Characters(value string, transient bool) error {
	r.events = append(r.events, event{kind: "text", text: value})
	return nil
}

func mustParse(t *testing.T, xml string, table *tokens.Table) *recorder {
	t.Helper()
	repo := xmlns.NewRepository()
	ctx := repo.CreateContext()
	r := &recorder{}
	p := New([]byte(xml), false, ctx, table, r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse(%q) returned error: %v", xml, err)
	}
	return r
}

func TestKnownAndUnknownTokensResolved(t *testing.T) {
	content := `<?xml version="1.0"?><root><andy/><bruce/><charlie/><david/><edward/><frank/></root>`
	table := tokens.New([]string{"andy", "bruce", "charlie", "david", "edward"})

	opAndy := table.Tokenize("andy")
	opBruce := table.Tokenize("bruce")
	opCharlie := table.Tokenize("charlie")
	opDavid := table.Tokenize("david")
	opEdward := table.Tokenize("edward")

	want := []event{
		{kind: "start", rawName: "root", token: tokens.Unknown},
		{kind: "start", rawName: "andy", token: opAndy},
		{kind: "end", rawName: "andy", token: opAndy},
		{kind: "start", rawName: "bruce", token: opBruce},
		{kind: "end", rawName: "bruce", token: opBruce},
		{kind: "start", rawName: "charlie", token: opCharlie},
		{kind: "end", rawName: "charlie", token: opCharlie},
		{kind: "start", rawName: "david", token: opDavid},
		{kind: "end", rawName: "david", token: opDavid},
		{kind: "start", rawName: "edward", token: opEdward},
		{kind: "end", rawName: "edward", token: opEdward},
		{kind: "start", rawName: "frank", token: tokens.Unknown},
		{kind: "end", rawName: "frank", token: tokens.Unknown},
		{kind: "end", rawName: "root", token: tokens.Unknown},
	}

	r := mustParse(t, content, table)
	if len(r.events) != len(want) {
		t.Fatalf("event count mismatch: got %d, want %d (%+v)", len(r.events), len(want), r.events)
	}
	for i, w := range want {
		got := r.events[i]
		if got.kind != w.kind || got.rawName != w.rawName || got.token != w.token {
			t.Fatalf("event %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestEndElementAttrsEmpty(t *testing.T) {
	r := mustParse(t, `<root a="1" b="2"/>`, nil)
	if len(r.events) != 2 {
		t.Fatalf("expected start+end events, got %v", r.events)
	}
	start := r.events[0]
	if len(start.attrs) != 2 {
		t.Fatalf("expected 2 attrs on start_element, got %v", start.attrs)
	}
	end := r.events[1]
	if len(end.attrs) != 0 {
		t.Fatalf("expected end_element to report no attrs, got %v", end.attrs)
	}
}

func TestNilTableTokenizesToUnknown(t *testing.T) {
	r := mustParse(t, `<root/>`, nil)
	if r.events[0].token != tokens.Unknown {
		t.Fatalf("expected unknown token with nil table, got %v", r.events[0].token)
	}
}

func TestDeclarationAssembled(t *testing.T) {
	r := mustParse(t, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><root/>`, nil)
	if r.decl.VersionMajor != 1 || r.decl.VersionMinor != 0 {
		t.Fatalf("expected version 1.0, got %d.%d", r.decl.VersionMajor, r.decl.VersionMinor)
	}
	if r.decl.Encoding != charset.UTF8 {
		t.Fatalf("expected UTF8 encoding, got %v", r.decl.Encoding)
	}
	if !r.decl.Standalone {
		t.Fatalf("expected standalone=true")
	}
}

func TestDeclarationDefaultsWhenAbsent(t *testing.T) {
	r := mustParse(t, `<root/>`, nil)
	if r.decl.VersionMajor != 0 || r.decl.Encoding != charset.Unspecified || r.decl.Standalone {
		t.Fatalf("expected zero-value declaration with no <?xml?>, got %+v", r.decl)
	}
}

func TestCharactersPassThrough(t *testing.T) {
	r := mustParse(t, `<root>hello &amp; world</root>`, nil)
	var gotText string
	for _, e := range r.events {
		if e.kind == "text" {
			gotText = e.text
		}
	}
	if gotText != "hello & world" {
		t.Fatalf("expected decoded text, got %q", gotText)
	}
}
