package css

import "testing"

func TestBasicSelectorAndPropertyLookup(t *testing.T) {
	content := []byte(`p { color: #112233; } p.big { font-size: 12pt; }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	pSel := Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}
	props := doc.GetProperties(pSel, 0)
	if len(props) != 1 {
		t.Fatalf("expected 1 property for selector p, got %v", props)
	}
	vals := props["color"]
	if len(vals) != 1 || vals[0].String != "#112233" {
		t.Fatalf("expected color=#112233, got %+v", vals)
	}

	bigSel := Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{"big": {}}}}
	bigProps := doc.GetProperties(bigSel, 0)
	if len(bigProps) != 1 {
		t.Fatalf("expected 1 property for selector p.big, got %v", bigProps)
	}
	fsVals := bigProps["font-size"]
	if len(fsVals) != 1 || fsVals[0].String != "12pt" {
		t.Fatalf("expected font-size=12pt, got %+v", fsVals)
	}
}

func TestRGBClamping(t *testing.T) {
	content := []byte(`p { color: rgb(300, 10, 128); background: rgba(10,20,30,2.5); }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	props := doc.GetProperties(Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}, 0)

	color := props["color"]
	if len(color) != 1 || color[0].Type != ValueRGB {
		t.Fatalf("expected one RGB value, got %+v", color)
	}
	if color[0].RGBA.Red != 255 {
		t.Fatalf("expected red clamped to 255, got %d", color[0].RGBA.Red)
	}

	bg := props["background"]
	if len(bg) != 1 || bg[0].Type != ValueRGBA {
		t.Fatalf("expected one RGBA value, got %+v", bg)
	}
	if bg[0].RGBA.Alpha != 1.0 {
		t.Fatalf("expected alpha clamped to 1.0, got %v", bg[0].RGBA.Alpha)
	}
}

func TestHSLClamping(t *testing.T) {
	content := []byte(`p { color: hsl(720, 150%, -10%); }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	props := doc.GetProperties(Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}, 0)
	vals := props["color"]
	if len(vals) != 1 || vals[0].Type != ValueHSL {
		t.Fatalf("expected one HSL value, got %+v", vals)
	}
	hsl := vals[0].HSLA
	if hsl.Hue != 360 {
		t.Fatalf("expected hue clamped to 360, got %v", hsl.Hue)
	}
	if hsl.Saturation != 100 {
		t.Fatalf("expected saturation clamped to 100, got %v", hsl.Saturation)
	}
	if hsl.Lightness != 0 {
		t.Fatalf("expected lightness clamped to 0, got %v", hsl.Lightness)
	}
}

func TestPseudoElementMask(t *testing.T) {
	content := []byte(`p::before { content: "x"; } p { content: "y"; }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	sel := Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}
	before := doc.GetProperties(sel, PseudoElementBefore)
	if before["content"][0].String != "x" {
		t.Fatalf("expected ::before content=x, got %+v", before)
	}
	plain := doc.GetProperties(sel, 0)
	if plain["content"][0].String != "y" {
		t.Fatalf("expected plain content=y, got %+v", plain)
	}
}

func TestGetAllProperties(t *testing.T) {
	content := []byte(`p::before { content: "x"; } p { content: "y"; }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	sel := Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}
	all := doc.GetAllProperties(sel)
	if len(all) != 2 {
		t.Fatalf("expected 2 pseudo-element variants, got %d", len(all))
	}
}

func TestDescendantAndChildCombinators(t *testing.T) {
	content := []byte(`div p { color: red; } div > span { color: blue; }`)
	_, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func TestCommentsSkipped(t *testing.T) {
	content := []byte(`/* leading */ p /* mid */ { color: red; /* trailing */ }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	props := doc.GetProperties(Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}, 0)
	if props["color"][0].String != "red" {
		t.Fatalf("expected color=red despite comments, got %+v", props)
	}
}

func TestUnknownPseudoClassIsError(t *testing.T) {
	_, err := Load([]byte(`p:not-a-real-class { color: red; }`))
	if err == nil {
		t.Fatalf("expected an error for an unrecognized pseudo-class")
	}
}

func TestSelectorEqualityIgnoresClassOrder(t *testing.T) {
	a := SimpleSelector{Name: "p", Classes: map[string]struct{}{"a": {}, "b": {}}}
	b := SimpleSelector{Name: "p", Classes: map[string]struct{}{"b": {}, "a": {}}}
	if !a.Equal(b) {
		t.Fatalf("expected class-set equality regardless of insertion order")
	}
	if a.Key() != b.Key() {
		t.Fatalf("expected identical Key() regardless of class insertion order")
	}
}

func TestAtRuleNameRecognized(t *testing.T) {
	// At-rules are not a distinct grammar production (matching the
	// original's quirk): "@media" consumes the at-rule name, and a
	// following bare identifier like "screen" is parsed as an ordinary
	// type-name simple selector rather than a media-query condition.
	content := []byte(`@media { color: red; } screen { color: blue; }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error for at-rule content: %v", err)
	}
	props := doc.GetProperties(Selector{First: SimpleSelector{Name: "screen", Classes: map[string]struct{}{}}}, 0)
	if props["color"][0].String != "blue" {
		t.Fatalf("expected screen{color:blue}, got %+v", props)
	}
}

func TestMultipleValuesCommaSeparated(t *testing.T) {
	content := []byte(`p { font-family: Arial, sans-serif; }`)
	doc, err := Load(content)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	props := doc.GetProperties(Selector{First: SimpleSelector{Name: "p", Classes: map[string]struct{}{}}}, 0)
	vals := props["font-family"]
	if len(vals) != 2 || vals[0].String != "Arial" || vals[1].String != "sans-serif" {
		t.Fatalf("expected 2 comma-separated values, got %+v", vals)
	}
}
