package parserbase

import (
	"math"
	"testing"
)

func TestCursorBasics(t *testing.T) {
	c := NewCursor([]byte("  abc"), false)
	c.SkipSpaceAndControl()
	if c.Offset() != 2 {
		t.Fatalf("Offset() = %d, want 2", c.Offset())
	}
	if !c.ParseExpected("abc") {
		t.Fatal("ParseExpected(\"abc\") should match")
	}
	if c.HasChar() {
		t.Fatal("cursor should be exhausted")
	}
}

func TestCursorParseExpectedLeavesPositionOnMismatch(t *testing.T) {
	c := NewCursor([]byte("abc"), false)
	if c.ParseExpected("xyz") {
		t.Fatal("ParseExpected(\"xyz\") should not match")
	}
	if c.Offset() != 0 {
		t.Fatalf("Offset() = %d, want 0 after a failed match", c.Offset())
	}
}

func TestCursorNextCharChecked(t *testing.T) {
	c := NewCursor([]byte("a"), false)
	if err := c.NextCharChecked(); err != nil {
		t.Fatalf("NextCharChecked: %v", err)
	}
	if err := c.NextCharChecked(); err == nil {
		t.Fatal("expected an error at end of stream")
	}
}

func TestCursorParseDouble(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"3.14", 3.14},
		{"-2", -2},
		{"1e3", 1000},
		{"1.5e-2", 0.015},
	}
	for _, c := range cases {
		cur := NewCursor([]byte(c.in), false)
		got := cur.ParseDouble()
		if got != c.want {
			t.Errorf("ParseDouble(%q) = %v, want %v", c.in, got, c.want)
		}
		if cur.Offset() != int64(len(c.in)) {
			t.Errorf("ParseDouble(%q) left offset %d, want %d", c.in, cur.Offset(), len(c.in))
		}
	}
}

func TestCursorParseDoubleNoMatchLeavesPosition(t *testing.T) {
	cur := NewCursor([]byte("abc"), false)
	got := cur.ParseDouble()
	if !math.IsNaN(got) {
		t.Fatalf("ParseDouble(\"abc\") = %v, want NaN", got)
	}
	if cur.Offset() != 0 {
		t.Fatalf("Offset() = %d, want 0 after a failed parse", cur.Offset())
	}
}

func TestCursorParseUint8(t *testing.T) {
	cur := NewCursor([]byte("255rest"), false)
	v, ok := cur.ParseUint8()
	if !ok || v != 255 {
		t.Fatalf("ParseUint8() = (%d, %v), want (255, true)", v, ok)
	}
	if cur.Remaining() != 4 {
		t.Fatalf("Remaining() = %d, want 4", cur.Remaining())
	}
}

func TestCursorParsePercent(t *testing.T) {
	cur := NewCursor([]byte("50%"), false)
	v, ok := cur.ParsePercent()
	if !ok || v != 50 {
		t.Fatalf("ParsePercent() = (%v, %v), want (50, true)", v, ok)
	}

	cur2 := NewCursor([]byte("50"), false)
	if _, ok := cur2.ParsePercent(); ok {
		t.Fatal("ParsePercent() should fail without a trailing '%'")
	}
	if cur2.Offset() != 0 {
		t.Fatalf("Offset() = %d, want 0 after a failed percent parse", cur2.Offset())
	}
}

func TestDecodeEntity(t *testing.T) {
	cases := map[string]string{
		"lt":    "<",
		"gt":    ">",
		"amp":   "&",
		"apos":  "'",
		"quot":  "\"",
		"#65":   "A",
		"#x41":  "A",
		"#X41":  "A",
	}
	for in, want := range cases {
		got, ok := DecodeEntity(in)
		if !ok {
			t.Errorf("DecodeEntity(%q) failed, want %q", in, want)
			continue
		}
		if string(got) != want {
			t.Errorf("DecodeEntity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeEntityRejectsUnknown(t *testing.T) {
	for _, in := range []string{"nbsp", "#xZZZ", "#", "#x110000"} {
		if _, ok := DecodeEntity(in); ok {
			t.Errorf("DecodeEntity(%q) should fail", in)
		}
	}
}

func TestCellBufferStack(t *testing.T) {
	var s CellBufferStack
	outer := s.Push()
	outer.AppendString("outer")

	inner := s.Push()
	inner.AppendString("inner")

	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
	if got := string(s.Top().Bytes()); got != "inner" {
		t.Fatalf("Top() = %q, want %q", got, "inner")
	}

	s.Pop()
	if got := string(s.Top().Bytes()); got != "outer" {
		t.Fatalf("Top() after Pop = %q, want %q", got, "outer")
	}

	s.Pop()
	if s.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", s.Depth())
	}
	if s.Top() != nil {
		t.Fatal("Top() on an empty stack should be nil")
	}
}

func TestCellBufferAppendOffsets(t *testing.T) {
	var b CellBuffer
	start1, end1 := b.AppendString("abc")
	start2, end2 := b.AppendString("de")
	if start1 != 0 || end1 != 3 || start2 != 3 || end2 != 5 {
		t.Fatalf("unexpected offsets: %d,%d %d,%d", start1, end1, start2, end2)
	}
	if got := b.String(start2, end2); got != "de" {
		t.Fatalf("String(3,5) = %q, want %q", got, "de")
	}
}

func TestXMLNameChars(t *testing.T) {
	if !IsASCIINameStartChar('_') || !IsASCIINameStartChar('a') {
		t.Fatal("'_' and 'a' should be valid name-start chars")
	}
	if IsASCIINameStartChar('0') {
		t.Fatal("'0' should not be a valid name-start char")
	}
	if !IsASCIINameChar('0') || !IsASCIINameChar('-') || !IsASCIINameChar('.') {
		t.Fatal("'0', '-', '.' should be valid non-initial name chars")
	}
	if !IsNameStartChar(rune(0xC0)) {
		t.Fatal("U+00C0 should be a valid name-start char")
	}
	if IsNameStartChar(rune(0x2000)) {
		t.Fatal("U+2000 should not be a valid name-start char")
	}
}
