// Package parserbase implements the L0 layer: a byte cursor shared by every
// higher parser, encoded-character decoding, numeric/identifier scanning,
// and the cell-buffer pool used whenever a callback value can't be returned
// as a zero-copy view of the input.
//
// Grounded on original_source/include/orcus/parser_base.hpp (Cursor's
// begin/cur/end invariant, skip_space_and_control, parse_expected,
// parse_double) and idiom-wise on cuelang.org/go/cue/scanner's byte-offset
// bookkeeping (explicit offset fields rather than re-deriving position from
// pointer arithmetic, since Go slices don't support that).
package parserbase

import (
	"math"
	"strconv"

	orcuserr "github.com/orcus-go/orcus/errors"
)

// Cursor is a read-only walk over a byte buffer. It owns three logical
// pointers — begin, cur, end — with the invariant begin <= cur <= end,
// exactly as described in §3 ("Byte cursor"). TransientStream records
// whether callers may assume the backing buffer outlives any callback
// invoked during the walk.
type Cursor struct {
	buf             []byte
	pos             int
	transientStream bool
}

// NewCursor creates a cursor over buf. transientStream should be false when
// the buffer is guaranteed to outlive the callbacks invoked during parsing
// (letting callees hold zero-copy substrings); true when the buffer may be
// reused or freed before a callback returns, forcing callees to copy.
func NewCursor(buf []byte, transientStream bool) *Cursor {
	return &Cursor{buf: buf, transientStream: transientStream}
}

// TransientStream reports whether the input buffer may not outlive a
// callback invocation.
func (c *Cursor) TransientStream() bool { return c.transientStream }

// HasChar reports whether the cursor is not yet at the end of the buffer.
func (c *Cursor) HasChar() bool { return c.pos < len(c.buf) }

// CurChar returns the byte at the current position. Only valid when
// HasChar() is true.
func (c *Cursor) CurChar() byte { return c.buf[c.pos] }

// Offset returns the current offset from the beginning of the stream.
func (c *Cursor) Offset() int64 { return int64(c.pos) }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Next advances the cursor by n bytes without bounds checking beyond the
// buffer length; callers that need a guaranteed-in-bounds character should
// use NextCharChecked.
func (c *Cursor) Next(n int) { c.pos += n }

// Remaining returns the number of bytes from the current position
// (inclusive) to the end of the buffer.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Slice returns the raw bytes between [from, c.pos).
func (c *Cursor) Slice(from int) []byte { return c.buf[from:c.pos] }

// SliceTo returns the raw bytes between [from, to).
func (c *Cursor) SliceTo(from, to int) []byte { return c.buf[from:to] }

// NextCharChecked advances the cursor by one byte, returning a ParseError if
// the cursor is already at the end of the stream.
func (c *Cursor) NextCharChecked() error {
	if !c.HasChar() {
		return orcuserr.NewParseError("unexpected end of stream", c.Offset())
	}
	c.pos++
	return nil
}

// SkipSpaceAndControl skips all bytes <= 0x20, per §4.1.
func (c *Cursor) SkipSpaceAndControl() {
	for c.HasChar() && c.buf[c.pos] <= 0x20 {
		c.pos++
	}
}

// ParseExpected reports whether the bytes starting at the current position
// match literal exactly; on success it advances past the match, on failure
// it leaves the cursor untouched.
func (c *Cursor) ParseExpected(literal string) bool {
	if c.Remaining() < len(literal) {
		return false
	}
	if string(c.buf[c.pos:c.pos+len(literal)]) != literal {
		return false
	}
	c.pos += len(literal)
	return true
}

// ParseDouble attempts to parse an IEEE-754 double starting at the current
// position. On success it advances past the matched text and returns the
// value; on failure it leaves the cursor untouched and returns NaN, per
// §4.1 ("parse_double ... returns NaN on failure without advancing").
func (c *Cursor) ParseDouble() float64 {
	start := c.pos
	p := c.pos
	n := len(c.buf)

	if p < n && (c.buf[p] == '+' || c.buf[p] == '-') {
		p++
	}
	digitsStart := p
	for p < n && isDigit(c.buf[p]) {
		p++
	}
	if p < n && c.buf[p] == '.' {
		p++
		for p < n && isDigit(c.buf[p]) {
			p++
		}
	}
	if p == digitsStart || (p == digitsStart+1 && c.buf[digitsStart] == '.') {
		return math.NaN()
	}
	if p < n && (c.buf[p] == 'e' || c.buf[p] == 'E') {
		expEnd := p + 1
		if expEnd < n && (c.buf[expEnd] == '+' || c.buf[expEnd] == '-') {
			expEnd++
		}
		digitStart := expEnd
		for expEnd < n && isDigit(c.buf[expEnd]) {
			expEnd++
		}
		if expEnd > digitStart {
			p = expEnd
		}
	}

	text := string(c.buf[start:p])
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	c.pos = p
	return val
}

// ParseUint8 attempts to parse an unsigned 8-bit integer (0-255) starting at
// the current position, advancing past the matched digits on success.
func (c *Cursor) ParseUint8() (uint8, bool) {
	start := c.pos
	p := c.pos
	n := len(c.buf)
	for p < n && isDigit(c.buf[p]) {
		p++
	}
	if p == start {
		return 0, false
	}
	val, err := strconv.ParseUint(string(c.buf[start:p]), 10, 16)
	if err != nil || val > 255 {
		if val > 255 {
			val = 255
		} else {
			return 0, false
		}
	}
	c.pos = p
	return uint8(val), true
}

// ParsePercent attempts to parse a number immediately followed by '%',
// returning the numeric value (not divided by 100) and whether a percent
// sign was actually consumed.
func (c *Cursor) ParsePercent() (float64, bool) {
	start := c.pos
	val := c.ParseDouble()
	if c.pos == start || math.IsNaN(val) {
		c.pos = start
		return 0, false
	}
	if !c.HasChar() || c.CurChar() != '%' {
		c.pos = start
		return 0, false
	}
	c.pos++
	return val, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
