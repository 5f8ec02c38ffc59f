// Package charset implements the closed character_set_t enumeration of §6
// ("Character sets") plus the decoder lookup needed to transcode a
// non-UTF-8-declared XML stream to UTF-8 before it reaches parserbase.
//
// Grounded on original_source/include/orcus/types.hpp (the character_set_t
// enum) and orcus_xml.cpp's `attribute("encoding", ...)` handler, which maps
// the XML declaration's encoding name to this enum via
// get_global_settings().set_character_set(). golang.org/x/text/encoding and
// golang.org/x/text/encoding/ianaindex are the concrete libraries doing the
// IANA name resolution and the byte-for-byte transcoding; both packages are
// drawn from the retrieval pack's cjdwd-drug_fpn_lstm_vqa/eutils module,
// whose go.mod requires golang.org/x/text.
package charset

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// T is the closed enumeration of IANA character sets relevant to XML
// declarations. An unrecognized name maps to Unspecified rather than
// failing the parse (§6).
type T int

const (
	Unspecified T = iota
	UTF8
	UTF16LE
	UTF16BE
	ISO8859_1
	ISO8859_2
	ISO8859_15
	WindowsCP1252
	WindowsCP1250
	ShiftJIS
	EUCJP
	GB2312
	Big5
	KOI8R
	ASCII
)

var names = map[string]T{
	"utf-8":          UTF8,
	"utf8":            UTF8,
	"utf-16le":        UTF16LE,
	"utf-16be":        UTF16BE,
	"iso-8859-1":      ISO8859_1,
	"latin1":          ISO8859_1,
	"iso-8859-2":      ISO8859_2,
	"iso-8859-15":     ISO8859_15,
	"windows-1252":    WindowsCP1252,
	"cp1252":          WindowsCP1252,
	"windows-1250":    WindowsCP1250,
	"shift_jis":       ShiftJIS,
	"shift-jis":       ShiftJIS,
	"sjis":            ShiftJIS,
	"euc-jp":          EUCJP,
	"gb2312":          GB2312,
	"big5":            Big5,
	"koi8-r":          KOI8R,
	"us-ascii":        ASCII,
	"ascii":           ASCII,
}

// Parse maps an IANA charset alias (as it would appear in an
// `<?xml encoding="...">` declaration) to its closed T value. Unknown names,
// including the empty string, map to Unspecified without error, per §6.
func Parse(name string) T {
	if t, ok := names[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return Unspecified
}

var canonicalNames = map[T]string{
	UTF8:          "utf-8",
	UTF16LE:       "utf-16le",
	UTF16BE:       "utf-16be",
	ISO8859_1:     "iso-8859-1",
	ISO8859_2:     "iso-8859-2",
	ISO8859_15:    "iso-8859-15",
	WindowsCP1252: "windows-1252",
	WindowsCP1250: "windows-1250",
	ShiftJIS:      "shift_jis",
	EUCJP:         "euc-jp",
	GB2312:        "gb2312",
	Big5:          "big5",
	KOI8R:         "koi8-r",
	ASCII:         "us-ascii",
}

// String renders the canonical IANA name for t, or "unspecified". Several
// aliases in names map to the same T (e.g. "utf-8"/"utf8"); canonicalNames
// picks one deterministically rather than depending on map iteration order.
func (t T) String() string {
	if name, ok := canonicalNames[t]; ok {
		return name
	}
	return "unspecified"
}

// NewDecoder returns an io.Reader that transcodes src from the character set
// named by raw (an `encoding` attribute value from an XML declaration) to
// UTF-8. When raw is empty, unrecognized, or already a UTF-8 family, src is
// returned unchanged — this mirrors §6's "unknown names map to unspecified
// without failing the parse": a decode failure here is never fatal to the
// surrounding parse, only a no-op transcode.
func NewDecoder(raw string, src io.Reader) io.Reader {
	t := Parse(raw)
	if t == Unspecified || t == UTF8 || t == ASCII {
		return src
	}

	enc, err := ianaindex.IANA.Encoding(t.String())
	if err != nil || enc == nil {
		return src
	}

	return &transformReader{r: src, dec: enc.NewDecoder()}
}

// transformReader buffers decoded output in pending because a transcoded
// chunk can be longer than the raw chunk read to produce it, so one Read
// on the underlying source can yield more bytes than the caller's buffer
// can hold in a single call.
type transformReader struct {
	r       io.Reader
	dec     *encoding.Decoder
	pending []byte
	eof     error
}

func (t *transformReader) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		if t.eof != nil {
			return 0, t.eof
		}
		raw := make([]byte, len(p))
		n, err := t.r.Read(raw)
		if n == 0 {
			return 0, err
		}
		out, decErr := t.dec.Bytes(raw[:n])
		if decErr != nil {
			// Transcoding failures fall back to the raw bytes: an
			// unrecognized byte sequence is not a reason to abort the
			// surrounding XML parse, it is a reason to let the cursor's
			// own UTF-8 validation deal with it downstream.
			t.pending = raw[:n]
		} else {
			t.pending = out
		}
		t.eof = err
	}

	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}
